package domain

import "time"

// Window is the inclusive [Opens, Closes] interval in which submissions are accepted.
type Window struct {
	Opens  time.Time
	Closes time.Time
}

// Valid reports whether the window opens no later than it closes.
func (w Window) Valid() bool {
	return !w.Closes.Before(w.Opens)
}

// Contains reports whether t lies inside the window; both bounds are open for submission.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Opens) && !t.After(w.Closes)
}
