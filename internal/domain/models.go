package domain

import "time"

// Role is the account role carried in tokens.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMentor  Role = "mentor"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleStudent:
		return true
	}
	return false
}

// UserStatus gates access for authenticated requests.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
)

// User is a platform account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	PhoneNumber  string     `json:"phoneNumber"`
	Image        string     `json:"image,omitempty"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Actor identifies who performs an operation.
type Actor struct {
	ID   string
	Role Role
}

// Class groups mentors and students; students join with the join code.
type Class struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	JoinCode    string    `json:"joinCode"`
	CreatedBy   string    `json:"createdBy"`
	Mentors     []string  `json:"mentors"`
	Students    []string  `json:"students"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasStudent reports whether userID is enrolled as a student.
func (c Class) HasStudent(userID string) bool {
	return contains(c.Students, userID)
}

// HasMentor reports whether userID mentors the class.
func (c Class) HasMentor(userID string) bool {
	return contains(c.Mentors, userID)
}

// Owners returns the users allowed to manage the class.
func (c Class) Owners() []string {
	owners := make([]string, 0, len(c.Mentors)+1)
	owners = append(owners, c.CreatedBy)
	return append(owners, c.Mentors...)
}

// Attempt is one student's scored submission; Rank is recomputed on every change.
type Attempt struct {
	StudentID   string    `json:"studentId"`
	Score       float64   `json:"score"`
	TimeTaken   int64     `json:"timeTaken"`
	Rank        int       `json:"rank"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Quiz is a scheduled weekly quiz and its leaderboard.
type Quiz struct {
	ID              string    `json:"id"`
	ClassID         string    `json:"classId"`
	CreatedBy       string    `json:"createdBy"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	QuestionIDs     []string  `json:"questions"`
	TestDate        time.Time `json:"testDate"`
	DurationMinutes int       `json:"durationMinutes"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Leaderboard     []Attempt `json:"leaderboard"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Window returns the submission window of the quiz.
func (q Quiz) Window() Window {
	return Window{Opens: q.StartTime, Closes: q.EndTime}
}

// AttemptBy returns the attempt submitted by studentID, if any.
func (q Quiz) AttemptBy(studentID string) (Attempt, bool) {
	for _, a := range q.Leaderboard {
		if a.StudentID == studentID {
			return a, true
		}
	}
	return Attempt{}, false
}

// Clone returns a copy that shares no slices with q.
func (q Quiz) Clone() Quiz {
	out := q
	out.QuestionIDs = append([]string(nil), q.QuestionIDs...)
	out.Leaderboard = append([]Attempt(nil), q.Leaderboard...)
	return out
}

// LeaderboardEntry is an attempt annotated for display.
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	StudentID string  `json:"studentId"`
	Username  string  `json:"username"`
	Score     float64 `json:"score"`
	TimeTaken int64   `json:"timeTaken"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Notification is a message shown in a user's inbox.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	QuizID    string    `json:"quizId,omitempty"`
	ClassID   string    `json:"classId,omitempty"`
	Read      bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
