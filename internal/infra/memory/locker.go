package memory

import (
	"context"
	"sync"
)

// QuizLocker is an in-process lock keyed by quiz ID. Different quizzes never
// contend; entries are dropped once no goroutine holds or waits on them.
type QuizLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	held chan struct{}
	refs int
}

func NewQuizLocker() *QuizLocker {
	return &QuizLocker{locks: make(map[string]*lockEntry)}
}

// Lock blocks until the quiz lock is acquired or ctx is done.
func (l *QuizLocker) Lock(ctx context.Context, quizID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[quizID]
	if !ok {
		entry = &lockEntry{held: make(chan struct{}, 1)}
		l.locks[quizID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.held <- struct{}{}:
	case <-ctx.Done():
		l.release(quizID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.held
			l.release(quizID, entry)
		})
	}, nil
}

func (l *QuizLocker) release(quizID string, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, quizID)
	}
}

func (l *QuizLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
