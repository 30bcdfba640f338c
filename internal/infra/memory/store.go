package memory

import (
	"context"
	"sort"
	"sync"

	"classroom-quiz-service/internal/domain"
)

// Store is an in-memory implementation of the quiz, class, user and
// notification stores.
// Every read returns a copy so callers never alias stored slices.
type Store struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	classes map[string]domain.Class
	users   map[string]domain.User

	notifications map[string]domain.Notification
}

func NewStore() *Store {
	return &Store{
		quizzes: make(map[string]domain.Quiz),
		classes: make(map[string]domain.Class),
		users:   make(map[string]domain.User),

		notifications: make(map[string]domain.Notification),
	}
}

func (s *Store) FindQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *Store) ListQuizzesByClass(_ context.Context, classID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0)
	for _, quiz := range s.quizzes {
		if quiz.ClassID == classID {
			quizzes = append(quizzes, quiz.Clone())
		}
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].TestDate.Equal(quizzes[j].TestDate) {
			return quizzes[i].TestDate.After(quizzes[j].TestDate)
		}
		return quizzes[i].ID < quizzes[j].ID
	})
	return quizzes, nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz.Version == 0 {
		quiz.Version = 1
	}
	stored := quiz.Clone()
	s.quizzes[quiz.ID] = stored
	return stored.Clone(), nil
}

// SaveQuiz is a compare-and-swap on the quiz version.
func (s *Store) SaveQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if current.Version != quiz.Version {
		return domain.Quiz{}, domain.ErrVersionConflict
	}
	stored := quiz.Clone()
	stored.Version++
	s.quizzes[quiz.ID] = stored
	return stored.Clone(), nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}

func (s *Store) FindClass(_ context.Context, classID string) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	class, ok := s.classes[classID]
	if !ok {
		return domain.Class{}, domain.ErrClassNotFound
	}
	return cloneClass(class), nil
}

func (s *Store) FindClassByJoinCode(_ context.Context, code string) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, class := range s.classes {
		if class.JoinCode == code {
			return cloneClass(class), nil
		}
	}
	return domain.Class{}, domain.ErrClassNotFound
}

func (s *Store) ListClassesForUser(_ context.Context, userID string) ([]domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	classes := make([]domain.Class, 0)
	for _, class := range s.classes {
		if class.HasStudent(userID) || class.HasMentor(userID) {
			classes = append(classes, cloneClass(class))
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].CreatedAt.Before(classes[j].CreatedAt)
	})
	return classes, nil
}

func (s *Store) CreateClass(_ context.Context, class domain.Class) (domain.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.classes {
		if existing.JoinCode == class.JoinCode {
			return domain.Class{}, domain.ErrJoinCodeTaken
		}
	}
	s.classes[class.ID] = cloneClass(class)
	return cloneClass(class), nil
}

func (s *Store) AddStudent(_ context.Context, classID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	class, ok := s.classes[classID]
	if !ok {
		return domain.ErrClassNotFound
	}
	if class.HasStudent(userID) || class.HasMentor(userID) {
		return domain.ErrAlreadyMember
	}
	class = cloneClass(class)
	class.Students = append(class.Students, userID)
	s.classes[classID] = class
	return nil
}

func (s *Store) FindUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return domain.User{}, domain.ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	return user, nil
}

// SetUserStatus changes an account status; used by tests and admin tooling.
func (s *Store) SetUserStatus(_ context.Context, userID string, status domain.UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Status = status
	s.users[userID] = user
	return nil
}

func cloneClass(c domain.Class) domain.Class {
	out := c
	out.Mentors = append([]string{}, c.Mentors...)
	out.Students = append([]string{}, c.Students...)
	return out
}

func (s *Store) CreateNotifications(_ context.Context, notifications []domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range notifications {
		s.notifications[n.ID] = n
	}
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID string) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) FindNotification(_ context.Context, id string) (domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return domain.Notification{}, domain.ErrNotificationNotFound
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return domain.Notification{}, domain.ErrNotificationNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return n, nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped int64
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.notifications[id] = n
			flipped++
		}
	}
	return flipped, nil
}
