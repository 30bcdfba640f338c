package app

import (
	"context"

	"classroom-quiz-service/internal/domain"
)

// QuizStore persists quizzes together with their leaderboard.
type QuizStore interface {
	FindQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzesByClass(ctx context.Context, classID string) ([]domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	// SaveQuiz writes quiz if the stored version still equals quiz.Version and
	// returns it with the bumped version; otherwise it fails with
	// domain.ErrVersionConflict and leaves the stored quiz untouched.
	SaveQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID string) error
}

// ClassStore persists classes and their membership.
type ClassStore interface {
	FindClass(ctx context.Context, classID string) (domain.Class, error)
	FindClassByJoinCode(ctx context.Context, code string) (domain.Class, error)
	ListClassesForUser(ctx context.Context, userID string) ([]domain.Class, error)
	// CreateClass fails with domain.ErrJoinCodeTaken when the join code collides.
	CreateClass(ctx context.Context, class domain.Class) (domain.Class, error)
	// AddStudent fails with domain.ErrAlreadyMember when userID already belongs to the class.
	AddStudent(ctx context.Context, classID, userID string) error
}

// UserStore persists accounts.
type UserStore interface {
	FindUser(ctx context.Context, userID string) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	// CreateUser fails with domain.ErrEmailTaken for a duplicate email.
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) error
}

// NotificationStore persists user inboxes.
type NotificationStore interface {
	CreateNotifications(ctx context.Context, notifications []domain.Notification) error
	// ListNotifications returns the user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
	FindNotification(ctx context.Context, id string) (domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (domain.Notification, error)
	// MarkAllNotificationsRead returns how many unread notifications it flipped.
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
}

// QuizLocker serializes read-modify-write cycles per quiz (in-process or distributed).
type QuizLocker interface {
	Lock(ctx context.Context, quizID string) (unlock func(), err error)
}

// LeaderboardCache serves ranked leaderboards (memory, Redis, etc).
type LeaderboardCache interface {
	GetLeaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error)
	Invalidate(ctx context.Context, quizID string) error
}
