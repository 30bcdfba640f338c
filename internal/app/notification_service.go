package app

import (
	"context"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService keeps each user's inbox. Other services fan events out
// through Notify; delivery is best effort and never fails the caller.
type NotificationService struct {
	store  NotificationStore
	now    func() time.Time
	logger *zap.Logger
}

func NewNotificationService(store NotificationStore, logger *zap.Logger, opts ...Option) *NotificationService {
	o := buildOptions(opts)
	return &NotificationService{store: store, now: o.now, logger: logger}
}

// Notice is the payload fanned out to a set of users.
type Notice struct {
	Message string
	QuizID  string
	ClassID string
}

// Notify writes one notification per distinct recipient. A nil service is a no-op.
func (s *NotificationService) Notify(ctx context.Context, userIDs []string, notice Notice) {
	if s == nil || len(userIDs) == 0 {
		return
	}
	now := s.now()
	seen := make(map[string]bool, len(userIDs))
	batch := make([]domain.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		batch = append(batch, domain.Notification{
			ID:        uuid.NewString(),
			UserID:    id,
			Message:   notice.Message,
			QuizID:    notice.QuizID,
			ClassID:   notice.ClassID,
			CreatedAt: now,
		})
	}
	if err := s.store.CreateNotifications(ctx, batch); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.Int("recipients", len(batch)),
			zap.String("quizId", notice.QuizID),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("notifications delivered", zap.Int("recipients", len(batch)), zap.String("quizId", notice.QuizID))
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor domain.Actor) ([]domain.Notification, error) {
	return s.store.ListNotifications(ctx, actor.ID)
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id string) (domain.Notification, error) {
	n, err := s.store.FindNotification(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}
	if n.UserID != actor.ID {
		return domain.Notification{}, domain.ErrForbidden
	}
	if n.Read {
		return n, nil
	}
	return s.store.MarkNotificationRead(ctx, id)
}

// MarkAllRead flags every unread notification of the actor and returns the count.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, actor.ID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("notifications marked read", zap.String("userId", actor.ID), zap.Int64("count", n))
	return n, nil
}
