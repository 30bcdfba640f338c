package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuizInput carries the fields of a new quiz.
type QuizInput struct {
	ClassID         string
	Name            string
	Description     string
	QuestionIDs     []string
	TestDate        time.Time
	DurationMinutes int
	StartTime       time.Time
	EndTime         time.Time
}

// QuizPatch lists the editable fields; nil means unchanged. Class, creator and
// leaderboard are never patched.
type QuizPatch struct {
	Name            *string
	Description     *string
	QuestionIDs     *[]string
	TestDate        *time.Time
	DurationMinutes *int
	StartTime       *time.Time
	EndTime         *time.Time
}

// QuizService manages the quiz lifecycle for mentors and admins.
type QuizService struct {
	mutator  *quizMutator
	quizzes  QuizStore
	classes  ClassStore
	locker   QuizLocker
	notifier *NotificationService
	now      func() time.Time
	logger   *zap.Logger
}

func NewQuizService(quizzes QuizStore, classes ClassStore, locker QuizLocker, cache LeaderboardCache, logger *zap.Logger, opts ...Option) *QuizService {
	o := buildOptions(opts)
	return &QuizService{
		mutator: &quizMutator{
			quizzes: quizzes,
			locker:  locker,
			cache:   cache,
			retries: o.retries,
			logger:  logger,
			metrics: o.metrics,
		},
		quizzes:  quizzes,
		classes:  classes,
		locker:   locker,
		notifier: o.notifier,
		now:      o.now,
		logger:   logger,
	}
}

// Create stores a new quiz with an empty leaderboard. Mentors must mentor (or
// have created) the class; admins may target any existing class.
func (s *QuizService) Create(ctx context.Context, actor domain.Actor, in QuizInput) (domain.Quiz, error) {
	if !domain.CanAuthor(actor) {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if strings.TrimSpace(in.ClassID) == "" || strings.TrimSpace(in.Name) == "" {
		return domain.Quiz{}, domain.ErrInvalidInput
	}
	if !(domain.Window{Opens: in.StartTime, Closes: in.EndTime}).Valid() {
		return domain.Quiz{}, domain.ErrInvalidWindow
	}

	class, err := s.classes.FindClass(ctx, in.ClassID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !domain.CanManage(actor, class.Owners()...) {
		return domain.Quiz{}, domain.ErrForbidden
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:              uuid.NewString(),
		ClassID:         class.ID,
		CreatedBy:       actor.ID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		QuestionIDs:     append([]string{}, in.QuestionIDs...),
		TestDate:        in.TestDate,
		DurationMinutes: in.DurationMinutes,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Leaderboard:     []domain.Attempt{},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := s.quizzes.CreateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz created", zap.String("quizId", created.ID), zap.String("classId", created.ClassID), zap.String("actorId", actor.ID))
	s.notifier.Notify(ctx, class.Students, Notice{
		Message: fmt.Sprintf("New quiz %q in %s opens %s", created.Name, class.Name, created.StartTime.Format(time.RFC3339)),
		QuizID:  created.ID,
		ClassID: class.ID,
	})
	return created, nil
}

// Get returns a quiz by id.
func (s *QuizService) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.FindQuiz(ctx, quizID)
}

// ListByClass returns the class's quizzes, newest test date first.
func (s *QuizService) ListByClass(ctx context.Context, classID string) ([]domain.Quiz, error) {
	if _, err := s.classes.FindClass(ctx, classID); err != nil {
		return nil, err
	}
	return s.quizzes.ListQuizzesByClass(ctx, classID)
}

// Update applies patch for an admin or the quiz creator. It shares the
// submission lock so a concurrent attempt is never lost.
func (s *QuizService) Update(ctx context.Context, quizID string, actor domain.Actor, patch QuizPatch) (domain.Quiz, error) {
	updated, err := s.mutator.mutate(ctx, quizID, func(quiz *domain.Quiz) error {
		if !domain.CanManage(actor, quiz.CreatedBy) {
			return domain.ErrForbidden
		}
		applyPatch(quiz, patch)
		if strings.TrimSpace(quiz.Name) == "" {
			return domain.ErrInvalidInput
		}
		if !quiz.Window().Valid() {
			return domain.ErrInvalidWindow
		}
		quiz.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz updated", zap.String("quizId", quizID), zap.String("actorId", actor.ID))
	return updated, nil
}

// Delete removes the quiz and its whole leaderboard for an admin or the creator.
func (s *QuizService) Delete(ctx context.Context, quizID string, actor domain.Actor) error {
	unlock, err := s.locker.Lock(ctx, quizID)
	if err != nil {
		return err
	}
	defer unlock()

	quiz, err := s.quizzes.FindQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if !domain.CanManage(actor, quiz.CreatedBy) {
		return domain.ErrForbidden
	}
	if err := s.quizzes.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.mutator.invalidate(ctx, quizID)
	s.logger.Info("quiz deleted", zap.String("quizId", quizID), zap.String("actorId", actor.ID), zap.Int("attempts", len(quiz.Leaderboard)))
	return nil
}

func applyPatch(quiz *domain.Quiz, patch QuizPatch) {
	if patch.Name != nil {
		quiz.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		quiz.Description = *patch.Description
	}
	if patch.QuestionIDs != nil {
		quiz.QuestionIDs = append([]string{}, (*patch.QuestionIDs)...)
	}
	if patch.TestDate != nil {
		quiz.TestDate = *patch.TestDate
	}
	if patch.DurationMinutes != nil {
		quiz.DurationMinutes = *patch.DurationMinutes
	}
	if patch.StartTime != nil {
		quiz.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		quiz.EndTime = *patch.EndTime
	}
}
