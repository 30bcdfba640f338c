package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/metrics"
	"go.uber.org/zap"
)

// Submission is a student's finished attempt as reported by the client.
type Submission struct {
	QuizID    string
	StudentID string
	Score     float64
	TimeTaken int64
}

// LeaderboardService accepts quiz attempts and keeps each quiz's ranking.
type LeaderboardService struct {
	mutator    *quizMutator
	loader     *LeaderboardLoader
	enrollment *Enrollment
	notifier   *NotificationService
	cache      LeaderboardCache
	now        func() time.Time
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewLeaderboardService(quizzes QuizStore, users UserStore, enrollment *Enrollment, locker QuizLocker, cache LeaderboardCache, logger *zap.Logger, opts ...Option) *LeaderboardService {
	o := buildOptions(opts)
	return &LeaderboardService{
		mutator: &quizMutator{
			quizzes: quizzes,
			locker:  locker,
			cache:   cache,
			retries: o.retries,
			logger:  logger,
			metrics: o.metrics,
		},
		loader:     NewLeaderboardLoader(quizzes, users),
		enrollment: enrollment,
		notifier:   o.notifier,
		cache:      cache,
		now:        o.now,
		logger:     logger,
		metrics:    o.metrics,
	}
}

// SubmitAttempt records the student's attempt and returns their rank.
//
// Checks run in order: quiz exists, window open, student enrolled, no earlier
// attempt. Any failure leaves the quiz untouched.
func (s *LeaderboardService) SubmitAttempt(ctx context.Context, sub Submission) (int, error) {
	if sub.Score < 0 || sub.TimeTaken < 0 {
		s.observeFailure(sub, domain.ErrInvalidAttempt)
		return 0, domain.ErrInvalidAttempt
	}

	var class domain.Class
	saved, err := s.mutator.mutate(ctx, sub.QuizID, func(quiz *domain.Quiz) error {
		now := s.now()
		if !quiz.Window().Contains(now) {
			return domain.ErrQuizNotActive
		}

		var err error
		class, err = s.enrollment.Class(ctx, quiz.ClassID)
		if err != nil {
			return err
		}
		if !class.HasStudent(sub.StudentID) {
			return domain.ErrNotEnrolled
		}

		if _, ok := quiz.AttemptBy(sub.StudentID); ok {
			return domain.ErrAlreadySubmitted
		}

		quiz.Leaderboard = append(quiz.Leaderboard, domain.Attempt{
			StudentID:   sub.StudentID,
			Score:       sub.Score,
			TimeTaken:   sub.TimeTaken,
			SubmittedAt: now,
		})
		domain.RankAttempts(quiz.Leaderboard)
		quiz.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.observeFailure(sub, err)
		return 0, err
	}

	attempt, ok := saved.AttemptBy(sub.StudentID)
	if !ok {
		return 0, fmt.Errorf("attempt for %s missing after save", sub.StudentID)
	}
	s.metrics.ObserveSubmission("accepted")
	s.logger.Info("quiz attempt submitted",
		zap.String("quizId", sub.QuizID),
		zap.String("studentId", sub.StudentID),
		zap.Int("rank", attempt.Rank),
		zap.Int("entries", len(saved.Leaderboard)),
	)
	s.notifier.Notify(ctx, class.Owners(), Notice{
		Message: fmt.Sprintf("A student submitted %q and ranked %d of %d", saved.Name, attempt.Rank, len(saved.Leaderboard)),
		QuizID:  saved.ID,
		ClassID: saved.ClassID,
	})
	return attempt.Rank, nil
}

// Leaderboard returns the ranked entries for a quiz.
func (s *LeaderboardService) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	if s.cache == nil {
		return s.loader.LoadLeaderboard(ctx, quizID)
	}
	return s.cache.GetLeaderboard(ctx, quizID)
}

// LeaderboardLoader builds display leaderboards straight from the stores.
// Caches call it on a miss.
type LeaderboardLoader struct {
	quizzes QuizStore
	users   UserStore
}

func NewLeaderboardLoader(quizzes QuizStore, users UserStore) *LeaderboardLoader {
	return &LeaderboardLoader{quizzes: quizzes, users: users}
}

// LoadLeaderboard annotates the stored ranking with usernames. Unknown users
// keep an empty username.
func (l *LeaderboardLoader) LoadLeaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	quiz, err := l.quizzes.FindQuiz(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(quiz.Leaderboard))
	for _, attempt := range quiz.Leaderboard {
		entry := domain.LeaderboardEntry{
			Rank:      attempt.Rank,
			StudentID: attempt.StudentID,
			Score:     attempt.Score,
			TimeTaken: attempt.TimeTaken,
		}
		if l.users != nil {
			user, err := l.users.FindUser(ctx, attempt.StudentID)
			switch {
			case err == nil:
				entry.Username = user.Username
			case !errors.Is(err, domain.ErrUserNotFound):
				return domain.Leaderboard{}, err
			}
		}
		entries = append(entries, entry)
	}
	return domain.Leaderboard{QuizID: quiz.ID, Entries: entries, UpdatedAt: quiz.UpdatedAt}, nil
}

func (s *LeaderboardService) observeFailure(sub Submission, err error) {
	fields := []zap.Field{
		zap.String("quizId", sub.QuizID),
		zap.String("studentId", sub.StudentID),
		zap.Error(err),
	}
	outcome := submissionOutcome(err)
	s.metrics.ObserveSubmission(outcome)
	if outcome == "error" {
		s.logger.Error("quiz attempt failed", fields...)
		return
	}
	s.logger.Warn("quiz attempt rejected", append(fields, zap.String("reason", outcome))...)
}

func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrClassNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrQuizNotActive):
		return "window_closed"
	case errors.Is(err, domain.ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, domain.ErrAlreadySubmitted):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidAttempt):
		return "invalid"
	default:
		return "error"
	}
}
