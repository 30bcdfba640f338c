package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const defaultSubmitRetries = 5

// quizMutator runs a read-modify-write cycle on one quiz under the per-quiz
// lock, retrying on version conflicts with a fresh read each time.
type quizMutator struct {
	quizzes QuizStore
	locker  QuizLocker
	cache   LeaderboardCache
	retries int
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// mutate loads the quiz, applies fn and saves the result. An error from fn or
// from loading aborts without writing anything.
func (m *quizMutator) mutate(ctx context.Context, quizID string, fn func(*domain.Quiz) error) (domain.Quiz, error) {
	unlock, err := m.locker.Lock(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("lock quiz %s: %w", quizID, err)
	}
	defer unlock()

	var (
		saved domain.Quiz
		tries int
	)
	err = backoff.Retry(func() error {
		if tries > 0 {
			m.metrics.ObserveRetry()
		}
		tries++

		quiz, err := m.quizzes.FindQuiz(ctx, quizID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := fn(&quiz); err != nil {
			return backoff.Permanent(err)
		}
		saved, err = m.quizzes.SaveQuiz(ctx, quiz)
		if errors.Is(err, domain.ErrVersionConflict) {
			m.logger.Debug("quiz version conflict, retrying", zap.String("quizId", quizID), zap.Int("try", tries))
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, m.policy(ctx))
	if errors.Is(err, domain.ErrVersionConflict) {
		return domain.Quiz{}, fmt.Errorf("save quiz %s after %d tries: %w", quizID, tries, domain.ErrRetriesExhausted)
	}
	if err != nil {
		return domain.Quiz{}, err
	}

	m.invalidate(ctx, quizID)
	return saved, nil
}

func (m *quizMutator) invalidate(ctx context.Context, quizID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, quizID); err != nil {
		m.logger.Warn("leaderboard cache invalidation failed", zap.String("quizId", quizID), zap.Error(err))
	}
}

func (m *quizMutator) policy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(m.retries)), ctx)
}
