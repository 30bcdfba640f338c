package redis

import (
	"context"
	"testing"
	"time"

	"classroom-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestLeaderboardCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{}
	cache := NewLeaderboardCache(newClient(mr), loader, time.Minute, zap.NewNop())

	lb, err := cache.GetLeaderboard(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:leaderboard") {
		t.Fatalf("expected leaderboard snapshot in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, _ := cache.GetLeaderboard(context.Background(), "quiz-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached.Entries) != len(lb.Entries) || cached.Entries[0].StudentID != "a" {
		t.Fatalf("cached leaderboard differs: %+v", cached)
	}
}

func TestLeaderboardCacheInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{}
	cache := NewLeaderboardCache(newClient(mr), loader, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, _ = cache.GetLeaderboard(ctx, "quiz-1")
	if err := cache.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:quiz-1:leaderboard") {
		t.Fatalf("expected snapshot removed")
	}
	_, _ = cache.GetLeaderboard(ctx, "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestLeaderboardCacheDoesNotCacheMissingQuiz(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewLeaderboardCache(newClient(mr), &countingLoader{missing: true}, time.Minute, zap.NewNop())
	if _, err := cache.GetLeaderboard(context.Background(), "quiz-x"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if mr.Exists("quiz:quiz-x:leaderboard") {
		t.Fatalf("missing quiz should not be cached")
	}
}

func TestLeaderboardCacheDropsFillRacingInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{}
	cache := NewLeaderboardCache(newClient(mr), loader, time.Minute, zap.NewNop())
	// A mutation lands while the first load is in flight.
	loader.during = func() { _ = cache.Invalidate(context.Background(), "quiz-1") }

	if _, err := cache.GetLeaderboard(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if mr.Exists("quiz:quiz-1:leaderboard") {
		t.Fatalf("stale snapshot should not be cached")
	}

	loader.during = nil
	_, _ = cache.GetLeaderboard(context.Background(), "quiz-1")
	if !mr.Exists("quiz:quiz-1:leaderboard") {
		t.Fatalf("expected snapshot after a clean load")
	}
}

type countingLoader struct {
	calls   int
	missing bool
	during  func()
}

func (l *countingLoader) LoadLeaderboard(_ context.Context, quizID string) (domain.Leaderboard, error) {
	l.calls++
	if l.during != nil {
		l.during()
	}
	if l.missing {
		return domain.Leaderboard{}, domain.ErrQuizNotFound
	}
	return domain.Leaderboard{
		QuizID: quizID,
		Entries: []domain.LeaderboardEntry{
			{Rank: 1, StudentID: "a", Username: "alice", Score: 90, TimeTaken: 100},
			{Rank: 2, StudentID: "b", Username: "bob", Score: 80, TimeTaken: 120},
		},
	}, nil
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
