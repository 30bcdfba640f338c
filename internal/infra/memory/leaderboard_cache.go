package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// LeaderboardLoader builds a leaderboard from the backing store.
type LeaderboardLoader interface {
	LoadLeaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error)
}

// LeaderboardCache caches leaderboards with TTL to avoid repeated store hits.
type LeaderboardCache struct {
	loader LeaderboardLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedLeaderboard

	// loads tracks quizzes with a load in flight. Invalidate bumps the
	// generation so an older load does not store a stale leaderboard; the
	// entry goes away with the last load.
	loads map[string]*pendingLoads
}

type pendingLoads struct {
	generation uint64
	inflight   int
}

type cachedLeaderboard struct {
	leaderboard domain.Leaderboard
	expiresAt   time.Time
}

func NewLeaderboardCache(loader LeaderboardLoader, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedLeaderboard),
		loads:  make(map[string]*pendingLoads),
	}
}

func (c *LeaderboardCache) GetLeaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	if lb, ok := c.lookup(quizID); ok {
		return lb, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		if lb, ok := c.lookup(quizID); ok {
			return lb, nil
		}

		pending, gen := c.beginLoad(quizID)
		lb, err := c.loader.LoadLeaderboard(ctx, quizID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err == nil && pending.generation == gen {
			c.cache[quizID] = cachedLeaderboard{
				leaderboard: lb,
				expiresAt:   c.clock().Add(c.ttlWithJitter()),
			}
		}
		if pending.inflight--; pending.inflight == 0 {
			delete(c.loads, quizID)
		}
		if err != nil {
			return domain.Leaderboard{}, err
		}
		return lb, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// Invalidate drops the cached leaderboard so the next read reloads it.
func (c *LeaderboardCache) Invalidate(_ context.Context, quizID string) error {
	c.sf.Forget(quizID)
	c.mu.Lock()
	delete(c.cache, quizID)
	if pending, ok := c.loads[quizID]; ok {
		pending.generation++
	}
	c.mu.Unlock()
	return nil
}

func (c *LeaderboardCache) beginLoad(quizID string) (*pendingLoads, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending, ok := c.loads[quizID]
	if !ok {
		pending = &pendingLoads{}
		c.loads[quizID] = pending
	}
	pending.inflight++
	return pending, pending.generation
}

func (c *LeaderboardCache) lookup(quizID string) (domain.Leaderboard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Leaderboard{}, false
	}
	return entry.leaderboard, true
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
