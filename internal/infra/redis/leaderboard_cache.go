package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LeaderboardLoader builds a leaderboard from the backing store.
type LeaderboardLoader interface {
	LoadLeaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error)
}

// fillScript stores a snapshot only while the generation read before loading
// is still current, so a fill racing an invalidation is dropped.
var fillScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// LeaderboardCache caches ranked leaderboards in Redis and falls back to a
// loader on cache miss. Snapshots are stored as JSON:
//
//	SET quiz:{quizID}:leaderboard {json} PX {ttl}
//	INCR quiz:{quizID}:leaderboard:gen   (on invalidation)
type LeaderboardCache struct {
	client *redis.Client
	loader LeaderboardLoader
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger
}

func NewLeaderboardCache(client *redis.Client, loader LeaderboardLoader, ttl time.Duration, logger *zap.Logger) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *LeaderboardCache) GetLeaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	if lb, ok := c.cached(ctx, quizID); ok {
		return lb, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if lb, ok := c.cached(ctx, quizID); ok {
			return lb, nil
		}

		gen, err := c.client.Get(ctx, c.genKey(quizID)).Result()
		if errors.Is(err, redis.Nil) {
			gen = "0"
		} else if err != nil {
			c.logger.Warn("leaderboard cache generation read failed", zap.String("quizId", quizID), zap.Error(err))
			gen = ""
		}

		lb, err := c.loader.LoadLeaderboard(ctx, quizID)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		if gen == "" {
			return lb, nil
		}

		data, err := json.Marshal(lb)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		keys := []string{c.key(quizID), c.genKey(quizID)}
		ttl := c.ttlWithJitter().Milliseconds()
		if err := fillScript.Run(ctx, c.client, keys, gen, data, ttl).Err(); err != nil {
			c.logger.Warn("leaderboard cache fill failed", zap.String("quizId", quizID), zap.Error(err))
		}
		return lb, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// Invalidate deletes the cached snapshot and bumps the generation.
func (c *LeaderboardCache) Invalidate(ctx context.Context, quizID string) error {
	c.sf.Forget(quizID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.genKey(quizID))
	pipe.Del(ctx, c.key(quizID))
	_, err := pipe.Exec(ctx)
	return err
}

func (c *LeaderboardCache) cached(ctx context.Context, quizID string) (domain.Leaderboard, bool) {
	data, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("leaderboard cache read failed", zap.String("quizId", quizID), zap.Error(err))
		}
		return domain.Leaderboard{}, false
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(data, &lb); err != nil {
		return domain.Leaderboard{}, false
	}
	return lb, true
}

func (c *LeaderboardCache) key(quizID string) string {
	return "quiz:" + quizID + ":leaderboard"
}

func (c *LeaderboardCache) genKey(quizID string) string {
	return c.key(quizID) + ":gen"
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
