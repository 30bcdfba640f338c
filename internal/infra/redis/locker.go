package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the quiz lock could not be taken before the
// context ended.
var ErrLockTimeout = errors.New("timed out waiting for quiz lock")

// releaseScript deletes the lock only if it still holds our token, so a lock
// that expired and was re-acquired elsewhere is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// QuizLocker is a per-quiz mutual exclusion lock shared by every service
// instance pointing at the same Redis:
//
//	SET quiz:{quizID}:lock {token} NX PX {ttl}
//
// The TTL bounds how long a crashed holder can block a quiz.
type QuizLocker struct {
	client *redis.Client
	ttl    time.Duration
	poll   time.Duration
}

func NewQuizLocker(client *redis.Client, ttl time.Duration) *QuizLocker {
	return &QuizLocker{client: client, ttl: ttl, poll: 10 * time.Millisecond}
}

func (l *QuizLocker) Lock(ctx context.Context, quizID string) (func(), error) {
	key := l.key(quizID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, err
		}
		if ok {
			return func() {
				// best-effort; the TTL reclaims the key if this fails
				_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(l.poll):
		}
	}
}

func (l *QuizLocker) key(quizID string) string {
	return "quiz:" + quizID + ":lock"
}
