package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps confirmation codes in Redis so they survive restarts and
// are shared when more than one process serves the bot.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed code store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Issue stores a code with TTL, overwriting any previous one.
func (s *RedisStore) Issue(ctx context.Context, userID int64, purpose, code string) error {
	return s.client.Set(ctx, key(userID, purpose), code, s.ttl).Err()
}

// redeemScript deletes the key only when the stored code matches, so a
// wrong guess does not consume the real code.
var redeemScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redeem consumes the stored code when it matches, atomically.
func (s *RedisStore) Redeem(ctx context.Context, userID int64, purpose, code string) (bool, error) {
	n, err := redeemScript.Run(ctx, s.client, []string{key(userID, purpose)}, code).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return n == 1, nil
}
