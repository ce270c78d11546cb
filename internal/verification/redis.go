package verification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "verifyd:otp:"

// redisExpiryGrace keeps expired hashes around briefly so a late validation
// attempt observes EXPIRED rather than NOT_FOUND. Native TTL then removes the
// hash, playing the role of the background sweep.
const redisExpiryGrace = 5 * time.Minute

// consumeScript is the whole validation decision in one round trip, so two
// racing submissions cannot both consume the record or push the attempt
// counter past the cap. Return values follow the Status iota order.
// ARGV: submitted code, now (unix ms), max attempts.
var consumeScript = redis.NewScript(`
local rec = redis.call("HMGET", KEYS[1], "code", "expires_at_ms", "attempts")
if not rec[1] then
  return 0
end
if tonumber(ARGV[2]) > tonumber(rec[2]) then
  redis.call("DEL", KEYS[1])
  return 1
end
local attempts = tonumber(rec[3]) or 0
if attempts >= tonumber(ARGV[3]) then
  redis.call("DEL", KEYS[1])
  return 2
end
if ARGV[1] ~= rec[1] then
  redis.call("HINCRBY", KEYS[1], "attempts", 1)
  return 3
end
redis.call("DEL", KEYS[1])
return 4
`)

// RedisStore persists verification records in Redis, one hash per key.
// It is the recommended backend for multi-process deployments.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an established Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores the record as a hash and schedules native expiry. Expiry is
// held at millisecond precision; a Lua number cannot represent a nanosecond
// epoch exactly.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	key := redisKeyPrefix + rec.Key

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"code", rec.Code,
		"email", rec.Email,
		"phone", rec.Phone,
		"expires_at_ms", rec.ExpiresAt.UnixMilli(),
		"attempts", rec.Attempts,
	)
	pipe.PExpireAt(ctx, key, rec.ExpiresAt.Add(redisExpiryGrace))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("verification: redis save: %w", err)
	}
	return nil
}

// Get loads the record for the key.
func (s *RedisStore) Get(ctx context.Context, key string) (Record, bool, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("verification: redis get: %w", err)
	}
	if len(fields) == 0 {
		return Record{}, false, nil
	}

	expiresMs, err := strconv.ParseInt(fields["expires_at_ms"], 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("verification: redis get: parse expiry: %w", err)
	}
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return Record{}, false, fmt.Errorf("verification: redis get: parse attempts: %w", err)
	}

	return Record{
		Key:       key,
		Code:      fields["code"],
		Email:     fields["email"],
		Phone:     fields["phone"],
		ExpiresAt: time.UnixMilli(expiresMs).UTC(),
		Attempts:  attempts,
	}, true, nil
}

// Consume executes the validation decision atomically on the Redis side.
func (s *RedisStore) Consume(ctx context.Context, key, submitted string, now time.Time, maxAttempts int) (Status, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{redisKeyPrefix + key},
		submitted, now.UnixMilli(), maxAttempts).Int()
	if err != nil {
		return StatusNotFound, fmt.Errorf("verification: redis consume: %w", err)
	}
	return Status(res), nil
}

// Delete removes the record for the key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("verification: redis delete: %w", err)
	}
	return nil
}

// SweepExpired is a no-op: Redis removes expired hashes natively.
func (s *RedisStore) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
