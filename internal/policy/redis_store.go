package policy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ARGV[1] is the expected value ("" for absent), ARGV[2] the new one.
var casScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if ARGV[1] == '' then
  if cur then return 0 end
elseif cur ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore keeps entries for ttl after each fire; zero keeps them forever.
// A ttl shorter than the longest cadence in use resets that bucket early.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*time.Time, error) {
	ms, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get last fired: %w", err)
	}
	t := fromMillis(ms)
	return &t, nil
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, old *time.Time, next time.Time) (bool, error) {
	expected := ""
	if old != nil {
		expected = strconv.FormatInt(toMillis(*old), 10)
	}
	swapped, err := casScript.Run(ctx, s.client, []string{key},
		expected,
		strconv.FormatInt(toMillis(next), 10),
		strconv.FormatInt(s.ttl.Milliseconds(), 10),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis cas last fired: %w", err)
	}
	return swapped == 1, nil
}
