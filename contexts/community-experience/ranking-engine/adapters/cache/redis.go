package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/redis/go-redis/v9"
)

// setIfCurrent writes the snapshot only while the generation counter still
// matches the one the caller read before computing it.
var setIfCurrent = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if not current then
	current = "0"
end
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// Redis shares the ordered leaderboard across API replicas.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context) ([]entities.LeaderboardEntry, bool, error) {
	raw, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get leaderboard: %w", err)
	}
	var entries []entities.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("decode cached leaderboard: %w", err)
	}
	return entries, true, nil
}

func (c *Redis) Generation(ctx context.Context) (uint64, error) {
	value, err := c.client.Get(ctx, leaderboardGenKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get leaderboard generation: %w", err)
	}
	return value, nil
}

func (c *Redis) Set(ctx context.Context, generation uint64, entries []entities.LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	keys := []string{leaderboardKey, leaderboardGenKey}
	err = setIfCurrent.Run(ctx, c.client, keys, strconv.FormatUint(generation, 10), raw, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis set leaderboard: %w", err)
	}
	return nil
}

// Invalidate bumps the generation and drops the snapshot in one round trip.
func (c *Redis) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, leaderboardGenKey)
		pipe.Del(ctx, leaderboardKey)
		return nil
	})
	return err
}

var _ ports.LeaderboardCache = (*Redis)(nil)
