package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// allowScript prunes the trailing window, then records the request only
// when the remaining count is under the limit. Running it as one script
// keeps check-and-record atomic across service instances.
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count < tonumber(ARGV[2]) then
	redis.call('ZADD', KEYS[1], ARGV[3], ARGV[3])
	redis.call('PEXPIRE', KEYS[1], ARGV[4])
	return 1
end
return 0
`)

// RedisWindow is the sliding-window limiter backed by a Redis sorted set,
// one set per client identity with request times as scores. Used when
// admission state must be shared across instances.
type RedisWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

func NewRedisWindow(client *redis.Client, cfg Config) *RedisWindow {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &RedisWindow{
		client: client,
		limit:  cfg.Limit,
		window: cfg.Window,
		logger: cfg.Logger,
	}
}

// NewRedisClient connects and pings so misconfiguration fails at startup,
// not on the first admission check.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (r *RedisWindow) key(clientID string) string {
	return "ratelimit:" + clientID
}

func (r *RedisWindow) Allow(ctx context.Context, clientID string) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-r.window).UnixMicro()

	res, err := allowScript.Run(ctx, r.client, []string{r.key(clientID)},
		strconv.FormatInt(cutoff, 10),
		strconv.Itoa(r.limit),
		strconv.FormatInt(now.UnixMicro(), 10),
		strconv.FormatInt(r.window.Milliseconds(), 10),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	if res != 1 {
		r.logger.Warn("rate limit exceeded",
			zap.String("client_id", clientID),
			zap.Int("limit", r.limit),
		)
		return false, nil
	}
	return true, nil
}

func (r *RedisWindow) Remaining(ctx context.Context, clientID string) (int, error) {
	cutoff := time.Now().Add(-r.window).UnixMicro()

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, r.key(clientID), "0", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, r.key(clientID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate limit count failed: %w", err)
	}

	if remaining := r.limit - int(card.Val()); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

func (r *RedisWindow) ResetAt(ctx context.Context, clientID string) (time.Time, error) {
	vals, err := r.client.ZRangeWithScores(ctx, r.key(clientID), 0, 0).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("rate limit reset lookup failed: %w", err)
	}
	if len(vals) == 0 {
		return time.Time{}, nil
	}
	oldest := time.UnixMicro(int64(vals[0].Score))
	return oldest.Add(r.window), nil
}
