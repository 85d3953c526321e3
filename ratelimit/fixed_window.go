package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Increments the window counter and arms its expiry on first hit, atomically.
var incrWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

const defaultPrefix = "tutor_connect:ratelimit"

// FixedWindow allows at most limit hits per key in each window. State lives in Redis so that
// every API replica shares the same counters.
type FixedWindow struct {
	limit  int
	window time.Duration
	prefix string
	rdb    *redis.Client
	now    func() time.Time
}

func NewFixedWindow(rdb *redis.Client, prefix string, limit int, window time.Duration) (*FixedWindow, error) {
	if rdb == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	if limit <= 0 || window < time.Millisecond {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &FixedWindow{limit: limit, window: window, prefix: prefix, rdb: rdb, now: time.Now}, nil
}

// Dial connects to addr and verifies the server answers before returning the limiter.
func Dial(ctx context.Context, addr, password string, limit int, window time.Duration) (*FixedWindow, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	l, err := NewFixedWindow(rdb, "", limit, window)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return l, nil
}

// Allow reports whether key is within quota. Redis failures count as over quota.
func (l *FixedWindow) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	n, err := incrWindow.Run(ctx, l.rdb, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false
	}
	return n <= int64(l.limit)
}

func (l *FixedWindow) Close() error {
	return l.rdb.Close()
}
