package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"bee-social/internal/logger"
)

// Limiter decides whether the caller identified by key may act now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// slidingWindowScript trims the window, counts what is left and records the
// new hit only when under the limit. KEYS[1]=bucket ARGV=now_ms,window_ms,limit,member.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
if redis.call('ZCARD', key) >= limit then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// SlidingWindow allows at most limit hits per key in any trailing window.
// State lives in Redis so every replica shares it.
type SlidingWindow struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindow(client redis.Scripter, prefix string, limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (l *SlidingWindow) Allow(ctx context.Context, key string) (bool, error) {
	res, err := slidingWindowScript.Run(ctx, l.client, []string{l.prefix + key},
		l.now().UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Local is an in-process token bucket per key. Bursts up to limit and refills
// at limit per window.
type Local struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

func NewLocal(limit int, window time.Duration) *Local {
	return &Local{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.Allow(), nil
}

// Fallback consults primary and switches to secondary when primary errors.
type Fallback struct {
	primary   Limiter
	secondary Limiter
}

func NewFallback(primary, secondary Limiter) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := f.primary.Allow(ctx, key)
	if err == nil {
		return ok, nil
	}
	logger.Warn().Err(err).Str("key", key).Msg("rate limiter backend unavailable, using local fallback")
	return f.secondary.Allow(ctx, key)
}

// Key scopes a limiter key to an action and user.
func Key(action, userID string) string {
	return action + ":" + userID
}
