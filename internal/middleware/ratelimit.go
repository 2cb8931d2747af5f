package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "github.com/iliyamo/cafe-finder/internal/config"
)

// decision is the outcome of taking one token from a bucket.
type decision struct {
    allowed    bool
    remaining  int64
    retryAfter time.Duration
}

type bucketStore interface {
    take(ctx context.Context, key string, now time.Time) (decision, error)
}

var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// redisBuckets shares bucket state between server instances.
type redisBuckets struct {
    rdb *redis.Client
    cfg config.RateLimitConfig
}

func (b redisBuckets) take(ctx context.Context, key string, now time.Time) (decision, error) {
    args := []interface{}{
        now.UnixMilli(),
        b.cfg.Capacity,
        b.cfg.RefillTokens,
        b.cfg.RefillInterval.Milliseconds(),
        int64(b.cfg.TTL / time.Second),
    }
    vals, err := limiterScript.Run(ctx, b.rdb, []string{key}, args...).Result()
    if err != nil {
        return decision{}, err
    }
    arr, ok := vals.([]interface{})
    if !ok || len(arr) != 3 {
        return decision{}, fmt.Errorf("unexpected limiter result %#v", vals)
    }
    return decision{
        allowed:    asInt64(arr[0]) == 1,
        remaining:  asInt64(arr[1]),
        retryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
    }, nil
}

// localBuckets keeps one x/time/rate limiter per key in this process.
// Keys idle for longer than the TTL are swept.
type localBuckets struct {
    cfg       config.RateLimitConfig
    every     rate.Limit
    mu        sync.Mutex
    entries   map[string]*localEntry
    lastSweep time.Time
}

type localEntry struct {
    lim  *rate.Limiter
    seen time.Time
}

func newLocalBuckets(cfg config.RateLimitConfig) *localBuckets {
    return &localBuckets{
        cfg:     cfg,
        every:   rate.Every(cfg.RefillInterval / time.Duration(cfg.RefillTokens)),
        entries: map[string]*localEntry{},
    }
}

func (b *localBuckets) take(_ context.Context, key string, now time.Time) (decision, error) {
    b.mu.Lock()
    defer b.mu.Unlock()

    if now.Sub(b.lastSweep) > b.cfg.TTL {
        for k, e := range b.entries {
            if now.Sub(e.seen) > b.cfg.TTL {
                delete(b.entries, k)
            }
        }
        b.lastSweep = now
    }

    e, ok := b.entries[key]
    if !ok {
        e = &localEntry{lim: rate.NewLimiter(b.every, b.cfg.Capacity)}
        b.entries[key] = e
    }
    e.seen = now

    if e.lim.AllowN(now, 1) {
        return decision{allowed: true, remaining: int64(math.Floor(e.lim.TokensAt(now)))}, nil
    }
    r := e.lim.ReserveN(now, 1)
    wait := r.DelayFrom(now)
    r.CancelAt(now)
    return decision{retryAfter: wait}, nil
}

// NewTokenBucket limits the methods listed in cfg.Methods.  Buckets live in
// Redis when rdb is set; without Redis, or when a Redis call fails, the
// in-process buckets answer instead.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    local := newLocalBuckets(cfg)
    var shared bucketStore
    if rdb != nil {
        shared = redisBuckets{rdb: rdb, cfg: cfg}
    }
    return tokenBucket(cfg, shared, local, time.Now)
}

func tokenBucket(cfg config.RateLimitConfig, shared, local bucketStore, now func() time.Time) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[c.Request().Method] {
                return next(c)
            }
            key := buildRateKey(cfg, c)
            ts := now()

            var (
                d   decision
                err error
            )
            if shared != nil {
                d, err = shared.take(c.Request().Context(), key, ts)
                if err != nil {
                    c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
                }
            }
            if shared == nil || err != nil {
                d, _ = local.take(c.Request().Context(), key, ts)
            }

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))

            if !d.allowed {
                secs := int(math.Ceil(d.retryAfter.Seconds()))
                if secs < 0 {
                    secs = 0
                }
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, d.retryAfter)
                }
                return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts. Please try again later.")
            }
            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            return next(c)
        }
    }
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int32:
        return int64(t)
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := currentUserID(c)
    route := c.Request().Method + " " + c.Path()

    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
