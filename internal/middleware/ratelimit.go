package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/cinema-booking/internal/config"
)

// tokenBucketScript refills a bucket stored as a Redis hash and takes one
// token from it.  It returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
    tokens = capacity
    ts = now_ms
end

local steps = math.floor(math.max(0, now_ms - ts) / interval_ms)
if steps > 0 then
    tokens = math.min(capacity, tokens + steps * refill)
    ts = ts + steps * interval_ms
end

local allowed = 0
local wait_ms = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    wait_ms = math.max(0, interval_ms - (now_ms - ts))
end

redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', key, ttl)
return { allowed, tokens, wait_ms }
`)

// rateDecision is the parsed outcome of one script run.
type rateDecision struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

type tokenBucket struct {
    cfg config.RateLimitConfig
    rdb redis.Scripter
}

func (tb *tokenBucket) take(ctx context.Context, key string, now time.Time) (rateDecision, error) {
    res, err := tokenBucketScript.Run(ctx, tb.rdb, []string{key},
        now.UnixMilli(),
        tb.cfg.Capacity,
        tb.cfg.RefillTokens,
        tb.cfg.RefillInterval.Milliseconds(),
        int64(tb.cfg.TTL/time.Second),
    ).Result()
    if err != nil {
        return rateDecision{}, err
    }
    return parseDecision(res)
}

func parseDecision(res interface{}) (rateDecision, error) {
    arr, ok := res.([]interface{})
    if !ok || len(arr) != 3 {
        return rateDecision{}, fmt.Errorf("unexpected script result %#v", res)
    }
    return rateDecision{
        allowed:   asInt64(arr[0]) == 1,
        remaining: asInt64(arr[1]),
        retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
    }, nil
}

// NewTokenBucket returns a Redis-backed token bucket limiter.  With the
// limiter disabled or no Redis client it passes every request through;
// Redis errors also fail open and are logged at debug level.  Rejected
// requests get 429 with Retry-After.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    tb := &tokenBucket{cfg: cfg, rdb: rdb}

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            d, err := tb.take(c.Request().Context(), key, time.Now())
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("ratelimit: key=%s: %v", key, err)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }

            if !d.allowed {
                secs := int(math.Ceil(d.retry.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    c.Logger().Infof("ratelimit: blocked key=%s retry=%s", key, d.retry)
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "msg":         "Too many requests",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
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

// buildRateKey composes the bucket key from the parts named by
// cfg.KeyStrategy: any "_"-joined combination of ip, user and route, in
// that order.  Unknown strategies fall back to all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    strategy := strings.ToLower(cfg.KeyStrategy)
    want := map[string]bool{}
    for _, p := range strings.Split(strategy, "_") {
        want[p] = true
    }
    if !want["ip"] && !want["user"] && !want["route"] {
        want = map[string]bool{"ip": true, "user": true, "route": true}
    }

    parts := []string{cfg.Prefix}
    if want["ip"] {
        ip := c.RealIP()
        if ip == "" {
            ip = "unknown"
        }
        parts = append(parts, "ip", ip)
    }
    if want["user"] {
        parts = append(parts, "user", bookerKey(c))
    }
    if want["route"] {
        parts = append(parts, "route", c.Request().Method+" "+c.Path())
    }
    return strings.Join(parts, ":")
}
