package config

// Redis backs the rate limiter and the response cache.  When it cannot be
// reached at startup both features are switched off rather than failing
// the server.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings.
type RedisConfig struct {
    Enabled  bool
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_* variables.  REDIS_HOST plus REDIS_PORT
// take precedence over REDIS_ADDR.
func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Enabled:  envBool("REDIS_ENABLED", true),
        Addr:     addr,
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
}

// NewRedisClient connects and pings Redis.  It returns nil when Redis is
// disabled or the ping fails; callers treat nil as "no Redis".
func NewRedisClient(rc RedisConfig) *redis.Client {
    if !rc.Enabled {
        return nil
    }
    opts := &redis.Options{
        Addr:     rc.Addr,
        Password: rc.Password,
        DB:       rc.DB,
    }
    if rc.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
