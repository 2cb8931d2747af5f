package config

import (
    "context"
    "crypto/tls"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient connects the shared store of the login/signup rate limiter.
//
//   REDIS_ADDR      host:port, default localhost:6379
//   REDIS_PASSWORD  optional
//   REDIS_DB        database number, default 0
//   REDIS_TLS       dial with TLS 1.2+
//   REDIS_DISABLED  skip Redis entirely
//
// A nil client means every instance limits with its own in-process buckets.
func NewRedisClient() *redis.Client {
    if envBool("REDIS_DISABLED", false) {
        return nil
    }
    opts := &redis.Options{
        Addr:     envStr("REDIS_ADDR", "localhost:6379"),
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
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
