package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRateLimit is used when no rate is configured
const DefaultRateLimit = "20-S"

const rateLimitPrefix = "pimtask:ratelimit"

// RateLimit returns middleware limiting requests per client IP to the
// formatted rate (for example "20-S" or "1000-H") using store.
func RateLimit(store limiter.Store, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultRateLimit
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate limit %q: %w", rate, err)
	}
	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(ClientIP))
	return mw.Handler, nil
}

// RedisRateLimit is RateLimit backed by Redis so limits hold across server replicas
func RedisRateLimit(client *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: rateLimitPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}
	return RateLimit(store, rate)
}
