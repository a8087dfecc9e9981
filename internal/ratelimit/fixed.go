package ratelimit

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/kinda-storefront/internal/common"
)

// NewStore returns a Redis-backed limiter store, or an in-process one when no
// client is configured.
func NewStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	opts := limiter.StoreOptions{Prefix: prefix, CleanUpInterval: limiter.DefaultCleanUpInterval}
	if rdb == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	return limiterredis.NewStoreWithOptions(rdb, opts)
}

// Fixed builds a fixed-window per-IP middleware from a formatted rate such as
// "5-M". Store failures let the request through; onError may be nil.
func Fixed(store limiter.Store, formatted string, onError func(error)) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	l := limiter.New(store, rate)
	return func(next http.Handler) http.Handler {
		mw := stdlib.NewMiddleware(l,
			stdlib.WithKeyGetter(common.ClientIP),
			stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeLimited(w)
			}),
			stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				if onError != nil {
					onError(err)
				}
				next.ServeHTTP(w, r)
			}),
		)
		return mw.Handler(next)
	}, nil
}
