package middleware

import (
	"net/http"

	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewIPRateLimiter returns middleware that limits by client IP (in-memory store).
// rateFormatted: "100-M", "1000-H", "50-S". Empty disables.
func NewIPRateLimiter(rateFormatted string) (func(next http.Handler) http.Handler, error) {
	return newLimiter(rateFormatted, "ip")
}

// NewLoginRateLimiter is a separate, usually stricter, per-IP limit for
// credential submissions.
func NewLoginRateLimiter(rateFormatted string) (func(next http.Handler) http.Handler, error) {
	return newLimiter(rateFormatted, "login")
}

func newLimiter(rateFormatted, prefix string) (func(next http.Handler) http.Handler, error) {
	if rateFormatted == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
	instance := limiter.New(store, rate)
	mw := stdlib.NewMiddleware(instance, stdlib.WithLimitReachedHandler(limitReached))
	return mw.Handler, nil
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate limit exceeded","code":"rate_limited"}` + "\n"))
}

func noopMiddleware(next http.Handler) http.Handler {
	return next
}
