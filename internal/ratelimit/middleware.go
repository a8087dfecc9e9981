package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/kinda-storefront/internal/common"
)

// LimitedMessage is the error shown to throttled clients.
const LimitedMessage = "Too many requests. Please try again shortly."

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// ByClientIP keys limits on the caller's address under a route scope.
func ByClientIP(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		return scope + ":" + common.ClientIP(r)
	}
}

// Handler enforces a sliding-window limit before delegating to the next
// handler. Store errors let the request through.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware wraps next with the limit. Every counted response carries the
// X-RateLimit-* headers; rejected ones add Retry-After.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Config.Key == nil {
		return next
	}
	limit := max(h.Config.Max, 0)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		out := w.Header()
		out.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		out.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		out.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}
		wait := math.Ceil(time.Until(resetAt).Seconds())
		out.Set("Retry-After", strconv.Itoa(int(math.Max(wait, 0))))
		writeLimited(w)
	})
}

func writeLimited(w http.ResponseWriter) {
	common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", LimitedMessage, nil)
}
