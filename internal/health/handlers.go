package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/kinda-storefront/internal/resilience"
)

var shuttingDown atomic.Bool

// SetReady flips readiness. The server clears it when shutdown begins so the
// load balancer drains traffic before connections close.
func SetReady(ready bool) {
	shuttingDown.Store(!ready)
}

// Checker probes the Redis dependency.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// PromoIndex reports whether promo records have been scanned.
type PromoIndex interface {
	Ready() bool
	FileCount() int
}

// Breaker is an outbound circuit breaker whose position is reported.
type Breaker interface {
	Target() string
	State() resilience.State
}

// RedisChecker pings a go-redis client. A nil client is reported as disabled
// rather than failing readiness, since Redis is optional.
type RedisChecker struct {
	Client *redis.Client
}

var errRedisDisabled = errors.New("disabled")

// PingRedis implements Checker.
func (c RedisChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.Client == nil {
		return errRedisDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Client.Ping(ctx).Err()
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker Checker
	Promo   PromoIndex
	// Breakers are reported as "breaker_<target>" but never fail readiness.
	Breakers     []Breaker
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if shuttingDown.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	ready := true
	status := map[string]any{}

	redisStatus := "disabled"
	if h.Checker != nil {
		switch err := h.Checker.PingRedis(r.Context(), h.redisTimeout()); {
		case err == nil:
			redisStatus = "ok"
		case errors.Is(err, errRedisDisabled):
		default:
			redisStatus = err.Error()
			ready = false
		}
	}
	status["redis"] = redisStatus

	if h.Promo != nil {
		if h.Promo.Ready() {
			status["promo"] = "ok"
		} else {
			status["promo"] = "not loaded"
			ready = false
		}
		status["promoFiles"] = h.Promo.FileCount()
	}
	for _, b := range h.Breakers {
		status["breaker_"+b.Target()] = b.State().String()
	}

	w.Header().Set("Content-Type", "application/json")
	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
