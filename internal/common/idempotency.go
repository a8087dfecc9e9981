package common

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const idemPending = "pending"

type commitKey struct{}

// Commit records that the request behind ctx has done something that must not
// run again, such as capturing a payment. Once committed, a server error is
// stored and replayed like any other response instead of freeing the key.
// Outside the middleware it does nothing.
func Commit(ctx context.Context) {
	if flag, ok := ctx.Value(commitKey{}).(*atomic.Bool); ok {
		flag.Store(true)
	}
}

// Idem provides an Idempotency-Key middleware backed by Redis. The first
// request with a key runs the handler and stores its response; repeats get
// the stored response back, or 409 while the first one is still running.
// Server errors free the key for a retry unless the handler called Commit.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

func idemKey(key string) string {
	return DigestKey("idem", key)
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := idemKey(header)
		ok, err := i.R.SetNX(ctx, key, idemPending, i.ttl()).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, CodeInternal, "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !ok {
			i.replay(ctx, w, key)
			return
		}

		committed := new(atomic.Bool)
		rec := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
		completed := false
		defer func() {
			// a panic after Commit leaves the key pending until it expires
			if !completed && !committed.Load() {
				_ = i.R.Del(context.Background(), key).Err()
			}
		}()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(ctx, commitKey{}, committed)))
		completed = true

		if rec.status >= http.StatusInternalServerError && !committed.Load() {
			_ = i.R.Del(context.Background(), key).Err()
			return
		}
		payload, err := json.Marshal(storedResponse{
			Status:      rec.status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err != nil {
			return
		}
		_ = i.R.Set(context.Background(), key, payload, i.ttl()).Err()
	})
}

func (i Idem) replay(ctx context.Context, w http.ResponseWriter, key string) {
	raw, err := i.R.Get(ctx, key).Result()
	if err != nil || raw == idemPending {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
		return
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set("Idempotent-Replay", "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}

type bufferedWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}
