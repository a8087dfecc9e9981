package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Guard sends each request exactly once through a breaker. Transport errors
// and 5xx responses count as failures; a 5xx is still handed back so the
// caller can read the provider's error body.
type Guard struct {
	Client  *http.Client
	Breaker *Breaker
	// Timeout bounds the call including reading the body.
	Timeout time.Duration
}

// Do executes req. It returns ErrOpenCircuit without sending when the
// breaker refuses.
func (g Guard) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if g.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	if g.Breaker != nil && !g.Breaker.Allow(ctx) {
		return nil, ErrOpenCircuit
	}

	cancel := context.CancelFunc(func() {})
	if g.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
	}
	resp, err := g.Client.Do(req.WithContext(ctx))
	if g.Breaker != nil {
		g.Breaker.Report(ctx, err == nil && resp.StatusCode < http.StatusInternalServerError)
	}
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
