package promo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Ledger records one use per code and email with an atomic SETNX claim.
type Ledger struct {
	R   *redis.Client
	TTL time.Duration
}

func (l Ledger) key(code, email string) string {
	return "promo:used:" + NormalizeCode(code) + ":" + NormalizeEmail(email)
}

// Used reports whether the pair has already been claimed.
func (l Ledger) Used(ctx context.Context, code, email string) (bool, error) {
	if l.R == nil {
		return false, errors.New("promo ledger: redis client not configured")
	}
	n, err := l.R.Exists(ctx, l.key(code, email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Claim marks the pair as used by ref. It returns false when another checkout holds it.
func (l Ledger) Claim(ctx context.Context, code, email, ref string) (bool, error) {
	if l.R == nil {
		return false, errors.New("promo ledger: redis client not configured")
	}
	return l.R.SetNX(ctx, l.key(code, email), ref, l.TTL).Result()
}

// Release drops a claim, but only the one taken by ref.
func (l Ledger) Release(ctx context.Context, code, email, ref string) error {
	if l.R == nil {
		return nil
	}
	return l.R.Eval(ctx, releaseScript, []string{l.key(code, email)}, ref).Err()
}
