package promo

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/kinda-storefront/internal/pricing"
)

// Claimer takes and returns single-use claims.
type Claimer interface {
	Claim(ctx context.Context, code, email, ref string) (bool, error)
	Release(ctx context.Context, code, email, ref string) error
}

// Grant is a discount resolved for the money-moving path.
type Grant struct {
	Percent float64
	Code    string

	release func(context.Context) error
}

// Release gives back a usage claim after a failed checkout. It is a no-op
// when nothing was claimed.
func (g Grant) Release(ctx context.Context) error {
	if g.release == nil {
		return nil
	}
	return g.release(ctx)
}

// Resolver turns a promo code into a clamped discount percent.
type Resolver struct {
	Checker Checker
	Claims  Claimer
	Logger  zerolog.Logger
}

// Preview trusts a positive client percent for display. Otherwise it looks the
// code up when both code and email are present. Any failure yields 0.
func (r Resolver) Preview(ctx context.Context, clientPercent float64, code, email string) float64 {
	if pct := pricing.ClampPercent(clientPercent); pct > 0 {
		return pct
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(email) == "" {
		return 0
	}
	res, err := r.Checker.Lookup(ctx, code, email)
	if err != nil {
		if !IsRejection(err) {
			r.Logger.Warn().Err(err).Msg("promo preview lookup failed")
		}
		return 0
	}
	return pricing.ClampPercent(res.Amount)
}

// Authoritative re-validates the code for a charge. Client percentages are
// never consulted; an absent, invalid or used code resolves to 0. When usage is
// enforced the code is claimed for ref before returning.
func (r Resolver) Authoritative(ctx context.Context, code, email, ref string) (Grant, error) {
	if strings.TrimSpace(code) == "" {
		return Grant{}, nil
	}
	res, err := r.Checker.Lookup(ctx, code, email)
	if err != nil {
		if !IsRejection(err) {
			r.Logger.Warn().Err(err).Str("reference_id", ref).Msg("promo charge lookup failed")
		}
		return Grant{}, nil
	}
	grant := Grant{Percent: pricing.ClampPercent(res.Amount), Code: NormalizeCode(code)}
	if grant.Percent <= 0 || r.Claims == nil {
		return grant, nil
	}

	ok, err := r.Claims.Claim(ctx, code, email, ref)
	if err != nil {
		return Grant{}, fmt.Errorf("claim promo usage: %w", err)
	}
	if !ok {
		r.Logger.Info().Str("code", grant.Code).Str("reference_id", ref).Msg("promo already claimed")
		return Grant{}, nil
	}
	claims := r.Claims
	grant.release = func(ctx context.Context) error {
		return claims.Release(ctx, code, email, ref)
	}
	return grant, nil
}
