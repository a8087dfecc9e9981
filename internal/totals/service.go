// Package totals previews order totals through the provider's pricing engine
// without creating anything.
package totals

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/kinda-storefront/internal/catalog"
	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/order"
	"github.com/noah-isme/kinda-storefront/internal/pricing"
	"github.com/noah-isme/kinda-storefront/internal/square"
)

// MissingInput is returned when the cart or state is absent.
const MissingInput = "Missing cart or state."

// Calculator previews an order.
type Calculator interface {
	CalculateOrder(ctx context.Context, o square.Order) (*square.Order, error)
}

// DiscountResolver picks the percent to show in a preview.
type DiscountResolver interface {
	Preview(ctx context.Context, clientPercent float64, code, email string) float64
}

// Input is the preview request body.
type Input struct {
	Cart         []order.Item    `json:"cart"`
	State        string          `json:"state"`
	PromoPercent pricing.Percent `json:"promoPercent"`
	PromoCode    string          `json:"promoCode"`
	Email        string          `json:"email"`
}

// Preview is the reconciled result.
type Preview struct {
	Totals     pricing.Totals
	TaxEnabled bool
	Percent    float64
}

// Service computes previews.
type Service struct {
	Builder  order.Builder
	Pricing  Calculator
	Discount DiscountResolver
	Logger   zerolog.Logger
}

// Preview resolves the discount, asks the provider to price the order and
// reconstructs the pre-discount subtotal from what it returns.
func (s *Service) Preview(ctx context.Context, in Input) (Preview, error) {
	if len(in.Cart) == 0 || strings.TrimSpace(in.State) == "" {
		return Preview{}, common.ValidationError(MissingInput, nil)
	}

	var percent float64
	if s.Discount != nil {
		percent = s.Discount.Preview(ctx, float64(in.PromoPercent), in.PromoCode, in.Email)
	} else {
		percent = pricing.ClampPercent(float64(in.PromoPercent))
	}

	built, err := s.Builder.Build(order.Draft{
		Items:           in.Cart,
		State:           in.State,
		DiscountPercent: percent,
		PromoCode:       in.PromoCode,
	})
	if err != nil {
		var unmapped *catalog.UnmappedSizeError
		if errors.As(err, &unmapped) {
			return Preview{}, common.MappingError(err.Error(), err)
		}
		return Preview{}, err
	}

	calculated, err := s.Pricing.CalculateOrder(ctx, built.Order)
	if err != nil {
		s.Logger.Error().Err(err).Msg("order preview failed")
		return Preview{}, common.ExternalError(err.Error(), err, square.ErrorDetails(err))
	}

	return Preview{
		Totals:     order.Totals(calculated, built.Shipping),
		TaxEnabled: built.TaxEnabled,
		Percent:    built.Percent,
	}, nil
}
