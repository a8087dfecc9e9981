package totals_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/catalog"
	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/order"
	"github.com/noah-isme/kinda-storefront/internal/promo"
	"github.com/noah-isme/kinda-storefront/internal/square"
	"github.com/noah-isme/kinda-storefront/internal/square/squaretest"
	"github.com/noah-isme/kinda-storefront/internal/totals"
)

type codes map[string]promo.Record

func (c codes) Get(code string) (promo.Record, bool) {
	rec, ok := c[code]
	return rec, ok
}

func newService(t *testing.T) (*totals.Service, *squaretest.Fake) {
	t.Helper()
	fake := squaretest.New(t)
	resolver := promo.Resolver{
		Checker: promo.Checker{Store: codes{"SUMMER10": {Code: "SUMMER10", Status: "Approved", Amount: 10}}},
		Logger:  zerolog.Nop(),
	}
	return &totals.Service{
		Builder:  order.Builder{LocationID: "LOC1", Currency: "USD", TaxRegion: "CA", Sizes: catalog.NewSizeMap(nil)},
		Pricing:  fake.Client(),
		Discount: resolver,
		Logger:   zerolog.Nop(),
	}, fake
}

func TestPreviewCaliforniaWithPromoLookup(t *testing.T) {
	svc, fake := newService(t)

	res, err := svc.Preview(context.Background(), totals.Input{
		Cart:      []order.Item{{Product: "Pac Tee", Size: "M", Quantity: 2, Price: "$25.00"}},
		State:     "CA",
		PromoCode: "summer10",
		Email:     "a@x.com",
	})
	require.NoError(t, err)

	got := res.Totals
	require.True(t, res.TaxEnabled)
	require.Equal(t, 10.0, res.Percent)
	require.EqualValues(t, 5000, got.Subtotal)
	require.EqualValues(t, 500, got.Discount)
	require.EqualValues(t, 895, got.Shipping)
	require.EqualValues(t, 394, got.Tax)
	require.Equal(t, got.Subtotal-got.Discount+got.Shipping+got.Tax, got.Total)

	sent := fake.Orders[0]
	require.Equal(t, "Promo summer10", sent.Discounts[0].Name)
	require.Empty(t, sent.LineItems[0].Note)
}

func TestPreviewOutsideCaliforniaHasNoTax(t *testing.T) {
	svc, _ := newService(t)

	res, err := svc.Preview(context.Background(), totals.Input{
		Cart:         []order.Item{{Size: "S", Quantity: 1}, {Size: "XL", Quantity: 2}},
		State:        "NV",
		PromoPercent: 20,
	})
	require.NoError(t, err)
	got := res.Totals
	require.False(t, res.TaxEnabled)
	require.Zero(t, got.Tax)
	require.EqualValues(t, 1195, got.Shipping)
	require.EqualValues(t, 1500, got.Discount)
	require.Equal(t, got.Subtotal-got.Discount+got.Shipping, got.Total)
}

func TestPreviewFailsOpenOnUnknownPromo(t *testing.T) {
	svc, fake := newService(t)
	res, err := svc.Preview(context.Background(), totals.Input{
		Cart:      []order.Item{{Size: "M", Quantity: 1}},
		State:     "CA",
		PromoCode: "NOPE",
		Email:     "a@x.com",
	})
	require.NoError(t, err)
	require.Zero(t, res.Totals.Discount)
	require.Empty(t, fake.Orders[0].Discounts)
}

func TestPreviewErrors(t *testing.T) {
	svc, fake := newService(t)
	ctx := context.Background()

	_, err := svc.Preview(ctx, totals.Input{State: "CA"})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	require.Equal(t, totals.MissingInput, appErr.Message)

	_, err = svc.Preview(ctx, totals.Input{Cart: []order.Item{{Size: "9XL"}}, State: "CA"})
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeMapping, appErr.Code)
	require.Equal(t, "missing catalog object id for size: 9XL", appErr.Message)
	require.Empty(t, fake.CallLog(), "no provider call on validation or mapping errors")

	fake.Fail["/v2/orders/calculate"] = squaretest.FailWith{Status: http.StatusBadRequest, Errors: []square.Error{{Category: "INVALID_REQUEST_ERROR", Code: "INVALID_VALUE"}}}
	_, err = svc.Preview(ctx, totals.Input{Cart: []order.Item{{Size: "M"}}, State: "CA"})
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeExternal, appErr.Code)
	require.Equal(t, []square.Error{{Category: "INVALID_REQUEST_ERROR", Code: "INVALID_VALUE"}}, appErr.Details)
}

func TestHandlerPreviewRespondsInDollars(t *testing.T) {
	svc, _ := newService(t)
	h := &totals.Handler{Svc: svc}

	body, _ := json.Marshal(map[string]any{
		"cart":         []map[string]any{{"product": "Pac Tee", "size": "M", "quantity": "2", "price": "$25.00"}},
		"state":        "CA",
		"promoPercent": "10",
	})
	rec := httptest.NewRecorder()
	h.Preview(rec, httptest.NewRequest(http.MethodPost, "/api/v1/totals/preview", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, map[string]any{
		"isCA":       true,
		"itemsGross": 50.0,
		"discount":   5.0,
		"shipping":   8.95,
		"tax":        3.94,
		"total":      57.89,
	}, out)

	rec = httptest.NewRecorder()
	h.Preview(rec, httptest.NewRequest(http.MethodPost, "/api/v1/totals/preview", bytes.NewReader([]byte(`{"cart":[]}`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), totals.MissingInput)
}
