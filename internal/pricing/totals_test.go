package pricing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShippingCentsTiers(t *testing.T) {
	cases := map[int]Money{
		0:  595,
		1:  595,
		2:  895,
		3:  1195,
		4:  1495,
		5:  1795,
		10: 1795,
	}
	for qty, want := range cases {
		require.Equalf(t, want, ShippingCents(qty), "qty %d", qty)
	}
}

func TestReconcileHoldsTotalInvariant(t *testing.T) {
	// $50 of items, 10% off, CA tax of 4.13 on the $45 base, 2-item shipping.
	totals := Reconcile(4500+895+413, 500, 413, 895)
	require.Equal(t, Money(5000), totals.Subtotal)
	require.Equal(t, totals.Total, totals.Subtotal-totals.Discount+totals.Shipping+totals.Tax)

	// Outside the tax region the tax leg is zero.
	totals = Reconcile(4500+895, 500, 0, 895)
	require.Equal(t, Money(5000), totals.Subtotal)
	require.Equal(t, totals.Total, totals.Subtotal-totals.Discount+totals.Shipping)
}

func TestReconcileClampsSubtotal(t *testing.T) {
	totals := Reconcile(100, 0, 0, 895)
	require.Equal(t, Money(0), totals.Subtotal)
}

func TestClampPercent(t *testing.T) {
	require.Equal(t, 0.0, ClampPercent(-5))
	require.Equal(t, 0.0, ClampPercent(math.NaN()))
	require.Equal(t, 0.0, ClampPercent(math.Inf(1)))
	require.Equal(t, 100.0, ClampPercent(150))
	require.Equal(t, 12.5, ClampPercent(12.5))
}

func TestFormatPercent(t *testing.T) {
	require.Equal(t, "10", FormatPercent(10))
	require.Equal(t, "12.5", FormatPercent(12.5))
}

func TestParsePrice(t *testing.T) {
	c, err := ParsePrice("$25.00")
	require.NoError(t, err)
	require.Equal(t, Money(2500), c)

	c, err = ParsePrice("1,299.995")
	require.NoError(t, err)
	require.Equal(t, Money(130000), c)

	_, err = ParsePrice("free")
	require.ErrorIs(t, err, ErrInvalidPrice)

	require.Equal(t, "45.00", FormatDollars(4500))
	require.Equal(t, 8.95, Dollars(895))
}

func TestLooseJSONNumbers(t *testing.T) {
	var payload struct {
		Qty     Quantity `json:"qty"`
		Percent Percent  `json:"percent"`
		Price   Price    `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"qty":"2","percent":"10","price":25}`), &payload))
	require.Equal(t, Quantity(2), payload.Qty)
	require.Equal(t, Percent(10), payload.Percent)
	require.Equal(t, Money(2500), payload.Price.Cents())

	require.NoError(t, json.Unmarshal([]byte(`{"qty":"lots","percent":null,"price":"$19.99"}`), &payload))
	require.Equal(t, Quantity(0), payload.Qty)
	require.Equal(t, Percent(0), payload.Percent)
	require.Equal(t, Money(1999), payload.Price.Cents())
}
