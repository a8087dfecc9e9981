package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPrice is returned when a price label cannot be parsed.
var ErrInvalidPrice = errors.New("invalid price")

var hundred = decimal.NewFromInt(100)

// Dollars converts minor units to major units for JSON responses.
func Dollars(c Money) float64 {
	return decimal.New(c, -2).InexactFloat64()
}

// FormatDollars renders minor units with two decimals, without a currency sign.
func FormatDollars(c Money) string {
	return decimal.New(c, -2).StringFixed(2)
}

// ParsePrice turns a storefront price label such as "$25.00" into minor units.
func ParsePrice(label string) (Money, error) {
	cleaned := strings.TrimSpace(label)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// Price is a unit price as sent by the storefront: either a "$25.00" string
// or a bare number.
type Price string

// UnmarshalJSON accepts strings and numbers.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	*p = Price(data)
	return nil
}

// Cents parses the price into minor units, returning 0 when unparseable.
func (p Price) Cents() Money {
	c, err := ParsePrice(string(p))
	if err != nil {
		return 0
	}
	return c
}

// Quantity is a line quantity that tolerates string encodings. Anything
// unparseable decodes to 0.
type Quantity int

// UnmarshalJSON accepts numbers and numeric strings.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity(looseNumber(data))
	return nil
}

// Percent is a discount percentage that tolerates string encodings.
// Anything unparseable decodes to 0.
type Percent float64

// UnmarshalJSON accepts numbers and numeric strings.
func (p *Percent) UnmarshalJSON(data []byte) error {
	*p = Percent(looseNumber(data))
	return nil
}

func looseNumber(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		raw = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
