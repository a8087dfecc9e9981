// Package order builds the Square order shape shared by the totals preview and
// the checkout charge. Both paths must produce the same discount, shipping and
// tax configuration for identical input.
package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/kinda-storefront/internal/catalog"
	"github.com/noah-isme/kinda-storefront/internal/pricing"
	"github.com/noah-isme/kinda-storefront/internal/square"
)

// Item is one cart line as sent by the storefront.
type Item struct {
	Product  string           `json:"product"`
	Size     string           `json:"size"`
	Color    string           `json:"color"`
	Price    pricing.Price    `json:"price"`
	Quantity pricing.Quantity `json:"quantity"`
}

// LineQuantity is the quantity sent to Square. Zero or missing counts as one.
func (i Item) LineQuantity() int {
	if i.Quantity <= 0 {
		return 1
	}
	return int(i.Quantity)
}

// Note is the line note shown on the Square order.
func (i Item) Note() string {
	return strings.TrimSpace(fmt.Sprintf("%s  Size: %s, Color: %s", i.Product, i.Size, i.Color))
}

// Recipient is the shipping address for the fulfillment.
type Recipient struct {
	FirstName string
	Name      string
	Address   string
	Address2  string
	City      string
	State     string
	Zip       string
}

// DisplayName joins first and last name.
func (r Recipient) DisplayName() string {
	return strings.TrimSpace(r.FirstName + " " + r.Name)
}

// SquareAddress converts the recipient to a US address.
func (r Recipient) SquareAddress() *square.Address {
	return &square.Address{
		AddressLine1:                 r.Address,
		AddressLine2:                 r.Address2,
		Locality:                     r.City,
		AdministrativeDistrictLevel1: r.State,
		PostalCode:                   r.Zip,
		Country:                      "US",
	}
}

// Draft is the input to Build.
type Draft struct {
	Items           []Item
	State           string
	DiscountPercent float64
	PromoCode       string

	// Charge-only fields. Preview leaves them empty.
	CustomerID  string
	ReferenceID string
	Recipient   *Recipient
	WithNotes   bool
}

// Built is an order ready to send along with the figures computed locally.
type Built struct {
	Order      square.Order
	Shipping   pricing.Money
	Quantity   int
	TaxEnabled bool
	Percent    float64
}

// Builder holds the store-wide settings for order construction.
type Builder struct {
	LocationID string
	Currency   string
	TaxRegion  string
	Sizes      catalog.SizeMap
}

// TaxEnabled reports whether catalog taxes apply for the shipping state.
func (b Builder) TaxEnabled(state string) bool {
	region := b.TaxRegion
	if region == "" {
		region = "CA"
	}
	return strings.EqualFold(strings.TrimSpace(state), region)
}

// TotalQuantity sums item quantities for shipping. Unparseable quantities count as zero.
func TotalQuantity(items []Item) int {
	total := 0
	for _, item := range items {
		if item.Quantity > 0 {
			total += int(item.Quantity)
		}
	}
	return total
}

// Build maps the draft onto a Square order. Any size without a catalog
// variation fails the whole build.
func (b Builder) Build(d Draft) (Built, error) {
	currency := b.Currency
	if currency == "" {
		currency = "USD"
	}
	lines := make([]square.LineItem, 0, len(d.Items))
	for _, item := range d.Items {
		id, err := b.Sizes.CatalogID(item.Size)
		if err != nil {
			return Built{}, err
		}
		line := square.LineItem{
			CatalogObjectID: id,
			Quantity:        strconv.Itoa(item.LineQuantity()),
		}
		if d.WithNotes {
			line.Note = item.Note()
		}
		lines = append(lines, line)
	}

	qty := TotalQuantity(d.Items)
	shipping := pricing.ShippingCents(qty)
	taxEnabled := b.TaxEnabled(d.State)
	percent := pricing.ClampPercent(d.DiscountPercent)

	o := square.Order{
		LocationID:  b.LocationID,
		CustomerID:  d.CustomerID,
		ReferenceID: d.ReferenceID,
		LineItems:   lines,
		PricingOptions: &square.PricingOptions{
			AutoApplyTaxes:     taxEnabled,
			AutoApplyDiscounts: false,
		},
		ServiceCharges: []square.ServiceCharge{{
			Name:             "Shipping",
			AmountMoney:      &square.Money{Amount: shipping, Currency: currency},
			CalculationPhase: "TOTAL_PHASE",
			Taxable:          false,
		}},
	}
	if percent > 0 {
		name := "Promo"
		if code := strings.TrimSpace(d.PromoCode); code != "" {
			name = "Promo " + code
		}
		o.Discounts = []square.Discount{{
			UID:        "promo",
			Name:       name,
			Scope:      "ORDER",
			Percentage: pricing.FormatPercent(percent),
		}}
	}
	if d.Recipient != nil {
		o.Fulfillments = []square.Fulfillment{{
			Type:  "SHIPMENT",
			State: "PROPOSED",
			ShipmentDetails: &square.ShipmentDetails{
				Recipient: &square.Recipient{
					DisplayName: d.Recipient.DisplayName(),
					Address:     d.Recipient.SquareAddress(),
				},
			},
		}}
	}

	return Built{Order: o, Shipping: shipping, Quantity: qty, TaxEnabled: taxEnabled, Percent: percent}, nil
}

// Totals reconciles the figures Square computed for an order against the
// shipping fee that was sent with it.
func Totals(o *square.Order, shipping pricing.Money) pricing.Totals {
	if o == nil {
		return pricing.Reconcile(0, 0, 0, shipping)
	}
	return pricing.Reconcile(
		square.AmountOf(o.TotalMoney),
		square.AmountOf(o.TotalDiscountMoney),
		square.AmountOf(o.TotalTaxMoney),
		shipping,
	)
}

// ReferenceID is the human-readable order reference: "KS-" plus the last six
// digits of the unix millisecond clock.
func ReferenceID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "KS-" + ms
}
