// Package squaretest provides an in-process stand-in for the Square REST API.
package squaretest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noah-isme/kinda-storefront/internal/resilience"
	"github.com/noah-isme/kinda-storefront/internal/square"
)

// Fake prices orders the way Square does for a flat catalog: every variation
// costs UnitPrice, order discounts apply to item gross, taxes apply at TaxRate
// to the discounted base when auto_apply_taxes is set, and service charges
// are added untaxed.
type Fake struct {
	UnitPrice int64
	TaxRate   float64

	// Fail maps an operation path to a status code and error body.
	Fail map[string]FailWith

	mu        sync.Mutex
	Calls     []string
	Orders    []square.Order
	Payments  []square.PaymentRequest
	Customers map[string]square.Customer
	seq       int

	Server *httptest.Server
}

// FailWith is a canned error response.
type FailWith struct {
	Status int
	Errors []square.Error
}

// New starts a fake and registers its shutdown with t.
func New(t *testing.T) *Fake {
	t.Helper()
	f := &Fake{UnitPrice: 2500, TaxRate: 0.0875, Customers: map[string]square.Customer{}, Fail: map[string]FailWith{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Client returns a Square client pointed at the fake.
func (f *Fake) Client() *square.Client {
	return square.NewClient(f.Server.URL, "test-token", "", f.Server.Client(), resilience.NewBreaker(resilience.BreakerConfig{Target: "square-fake", MinRequests: 1000, FailureRatio: 1}), 5*time.Second)
}

// CallLog returns the paths hit so far, in order.
func (f *Fake) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

// Price computes the totals for o.
func (f *Fake) Price(o square.Order) square.Order {
	var gross int64
	for i, line := range o.LineItems {
		qty, _ := strconv.Atoi(line.Quantity)
		amount := f.UnitPrice * int64(qty)
		o.LineItems[i].GrossSalesMoney = &square.Money{Amount: amount, Currency: "USD"}
		gross += amount
	}
	var discount int64
	for _, d := range o.Discounts {
		pct, _ := strconv.ParseFloat(d.Percentage, 64)
		discount += int64(math.Round(float64(gross) * pct / 100))
	}
	var tax int64
	if o.PricingOptions != nil && o.PricingOptions.AutoApplyTaxes {
		tax = int64(math.Round(float64(gross-discount) * f.TaxRate))
	}
	var charges int64
	for _, c := range o.ServiceCharges {
		charges += square.AmountOf(c.AmountMoney)
	}
	o.TotalDiscountMoney = &square.Money{Amount: discount, Currency: "USD"}
	o.TotalTaxMoney = &square.Money{Amount: tax, Currency: "USD"}
	o.TotalServiceChargeMoney = &square.Money{Amount: charges, Currency: "USD"}
	o.TotalMoney = &square.Money{Amount: gross - discount + tax + charges, Currency: "USD"}
	return o
}

func (f *Fake) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, r.URL.Path)

	if fail, ok := f.Fail[r.URL.Path]; ok {
		w.WriteHeader(fail.Status)
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": fail.Errors})
		return
	}

	switch {
	case r.URL.Path == "/v2/orders/calculate":
		var body struct {
			Order square.Order `json:"order"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.Orders = append(f.Orders, body.Order)
		writeJSON(w, map[string]any{"order": f.Price(body.Order)})
	case r.URL.Path == "/v2/orders":
		var body struct {
			Order square.Order `json:"order"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.Orders = append(f.Orders, body.Order)
		priced := f.Price(body.Order)
		priced.ID = f.nextID("ORDER")
		priced.State = "OPEN"
		writeJSON(w, map[string]any{"order": priced})
	case r.URL.Path == "/v2/customers/search":
		var body struct {
			Query struct {
				Filter struct {
					EmailAddress struct {
						Exact string `json:"exact"`
					} `json:"email_address"`
				} `json:"filter"`
			} `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if c, ok := f.Customers[strings.ToLower(body.Query.Filter.EmailAddress.Exact)]; ok {
			writeJSON(w, map[string]any{"customers": []square.Customer{c}})
			return
		}
		writeJSON(w, map[string]any{})
	case r.URL.Path == "/v2/customers":
		var c square.Customer
		_ = json.NewDecoder(r.Body).Decode(&c)
		c.ID = f.nextID("CUST")
		f.Customers[strings.ToLower(c.EmailAddress)] = c
		writeJSON(w, map[string]any{"customer": c})
	case r.URL.Path == "/v2/payments":
		var p square.PaymentRequest
		_ = json.NewDecoder(r.Body).Decode(&p)
		f.Payments = append(f.Payments, p)
		id := f.nextID("PAY")
		writeJSON(w, map[string]any{"payment": square.Payment{
			ID:          id,
			Status:      "COMPLETED",
			ReceiptURL:  "https://squareup.com/receipt/preview/" + id,
			OrderID:     p.OrderID,
			AmountMoney: &p.AmountMoney,
		}})
	default:
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"errors": []square.Error{{Category: "INVALID_REQUEST_ERROR", Code: "NOT_FOUND"}}})
	}
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
