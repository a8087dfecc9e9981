package square

import (
	"errors"
	"fmt"
	"strings"
)

// Money is an amount in the smallest currency unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// AmountOf returns the amount or zero for a missing money field.
func AmountOf(m *Money) int64 {
	if m == nil {
		return 0
	}
	return m.Amount
}

// Address mirrors the Square address object.
type Address struct {
	AddressLine1                 string `json:"address_line_1,omitempty"`
	AddressLine2                 string `json:"address_line_2,omitempty"`
	Locality                     string `json:"locality,omitempty"`
	AdministrativeDistrictLevel1 string `json:"administrative_district_level_1,omitempty"`
	PostalCode                   string `json:"postal_code,omitempty"`
	Country                      string `json:"country,omitempty"`
}

// LineItem is a catalog-backed order line. Quantity is a decimal string as Square expects.
type LineItem struct {
	UID             string `json:"uid,omitempty"`
	CatalogObjectID string `json:"catalog_object_id"`
	Quantity        string `json:"quantity"`
	Note            string `json:"note,omitempty"`
	Name            string `json:"name,omitempty"`
	GrossSalesMoney *Money `json:"gross_sales_money,omitempty"`
	TotalMoney      *Money `json:"total_money,omitempty"`
}

// Discount is an order level percentage discount.
type Discount struct {
	UID        string `json:"uid,omitempty"`
	Name       string `json:"name,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Percentage string `json:"percentage,omitempty"`
	Type       string `json:"type,omitempty"`
}

// ServiceCharge is a flat charge such as shipping. Taxable is always sent.
type ServiceCharge struct {
	UID              string `json:"uid,omitempty"`
	Name             string `json:"name"`
	AmountMoney      *Money `json:"amount_money,omitempty"`
	CalculationPhase string `json:"calculation_phase,omitempty"`
	Taxable          bool   `json:"taxable"`
}

// PricingOptions controls which catalog rules Square applies automatically.
type PricingOptions struct {
	AutoApplyTaxes     bool `json:"auto_apply_taxes"`
	AutoApplyDiscounts bool `json:"auto_apply_discounts"`
}

// Recipient is the shipment recipient.
type Recipient struct {
	DisplayName string   `json:"display_name,omitempty"`
	Address     *Address `json:"address,omitempty"`
}

// ShipmentDetails carries the recipient for SHIPMENT fulfillments.
type ShipmentDetails struct {
	Recipient *Recipient `json:"recipient,omitempty"`
}

// Fulfillment describes how the order will be delivered.
type Fulfillment struct {
	Type            string           `json:"type"`
	State           string           `json:"state,omitempty"`
	ShipmentDetails *ShipmentDetails `json:"shipment_details,omitempty"`
}

// Order is both the request and response shape for the orders API.
type Order struct {
	ID             string          `json:"id,omitempty"`
	LocationID     string          `json:"location_id"`
	CustomerID     string          `json:"customer_id,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	State          string          `json:"state,omitempty"`
	LineItems      []LineItem      `json:"line_items"`
	Discounts      []Discount      `json:"discounts,omitempty"`
	ServiceCharges []ServiceCharge `json:"service_charges,omitempty"`
	Fulfillments   []Fulfillment   `json:"fulfillments,omitempty"`
	PricingOptions *PricingOptions `json:"pricing_options,omitempty"`

	TotalMoney              *Money `json:"total_money,omitempty"`
	TotalTaxMoney           *Money `json:"total_tax_money,omitempty"`
	TotalDiscountMoney      *Money `json:"total_discount_money,omitempty"`
	TotalServiceChargeMoney *Money `json:"total_service_charge_money,omitempty"`
}

// Customer is a directory entry.
type Customer struct {
	ID           string   `json:"id,omitempty"`
	GivenName    string   `json:"given_name,omitempty"`
	EmailAddress string   `json:"email_address,omitempty"`
	PhoneNumber  string   `json:"phone_number,omitempty"`
	Address      *Address `json:"address,omitempty"`
}

// PaymentRequest is the body of CreatePayment.
type PaymentRequest struct {
	SourceID          string `json:"source_id"`
	IdempotencyKey    string `json:"idempotency_key"`
	AmountMoney       Money  `json:"amount_money"`
	LocationID        string `json:"location_id,omitempty"`
	CustomerID        string `json:"customer_id,omitempty"`
	OrderID           string `json:"order_id,omitempty"`
	BuyerEmailAddress string `json:"buyer_email_address,omitempty"`
	Autocomplete      bool   `json:"autocomplete"`
	Note              string `json:"note,omitempty"`
}

// Payment is the payment resource returned by Square.
type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
	OrderID     string `json:"order_id,omitempty"`
	AmountMoney *Money `json:"amount_money,omitempty"`
}

// ItemVariationData is the catalog payload for ITEM_VARIATION objects.
type ItemVariationData struct {
	ItemID      string   `json:"item_id"`
	Name        string   `json:"name"`
	PricingType string   `json:"pricing_type"`
	PriceMoney  *Money   `json:"price_money,omitempty"`
	TaxIDs      []string `json:"tax_ids,omitempty"`
}

// CatalogObject is the subset of catalog fields the storefront touches.
type CatalogObject struct {
	Type              string             `json:"type"`
	ID                string             `json:"id"`
	Version           int64              `json:"version,omitempty"`
	ItemVariationData *ItemVariationData `json:"item_variation_data,omitempty"`
}

// Error is one entry of a Square errors array.
type Error struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}

// APIError is returned for any non-2xx Square response.
type APIError struct {
	StatusCode int
	Errors     []Error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Errors) == 0 {
		return fmt.Sprintf("square: status %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		msg := item.Code
		if item.Detail != "" {
			msg = item.Detail
		}
		parts = append(parts, msg)
	}
	return fmt.Sprintf("square: status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// ErrorDetails returns the provider errors carried by err, or nil.
func ErrorDetails(err error) any {
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		return apiErr.Errors
	}
	return nil
}
