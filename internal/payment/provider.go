package payment

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/kinda-storefront/internal/square"
)

// Request captures a single immediate-capture charge against an order.
type Request struct {
	SourceID       string
	IdempotencyKey string
	Amount         int64
	Currency       string
	CustomerID     string
	OrderID        string
	BuyerEmail     string
	Note           string
}

// Result is the provider's view of the captured payment.
type Result struct {
	ID         string
	Status     string
	ReceiptURL string
}

// Provider abstracts the upstream payment processor.
type Provider interface {
	Charge(ctx context.Context, req Request) (Result, error)
}

// PaymentsAPI is the slice of the Square client used for charging.
type PaymentsAPI interface {
	CreatePayment(ctx context.Context, req square.PaymentRequest) (*square.Payment, error)
}

// Square charges through the Square payments API with autocomplete enabled.
type Square struct {
	API        PaymentsAPI
	LocationID string
}

// Charge captures the order total. The call is never retried.
func (s Square) Charge(ctx context.Context, req Request) (Result, error) {
	if s.API == nil {
		return Result{}, errors.New("payment provider not configured")
	}
	if strings.TrimSpace(req.SourceID) == "" {
		return Result{}, errors.New("payment source is required")
	}
	ctx, span := otel.Tracer("payment.Square").Start(ctx, "Square.Charge")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", req.OrderID),
		attribute.Int64("payment.amount", req.Amount),
	)

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	p, err := s.API.CreatePayment(ctx, square.PaymentRequest{
		SourceID:          req.SourceID,
		IdempotencyKey:    req.IdempotencyKey,
		AmountMoney:       square.Money{Amount: req.Amount, Currency: currency},
		LocationID:        s.LocationID,
		CustomerID:        req.CustomerID,
		OrderID:           req.OrderID,
		BuyerEmailAddress: req.BuyerEmail,
		Autocomplete:      true,
		Note:              req.Note,
	})
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}
	span.SetAttributes(attribute.String("payment.status", p.Status))
	return Result{ID: p.ID, Status: p.Status, ReceiptURL: p.ReceiptURL}, nil
}
