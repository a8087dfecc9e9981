package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/kinda-storefront/internal/catalog"
	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/notify"
	"github.com/noah-isme/kinda-storefront/internal/obs"
	"github.com/noah-isme/kinda-storefront/internal/order"
	"github.com/noah-isme/kinda-storefront/internal/payment"
	"github.com/noah-isme/kinda-storefront/internal/pricing"
	"github.com/noah-isme/kinda-storefront/internal/promo"
	"github.com/noah-isme/kinda-storefront/internal/square"
)

// InvalidInput is the message for any missing required field.
const InvalidInput = "Missing or invalid payment or customer info."

// State is a checkout step. A run only moves forward.
type State string

const (
	StateReceived         State = "received"
	StateCustomerResolved State = "customer_resolved"
	StateOrderCreated     State = "order_created"
	StatePaid             State = "paid"
	StateNotificationSent State = "notification_sent"
	StateCompleted        State = "completed"
)

// Customers is the customer directory.
type Customers interface {
	SearchCustomerByEmail(ctx context.Context, email string) (*square.Customer, error)
	CreateCustomer(ctx context.Context, idempotencyKey string, c square.Customer) (*square.Customer, error)
}

// Orders creates provider orders.
type Orders interface {
	CreateOrder(ctx context.Context, idempotencyKey string, o square.Order) (*square.Order, error)
}

// Discounts re-validates promo codes for the charge.
type Discounts interface {
	Authoritative(ctx context.Context, code, email, ref string) (promo.Grant, error)
}

// Notifier sends the confirmation.
type Notifier interface {
	OrderConfirmed(ctx context.Context, to string, receipt notify.Receipt) error
}

// Locker serializes work on a key. lock.Locker satisfies it.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Customer is the buyer and shipping address.
type Customer struct {
	FirstName string `json:"firstName"`
	Name      string `json:"name"`
	Email     string `json:"email" validate:"required"`
	Address   string `json:"address"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
	Phone     string `json:"phone"`
}

// Request is the charge request body. PromoPercent is accepted for
// compatibility with the storefront but never used to price the charge.
type Request struct {
	Token        string          `json:"token" validate:"required"`
	Cart         []order.Item    `json:"cart" validate:"min=1"`
	Customer     Customer        `json:"customer"`
	PromoPercent pricing.Percent `json:"promoPercent"`
	PromoCode    string          `json:"promoCode"`
}

// Result is returned to the storefront after a successful charge.
type Result struct {
	Success     bool    `json:"success"`
	PaymentID   string  `json:"paymentId"`
	CustomerID  string  `json:"customerId"`
	OrderID     string  `json:"orderId"`
	ReferenceID string  `json:"referenceId"`
	TaxAmount   int64   `json:"taxAmount"`
	Discount    float64 `json:"discount"`
	Shipping    float64 `json:"shipping"`
	Total       float64 `json:"total"`
	Status      string  `json:"status"`
	ReceiptURL  *string `json:"receiptUrl"`
}

// Service runs the authoritative checkout. Nothing the client computed is
// trusted for money: discount, shipping and tax are all derived again here.
type Service struct {
	Builder   order.Builder
	Customers Customers
	Orders    Orders
	Payments  payment.Provider
	Discounts Discounts
	Notifier  Notifier
	Locker    Locker
	LockTTL   time.Duration
	Logger    zerolog.Logger

	Now    func() time.Time
	NewKey func() string
}

type run struct {
	state  State
	ref    string
	logger zerolog.Logger
}

func (r *run) advance(next State) {
	r.state = next
	r.logger.Info().Str("state", string(next)).Msg("checkout_transition")
}

// Charge executes Received -> CustomerResolved -> OrderCreated -> Paid ->
// NotificationSent -> Completed. A failed step stops the run; earlier
// provider side effects are not compensated.
func (s *Service) Charge(ctx context.Context, req Request) (res Result, err error) {
	if err := common.Validate(InvalidInput, req); err != nil {
		obs.Inc(obs.CheckoutTotal, string(StateReceived), "invalid")
		return Result{}, err
	}

	ref := order.ReferenceID(s.now())
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "CheckoutService.Charge")
	defer span.End()
	span.SetAttributes(attribute.String("order.reference_id", ref))

	r := &run{state: StateReceived, ref: ref, logger: s.Logger.With().Str("reference_id", ref).Logger()}
	r.logger.Info().Int("items", len(req.Cart)).Msg("checkout_received")
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			r.logger.Error().Err(err).Str("state", string(r.state)).Msg("checkout_failed")
		}
		obs.Inc(obs.CheckoutTotal, string(r.state), result)
	}()

	cust := req.Customer
	grant, err := s.Discounts.Authoritative(ctx, req.PromoCode, cust.Email, ref)
	if err != nil {
		return Result{}, common.NewAppError(common.CodeInternal, "Could not validate promo code.", 500, err)
	}
	defer func() {
		if err != nil && r.state != StatePaid && r.state != StateNotificationSent {
			if relErr := grant.Release(context.WithoutCancel(ctx)); relErr != nil {
				r.logger.Warn().Err(relErr).Msg("promo claim release failed")
			}
		}
	}()

	recipient := &order.Recipient{
		FirstName: cust.FirstName,
		Name:      cust.Name,
		Address:   cust.Address,
		Address2:  cust.Address2,
		City:      cust.City,
		State:     cust.State,
		Zip:       cust.Zip,
	}
	built, err := s.Builder.Build(order.Draft{
		Items:           req.Cart,
		State:           cust.State,
		DiscountPercent: grant.Percent,
		PromoCode:       req.PromoCode,
		ReferenceID:     ref,
		Recipient:       recipient,
		WithNotes:       true,
	})
	if err != nil {
		var unmapped *catalog.UnmappedSizeError
		if errors.As(err, &unmapped) {
			return Result{}, common.MappingError(err.Error(), err)
		}
		return Result{}, err
	}

	customerID, err := s.resolveCustomer(ctx, r, cust, recipient)
	if err != nil {
		return Result{}, err
	}
	r.advance(StateCustomerResolved)
	built.Order.CustomerID = customerID

	created, err := s.Orders.CreateOrder(ctx, s.newKey(), built.Order)
	if err != nil {
		return Result{}, common.ExternalError(err.Error(), err, square.ErrorDetails(err))
	}
	r.advance(StateOrderCreated)
	totals := order.Totals(created, built.Shipping)

	paid, err := s.Payments.Charge(ctx, payment.Request{
		SourceID:       req.Token,
		IdempotencyKey: s.newKey(),
		Amount:         square.AmountOf(created.TotalMoney),
		Currency:       currencyOf(created),
		CustomerID:     customerID,
		OrderID:        created.ID,
		BuyerEmail:     cust.Email,
		Note:           "KindaShirty order " + ref,
	})
	if err != nil {
		return Result{}, common.ExternalError(err.Error(), err, square.ErrorDetails(err))
	}
	r.advance(StatePaid)
	common.Commit(ctx)

	res = Result{
		Success:     true,
		PaymentID:   paid.ID,
		CustomerID:  customerID,
		OrderID:     created.ID,
		ReferenceID: ref,
		TaxAmount:   totals.Tax,
		Discount:    pricing.Dollars(totals.Discount),
		Shipping:    pricing.Dollars(totals.Shipping),
		Total:       pricing.Dollars(totals.Total),
		Status:      paid.Status,
	}
	if paid.ReceiptURL != "" {
		receipt := paid.ReceiptURL
		res.ReceiptURL = &receipt
	}

	if err := s.Notifier.OrderConfirmed(ctx, cust.Email, receiptFor(ref, req, totals)); err != nil {
		return Result{}, common.ExternalError(
			"Payment captured but the confirmation email could not be sent.",
			err,
			map[string]string{"paymentId": paid.ID, "orderId": created.ID, "referenceId": ref},
		)
	}
	r.advance(StateNotificationSent)
	r.advance(StateCompleted)
	return res, nil
}

// resolveCustomer finds the customer by exact email or creates one. Search
// failures fall through to creation.
func (s *Service) resolveCustomer(ctx context.Context, r *run, cust Customer, recipient *order.Recipient) (string, error) {
	var id string
	resolve := func(ctx context.Context) error {
		found, err := s.Customers.SearchCustomerByEmail(ctx, cust.Email)
		if err != nil {
			r.logger.Warn().Err(err).Msg("customer search failed")
		}
		if found != nil && found.ID != "" {
			id = found.ID
			return nil
		}
		given := cust.FirstName
		if given == "" {
			given = cust.Name
		}
		created, err := s.Customers.CreateCustomer(ctx, s.newKey(), square.Customer{
			GivenName:    given,
			EmailAddress: cust.Email,
			Address:      recipient.SquareAddress(),
			PhoneNumber:  cust.Phone,
		})
		if err != nil {
			return common.ExternalError(err.Error(), err, square.ErrorDetails(err))
		}
		id = created.ID
		return nil
	}

	if s.Locker == nil {
		return id, resolve(ctx)
	}
	key := common.DigestKey("lock:customer", strings.ToLower(strings.TrimSpace(cust.Email)))
	if err := s.Locker.WithLock(ctx, key, s.lockTTL(), resolve); err != nil {
		if common.IsAppError(err) {
			return "", err
		}
		return "", fmt.Errorf("customer lock: %w", err)
	}
	return id, nil
}

func receiptFor(ref string, req Request, t pricing.Totals) notify.Receipt {
	lines := make([]notify.ReceiptLine, 0, len(req.Cart))
	for _, item := range req.Cart {
		lines = append(lines, notify.ReceiptLine{
			Product:   item.Product,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  int(item.Quantity),
			UnitPrice: pricing.FormatDollars(item.Price.Cents()),
		})
	}
	return notify.Receipt{
		ReferenceID: ref,
		Name:        strings.TrimSpace(req.Customer.FirstName + " " + req.Customer.Name),
		Email:       req.Customer.Email,
		Items:       lines,
		Subtotal:    pricing.FormatDollars(t.Subtotal),
		Discount:    pricing.FormatDollars(t.Discount),
		HasDiscount: t.Discount > 0,
		Shipping:    pricing.FormatDollars(t.Shipping),
		Tax:         pricing.FormatDollars(t.Tax),
		Total:       pricing.FormatDollars(t.Total),
	}
}

func currencyOf(o *square.Order) string {
	if o != nil && o.TotalMoney != nil && o.TotalMoney.Currency != "" {
		return o.TotalMoney.Currency
	}
	return ""
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newKey() string {
	if s.NewKey != nil {
		return s.NewKey()
	}
	return uuid.NewString()
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return 10 * time.Second
}
