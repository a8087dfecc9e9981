package promo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/noah-isme/kinda-storefront/internal/obs"
)

// Policy rejections. These are expected outcomes, not failures.
var (
	ErrNotFound         = errors.New("promo: code not found")
	ErrNotApproved      = errors.New("promo: code not approved")
	ErrNotActive        = errors.New("promo: code not active yet")
	ErrExpired          = errors.New("promo: code expired")
	ErrRestrictedEmail  = errors.New("promo: restricted to a specific email")
	ErrRestrictedList   = errors.New("promo: restricted to a list of emails")
	ErrEmailRequired    = errors.New("promo: email required for domain-restricted code")
	ErrRestrictedDomain = errors.New("promo: restricted to a domain")
	ErrInvalidAmount    = errors.New("promo: invalid discount amount")
	ErrInvalidDate      = errors.New("promo: unreadable start or expiry date")
	ErrAlreadyUsed      = errors.New("promo: code already used")
)

var messages = map[error]string{
	ErrNotFound:         "Code not found",
	ErrNotApproved:      "Code not approved.",
	ErrNotActive:        "Code not active yet.",
	ErrExpired:          "Code expired.",
	ErrRestrictedEmail:  "Code restricted to a specific email.",
	ErrRestrictedList:   "Code restricted to a list of emails.",
	ErrEmailRequired:    "Email required for domain-restricted code.",
	ErrRestrictedDomain: "Code restricted to a domain.",
	ErrInvalidAmount:    "Invalid discount amount.",
	ErrInvalidDate:      "Code has an invalid date.",
	ErrAlreadyUsed:      "Code already used.",
}

var metricLabels = map[error]string{
	ErrNotFound:         "not_found",
	ErrNotApproved:      "not_approved",
	ErrNotActive:        "not_active",
	ErrExpired:          "expired",
	ErrRestrictedEmail:  "restricted_email",
	ErrRestrictedList:   "restricted_list",
	ErrEmailRequired:    "email_required",
	ErrRestrictedDomain: "restricted_domain",
	ErrInvalidAmount:    "invalid_amount",
	ErrInvalidDate:      "invalid_date",
	ErrAlreadyUsed:      "already_used",
}

// Message returns the customer-facing text for a policy rejection.
func Message(err error) (string, bool) {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg, true
		}
	}
	return "", false
}

// IsRejection reports whether err is a policy rejection rather than a failure.
func IsRejection(err error) bool {
	_, ok := Message(err)
	return ok
}

// Result is a successful lookup.
type Result struct {
	Valid         bool    `json:"valid"`
	Amount        float64 `json:"amount"`
	MinSubtotal   float64 `json:"minSubtotal"`
	UsageEnforced bool    `json:"usageEnforced"`
}

// Store is the read side of the promo index.
type Store interface {
	Get(code string) (Record, bool)
}

// UsageLedger tracks single-use claims.
type UsageLedger interface {
	Used(ctx context.Context, code, email string) (bool, error)
}

// Checker validates codes against the index and the optional usage ledger.
type Checker struct {
	Store  Store
	Ledger UsageLedger
	Now    func() time.Time
}

// UsageEnforced reports whether single-use is being tracked.
func (c Checker) UsageEnforced() bool {
	return c.Ledger != nil
}

// Lookup resolves a code for the given email. Policy rejections are returned
// as the sentinel errors above.
func (c Checker) Lookup(ctx context.Context, code, email string) (Result, error) {
	res, err := c.lookup(ctx, NormalizeCode(code), NormalizeEmail(email))
	label := "valid"
	if err != nil {
		label = "error"
		for sentinel, l := range metricLabels {
			if errors.Is(err, sentinel) {
				label = l
				break
			}
		}
	}
	obs.Inc(obs.PromoLookupTotal, label)
	return res, err
}

func (c Checker) lookup(ctx context.Context, code, email string) (Result, error) {
	if code == "" || c.Store == nil {
		return Result{}, ErrNotFound
	}
	rec, ok := c.Store.Get(code)
	if !ok {
		return Result{}, ErrNotFound
	}
	if strings.ToLower(strings.TrimSpace(rec.Status)) != "approved" {
		return Result{}, ErrNotApproved
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	if rec.Starts != "" {
		starts, ok := parseTime(rec.Starts)
		if !ok {
			return Result{}, ErrInvalidDate
		}
		if starts.After(now) {
			return Result{}, ErrNotActive
		}
	}
	if rec.Expires != "" {
		expires, ok := parseTime(rec.Expires)
		if !ok {
			return Result{}, ErrInvalidDate
		}
		if now.After(expires) {
			return Result{}, ErrExpired
		}
	}

	if allowed := NormalizeEmail(rec.Email); allowed != "" {
		if email == "" || email != allowed {
			return Result{}, ErrRestrictedEmail
		}
	}
	if len(rec.Emails) > 0 && !containsEmail(rec.Emails, email) {
		return Result{}, ErrRestrictedList
	}
	if len(rec.AllowedDomains) > 0 {
		if email == "" {
			return Result{}, ErrEmailRequired
		}
		if !containsDomain(rec.AllowedDomains, domainOf(email)) {
			return Result{}, ErrRestrictedDomain
		}
	}

	amount, ok := toNumber(rec.RawAmount())
	if !ok || amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	minSubtotal, ok := toNumber(rec.MinSubtotal)
	if !ok {
		minSubtotal = 0
	}

	if c.Ledger != nil && email != "" {
		used, err := c.Ledger.Used(ctx, code, email)
		if err != nil {
			return Result{}, err
		}
		if used {
			return Result{}, ErrAlreadyUsed
		}
	}

	return Result{Valid: true, Amount: amount, MinSubtotal: minSubtotal, UsageEnforced: c.UsageEnforced()}, nil
}

func containsEmail(list []string, email string) bool {
	if email == "" {
		return false
	}
	for _, item := range list {
		if NormalizeEmail(item) == email {
			return true
		}
	}
	return false
}

func containsDomain(list []string, domain string) bool {
	for _, item := range list {
		if strings.ToLower(item) == domain {
			return true
		}
	}
	return false
}

func domainOf(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
