package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/noah-isme/kinda-storefront/internal/common"
)

// OrderSubject is the subject of every order confirmation.
const OrderSubject = "Your KindaShirty Order Confirmation"

// EmailNotifier sends the order confirmation to the customer, copying the
// orders mailbox.
type EmailNotifier struct {
	Mail     common.EmailSender
	FromName string
	CC       []string
	Support  string
}

// OrderConfirmed renders and sends the confirmation for a captured payment.
func (n EmailNotifier) OrderConfirmed(ctx context.Context, to string, receipt Receipt) error {
	if n.Mail == nil {
		return errors.New("email notifier: sender not configured")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("email notifier: recipient is required")
	}
	if receipt.Support == "" {
		receipt.Support = n.Support
	}
	body, err := RenderReceipt(receipt)
	if err != nil {
		return err
	}
	return n.Mail.Send(ctx, common.Email{
		FromName: n.FromName,
		To:       []string{to},
		Cc:       n.CC,
		Subject:  OrderSubject,
		HTML:     body,
	})
}

// ContactRelay forwards contact form submissions to the store inbox.
type ContactRelay struct {
	Mail     common.EmailSender
	FromName string
	Inbox    string
}

// Relay sends the submission. The submitter's address becomes Reply-To.
func (c ContactRelay) Relay(ctx context.Context, msg ContactMessage) error {
	if c.Mail == nil || strings.TrimSpace(c.Inbox) == "" {
		return errors.New("contact relay: not configured")
	}
	body, err := RenderContact(msg)
	if err != nil {
		return err
	}
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		subject = "No Subject"
	}
	return c.Mail.Send(ctx, common.Email{
		FromName: c.FromName,
		To:       []string{c.Inbox},
		ReplyTo:  strings.TrimSpace(msg.Email),
		Subject:  "New Contact Form Submission: " + subject,
		HTML:     body,
	})
}
