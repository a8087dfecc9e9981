package notify_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/notify"
)

func TestOrderConfirmedRendersReceipt(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := notify.EmailNotifier{Mail: outbox, FromName: "KindaShirty Orders", CC: []string{"Orders@thekinda.co"}, Support: "support@thekinda.co"}

	err := n.OrderConfirmed(context.Background(), " a@x.com ", notify.Receipt{
		ReferenceID: "KS-123456",
		Name:        "Ada Lovelace",
		Email:       "a@x.com",
		Items:       []notify.ReceiptLine{{Product: "Pac <Tee>", Size: "M", Color: "Black", Quantity: 2, UnitPrice: "25.00"}},
		Subtotal:    "50.00",
		Discount:    "5.00",
		HasDiscount: true,
		Shipping:    "8.95",
		Tax:         "3.94",
		Total:       "57.89",
	})
	require.NoError(t, err)

	sent := outbox.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	require.Equal(t, []string{"a@x.com"}, msg.To)
	require.Equal(t, []string{"Orders@thekinda.co"}, msg.Cc)
	require.Equal(t, notify.OrderSubject, msg.Subject)
	require.Contains(t, msg.HTML, "<h2>Thank you for your order!</h2>")
	require.Contains(t, msg.HTML, "<strong>Order ID:</strong> KS-123456")
	require.Contains(t, msg.HTML, "Pac &lt;Tee&gt;")
	require.Contains(t, msg.HTML, "Size: M | Color: Black")
	require.Contains(t, msg.HTML, "Qty: 2 @ $25.00")
	require.Contains(t, msg.HTML, "<strong>Promo Discount:</strong> -$5.00")
	require.Contains(t, msg.HTML, "<strong>Total Charged:</strong> $57.89")
	require.Contains(t, msg.HTML, "support@thekinda.co")
}

func TestReceiptWithoutDiscountOmitsLine(t *testing.T) {
	body, err := notify.RenderReceipt(notify.Receipt{Shipping: "5.95", Tax: "0.00", Total: "30.95"})
	require.NoError(t, err)
	require.NotContains(t, body, "Promo Discount")
	require.Contains(t, body, "<strong>Shipping:</strong> $5.95")
}

func TestContactRelay(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	relay := notify.ContactRelay{Mail: outbox, FromName: "KindaShirty Contact Form", Inbox: "hello@thekinda.co"}

	err := relay.Relay(context.Background(), notify.ContactMessage{
		Name:    "Grace",
		Email:   "grace@x.com",
		Message: "line one\n<b>line two</b>",
	})
	require.NoError(t, err)

	msg := outbox.Sent()[0]
	require.Equal(t, []string{"hello@thekinda.co"}, msg.To)
	require.Equal(t, "grace@x.com", msg.ReplyTo)
	require.Equal(t, "New Contact Form Submission: No Subject", msg.Subject)
	require.True(t, strings.Contains(msg.HTML, "line one<br>&lt;b&gt;line two&lt;/b&gt;"))
}

func TestContactRelayPropagatesSendError(t *testing.T) {
	relay := notify.ContactRelay{Mail: &common.InMemoryEmail{Err: context.DeadlineExceeded}, Inbox: "hello@thekinda.co"}
	err := relay.Relay(context.Background(), notify.ContactMessage{Subject: "Hi"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSMTPMailerRequiresConfiguration(t *testing.T) {
	err := notify.SMTPMailer{Kind: "contact"}.Send(context.Background(), common.Email{To: []string{"a@x.com"}})
	require.EqualError(t, err, "smtp: mailer not configured")
}
