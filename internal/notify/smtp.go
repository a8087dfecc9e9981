package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/obs"
)

// SMTPMailer relays HTML mail through an authenticated SMTP submission port.
// The authenticated account is also the envelope sender.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	// Kind labels the email metric, e.g. "order" or "contact".
	Kind   string
	Logger zerolog.Logger
}

// Send implements common.EmailSender.
func (m SMTPMailer) Send(ctx context.Context, email common.Email) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.Inc(obs.EmailSendTotal, m.kind(), result)
	}()

	if strings.TrimSpace(m.Host) == "" || strings.TrimSpace(m.Username) == "" {
		return errors.New("smtp: mailer not configured")
	}
	msg, err := m.message(email)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if m.Port > 0 {
		opts = append(opts, mail.WithPort(m.Port))
	}
	if m.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.Timeout))
	}
	client, err := mail.NewClient(m.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		m.Logger.Error().Err(err).Str("kind", m.kind()).Strs("to", email.To).Msg("email send failed")
		return fmt.Errorf("smtp: send: %w", err)
	}
	m.Logger.Info().Str("kind", m.kind()).Strs("to", email.To).Str("subject", email.Subject).Msg("email sent")
	return nil
}

func (m SMTPMailer) message(email common.Email) (*mail.Msg, error) {
	if len(email.To) == 0 {
		return nil, errors.New("smtp: no recipients")
	}
	msg := mail.NewMsg()
	if err := msg.FromFormat(email.FromName, m.Username); err != nil {
		return nil, fmt.Errorf("smtp: from: %w", err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("smtp: to: %w", err)
	}
	if len(email.Cc) > 0 {
		if err := msg.Cc(email.Cc...); err != nil {
			return nil, fmt.Errorf("smtp: cc: %w", err)
		}
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, fmt.Errorf("smtp: reply-to: %w", err)
		}
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	return msg, nil
}

func (m SMTPMailer) kind() string {
	if m.Kind == "" {
		return "generic"
	}
	return m.Kind
}
