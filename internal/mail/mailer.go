// Package mail sends transactional workflow emails over SMTP.
//
// The Mailer interface is intentionally narrow so services can be tested
// with an in-memory fake; the production implementation wraps gomail.
package mail

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"

	"github.com/umiddey/propertyflow-backend/internal/config"
	"github.com/umiddey/propertyflow-backend/internal/sysutil"
)

// ErrNotConfigured is returned when no SMTP host is set. Callers treat a
// failed send as a degraded outcome, never as a workflow abort.
var ErrNotConfigured = errors.New("mail: smtp not configured")

// Message is a single outbound email. Body is HTML.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through a real SMTP relay via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from config. It does not dial; connection
// errors surface on the first Send. When no explicit From address is
// configured the SMTP username is used instead, which most relays require
// anyway.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseTLS
	return &SMTPMailer{dialer: d, from: sysutil.FirstNonEmpty(cfg.From, cfg.Username)}
}

// Send delivers one message, honoring context cancellation between the
// dial and the write by checking ctx before handing off to gomail.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.dialer.Host == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.Body)

	if err := m.dialer.DialAndSend(gm); err != nil {
		log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("smtp send failed")
		return err
	}
	log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}
