package transport

import (
	"context"
	"fmt"
	"log"

	"courier-delivery-service/internal/email"
)

// SMTPTransport delivers through a shared SMTP session via go-mail.
type SMTPTransport struct {
	Session email.Session
}

func (t *SMTPTransport) Name() string { return "smtp" }

// Deliver builds the email when needed and hands the message to a client
// derived from the transport's session.
func (t *SMTPTransport) Deliver(ctx context.Context, e *email.Email) error {
	if e.Msg() == nil {
		if err := e.Build(); err != nil {
			return err
		}
	}

	client, err := t.Session.Client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, e.Msg()); err != nil {
		return fmt.Errorf("smtp deliver via %s: %w", t.Session.Addr(), err)
	}

	log.Printf("[SMTP] delivered %s via %s", e.Msg().GetMessageID(), t.Session.Addr())
	return nil
}
