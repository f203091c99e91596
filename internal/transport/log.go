package transport

import (
	"context"
	"log"
	"strings"

	"courier-delivery-service/internal/email"
)

// LogTransport prints the envelope instead of delivering. Used in development
// and as the fallback when no real transport is configured.
type LogTransport struct{}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Deliver(ctx context.Context, e *email.Email) error {
	if e.Msg() == nil {
		if err := e.Build(); err != nil {
			return err
		}
	}

	msg := e.Msg()
	log.Printf("[MAIL] from=%s to=%s cc=%s bcc=%s subject=%q id=%s",
		e.From().Address,
		strings.Join(msg.GetToString(), ","),
		strings.Join(msg.GetCcString(), ","),
		strings.Join(msg.GetBccString(), ","),
		e.Subject(),
		msg.GetMessageID(),
	)
	return nil
}
