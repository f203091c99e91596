package transport

import (
	"context"

	"courier-delivery-service/internal/email"
)

// Transport is a delivery backend for composed emails. Implementations own
// their connection settings; the email only carries the message itself.
type Transport interface {
	Deliver(ctx context.Context, e *email.Email) error
	Name() string
}
