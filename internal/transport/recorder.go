package transport

import (
	"context"
	"sync"

	"courier-delivery-service/internal/email"
)

// Recorder collects delivered emails instead of sending them. Safe for
// concurrent use; intended for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []*email.Email
	Err  error
}

func NewRecorder() *Recorder {
	return &Recorder{sent: make([]*email.Email, 0)}
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Deliver(ctx context.Context, e *email.Email) error {
	if r.Err != nil {
		return r.Err
	}
	if e.Msg() == nil {
		if err := e.Build(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, e)
	return nil
}

// Sent returns a copy of the recorded emails.
func (r *Recorder) Sent() []*email.Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*email.Email, len(r.sent))
	copy(out, r.sent)
	return out
}

// Reset clears the recorded emails.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = r.sent[:0]
}
