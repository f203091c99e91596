package email

import (
	"fmt"
	"time"

	mail "github.com/wneessen/go-mail"
)

// Session holds reusable SMTP connection settings. A single Session can back
// many emails; TLS negotiation and authentication are handled by go-mail.
type Session struct {
	Host              string
	Port              int
	Username          string
	Password          string
	SSLOnConnect      bool
	StartTLS          bool
	StartTLSRequired  bool
	ConnectionTimeout time.Duration
	Timeout           time.Duration
}

// Client builds a go-mail client from the session settings.
func (s *Session) Client() (*mail.Client, error) {
	if s.Host == "" {
		return nil, ErrMissingHost
	}

	opts := []mail.Option{
		mail.WithTLSPolicy(s.tlsPolicy()),
	}
	if s.Port > 0 {
		opts = append(opts, mail.WithPort(s.Port))
	}
	if s.SSLOnConnect {
		opts = append(opts, mail.WithSSL())
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultSocketTimeout
	}
	opts = append(opts, mail.WithTimeout(timeout))
	if s.Username != "" || s.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}

	client, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("email: build client: %w", err)
	}
	return client, nil
}

func (s *Session) tlsPolicy() mail.TLSPolicy {
	switch {
	case s.StartTLSRequired:
		return mail.TLSMandatory
	case s.StartTLS:
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}

// Addr returns the host:port pair for logging.
func (s *Session) Addr() string {
	port := s.Port
	if port == 0 {
		port = 25
	}
	return fmt.Sprintf("%s:%d", s.Host, port)
}
