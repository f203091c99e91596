package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	nmail "net/mail"
	"sort"
	"time"

	mail "github.com/wneessen/go-mail"
)

// DefaultCharset is applied to messages unless overridden with SetCharset.
const DefaultCharset = "UTF-8"

// DefaultSocketTimeout is the default for both the connection and the send timeout.
const DefaultSocketTimeout = 60 * time.Second

var (
	// ErrAlreadyBuilt is returned when Build is called on an already built email.
	ErrAlreadyBuilt = errors.New("email: message already built")
	// ErrMissingSender is returned when no from address was set before Build.
	ErrMissingSender = errors.New("email: from address required")
	// ErrMissingRecipients is returned when to, cc, and bcc are all empty.
	ErrMissingRecipients = errors.New("email: at least one recipient required")
	// ErrMissingHost is returned when no SMTP host can be resolved for a session.
	ErrMissingHost = errors.New("email: no SMTP host configured")
)

// Attachment is a file carried by the message. Encoding is delegated to go-mail.
type Attachment struct {
	Filename string
	Content  []byte
}

// Email accumulates message fields and SMTP settings, then assembles an
// RFC-822/MIME message exactly once via Build. Address parsing, header
// encoding, and transport are delegated to go-mail.
type Email struct {
	hostName          string
	port              int
	username          string
	password          string
	sslOnConnect      bool
	startTLS          bool
	startTLSRequired  bool
	connectionTimeout time.Duration
	sendTimeout       time.Duration
	session           *Session

	charset     string
	subject     string
	from        *nmail.Address
	bounceAddr  string
	to          []*nmail.Address
	cc          []*nmail.Address
	bcc         []*nmail.Address
	replyTo     []*nmail.Address
	headers     map[string]string
	body        string
	htmlBody    string
	attachments []Attachment
	sentDate    time.Time

	msg *mail.Msg
}

// New returns an Email with default charset and timeouts.
func New() *Email {
	return &Email{
		charset:           DefaultCharset,
		connectionTimeout: DefaultSocketTimeout,
		sendTimeout:       DefaultSocketTimeout,
		headers:           make(map[string]string),
	}
}

// SetHostName sets the SMTP host used when no explicit session is configured.
func (e *Email) SetHostName(host string) {
	e.hostName = host
}

// HostName returns the configured SMTP host, falling back to the session's
// host when the email itself has none. Empty when neither is set.
func (e *Email) HostName() string {
	if e.hostName != "" {
		return e.hostName
	}
	if e.session != nil {
		return e.session.Host
	}
	return ""
}

// SetSMTPPort sets the SMTP port. Values < 1 are rejected.
func (e *Email) SetSMTPPort(port int) error {
	if port < 1 {
		return fmt.Errorf("email: invalid SMTP port %d", port)
	}
	e.port = port
	return nil
}

// SetAuthentication sets the SMTP credentials for plain auth.
func (e *Email) SetAuthentication(username, password string) {
	e.username = username
	e.password = password
}

// SetSSLOnConnect toggles implicit TLS on connect.
func (e *Email) SetSSLOnConnect(ssl bool) {
	e.sslOnConnect = ssl
}

// SetStartTLSEnabled toggles opportunistic STARTTLS.
func (e *Email) SetStartTLSEnabled(enabled bool) {
	e.startTLS = enabled
}

// SetStartTLSRequired makes STARTTLS mandatory for the session.
func (e *Email) SetStartTLSRequired(required bool) {
	e.startTLSRequired = required
	if required {
		e.startTLS = true
	}
}

// SetSocketConnectionTimeout sets the timeout for establishing the SMTP connection.
func (e *Email) SetSocketConnectionTimeout(d time.Duration) {
	e.connectionTimeout = d
}

// SocketConnectionTimeout returns the connection timeout, 60s by default.
func (e *Email) SocketConnectionTimeout() time.Duration {
	return e.connectionTimeout
}

// SetSocketTimeout sets the I/O timeout used while sending.
func (e *Email) SetSocketTimeout(d time.Duration) {
	e.sendTimeout = d
}

// SocketTimeout returns the send timeout, 60s by default.
func (e *Email) SocketTimeout() time.Duration {
	return e.sendTimeout
}

// SetSession attaches a pre-configured SMTP session, overriding the email's
// own host/port/auth settings.
func (e *Email) SetSession(s *Session) {
	e.session = s
}

// Session returns the SMTP session for this email, lazily building one from
// the email's own settings. The built session is cached. ErrMissingHost is
// returned when no host is available anywhere.
func (e *Email) Session() (*Session, error) {
	if e.session != nil {
		return e.session, nil
	}
	if e.hostName == "" {
		return nil, ErrMissingHost
	}
	e.session = &Session{
		Host:              e.hostName,
		Port:              e.port,
		Username:          e.username,
		Password:          e.password,
		SSLOnConnect:      e.sslOnConnect,
		StartTLS:          e.startTLS,
		StartTLSRequired:  e.startTLSRequired,
		ConnectionTimeout: e.connectionTimeout,
		Timeout:           e.sendTimeout,
	}
	return e.session, nil
}

// SetCharset overrides the message charset.
func (e *Email) SetCharset(charset string) {
	if charset != "" {
		e.charset = charset
	}
}

// SetSubject sets the message subject.
func (e *Email) SetSubject(subject string) {
	e.subject = subject
}

// Subject returns the message subject.
func (e *Email) Subject() string {
	return e.subject
}

// SetFrom parses and sets the sender address.
func (e *Email) SetFrom(address string) error {
	addr, err := nmail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("email: parse from address: %w", err)
	}
	e.from = addr
	return nil
}

// SetFromFormat sets the sender with a display name.
func (e *Email) SetFromFormat(name, address string) error {
	if _, err := nmail.ParseAddress(address); err != nil {
		return fmt.Errorf("email: parse from address: %w", err)
	}
	e.from = &nmail.Address{Name: name, Address: address}
	return nil
}

// From returns the sender address, nil when unset.
func (e *Email) From() *nmail.Address {
	return e.from
}

// SetBounceAddress sets the envelope sender used for bounces.
func (e *Email) SetBounceAddress(address string) error {
	if _, err := nmail.ParseAddress(address); err != nil {
		return fmt.Errorf("email: parse bounce address: %w", err)
	}
	e.bounceAddr = address
	return nil
}

func appendAddrs(list []*nmail.Address, addresses ...string) ([]*nmail.Address, error) {
	for _, raw := range addresses {
		addr, err := nmail.ParseAddress(raw)
		if err != nil {
			return list, fmt.Errorf("email: parse address %q: %w", raw, err)
		}
		list = append(list, addr)
	}
	return list, nil
}

// AddTo appends one or more TO recipients.
func (e *Email) AddTo(addresses ...string) error {
	list, err := appendAddrs(e.to, addresses...)
	if err != nil {
		return err
	}
	e.to = list
	return nil
}

// AddToFormat appends a TO recipient with a display name.
func (e *Email) AddToFormat(name, address string) error {
	if _, err := nmail.ParseAddress(address); err != nil {
		return fmt.Errorf("email: parse to address: %w", err)
	}
	e.to = append(e.to, &nmail.Address{Name: name, Address: address})
	return nil
}

// AddCc appends one or more CC recipients.
func (e *Email) AddCc(addresses ...string) error {
	list, err := appendAddrs(e.cc, addresses...)
	if err != nil {
		return err
	}
	e.cc = list
	return nil
}

// AddCcFormat appends a CC recipient with a display name.
func (e *Email) AddCcFormat(name, address string) error {
	if _, err := nmail.ParseAddress(address); err != nil {
		return fmt.Errorf("email: parse cc address: %w", err)
	}
	e.cc = append(e.cc, &nmail.Address{Name: name, Address: address})
	return nil
}

// AddBcc appends one or more BCC recipients.
func (e *Email) AddBcc(addresses ...string) error {
	list, err := appendAddrs(e.bcc, addresses...)
	if err != nil {
		return err
	}
	e.bcc = list
	return nil
}

// AddBccFormat appends a BCC recipient with a display name.
func (e *Email) AddBccFormat(name, address string) error {
	if _, err := nmail.ParseAddress(address); err != nil {
		return fmt.Errorf("email: parse bcc address: %w", err)
	}
	e.bcc = append(e.bcc, &nmail.Address{Name: name, Address: address})
	return nil
}

// AddReplyTo appends a reply-to address.
func (e *Email) AddReplyTo(address string) error {
	list, err := appendAddrs(e.replyTo, address)
	if err != nil {
		return err
	}
	e.replyTo = list
	return nil
}

// AddReplyToFormat appends a reply-to address with a display name.
func (e *Email) AddReplyToFormat(name, address string) error {
	if _, err := nmail.ParseAddress(address); err != nil {
		return fmt.Errorf("email: parse reply-to address: %w", err)
	}
	e.replyTo = append(e.replyTo, &nmail.Address{Name: name, Address: address})
	return nil
}

// To returns the accumulated TO recipients in insertion order.
func (e *Email) To() []*nmail.Address { return copyAddrs(e.to) }

// Cc returns the accumulated CC recipients in insertion order.
func (e *Email) Cc() []*nmail.Address { return copyAddrs(e.cc) }

// Bcc returns the accumulated BCC recipients in insertion order.
func (e *Email) Bcc() []*nmail.Address { return copyAddrs(e.bcc) }

// ReplyTo returns the accumulated reply-to addresses in insertion order.
func (e *Email) ReplyTo() []*nmail.Address { return copyAddrs(e.replyTo) }

func copyAddrs(in []*nmail.Address) []*nmail.Address {
	out := make([]*nmail.Address, len(in))
	copy(out, in)
	return out
}

// AddHeader records a custom header. Name and value must be non-empty.
// Setting the same name again replaces the previous value.
func (e *Email) AddHeader(name, value string) error {
	if name == "" {
		return errors.New("email: header name required")
	}
	if value == "" {
		return errors.New("email: header value required")
	}
	e.headers[name] = value
	return nil
}

// Headers returns a copy of the custom header map.
func (e *Email) Headers() map[string]string {
	out := make(map[string]string, len(e.headers))
	for k, v := range e.headers {
		out[k] = v
	}
	return out
}

// SetBody sets the plain-text body.
func (e *Email) SetBody(body string) {
	e.body = body
}

// SetHTMLBody sets the HTML body. When a plain-text body is also present the
// HTML part is added as a multipart alternative.
func (e *Email) SetHTMLBody(body string) {
	e.htmlBody = body
}

// AddAttachment attaches a file to the message.
func (e *Email) AddAttachment(filename string, content []byte) {
	e.attachments = append(e.attachments, Attachment{Filename: filename, Content: content})
}

// SetSentDate overrides the Date header value.
func (e *Email) SetSentDate(t time.Time) {
	e.sentDate = t
}

// SentDate returns the configured sent date, or the current time when unset.
func (e *Email) SentDate() time.Time {
	if e.sentDate.IsZero() {
		return time.Now()
	}
	return e.sentDate
}

// Build assembles the MIME message. It can be called at most once per Email;
// a second call returns ErrAlreadyBuilt. At least one recipient and a from
// address are required.
func (e *Email) Build() error {
	if e.msg != nil {
		return ErrAlreadyBuilt
	}
	if len(e.to)+len(e.cc)+len(e.bcc) == 0 {
		return ErrMissingRecipients
	}
	if e.from == nil {
		return ErrMissingSender
	}

	m := mail.NewMsg(mail.WithCharset(mail.Charset(e.charset)))

	if err := m.FromFormat(e.from.Name, e.from.Address); err != nil {
		return fmt.Errorf("email: set from: %w", err)
	}
	if e.bounceAddr != "" {
		if err := m.EnvelopeFrom(e.bounceAddr); err != nil {
			return fmt.Errorf("email: set envelope from: %w", err)
		}
	}
	for _, a := range e.to {
		if err := m.AddToFormat(a.Name, a.Address); err != nil {
			return fmt.Errorf("email: add to: %w", err)
		}
	}
	for _, a := range e.cc {
		if err := m.AddCcFormat(a.Name, a.Address); err != nil {
			return fmt.Errorf("email: add cc: %w", err)
		}
	}
	for _, a := range e.bcc {
		if err := m.AddBccFormat(a.Name, a.Address); err != nil {
			return fmt.Errorf("email: add bcc: %w", err)
		}
	}
	if len(e.replyTo) > 0 {
		formatted := make([]string, 0, len(e.replyTo))
		for _, a := range e.replyTo {
			formatted = append(formatted, a.String())
		}
		m.SetGenHeader(mail.HeaderReplyTo, formatted...)
	}

	m.Subject(e.subject)
	m.SetDateWithValue(e.SentDate())
	m.SetMessageID()

	// Deterministic header order.
	names := make([]string, 0, len(e.headers))
	for name := range e.headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m.SetGenHeader(mail.Header(name), e.headers[name])
	}

	switch {
	case e.htmlBody != "" && e.body != "":
		m.SetBodyString(mail.TypeTextPlain, e.body)
		m.AddAlternativeString(mail.TypeTextHTML, e.htmlBody)
	case e.htmlBody != "":
		m.SetBodyString(mail.TypeTextHTML, e.htmlBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, e.body)
	}

	for _, att := range e.attachments {
		if err := m.AttachReader(att.Filename, bytes.NewReader(att.Content)); err != nil {
			return fmt.Errorf("email: attach %s: %w", att.Filename, err)
		}
	}

	e.msg = m
	return nil
}

// Msg returns the built message, nil before Build.
func (e *Email) Msg() *mail.Msg {
	return e.msg
}

// Send builds the message (unless already built) and delivers it through a
// client derived from the email's session. The generated Message-ID is
// returned on success.
func (e *Email) Send(ctx context.Context) (string, error) {
	if e.msg == nil {
		if err := e.Build(); err != nil {
			return "", err
		}
	}
	session, err := e.Session()
	if err != nil {
		return "", err
	}
	client, err := session.Client()
	if err != nil {
		return "", err
	}
	if err := client.DialAndSendWithContext(ctx, e.msg); err != nil {
		return "", fmt.Errorf("email: send: %w", err)
	}
	return e.msg.GetMessageID(), nil
}
