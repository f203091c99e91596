package domain

import (
	"context"
	"time"

	"courier-delivery-service/internal/email"
)

const (
	TransportSMTP = "smtp"
	TransportSES  = "ses"
	TransportLog  = "log"
)

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
)

// GroupPrefix marks a recipient entry that names a distribution group rather
// than a literal address.
const GroupPrefix = "group:"

// DeliveryRequest is an inbound request (usually from Kafka) to compose and
// send one email.
type DeliveryRequest struct {
	RequestID   string                 `json:"request_id,omitempty"`
	Template    string                 `json:"template,omitempty"`
	From        string                 `json:"from,omitempty"`
	FromName    string                 `json:"from_name,omitempty"`
	To          []string               `json:"to,omitempty"`
	Cc          []string               `json:"cc,omitempty"`
	Bcc         []string               `json:"bcc,omitempty"`
	ReplyTo     string                 `json:"reply_to,omitempty"`
	Headers     map[string]string      `json:"headers,omitempty"`
	Subject     string                 `json:"subject,omitempty"`
	Body        string                 `json:"body,omitempty"`
	HTMLBody    string                 `json:"html_body,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Transport   string                 `json:"transport,omitempty"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

// MessageTemplate is a named rendering blueprint for outbound emails.
type MessageTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	HTMLBody  string    `json:"html_body,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OutboxMessage is the stored envelope of a composed message.
type OutboxMessage struct {
	ID         int64     `json:"id"`
	MessageID  string    `json:"message_id"`
	RequestID  string    `json:"request_id,omitempty"`
	Sender     string    `json:"sender"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Transport  string    `json:"transport"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// DeliveryLog captures a single delivery attempt for auditing.
type DeliveryLog struct {
	ID        int64                  `json:"id"`
	MessageID string                 `json:"message_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Transport string                 `json:"transport"`
	Target    string                 `json:"target"`
	Status    string                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Suppression is a do-not-send address with the reason it was added.
type Suppression struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SenderIdentity is a registered from-address with its default display name
// and reply-to.
type SenderIdentity struct {
	ID          int64     `json:"id"`
	Address     string    `json:"address"`
	DisplayName string    `json:"display_name,omitempty"`
	ReplyTo     string    `json:"reply_to,omitempty"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateRepository abstracts persistence for message templates.
type TemplateRepository interface {
	List(ctx Context, limit, offset int) ([]MessageTemplate, error)
	Upsert(ctx Context, tpl MessageTemplate) (MessageTemplate, error)
	FindByName(ctx Context, name string) (*MessageTemplate, error)
}

// OutboxRepository stores composed message envelopes.
type OutboxRepository interface {
	Save(ctx Context, m OutboxMessage) (OutboxMessage, error)
	List(ctx Context, status, transport string, limit, offset int) ([]OutboxMessage, int, error)
	Get(ctx Context, id int64) (*OutboxMessage, error)
}

// LogRepository abstracts auditing persistence.
type LogRepository interface {
	Insert(ctx Context, entry DeliveryLog) error
	List(ctx Context, requestID, status, transport string, limit, offset int) ([]DeliveryLog, error)
}

// SuppressionRepository stores the do-not-send list.
type SuppressionRepository interface {
	List(ctx Context, limit, offset int) ([]Suppression, error)
	Add(ctx Context, s Suppression) (Suppression, error)
	Delete(ctx Context, address string) error
	IsSuppressed(ctx Context, address string) (bool, error)
}

// SenderRepository stores registered sender identities.
type SenderRepository interface {
	List(ctx Context) ([]SenderIdentity, error)
	Upsert(ctx Context, s SenderIdentity) (SenderIdentity, error)
	FindByAddress(ctx Context, address string) (*SenderIdentity, error)
}

// GroupRepository resolves named distribution groups to addresses.
type GroupRepository interface {
	ListAddresses(ctx Context, name string) ([]string, error)
	ListGroups(ctx Context) ([]string, error)
}

// Transport is a delivery backend. internal/transport implementations satisfy it.
type Transport interface {
	Deliver(ctx Context, e *email.Email) error
	Name() string
}

// Alerter notifies operators about failed deliveries.
type Alerter interface {
	AlertFailure(ctx Context, text string) error
}

// CallbackSender posts delivery reports back to the requester.
type CallbackSender interface {
	SendReport(ctx Context, url string, payload any) error
}

// Context is aliased to context.Context for convenience while keeping the domain package decoupled.
type Context = context.Context
