package domain

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"courier-delivery-service/internal/email"
	"courier-delivery-service/internal/metrics"
	"courier-delivery-service/internal/templates"
)

// Defaults holds fallback composition settings when a request omits them.
type Defaults struct {
	From     string
	FromName string
	Charset  string
}

// DeliveryService orchestrates composition, routing, and delivery.
type DeliveryService struct {
	Templates        TemplateRepository
	Outbox           OutboxRepository
	Logs             LogRepository
	Suppressions     SuppressionRepository
	Senders          SenderRepository
	Groups           GroupRepository
	Transports       map[string]Transport
	DefaultTransport string
	Renderer         templates.Renderer
	Metrics          *metrics.Collector
	Alert            Alerter
	Callback         CallbackSender
	Defaults         Defaults
}

// HandleRequest processes a single delivery request end to end: resolve the
// sender, expand groups, drop suppressed recipients, render the template,
// compose the message, and deliver it.
func (s *DeliveryService) HandleRequest(ctx Context, req DeliveryRequest) error {
	if req.OccurredAt.IsZero() {
		req.OccurredAt = time.Now().UTC()
	}

	from := req.From
	if from == "" {
		from = s.Defaults.From
	}
	fromName := req.FromName
	replyTo := req.ReplyTo

	if s.Senders != nil && from != "" {
		identity, err := s.Senders.FindByAddress(ctx, from)
		if err != nil {
			log.Printf("[DELIVER] sender lookup failed: %v", err)
		} else if identity == nil {
			return s.reject(ctx, req, fmt.Errorf("sender %s is not registered", from))
		} else {
			if fromName == "" {
				fromName = identity.DisplayName
			}
			if replyTo == "" {
				replyTo = identity.ReplyTo
			}
		}
	}

	to, err := s.resolveRecipients(ctx, req.To)
	if err != nil {
		return s.reject(ctx, req, err)
	}
	cc, err := s.resolveRecipients(ctx, req.Cc)
	if err != nil {
		return s.reject(ctx, req, err)
	}
	bcc, err := s.resolveRecipients(ctx, req.Bcc)
	if err != nil {
		return s.reject(ctx, req, err)
	}
	if len(to)+len(cc)+len(bcc) == 0 {
		return s.reject(ctx, req, fmt.Errorf("no deliverable recipients"))
	}

	subject, body, htmlBody, err := s.renderContent(ctx, req)
	if err != nil {
		return s.reject(ctx, req, err)
	}

	e, err := s.compose(req, from, fromName, replyTo, to, cc, bcc, subject, body, htmlBody)
	deliverErr := err
	var transportName string
	if deliverErr == nil {
		var tr Transport
		tr, deliverErr = s.transportFor(req.Transport)
		if deliverErr == nil {
			transportName = tr.Name()
			start := time.Now()
			deliverErr = tr.Deliver(ctx, e)
			took := time.Since(start)

			status := StatusSent
			if deliverErr != nil {
				status = StatusFailed
			}
			if s.Metrics != nil {
				s.Metrics.ObserveDelivery(ctx, transportName, status, took)
			}
		}
	}

	status := StatusSent
	var errMsg string
	if deliverErr != nil {
		status = StatusFailed
		errMsg = deliverErr.Error()
		log.Printf("[DELIVER] request %s failed: %v", req.RequestID, deliverErr)
		if s.Alert != nil {
			text := fmt.Sprintf("email delivery failed (request %s, transport %s): %v", req.RequestID, transportName, deliverErr)
			if alertErr := s.Alert.AlertFailure(ctx, text); alertErr != nil {
				log.Printf("[DELIVER] ops alert failed: %v", alertErr)
			}
		}
	} else {
		log.Printf("[DELIVER] request %s sent via %s to %d recipients", req.RequestID, transportName, len(to)+len(cc)+len(bcc))
	}

	messageID := ""
	var size int64
	if e != nil && e.Msg() != nil {
		messageID = e.Msg().GetMessageID()
		var buf bytes.Buffer
		if n, werr := e.Msg().WriteTo(&buf); werr == nil {
			size = n
		}
	}

	if s.Outbox != nil {
		_, saveErr := s.Outbox.Save(ctx, OutboxMessage{
			MessageID:  messageID,
			RequestID:  req.RequestID,
			Sender:     from,
			Recipients: append(append(append([]string{}, to...), cc...), bcc...),
			Subject:    subject,
			Transport:  transportName,
			Status:     status,
			Error:      errMsg,
			SizeBytes:  size,
			CreatedAt:  time.Now().UTC(),
		})
		if saveErr != nil {
			log.Printf("[DELIVER] outbox save failed: %v", saveErr)
		}
	}

	_ = s.logAttempt(ctx, req, messageID, transportName, strings.Join(to, ","), status, deliverErr)
	s.report(ctx, req, messageID, transportName, status, errMsg)

	return deliverErr
}

// reject records a request that never reached a transport.
func (s *DeliveryService) reject(ctx Context, req DeliveryRequest, cause error) error {
	log.Printf("[DELIVER] request %s rejected: %v", req.RequestID, cause)
	_ = s.logAttempt(ctx, req, "", req.Transport, strings.Join(req.To, ","), StatusRejected, cause)
	s.report(ctx, req, "", req.Transport, StatusRejected, cause.Error())
	return cause
}

// resolveRecipients expands group entries and drops suppressed addresses.
func (s *DeliveryService) resolveRecipients(ctx Context, raw []string) ([]string, error) {
	expanded := make([]string, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.HasPrefix(entry, GroupPrefix) {
			if s.Groups == nil {
				return nil, fmt.Errorf("group recipient %q but no group repository configured", entry)
			}
			name := strings.TrimPrefix(entry, GroupPrefix)
			members, err := s.Groups.ListAddresses(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("expand group %s: %w", name, err)
			}
			expanded = append(expanded, members...)
			continue
		}
		expanded = append(expanded, entry)
	}

	if s.Suppressions == nil {
		return expanded, nil
	}
	kept := make([]string, 0, len(expanded))
	for _, addr := range expanded {
		suppressed, err := s.Suppressions.IsSuppressed(ctx, addr)
		if err != nil {
			log.Printf("[DELIVER] suppression lookup failed for %s: %v", addr, err)
			kept = append(kept, addr)
			continue
		}
		if suppressed {
			log.Printf("[DELIVER] dropped suppressed recipient %s", addr)
			continue
		}
		kept = append(kept, addr)
	}
	return kept, nil
}

// renderContent resolves the template (when named) and renders subject and
// bodies with the request data.
func (s *DeliveryService) renderContent(ctx Context, req DeliveryRequest) (subject, body, htmlBody string, err error) {
	subject, body, htmlBody = req.Subject, req.Body, req.HTMLBody

	if req.Template != "" {
		tpl := builtinTemplate(req.Template)
		if tpl == nil && s.Templates != nil {
			stored, findErr := s.Templates.FindByName(ctx, req.Template)
			if findErr != nil {
				log.Printf("[DELIVER] template lookup failed: %v", findErr)
			}
			if stored != nil {
				tpl = stored
			}
		}
		if tpl == nil {
			return "", "", "", fmt.Errorf("unknown template %q", req.Template)
		}
		subject, body, htmlBody = tpl.Subject, tpl.Body, tpl.HTMLBody
	}

	data := buildTemplateData(req)
	subject = s.render(subject, data)
	body = s.render(body, data)
	htmlBody = s.render(htmlBody, data)
	return subject, body, htmlBody, nil
}

func (s *DeliveryService) render(tpl string, data map[string]interface{}) string {
	if tpl == "" {
		return ""
	}
	out, err := s.Renderer.Render(tpl, data)
	if err != nil {
		log.Printf("[DELIVER] render failed, using raw text: %v", err)
		return tpl
	}
	return out
}

// compose runs the email builder over the resolved request fields.
func (s *DeliveryService) compose(req DeliveryRequest, from, fromName, replyTo string, to, cc, bcc []string, subject, body, htmlBody string) (*email.Email, error) {
	e := email.New()
	e.SetCharset(s.Defaults.Charset)
	e.SetSubject(subject)
	e.SetBody(body)
	if htmlBody != "" {
		e.SetHTMLBody(htmlBody)
	}
	if !req.OccurredAt.IsZero() {
		e.SetSentDate(req.OccurredAt)
	}

	var err error
	if fromName != "" {
		err = e.SetFromFormat(fromName, from)
	} else if from != "" {
		err = e.SetFrom(from)
	}
	if err != nil {
		return nil, err
	}
	if replyTo != "" {
		if err := e.AddReplyTo(replyTo); err != nil {
			return nil, err
		}
	}
	if err := e.AddTo(to...); err != nil {
		return nil, err
	}
	if err := e.AddCc(cc...); err != nil {
		return nil, err
	}
	if err := e.AddBcc(bcc...); err != nil {
		return nil, err
	}
	for name, value := range req.Headers {
		if err := e.AddHeader(name, value); err != nil {
			return nil, err
		}
	}

	if err := e.Build(); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *DeliveryService) transportFor(name string) (Transport, error) {
	if name == "" {
		name = s.DefaultTransport
	}
	tr, ok := s.Transports[name]
	if !ok || tr == nil {
		return nil, fmt.Errorf("unknown transport %q", name)
	}
	return tr, nil
}

func (s *DeliveryService) logAttempt(ctx Context, req DeliveryRequest, messageID, transportName, target, status string, cause error) error {
	if s.Logs == nil {
		return nil
	}

	payload := make(map[string]interface{}, len(req.Data)+2)
	for k, v := range req.Data {
		payload[k] = v
	}
	payload["template"] = req.Template
	payload["occurred_at"] = req.OccurredAt

	var errMsg string
	if cause != nil {
		errMsg = cause.Error()
	}

	return s.Logs.Insert(ctx, DeliveryLog{
		MessageID: messageID,
		RequestID: req.RequestID,
		Transport: transportName,
		Target:    target,
		Status:    status,
		Error:     errMsg,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
}

// report posts the delivery result to the request's callback URL, when set.
func (s *DeliveryService) report(ctx Context, req DeliveryRequest, messageID, transportName, status, errMsg string) {
	if s.Callback == nil || req.CallbackURL == "" {
		return
	}
	payload := map[string]interface{}{
		"request_id": req.RequestID,
		"message_id": messageID,
		"transport":  transportName,
		"status":     status,
	}
	if errMsg != "" {
		payload["error"] = errMsg
	}
	if err := s.Callback.SendReport(ctx, req.CallbackURL, payload); err != nil {
		log.Printf("[DELIVER] callback to %s failed: %v", req.CallbackURL, err)
	}
}

func buildTemplateData(req DeliveryRequest) map[string]interface{} {
	return map[string]interface{}{
		"request": map[string]interface{}{
			"id":          req.RequestID,
			"template":    req.Template,
			"occurred_at": req.OccurredAt,
		},
		"data": req.Data,
	}
}

// builtinTemplate covers common transactional messages so a fresh deployment
// can send them before any templates are stored.
func builtinTemplate(name string) *MessageTemplate {
	switch name {
	case "welcome":
		return &MessageTemplate{
			Name:    name,
			Subject: "Welcome to {{.data.product}}",
			Body:    "Hi {{.data.name}},\n\nYour account is ready. Sign in at {{.data.login_url}} to get started.",
		}
	case "password-reset":
		return &MessageTemplate{
			Name:    name,
			Subject: "Reset your password",
			Body:    "Hi {{.data.name}},\n\nUse the link below to reset your password. It expires in {{.data.ttl_minutes}} minutes.\n\n{{.data.reset_url}}",
		}
	case "maintenance-notice":
		return &MessageTemplate{
			Name:    name,
			Subject: "Scheduled maintenance on {{.data.date}}",
			Body:    "Service will be unavailable between {{.data.window}}. No action is needed on your side.",
		}
	}
	return nil
}
