package api

import (
	"strconv"
	"time"

	"courier-delivery-service/internal/domain"

	fiber "github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires HTTP endpoints.
func RegisterRoutes(app *fiber.App, deps HandlerDeps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/delivery")

	api.Get("/messages", deps.listMessages)
	api.Get("/messages/:id", deps.getMessage)

	api.Get("/logs", deps.listLogs)

	api.Get("/templates", deps.listTemplates)
	api.Post("/templates", deps.upsertTemplate)

	api.Get("/suppressions", deps.listSuppressions)
	api.Post("/suppressions", deps.addSuppression)
	api.Delete("/suppressions/:address", deps.deleteSuppression)

	api.Get("/senders", deps.listSenders)
	api.Post("/senders", deps.upsertSender)

	api.Get("/groups", deps.listGroups)

	// Internal request ingress (used by trusted services without Kafka).
	// /events accepts the same payload shape as the Kafka topic.
	api.Post("/messages", deps.ingestRequest)
	api.Post("/events", deps.ingestRequest)
}

// HandlerDeps groups dependencies for handlers.
type HandlerDeps struct {
	Outbox       domain.OutboxRepository
	Logs         domain.LogRepository
	Templates    domain.TemplateRepository
	Suppressions domain.SuppressionRepository
	Senders      domain.SenderRepository
	Groups       domain.GroupRepository
	ServiceToken string
	Svc          *domain.DeliveryService
}

func (h HandlerDeps) listMessages(c *fiber.Ctx) error {
	status := c.Query("status")
	transport := c.Query("transport")
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	messages, total, err := h.Outbox.List(c.Context(), status, transport, limit, offset)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"messages": messages,
			"total":    total,
		},
	})
}

func (h HandlerDeps) getMessage(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}
	msg, err := h.Outbox.Get(c.Context(), id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if msg == nil {
		return c.Status(404).JSON(fiber.Map{"error": "message not found"})
	}
	return c.JSON(msg)
}

func (h HandlerDeps) listLogs(c *fiber.Ctx) error {
	requestID := c.Query("request_id")
	status := c.Query("status")
	transport := c.Query("transport")
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	logs, err := h.Logs.List(c.Context(), requestID, status, transport, limit, offset)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(logs)
}

func (h HandlerDeps) listTemplates(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	res, err := h.Templates.List(c.Context(), limit, offset)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

func (h HandlerDeps) upsertTemplate(c *fiber.Ctx) error {
	var body domain.MessageTemplate
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing template name"})
	}
	saved, err := h.Templates.Upsert(c.Context(), body)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(saved)
}

func (h HandlerDeps) listSuppressions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	res, err := h.Suppressions.List(c.Context(), limit, offset)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

func (h HandlerDeps) addSuppression(c *fiber.Ctx) error {
	var body domain.Suppression
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.Address == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing address"})
	}
	saved, err := h.Suppressions.Add(c.Context(), body)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(saved)
}

func (h HandlerDeps) deleteSuppression(c *fiber.Ctx) error {
	address := c.Params("address")
	if address == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing address"})
	}
	if err := h.Suppressions.Delete(c.Context(), address); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "ok"})
}

func (h HandlerDeps) listSenders(c *fiber.Ctx) error {
	res, err := h.Senders.List(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

func (h HandlerDeps) upsertSender(c *fiber.Ctx) error {
	var body domain.SenderIdentity
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.Address == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing address"})
	}
	saved, err := h.Senders.Upsert(c.Context(), body)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(saved)
}

func (h HandlerDeps) listGroups(c *fiber.Ctx) error {
	res, err := h.Groups.ListGroups(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// ingestRequest allows trusted services to submit delivery requests directly
// without Kafka.
func (h HandlerDeps) ingestRequest(c *fiber.Ctx) error {
	if h.Svc == nil {
		return c.Status(503).JSON(fiber.Map{"error": "delivery unavailable"})
	}
	token := c.Get("X-Service-Token")
	if h.ServiceToken != "" && token != h.ServiceToken {
		return c.Status(401).JSON(fiber.Map{"error": "unauthorized"})
	}
	var req domain.DeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	if len(req.To) == 0 && len(req.Cc) == 0 && len(req.Bcc) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "missing recipients"})
	}
	if req.OccurredAt.IsZero() {
		req.OccurredAt = time.Now().UTC()
	}
	if err := h.Svc.HandleRequest(c.Context(), req); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(202).JSON(fiber.Map{"status": "accepted"})
}
