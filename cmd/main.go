package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"courier-delivery-service/internal/api"
	"courier-delivery-service/internal/callback"
	"courier-delivery-service/internal/config"
	"courier-delivery-service/internal/db"
	"courier-delivery-service/internal/domain"
	"courier-delivery-service/internal/email"
	"courier-delivery-service/internal/kafka"
	"courier-delivery-service/internal/metrics"
	"courier-delivery-service/internal/repository"
	"courier-delivery-service/internal/templates"
	"courier-delivery-service/internal/transport"

	fiber "github.com/gofiber/fiber/v2"
)

func main() {
	cfg := config.LoadConfig()

	db.InitPostgres(cfg.DatabaseURL)
	defer db.CloseDB()

	collector, err := metrics.Init()
	if err != nil {
		log.Printf("[METRICS] init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tplRepo := &repository.TemplateRepositoryPG{DB: db.Conn}
	outboxRepo := &repository.OutboxRepositoryPG{DB: db.Conn}
	logRepo := &repository.LogRepositoryPG{DB: db.Conn}
	suppressionRepo := &repository.SuppressionRepositoryPG{DB: db.Conn}
	senderRepo := &repository.SenderRepositoryPG{DB: db.Conn}
	groupRepo := &repository.GroupRepositoryPG{DB: db.Conn}

	transports := buildTransports(ctx, cfg)
	if _, ok := transports[cfg.Transport]; !ok {
		log.Fatalf("default transport %q is not configured", cfg.Transport)
	}

	var alerter domain.Alerter
	if cfg.SlackAlertWebhook != "" {
		alerter = callback.SlackAlerter{WebhookURL: cfg.SlackAlertWebhook}
	}

	svc := &domain.DeliveryService{
		Templates:        tplRepo,
		Outbox:           outboxRepo,
		Logs:             logRepo,
		Suppressions:     suppressionRepo,
		Senders:          senderRepo,
		Groups:           groupRepo,
		Transports:       transports,
		DefaultTransport: cfg.Transport,
		Renderer:         templates.Renderer{},
		Metrics:          collector,
		Alert:            alerter,
		Callback:         callback.WebhookReporter{},
		Defaults: domain.Defaults{
			From:     cfg.FromAddress,
			FromName: cfg.FromName,
			Charset:  cfg.DefaultCharset,
		},
	}

	kafka.StartConsumer(ctx, svc, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaConsumerGroup)

	app := fiber.New()
	api.RegisterRoutes(app, api.HandlerDeps{
		Outbox:       outboxRepo,
		Logs:         logRepo,
		Templates:    tplRepo,
		Suppressions: suppressionRepo,
		Senders:      senderRepo,
		Groups:       groupRepo,
		Svc:          svc,
		ServiceToken: cfg.ServiceToken,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Printf("[HTTP] delivery service listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("fiber listen failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[EXIT] delivery service shutting down")
}

// buildTransports registers every transport that has enough configuration to
// run. The log transport is always available as a fallback.
func buildTransports(ctx context.Context, cfg *config.Config) map[string]domain.Transport {
	transports := map[string]domain.Transport{
		domain.TransportLog: &transport.LogTransport{},
	}

	if cfg.SMTPHost != "" {
		transports[domain.TransportSMTP] = &transport.SMTPTransport{
			Session: email.Session{
				Host:         cfg.SMTPHost,
				Port:         cfg.SMTPPort,
				Username:     cfg.SMTPUser,
				Password:     cfg.SMTPPass,
				SSLOnConnect: cfg.SMTPSSLOnConnect,
				StartTLS:     cfg.SMTPStartTLS,
				Timeout:      cfg.SMTPTimeout,
			},
		}
	}

	if cfg.SESAccessKeyID != "" && cfg.SESSecretAccessKey != "" {
		ses, err := transport.NewSES(ctx, transport.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		})
		if err != nil {
			log.Printf("[SES] transport init failed: %v", err)
		} else {
			transports[domain.TransportSES] = ses
		}
	}

	return transports
}
