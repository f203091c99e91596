package metrics

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Collector holds the instruments used by the service.
type Collector struct {
	deliveries metric.Int64Counter
	duration   metric.Float64Histogram
}

// Init initializes OpenTelemetry metrics with a basic SDK provider.
func Init() (*Collector, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("courier-delivery-service"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("resource init failed: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)

	meter := otel.Meter("courier-delivery-service")

	deliveries, err := meter.Int64Counter("email_deliveries_total")
	if err != nil {
		return nil, fmt.Errorf("counter init failed: %w", err)
	}

	duration, err := meter.Float64Histogram("email_delivery_duration_seconds")
	if err != nil {
		return nil, fmt.Errorf("histogram init failed: %w", err)
	}

	log.Println("[METRICS] Collector initialized")
	return &Collector{deliveries: deliveries, duration: duration}, nil
}

// ObserveDelivery records the result of a delivery attempt.
func (c *Collector) ObserveDelivery(ctx context.Context, transport, status string, took time.Duration) {
	if c == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("status", status),
	)
	c.deliveries.Add(ctx, 1, attrs)
	c.duration.Record(ctx, took.Seconds(), metric.WithAttributes(attribute.String("transport", transport)))
}
