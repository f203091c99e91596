package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"courier-delivery-service/internal/domain"

	"github.com/segmentio/kafka-go"
)

// StartConsumer begins consuming delivery requests and delegates to the
// delivery service.
func StartConsumer(ctx context.Context, svc *domain.DeliveryService, brokers, topic, group string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})

	log.Printf("[KAFKA] Consumer listening on topic=%s group=%s", topic, group)

	go func() {
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[KAFKA] read error: %v", err)
				time.Sleep(time.Second)
				continue
			}

			req, err := parseRequest(m.Value)
			if err != nil {
				log.Printf("[KAFKA] decode error: %v", err)
				continue
			}

			if len(req.To) == 0 && len(req.Cc) == 0 && len(req.Bcc) == 0 {
				log.Printf("[KAFKA] skipped message with no recipients")
				continue
			}

			if err := svc.HandleRequest(ctx, req); err != nil {
				log.Printf("[DELIVER] handle request failed: %v", err)
			}
		}
	}()
}

func parseRequest(data []byte) (domain.DeliveryRequest, error) {
	var req domain.DeliveryRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return parseLooseRequest(data)
	}

	// Attempt to backfill fields if the payload uses different keys.
	if len(req.To) == 0 || req.Subject == "" {
		generic := make(map[string]interface{})
		if err := json.Unmarshal(data, &generic); err == nil {
			if len(req.To) == 0 {
				req.To = stringList(generic, "recipients", "recipient")
			}
			if req.Subject == "" {
				if v, ok := generic["title"]; ok {
					req.Subject = fmt.Sprintf("%v", v)
				}
			}
			if req.Body == "" {
				if v, ok := generic["message"]; ok {
					req.Body = fmt.Sprintf("%v", v)
				}
			}
			if req.RequestID == "" {
				if v, ok := generic["id"]; ok {
					req.RequestID = fmt.Sprintf("%v", v)
				}
			}
		}
	}

	if req.Data == nil {
		req.Data = map[string]interface{}{}
	}

	return req, nil
}

// parseLooseRequest attempts to extract minimal information from arbitrary payloads.
func parseLooseRequest(data []byte) (domain.DeliveryRequest, error) {
	var req domain.DeliveryRequest
	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return req, err
	}

	req.To = stringList(generic, "to", "recipients", "recipient")
	if v, ok := generic["subject"]; ok {
		req.Subject = fmt.Sprintf("%v", v)
	} else if v, ok := generic["title"]; ok {
		req.Subject = fmt.Sprintf("%v", v)
	}
	if v, ok := generic["body"]; ok {
		req.Body = fmt.Sprintf("%v", v)
	} else if v, ok := generic["message"]; ok {
		req.Body = fmt.Sprintf("%v", v)
	}
	if v, ok := generic["from"]; ok {
		req.From = fmt.Sprintf("%v", v)
	}
	if v, ok := generic["template"]; ok {
		req.Template = fmt.Sprintf("%v", v)
	}
	req.Data = generic
	return req, nil
}

// stringList reads the first of the given keys as either a string or a list
// of strings.
func stringList(generic map[string]interface{}, keys ...string) []string {
	for _, key := range keys {
		v, ok := generic[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return []string{val}
			}
		case []interface{}:
			out := make([]string, 0, len(val))
			for _, item := range val {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}
