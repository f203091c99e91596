package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"courier-delivery-service/internal/domain"
)

// LogRepositoryPG stores delivery attempt logs.
type LogRepositoryPG struct {
	DB *sql.DB
}

func (r *LogRepositoryPG) Insert(ctx context.Context, entry domain.DeliveryLog) error {
	payloadJSON, _ := json.Marshal(entry.Payload)

	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO delivery_logs (message_id, request_id, transport, target, status, error, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, entry.MessageID, entry.RequestID, entry.Transport, entry.Target, entry.Status, entry.Error, payloadJSON)
	return err
}

func (r *LogRepositoryPG) List(ctx context.Context, requestID, status, transport string, limit, offset int) ([]domain.DeliveryLog, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if requestID != "" {
		conditions = append(conditions, fmt.Sprintf("request_id=$%d", len(args)+1))
		args = append(args, requestID)
	}
	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status=$%d", len(args)+1))
		args = append(args, status)
	}
	if transport != "" {
		conditions = append(conditions, fmt.Sprintf("transport=$%d", len(args)+1))
		args = append(args, transport)
	}

	if limit == 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
        SELECT id, message_id, request_id, transport, target, status, error, payload, created_at
        FROM delivery_logs
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d
    `, strings.Join(conditions, " AND "), len(args)+1, len(args)+2)

	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.DeliveryLog, 0)
	for rows.Next() {
		var entry domain.DeliveryLog
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.MessageID, &entry.RequestID, &entry.Transport, &entry.Target, &entry.Status, &entry.Error, &payload, &entry.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(payload, &entry.Payload)
		logs = append(logs, entry)
	}
	return logs, nil
}
