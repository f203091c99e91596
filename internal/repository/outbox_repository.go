package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"courier-delivery-service/internal/domain"
)

// OutboxRepositoryPG stores composed message envelopes.
type OutboxRepositoryPG struct {
	DB *sql.DB
}

func (r *OutboxRepositoryPG) Save(ctx context.Context, m domain.OutboxMessage) (domain.OutboxMessage, error) {
	recipientsJSON, _ := json.Marshal(m.Recipients)

	row := r.DB.QueryRowContext(ctx, `
        INSERT INTO outbox_messages (message_id, request_id, sender, recipients, subject, transport, status, error, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at
    `, m.MessageID, m.RequestID, m.Sender, recipientsJSON, m.Subject, m.Transport, m.Status, m.Error, m.SizeBytes)

	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return m, err
	}
	return m, nil
}

func (r *OutboxRepositoryPG) List(ctx context.Context, status, transport string, limit, offset int) ([]domain.OutboxMessage, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

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
        SELECT id, message_id, request_id, sender, recipients, subject, transport, status, error, size_bytes, created_at
        FROM outbox_messages
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d
    `, strings.Join(conditions, " AND "), len(args)+1, len(args)+2)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM outbox_messages WHERE %s`, strings.Join(conditions, " AND "))
	countArgs := append([]interface{}{}, args...)

	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]domain.OutboxMessage, 0)
	for rows.Next() {
		var m domain.OutboxMessage
		var recipients []byte
		if err := rows.Scan(&m.ID, &m.MessageID, &m.RequestID, &m.Sender, &recipients, &m.Subject, &m.Transport, &m.Status, &m.Error, &m.SizeBytes, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(recipients) > 0 {
			_ = json.Unmarshal(recipients, &m.Recipients)
		}
		messages = append(messages, m)
	}

	var total int
	_ = r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total)

	return messages, total, nil
}

func (r *OutboxRepositoryPG) Get(ctx context.Context, id int64) (*domain.OutboxMessage, error) {
	row := r.DB.QueryRowContext(ctx, `
        SELECT id, message_id, request_id, sender, recipients, subject, transport, status, error, size_bytes, created_at
        FROM outbox_messages
        WHERE id=$1
    `, id)

	var m domain.OutboxMessage
	var recipients []byte
	if err := row.Scan(&m.ID, &m.MessageID, &m.RequestID, &m.Sender, &recipients, &m.Subject, &m.Transport, &m.Status, &m.Error, &m.SizeBytes, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(recipients) > 0 {
		_ = json.Unmarshal(recipients, &m.Recipients)
	}
	return &m, nil
}
