package repository

import (
	"context"
	"database/sql"

	"courier-delivery-service/internal/domain"
)

// TemplateRepositoryPG persists message templates in PostgreSQL.
type TemplateRepositoryPG struct {
	DB *sql.DB
}

func (r *TemplateRepositoryPG) List(ctx context.Context, limit, offset int) ([]domain.MessageTemplate, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, name, subject, body, html_body, is_default, created_at, updated_at
        FROM message_templates
        ORDER BY updated_at DESC
        LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]domain.MessageTemplate, 0)
	for rows.Next() {
		var t domain.MessageTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.HTMLBody, &t.IsDefault, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (r *TemplateRepositoryPG) Upsert(ctx context.Context, tpl domain.MessageTemplate) (domain.MessageTemplate, error) {
	row := r.DB.QueryRowContext(ctx, `
        INSERT INTO message_templates (name, subject, body, html_body, is_default)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (name)
        DO UPDATE SET subject=EXCLUDED.subject, body=EXCLUDED.body, html_body=EXCLUDED.html_body, is_default=EXCLUDED.is_default, updated_at=NOW()
        RETURNING id, name, subject, body, html_body, is_default, created_at, updated_at
    `, tpl.Name, tpl.Subject, tpl.Body, tpl.HTMLBody, tpl.IsDefault)

	var saved domain.MessageTemplate
	err := row.Scan(&saved.ID, &saved.Name, &saved.Subject, &saved.Body, &saved.HTMLBody, &saved.IsDefault, &saved.CreatedAt, &saved.UpdatedAt)
	return saved, err
}

func (r *TemplateRepositoryPG) FindByName(ctx context.Context, name string) (*domain.MessageTemplate, error) {
	row := r.DB.QueryRowContext(ctx, `
        SELECT id, name, subject, body, html_body, is_default, created_at, updated_at
        FROM message_templates
        WHERE name=$1
        ORDER BY is_default DESC, updated_at DESC
        LIMIT 1
    `, name)

	var tpl domain.MessageTemplate
	if err := row.Scan(&tpl.ID, &tpl.Name, &tpl.Subject, &tpl.Body, &tpl.HTMLBody, &tpl.IsDefault, &tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}
