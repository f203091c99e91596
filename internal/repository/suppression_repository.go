package repository

import (
	"context"
	"database/sql"
	"strings"

	"courier-delivery-service/internal/domain"
)

// SuppressionRepositoryPG persists the do-not-send list in PostgreSQL.
type SuppressionRepositoryPG struct {
	DB *sql.DB
}

func (r *SuppressionRepositoryPG) List(ctx context.Context, limit, offset int) ([]domain.Suppression, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, address, reason, created_at
        FROM suppressions
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppressions := make([]domain.Suppression, 0)
	for rows.Next() {
		var s domain.Suppression
		if err := rows.Scan(&s.ID, &s.Address, &s.Reason, &s.CreatedAt); err != nil {
			return nil, err
		}
		suppressions = append(suppressions, s)
	}
	return suppressions, nil
}

func (r *SuppressionRepositoryPG) Add(ctx context.Context, s domain.Suppression) (domain.Suppression, error) {
	row := r.DB.QueryRowContext(ctx, `
        INSERT INTO suppressions (address, reason)
        VALUES (LOWER($1), $2)
        ON CONFLICT (address)
        DO UPDATE SET reason=EXCLUDED.reason
        RETURNING id, address, reason, created_at
    `, s.Address, s.Reason)

	var saved domain.Suppression
	err := row.Scan(&saved.ID, &saved.Address, &saved.Reason, &saved.CreatedAt)
	return saved, err
}

func (r *SuppressionRepositoryPG) Delete(ctx context.Context, address string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM suppressions WHERE address=LOWER($1)`, strings.TrimSpace(address))
	return err
}

func (r *SuppressionRepositoryPG) IsSuppressed(ctx context.Context, address string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
        SELECT EXISTS(SELECT 1 FROM suppressions WHERE address=LOWER($1))
    `, strings.TrimSpace(address)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
