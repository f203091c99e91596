package repository

import (
	"context"
	"database/sql"
)

// GroupRepositoryPG resolves distribution groups to member addresses.
type GroupRepositoryPG struct {
	DB *sql.DB
}

func (r *GroupRepositoryPG) ListAddresses(ctx context.Context, name string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT m.address
        FROM group_members m
        JOIN distribution_groups g ON g.id = m.group_id
        WHERE g.name=$1 AND m.is_active=true
        ORDER BY m.address
    `, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := make([]string, 0)
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

func (r *GroupRepositoryPG) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name FROM distribution_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
