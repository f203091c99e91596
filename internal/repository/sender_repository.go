package repository

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"courier-delivery-service/internal/domain"
)

// SenderRepositoryPG reads registered sender identities.
type SenderRepositoryPG struct {
	DB *sql.DB
}

type senderCacheEntry struct {
	value   *domain.SenderIdentity
	expires time.Time
}

var (
	senderCacheTTL = 5 * time.Minute
	senderCache    = map[string]senderCacheEntry{}
	senderCacheMu  sync.RWMutex
)

func (r *SenderRepositoryPG) List(ctx context.Context) ([]domain.SenderIdentity, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, address, display_name, reply_to, verified, created_at, updated_at
        FROM sender_identities
        ORDER BY address
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	senders := make([]domain.SenderIdentity, 0)
	for rows.Next() {
		var s domain.SenderIdentity
		if err := rows.Scan(&s.ID, &s.Address, &s.DisplayName, &s.ReplyTo, &s.Verified, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		senders = append(senders, s)
	}
	return senders, nil
}

func (r *SenderRepositoryPG) Upsert(ctx context.Context, s domain.SenderIdentity) (domain.SenderIdentity, error) {
	row := r.DB.QueryRowContext(ctx, `
        INSERT INTO sender_identities (address, display_name, reply_to, verified)
        VALUES (LOWER($1), $2, $3, $4)
        ON CONFLICT (address)
        DO UPDATE SET display_name=EXCLUDED.display_name, reply_to=EXCLUDED.reply_to, verified=EXCLUDED.verified, updated_at=NOW()
        RETURNING id, address, display_name, reply_to, verified, created_at, updated_at
    `, s.Address, s.DisplayName, s.ReplyTo, s.Verified)

	var saved domain.SenderIdentity
	err := row.Scan(&saved.ID, &saved.Address, &saved.DisplayName, &saved.ReplyTo, &saved.Verified, &saved.CreatedAt, &saved.UpdatedAt)
	if err == nil {
		senderCacheMu.Lock()
		delete(senderCache, saved.Address)
		senderCacheMu.Unlock()
	}
	return saved, err
}

// FindByAddress fetches a sender identity, caching hits for a short time since
// the same sender is looked up on every delivery.
func (r *SenderRepositoryPG) FindByAddress(ctx context.Context, address string) (*domain.SenderIdentity, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if key == "" || r == nil || r.DB == nil {
		return nil, nil
	}

	senderCacheMu.RLock()
	if entry, ok := senderCache[key]; ok && time.Now().Before(entry.expires) {
		senderCacheMu.RUnlock()
		return entry.value, nil
	}
	senderCacheMu.RUnlock()

	row := r.DB.QueryRowContext(ctx, `
        SELECT id, address, display_name, reply_to, verified, created_at, updated_at
        FROM sender_identities
        WHERE address=$1
    `, key)

	var s domain.SenderIdentity
	if err := row.Scan(&s.ID, &s.Address, &s.DisplayName, &s.ReplyTo, &s.Verified, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	senderCacheMu.Lock()
	senderCache[key] = senderCacheEntry{value: &s, expires: time.Now().Add(senderCacheTTL)}
	senderCacheMu.Unlock()
	return &s, nil
}
