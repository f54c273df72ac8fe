// Package session persists query snapshots so a cataloging page survives a
// server restart or an LRU eviction.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/katalog/internal/db"
	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/query"
)

// store is the consumer interface for session persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo stores one JSON snapshot per session id.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a session repository. Every save refreshes the TTL.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save writes the snapshot.
func (r *Repo) Save(ctx context.Context, snap query.Snapshot) error {
	if snap.SessionID == "" {
		return fmt.Errorf("save session: empty id: %w", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", snap.SessionID, err)
	}
	if err := r.store.SetWithTTL(ctx, key(snap.SessionID), data, r.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", snap.SessionID, err)
	}
	return nil
}

// Load reads a snapshot. Unknown or expired ids yield domain.ErrSessionNotFound.
func (r *Repo) Load(ctx context.Context, id string) (query.Snapshot, error) {
	data, err := r.store.Get(ctx, key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return query.Snapshot{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
		}
		return query.Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}
	var snap query.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return query.Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, nil
}

// Delete removes a session.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func key(id string) string {
	return domain.KeyPrefix + "session:" + id
}
