// Package preference stores per-client UI flags.
package preference

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/katalog/internal/domain"
)

// DashboardVisibleField is the flag the extension mirrors in localStorage.
const DashboardVisibleField = "auctionet_market_analysis_visible"

// DefaultDashboardVisible applies until a client saves a choice.
const DefaultDashboardVisible = true

// store is the consumer interface for preferences (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}

// Repo keeps one hash per client id.
type Repo struct {
	store store
}

// New creates a preference repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// DashboardVisible reports the saved flag, or DefaultDashboardVisible.
func (r *Repo) DashboardVisible(ctx context.Context, client string) (bool, error) {
	if client == "" {
		return false, fmt.Errorf("client id is required: %w", domain.ErrInvalidInput)
	}
	fields, err := r.store.HGetAll(ctx, key(client))
	if err != nil {
		return false, fmt.Errorf("read preferences for %s: %w", client, err)
	}
	raw, ok := fields[DashboardVisibleField]
	if !ok {
		return DefaultDashboardVisible, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return DefaultDashboardVisible, nil //nolint:nilerr // a corrupt flag falls back to the default
	}
	return v, nil
}

// SetDashboardVisible saves the flag as "true"/"false", the same string the extension stores.
func (r *Repo) SetDashboardVisible(ctx context.Context, client string, visible bool) error {
	if client == "" {
		return fmt.Errorf("client id is required: %w", domain.ErrInvalidInput)
	}
	err := r.store.HSet(ctx, key(client), map[string]string{
		DashboardVisibleField: strconv.FormatBool(visible),
	})
	if err != nil {
		return fmt.Errorf("save preferences for %s: %w", client, err)
	}
	return nil
}

// ResetDashboardVisible forgets the saved flag so the default applies again.
func (r *Repo) ResetDashboardVisible(ctx context.Context, client string) error {
	if client == "" {
		return fmt.Errorf("client id is required: %w", domain.ErrInvalidInput)
	}
	if err := r.store.HDel(ctx, key(client), DashboardVisibleField); err != nil {
		return fmt.Errorf("reset preferences for %s: %w", client, err)
	}
	return nil
}

func key(client string) string {
	return domain.KeyPrefix + "pref:" + client
}
