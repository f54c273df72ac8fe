package katalog

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/katalog/internal/domain/query"
)

// SessionService manages search sessions, one per cataloging page.
type SessionService struct {
	svc sessionUseCase
	obs *observer
}

// Start analyzes an item and opens a session seeded with its terms.
// AI terms are used when a completer is configured; otherwise, or when the
// completer fails, Fallback is set and the rule engine supplies the terms.
func (s *SessionService) Start(ctx context.Context, it Item) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session_start", start, err) }()

	res, err := s.svc.Start(ctx, toItem(it))
	if err != nil {
		return Session{}, fmt.Errorf("start session: %w", err)
	}
	out := fromSnapshot(res.Snapshot)
	out.Fallback = res.Fallback
	out.FallbackReason = res.FallbackReason
	return out, nil
}

// Get returns the current state of a session.
func (s *SessionService) Get(ctx context.Context, id string) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session_get", start, err, "session_id", id) }()

	snap, err := s.svc.Get(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return fromSnapshot(snap), nil
}

// IsTermSelected reports whether a term is selected, ignoring case and quotes.
func (s *SessionService) IsTermSelected(ctx context.Context, id, term string) (_ bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session_is_selected", start, err, "session_id", id) }()

	ok, err := s.svc.IsTermSelected(ctx, id, term)
	if err != nil {
		return false, fmt.Errorf("check term in session %s: %w", id, err)
	}
	return ok, nil
}

// Select replaces the user's selection. Core terms stay selected unless
// listed in unselect.
func (s *SessionService) Select(ctx context.Context, id string, selected []string, unselect ...string) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session_select", start, err, "session_id", id) }()

	snap, err := s.svc.UpdateSelections(ctx, id, selected, query.UpdateOptions{
		Unselect: unselect,
		Source:   query.SourceUser,
	})
	if err != nil {
		return Session{}, fmt.Errorf("update session %s: %w", id, err)
	}
	return fromSnapshot(snap), nil
}

// Reinitialize regenerates candidates for an edited item. A non-empty q
// overrides the query; otherwise the current selection is kept where possible.
func (s *SessionService) Reinitialize(ctx context.Context, id string, it Item, q string) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session_reinitialize", start, err, "session_id", id) }()

	snap, err := s.svc.Reinitialize(ctx, id, toItem(it), q)
	if err != nil {
		return Session{}, fmt.Errorf("reinitialize session %s: %w", id, err)
	}
	return fromSnapshot(snap), nil
}

// Delete drops a session.
func (s *SessionService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("session_delete", start, err, "session_id", id) }()

	if err = s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
