// Package session keeps one query store per cataloging page.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/metrics"
)

const persistTimeout = 2 * time.Second

// Started is the outcome of analyzing a new item.
type Started struct {
	Snapshot       query.Snapshot `json:"snapshot"`
	Fallback       bool           `json:"fallback"`
	FallbackReason string         `json:"fallbackReason,omitempty"`
}

// Service owns live stores. Evicted sessions are restored from the repository on demand.
type Service struct {
	mu     sync.Mutex
	live   *lru.Cache[string, *query.Store]
	repo   Repository
	terms  TermGenerator
	logger *zap.Logger
	newID  func() string
}

// New creates a session service holding at most size live stores.
func New(repo Repository, terms TermGenerator, size int, logger *zap.Logger) (*Service, error) {
	live, err := lru.New[string, *query.Store](size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		live:   live,
		repo:   repo,
		terms:  terms,
		logger: logger,
		newID:  uuid.NewString,
	}, nil
}

// Start analyzes an item and opens a session seeded with its terms.
func (s *Service) Start(ctx context.Context, it item.Item) (Started, error) {
	res, err := s.terms.Generate(ctx, it)
	if err != nil {
		return Started{}, fmt.Errorf("generate terms: %w", err)
	}

	st := query.NewStore(s.newID())
	s.attach(st)
	snap := st.Initialize("", res.Terms, res.Source)
	s.add(snap.SessionID, st)

	return Started{Snapshot: snap, Fallback: res.Fallback, FallbackReason: res.FallbackReason}, nil
}

// Get returns the current snapshot.
func (s *Service) Get(ctx context.Context, id string) (query.Snapshot, error) {
	st, err := s.store(ctx, id)
	if err != nil {
		return query.Snapshot{}, err
	}
	return st.Snapshot(), nil
}

// IsTermSelected reports whether t is selected in the session.
func (s *Service) IsTermSelected(ctx context.Context, id, t string) (bool, error) {
	st, err := s.store(ctx, id)
	if err != nil {
		return false, err
	}
	return st.IsTermSelected(t), nil
}

// UpdateSelections replaces the session's selection.
func (s *Service) UpdateSelections(ctx context.Context, id string, selected []string, opts query.UpdateOptions) (query.Snapshot, error) {
	st, err := s.store(ctx, id)
	if err != nil {
		return query.Snapshot{}, err
	}
	return st.UpdateUserSelections(selected, opts), nil
}

// Reinitialize replaces the candidate set, e.g. after the cataloger edits the form.
func (s *Service) Reinitialize(ctx context.Context, id string, it item.Item, q string) (query.Snapshot, error) {
	st, err := s.store(ctx, id)
	if err != nil {
		return query.Snapshot{}, err
	}
	res, err := s.terms.Generate(ctx, it)
	if err != nil {
		return query.Snapshot{}, fmt.Errorf("generate terms: %w", err)
	}
	return st.Initialize(q, res.Terms, res.Source), nil
}

// Delete drops a session from memory and storage. The live store is detached
// first so a save still in flight cannot write the session back.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	st, ok := s.live.Peek(id)
	s.live.Remove(id)
	metrics.SessionsActive.Set(float64(s.live.Len()))
	s.mu.Unlock()

	if ok {
		st.Close()
	}
	return s.repo.Delete(ctx, id)
}

// store returns the live store for id, restoring it from the repository if needed.
func (s *Service) store(ctx context.Context, id string) (*query.Store, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.live.Get(id); ok {
		return st, nil
	}
	snap, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	st := query.NewStore(id)
	st.Restore(snap)
	s.attach(st)
	s.live.Add(id, st)
	metrics.SessionsActive.Set(float64(s.live.Len()))
	s.logger.Debug("Session restored", zap.String("session_id", id), zap.Int("version", snap.Version))
	return st, nil
}

func (s *Service) add(id string, st *query.Store) {
	s.mu.Lock()
	s.live.Add(id, st)
	metrics.SessionsActive.Set(float64(s.live.Len()))
	s.mu.Unlock()
}

// attach subscribes persistence and metrics to a store.
func (s *Service) attach(st *query.Store) {
	st.Subscribe(s.persist)
	st.Subscribe(func(snap query.Snapshot) {
		metrics.SessionUpdatesTotal.WithLabelValues(string(snap.Source)).Inc()
	})
}

// persist runs detached from the request so a cancelled client does not lose the update.
func (s *Service) persist(snap query.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.repo.Save(ctx, snap); err != nil {
		s.logger.Warn("Failed to persist session",
			zap.String("session_id", snap.SessionID),
			zap.Int("version", snap.Version),
			zap.Error(err),
		)
	}
}
