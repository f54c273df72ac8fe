// Package query holds the single source of truth for a cataloging page's
// search query and term selection.
//
// Data flows one way: callers mutate the Store through its operations and
// observers receive the resulting Snapshot. Nothing reads selection state back
// from the UI.
package query

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/katalog/internal/domain/term"
)

// Source records who last set the query.
type Source string

const (
	// SourceSystem is the rule engine.
	SourceSystem Source = "system"
	// SourceUser is a cataloger's checkbox/pill change.
	SourceUser Source = "user"
	// SourceAI is an AI term suggestion.
	SourceAI Source = "ai"
)

// ParseSource validates a source string. Empty means system.
func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case "":
		return SourceSystem, nil
	case SourceSystem, SourceUser, SourceAI:
		return src, nil
	default:
		return "", fmt.Errorf("unknown query source %q", s)
	}
}

// Snapshot is an immutable copy of the store state.
type Snapshot struct {
	SessionID    string      `json:"sessionId"`
	CurrentQuery string      `json:"currentQuery"`
	Source       Source      `json:"source"`
	Terms        []term.Term `json:"availableTerms"`
	Version      int         `json:"version"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Selected returns the selected terms in priority order.
func (s Snapshot) Selected() []term.Term {
	out := make([]term.Term, 0, len(s.Terms))
	for _, t := range s.Terms {
		if t.Selected {
			out = append(out, t)
		}
	}
	return out
}

// UpdateOptions tunes UpdateUserSelections.
type UpdateOptions struct {
	// Unselect names core terms the caller explicitly deselects.
	// Core terms absent from the selection but not listed here stay selected.
	Unselect []string
	// Source defaults to SourceUser.
	Source Source
}

// Subscriber receives every new snapshot.
type Subscriber func(Snapshot)

// Store is the query SSoT. Safe for concurrent use. Subscribers are called
// outside the state lock, in registration order, and see snapshots in version
// order. A subscriber may read the store but must not mutate it.
type Store struct {
	// pubMu serializes commit+publish so snapshots reach subscribers in order.
	pubMu sync.Mutex

	mu      sync.Mutex
	id      string
	query   string
	source  Source
	terms   []term.Term
	version int
	updated time.Time

	subMu  sync.Mutex
	subs   map[int]Subscriber
	order  []int
	nextID int

	now func() time.Time
}

// NewStore creates an empty store for a session.
func NewStore(sessionID string) *Store {
	return &Store{
		id:     sessionID,
		source: SourceSystem,
		subs:   make(map[int]Subscriber),
		now:    time.Now,
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
		for i, o := range s.order {
			if o == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Initialize replaces the candidate set. A non-empty query marks matching
// candidates selected and adds query parts with no candidate as keyword terms.
// An empty query keeps the candidates' own selection flags. Core terms are
// always selected after Initialize.
func (s *Store) Initialize(q string, candidates []term.Term, source Source) Snapshot {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	terms := dedupe(candidates)

	if parts := term.SplitQuery(q); len(parts) > 0 {
		for i := range terms {
			terms[i].Selected = false
		}
		for len(parts) > 0 {
			if i, n := longestMatch(terms, parts); i >= 0 {
				terms[i].Selected = true
				parts = parts[n:]
				continue
			}
			t := term.New(parts[0], term.Keyword, term.PriorityUser, string(source))
			t.Selected = true
			terms = append(terms, t)
			parts = parts[1:]
		}
	}
	for i := range terms {
		if terms[i].Core {
			terms[i].Selected = true
		}
	}

	s.terms = sortTerms(terms)
	s.source = source
	snap := s.commitLocked()
	s.mu.Unlock()

	s.publish(snap)
	return snap
}

// Close removes every subscriber. It waits for a publish in progress, so no
// subscriber runs once Close returns. The store stays usable in memory.
func (s *Store) Close() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = make(map[int]Subscriber)
	s.order = nil
}

// Restore loads a persisted snapshot without notifying subscribers.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = snap.SessionID
	s.query = snap.CurrentQuery
	s.source = snap.Source
	s.terms = append([]term.Term(nil), snap.Terms...)
	s.version = snap.Version
	s.updated = snap.UpdatedAt
}

// CurrentQuery returns the query derived from the selected terms.
func (s *Store) CurrentQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// AvailableTerms returns a copy of all candidate terms.
func (s *Store) AvailableTerms() []term.Term {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]term.Term(nil), s.terms...)
}

// SelectedTerms returns the selected terms in priority order.
func (s *Store) SelectedTerms() []term.Term {
	return s.Snapshot().Selected()
}

// IsTermSelected matches t against the selected terms ignoring case and
// surrounding quotes.
func (s *Store) IsTermSelected(t string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.terms, t)
	return i >= 0 && s.terms[i].Selected
}

// UpdateUserSelections makes selected exactly the set of selected terms,
// except that core terms stay selected unless listed in opts.Unselect.
// Unknown terms are added as user terms. Calling it twice with the same
// arguments yields the same query.
func (s *Store) UpdateUserSelections(selected []string, opts UpdateOptions) Snapshot {
	if opts.Source == "" {
		opts.Source = SourceUser
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	want := make(map[string]struct{}, len(selected))
	for _, raw := range selected {
		k := term.Key(raw)
		if k == "" {
			continue
		}
		if _, dup := want[k]; dup {
			continue
		}
		want[k] = struct{}{}
		if indexOf(s.terms, raw) < 0 {
			t := term.New(term.Quote(raw), term.Keyword, term.PriorityUser, term.SourceUser)
			s.terms = append(s.terms, t)
		}
	}
	drop := make(map[string]struct{}, len(opts.Unselect))
	for _, raw := range opts.Unselect {
		drop[term.Key(raw)] = struct{}{}
	}

	for i := range s.terms {
		k := s.terms[i].Key()
		_, keep := want[k]
		_, explicit := drop[k]
		switch {
		case keep && !explicit:
			s.terms[i].Selected = true
		case s.terms[i].Core && !explicit:
			s.terms[i].Selected = true
		default:
			s.terms[i].Selected = false
		}
	}

	s.terms = sortTerms(s.terms)
	s.source = opts.Source
	snap := s.commitLocked()
	s.mu.Unlock()

	s.publish(snap)
	return snap
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) commitLocked() Snapshot {
	s.query = term.Join(selectedOf(s.terms))
	s.version++
	s.updated = s.now().UTC()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:    s.id,
		CurrentQuery: s.query,
		Source:       s.source,
		Terms:        append([]term.Term(nil), s.terms...),
		Version:      s.version,
		UpdatedAt:    s.updated,
	}
}

func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]Subscriber, 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func indexOf(terms []term.Term, s string) int {
	k := term.Key(s)
	for i, t := range terms {
		if t.Key() == k {
			return i
		}
	}
	return -1
}

// longestMatch finds the candidate named by the longest run of leading query
// parts, so an unquoted multi-word name still matches its quoted term.
func longestMatch(terms []term.Term, parts []string) (idx, n int) {
	for n = len(parts); n > 0; n-- {
		if i := indexOf(terms, strings.Join(parts[:n], " ")); i >= 0 {
			return i, n
		}
	}
	return -1, 0
}

func selectedOf(terms []term.Term) []term.Term {
	out := make([]term.Term, 0, len(terms))
	for _, t := range terms {
		if t.Selected {
			out = append(out, t)
		}
	}
	return out
}

func dedupe(in []term.Term) []term.Term {
	out := make([]term.Term, 0, len(in))
	for _, t := range in {
		if t.Key() == "" {
			continue
		}
		if i := indexOf(out, t.Term); i >= 0 {
			if t.Priority > out[i].Priority {
				out[i] = t
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

func sortTerms(terms []term.Term) []term.Term {
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Priority > terms[j].Priority })
	return terms
}
