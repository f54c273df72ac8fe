// Package memory is a process-local db.Store for running katalog without Valkey.
// Keys are held in a bounded LRU; the least recently used key is evicted first.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/katalog/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultMaxKeys bounds the store when Config.MaxKeys is zero.
const DefaultMaxKeys = 10000

// Config for the in-memory store.
type Config struct {
	MaxKeys int
}

type entry struct {
	value     []byte
	hash      map[string]string
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store implements db.Store on top of golang-lru.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *entry]
	now   func() time.Time
}

// NewStore creates an in-memory store.
func NewStore(cfg Config) (*Store, error) {
	size := cfg.MaxKeys
	if size <= 0 {
		size = DefaultMaxKeys
	}
	c, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Store{cache: c, now: time.Now}, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all keys.
func (s *Store) Close() { s.cache.Purge() }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// lookup returns a live entry, dropping it if its TTL has passed. Caller holds mu.
func (s *Store) lookup(key string) (*entry, bool) {
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		s.cache.Remove(key)
		return nil, false
	}
	return e, true
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if e.hash != nil {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrWrongType}
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a value and clears any TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with an expiration. A zero ttl means no expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, e)
	return nil
}

// IncrBy increments an integer value, creating it at zero when missing.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		s.cache.Add(key, &entry{value: []byte(strconv.FormatInt(val, 10))})
		return nil
	}
	if e.hash != nil {
		return &db.Error{Op: db.OpIncrBy, Err: db.ErrWrongType}
	}
	cur, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return &db.Error{Op: db.OpIncrBy, Err: fmt.Errorf("value is not an integer: %w", err)}
	}
	e.value = []byte(strconv.FormatInt(cur+val, 10))
	return nil
}

// Expire sets TTL on a key. When nx=true, sets TTL only if the key has no expiry yet.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil
	}
	if nx && !e.expiresAt.IsZero() {
		return nil
	}
	e.expiresAt = s.now().Add(ttl)
	return nil
}

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		e = &entry{hash: make(map[string]string, len(fields))}
		s.cache.Add(key, e)
	}
	if e.hash == nil {
		return &db.Error{Op: db.OpHSet, Err: db.ErrWrongType}
	}
	for k, v := range fields {
		e.hash[k] = v
	}
	return nil
}

// HGetAll returns a copy of all hash fields. A missing key yields an empty map.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]string{}
	e, ok := s.lookup(key)
	if !ok {
		return out, nil
	}
	if e.hash == nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: db.ErrWrongType}
	}
	for k, v := range e.hash {
		out[k] = v
	}
	return out, nil
}

// HDel removes specific fields from a hash. The key goes away with its last field.
func (s *Store) HDel(_ context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil
	}
	if e.hash == nil {
		return &db.Error{Op: db.OpHDel, Err: db.ErrWrongType}
	}
	for _, f := range fields {
		delete(e.hash, f)
	}
	if len(e.hash) == 0 {
		s.cache.Remove(key)
	}
	return nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(key)
	return nil
}

// Len reports the number of keys held, expired ones included until touched.
func (s *Store) Len() int { return s.cache.Len() }
