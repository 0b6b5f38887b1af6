// Package memory is an in-process repository.Store. Safe for concurrent use;
// intended for tests and single-node development.
package memory

import (
	"context"
	"sort"
	"sync"

	"job-ledger/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string]map[string][]byte)}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

func (s *Store) Update(ctx context.Context, fn func(repository.Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{store: s, writes: make(map[string]map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for coll, kv := range tx.writes {
		dst, ok := s.data[coll]
		if !ok {
			dst = make(map[string][]byte, len(kv))
			s.data[coll] = dst
		}
		for k, v := range kv {
			dst[k] = v
		}
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(repository.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&txn{store: s, readOnly: true})
}

type txn struct {
	store    *Store
	readOnly bool
	// writes buffers Set calls until Update commits them.
	writes map[string]map[string][]byte
}

func (t *txn) Get(_ context.Context, collection, key string) ([]byte, error) {
	if v, ok := t.writes[collection][key]; ok {
		return clone(v), nil
	}
	if v, ok := t.store.data[collection][key]; ok {
		return clone(v), nil
	}
	return nil, &repository.NotFoundError{Collection: collection, Key: key}
}

func (t *txn) Set(_ context.Context, collection, key string, value []byte) error {
	if t.readOnly {
		return repository.ErrReadOnly
	}
	kv, ok := t.writes[collection]
	if !ok {
		kv = make(map[string][]byte)
		t.writes[collection] = kv
	}
	kv[key] = clone(value)
	return nil
}

func (t *txn) Scan(ctx context.Context, collection string, fn func(key string, value []byte) error) error {
	keys := make([]string, 0, len(t.store.data[collection])+len(t.writes[collection]))
	seen := make(map[string]struct{})
	for k := range t.store.data[collection] {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range t.writes[collection] {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := t.Get(ctx, collection, k)
		if err != nil {
			return err
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
