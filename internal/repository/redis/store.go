// Package redis is a repository.Store backed by Redis. Each collection is a
// hash; updates use optimistic WATCH/MULTI/EXEC transactions.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redis.New(client, "ledger")
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"job-ledger/internal/repository"
)

var _ repository.Store = (*Store)(nil)

const maxTxRetries = 10

var ErrTxConflict = errors.New("redis: transaction kept conflicting")

type Store struct {
	client goredis.UniversalClient
	prefix string
}

// New wraps client. The caller owns the client; Close does not close it.
func New(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ledger"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) hashKey(collection string) string {
	return s.prefix + ":" + collection
}

// Migrate is a no-op; hashes are created on first write.
func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) Close() error { return nil }

func (s *Store) Update(ctx context.Context, fn func(repository.Txn) error) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
			t := &txn{
				store:   s,
				reader:  tx,
				tx:      tx,
				watched: make(map[string]bool),
				writes:  make(map[string]map[string][]byte),
			}
			if err := fn(t); err != nil {
				return err
			}
			if len(t.writes) == 0 {
				return nil
			}
			_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				for coll, kv := range t.writes {
					fields := make(map[string]interface{}, len(kv))
					for k, v := range kv {
						fields[k] = v
					}
					pipe.HSet(ctx, s.hashKey(coll), fields)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, goredis.TxFailedErr) {
			log.WithField("attempt", attempt+1).Debug("redis watch conflict, retrying")
			continue
		}
		return err
	}
	return ErrTxConflict
}

// View reads straight from the client. Every read observes committed data
// only since writers publish with MULTI/EXEC.
func (s *Store) View(ctx context.Context, fn func(repository.Txn) error) error {
	return fn(&txn{store: s, reader: s.client, readOnly: true})
}

type reader interface {
	HGet(ctx context.Context, key, field string) *goredis.StringCmd
	HGetAll(ctx context.Context, key string) *goredis.MapStringStringCmd
}

type txn struct {
	store    *Store
	reader   reader
	tx       *goredis.Tx
	readOnly bool
	watched  map[string]bool
	writes   map[string]map[string][]byte
}

// watch adds the collection's hash to the WATCH set before it is first read,
// so a concurrent writer aborts this transaction.
func (t *txn) watch(ctx context.Context, collection string) error {
	if t.tx == nil || t.watched[collection] {
		return nil
	}
	if err := t.tx.Watch(ctx, t.store.hashKey(collection)).Err(); err != nil {
		return fmt.Errorf("redis watch %s: %w", collection, err)
	}
	t.watched[collection] = true
	return nil
}

func (t *txn) Get(ctx context.Context, collection, key string) ([]byte, error) {
	if v, ok := t.writes[collection][key]; ok {
		return append([]byte(nil), v...), nil
	}
	if err := t.watch(ctx, collection); err != nil {
		return nil, err
	}
	v, err := t.reader.HGet(ctx, t.store.hashKey(collection), key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, &repository.NotFoundError{Collection: collection, Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget %s: %w", collection, err)
	}
	return v, nil
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
	kv[key] = append([]byte(nil), value...)
	return nil
}

func (t *txn) Scan(ctx context.Context, collection string, fn func(key string, value []byte) error) error {
	if err := t.watch(ctx, collection); err != nil {
		return err
	}
	stored, err := t.reader.HGetAll(ctx, t.store.hashKey(collection)).Result()
	if err != nil {
		return fmt.Errorf("redis hgetall %s: %w", collection, err)
	}

	merged := make(map[string][]byte, len(stored)+len(t.writes[collection]))
	for k, v := range stored {
		merged[k] = []byte(v)
	}
	for k, v := range t.writes[collection] {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := fn(k, merged[k]); err != nil {
			return err
		}
	}
	return nil
}
