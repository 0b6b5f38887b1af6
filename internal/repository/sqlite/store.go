// Package sqlite is a repository.Store on a single SQLite file using the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"job-ledger/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
	// mu serializes transactions within this process; other processes on
	// the same file are held off by the IMMEDIATE lock and busy_timeout.
	mu sync.RWMutex
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "create directory for sqlite db %s", path)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite db %s", path)
	}
	// One connection: an in-memory database exists per connection, and a
	// single writer is all SQLite supports.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "open sqlite db %s", path)
	}
	return &Store{db: db}, nil
}

// busyTimeout is how long a transaction waits for another process's write
// lock before failing with SQLITE_BUSY.
const busyTimeout = 5 * time.Second

// dsn adds per-connection settings for a file database. Transactions begin
// IMMEDIATE so a writer takes the lock up front and waits out busyTimeout,
// instead of failing when it upgrades from a read.
func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ledger_kv (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	PRIMARY KEY (collection, key)
)`)
	return errors.Wrap(err, "migrate sqlite")
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Update(ctx context.Context, fn func(repository.Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, false, fn)
}

func (s *Store) View(ctx context.Context, fn func(repository.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, readOnly bool, fn func(repository.Txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin sqlite tx")
	}
	if err := fn(&txn{tx: tx, readOnly: readOnly}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if readOnly {
		return errors.Wrap(tx.Rollback(), "end sqlite read tx")
	}
	return errors.Wrap(tx.Commit(), "commit sqlite tx")
}

type txn struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *txn) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRowContext(ctx,
		`SELECT value FROM ledger_kv WHERE collection = ? AND key = ?`, collection, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &repository.NotFoundError{Collection: collection, Key: key}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}

func (t *txn) Set(ctx context.Context, collection, key string, value []byte) error {
	if t.readOnly {
		return repository.ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO ledger_kv (collection, key, value) VALUES (?, ?, ?)
ON CONFLICT (collection, key) DO UPDATE SET value = excluded.value`,
		collection, key, value,
	)
	return errors.WithStack(err)
}

func (t *txn) Scan(ctx context.Context, collection string, fn func(key string, value []byte) error) error {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT key, value FROM ledger_kv WHERE collection = ? ORDER BY key`, collection,
	)
	if err != nil {
		return errors.WithStack(err)
	}

	type kv struct {
		key   string
		value []byte
	}
	var entries []kv
	for rows.Next() {
		var e kv
		if err := rows.Scan(&e.key, &e.value); err != nil {
			_ = rows.Close()
			return errors.WithStack(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return errors.WithStack(err)
	}
	if err := rows.Close(); err != nil {
		return errors.WithStack(err)
	}

	for _, e := range entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}
