package postgresql

import (
	"context"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"job-ledger/internal/repository"
)

var _ repository.Store = (*Store)(nil)

const maxSerializationRetries = 5

// Store keeps ledger collections in the ledger_kv table. Each Update runs in a
// serializable transaction and is retried when postgres reports a
// serialization conflict.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps pool. The caller owns the pool; Close does not close it.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Migrate(ctx context.Context) error { return Migrate(ctx, s.pool) }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error { return nil }

func (s *Store) Update(ctx context.Context, fn func(repository.Txn) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}

	var err, fnErr error
	for attempt := 0; attempt < maxSerializationRetries; attempt++ {
		fnErr = nil
		err = pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
			fnErr = fn(&txn{tx: tx})
			return fnErr
		})
		if !isSerializationFailure(err) {
			break
		}
		log.WithField("attempt", attempt+1).Debug("postgres serialization conflict, retrying")
	}
	if err == nil {
		return nil
	}
	// Errors returned by fn belong to the caller and pass through untouched.
	if fnErr != nil && !isSerializationFailure(fnErr) {
		return fnErr
	}
	return errors.Wrap(err, "postgres update")
}

func (s *Store) View(ctx context.Context, fn func(repository.Txn) error) error {
	var fnErr error
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		fnErr = fn(&txn{tx: tx, readOnly: true})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return errors.Wrap(err, "postgres view")
	}
	return nil
}

type txn struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *txn) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRow(ctx,
		`SELECT value FROM ledger_kv WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err := t.tx.Exec(ctx, `
INSERT INTO ledger_kv (collection, key, value) VALUES ($1, $2, $3)
ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value`,
		collection, key, value,
	)
	return errors.WithStack(err)
}

// Scan buffers the rows before calling fn so fn may issue further queries on
// the same transaction.
func (t *txn) Scan(ctx context.Context, collection string, fn func(key string, value []byte) error) error {
	rows, err := t.tx.Query(ctx,
		`SELECT key, value FROM ledger_kv WHERE collection = $1 ORDER BY key COLLATE "C"`,
		collection,
	)
	if err != nil {
		return errors.WithStack(err)
	}

	type kv struct {
		key   string
		value []byte
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (kv, error) {
		var e kv
		err := row.Scan(&e.key, &e.value)
		return e, err
	})
	if err != nil {
		return errors.WithStack(err)
	}

	for _, e := range entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.SerializationFailure
}
