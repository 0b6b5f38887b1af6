package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type migration struct {
	name string
	sql  string
}

// migrations are applied in order and recorded in ledger_migrations.
var migrations = []migration{
	{
		name: "001_create_ledger_kv",
		sql: `
CREATE TABLE IF NOT EXISTS ledger_kv (
	collection TEXT  NOT NULL,
	key        TEXT  NOT NULL,
	value      BYTEA NOT NULL,
	PRIMARY KEY (collection, key)
);`,
	},
	{
		name: "002_create_commands",
		sql: `
CREATE TABLE IF NOT EXISTS commands (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	sender      TEXT        NOT NULL,
	kind        TEXT        NOT NULL,
	msg         JSONB       NOT NULL,
	status      TEXT        NOT NULL DEFAULT 'pending',
	attributes  JSONB,
	error       TEXT,
	error_kind  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_commands_status ON commands (status);`,
	},
}

// Migrate applies every migration not yet recorded.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return errors.Wrap(err, "create migrations table")
	}

	for _, m := range migrations {
		err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			var applied bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM ledger_migrations WHERE name = $1)`, m.name,
			).Scan(&applied); err != nil {
				return err
			}
			if applied {
				return nil
			}
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `INSERT INTO ledger_migrations (name) VALUES ($1)`, m.name); err != nil {
				return err
			}
			log.WithField("migration", m.name).Info("applied migration")
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "migration %s", m.name)
		}
	}
	return nil
}
