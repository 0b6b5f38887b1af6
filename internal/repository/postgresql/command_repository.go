package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-ledger/internal/entity"
)

var ErrNotFound = errors.New("not found")

// CommandRepository stores the bookkeeping record of asynchronously submitted
// commands. The ledger effects themselves live in the KV store.
type CommandRepository struct {
	pool *pgxpool.Pool
}

func NewCommandRepository(pool *pgxpool.Pool) *CommandRepository {
	return &CommandRepository{pool: pool}
}

func (r *CommandRepository) Create(ctx context.Context, sender, kind string, msg json.RawMessage) (uuid.UUID, error) {
	const q = `
INSERT INTO commands (sender, kind, msg, status)
VALUES ($1, $2, $3, 'pending')
RETURNING id;
`
	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, q, sender, kind, msg).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *CommandRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Command, error) {
	const q = `
SELECT id, sender, kind, msg, status, attributes, error, error_kind, created_at, updated_at
FROM commands
WHERE id = $1;
`

	var (
		cmd        entity.Command
		statusText string
		msgBytes   []byte
		attrBytes  []byte
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&cmd.ID,
		&cmd.Sender,
		&cmd.Kind,
		&msgBytes,
		&statusText,
		&attrBytes,     // NULL => nil
		&cmd.Error,     // NULL => nil
		&cmd.ErrorKind, // NULL => nil
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cmd.Status = entity.CommandStatus(statusText)
	cmd.Msg = json.RawMessage(msgBytes)
	if attrBytes != nil {
		if err := json.Unmarshal(attrBytes, &cmd.Attributes); err != nil {
			return nil, err
		}
	}
	cmd.CreatedAt = createdAt
	cmd.UpdatedAt = updatedAt

	return &cmd, nil
}

// Claim marks the command processing for one worker. It succeeds for a
// pending command, or for one whose previous claim is older than lease (the
// claiming worker is presumed dead). false means someone else holds it or it
// is already finished.
func (r *CommandRepository) Claim(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error) {
	const q = `
UPDATE commands SET status='processing', updated_at=NOW()
WHERE id=$1
  AND (status='pending'
       OR (status='processing' AND updated_at < NOW() - make_interval(secs => $2)));
`
	tag, err := r.pool.Exec(ctx, q, id, lease.Seconds())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CommandRepository) SetResultDone(ctx context.Context, id uuid.UUID, attrs []entity.Attribute) error {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	const q = `UPDATE commands SET status='done', attributes=$2, error=NULL, error_kind=NULL, updated_at=NOW() WHERE id=$1;`

	tag, err := r.pool.Exec(ctx, q, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CommandRepository) SetResultError(ctx context.Context, id uuid.UUID, kind, errText string) error {
	const q = `UPDATE commands SET status='error', error=$2, error_kind=$3, updated_at=NOW() WHERE id=$1;`

	tag, err := r.pool.Exec(ctx, q, id, errText, kind)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
