package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ledger/internal/repository"
	"job-ledger/internal/repository/repotest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test"), mr
}

func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStore_CollectionsAreHashes(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		return tx.Set(ctx, "jobs", repository.EncodeKey(3), []byte(`{"title":"x"}`))
	}))

	assert.Equal(t, `{"title":"x"}`, mr.HGet("test:jobs", repository.EncodeKey(3)))
}

func TestStore_RetriesOnConcurrentWrite(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	attempts := 0
	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		attempts++
		if _, err := tx.Get(ctx, "job_counter", "_"); err != nil && !repository.IsNotFound(err) {
			return err
		}
		if attempts == 1 {
			// Another client touches the watched hash between read and commit.
			mr.HSet("test:job_counter", "_", "41")
		}
		return tx.Set(ctx, "job_counter", "_", []byte("1"))
	}))

	assert.Equal(t, 2, attempts)
	assert.Equal(t, "1", mr.HGet("test:job_counter", "_"))
}
