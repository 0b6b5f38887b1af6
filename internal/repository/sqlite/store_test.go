package sqlite

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ledger/internal/repository"
	"job-ledger/internal/repository/repotest"
)

func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		s, err := Open(":memory:")
		require.NoError(t, err)
		return s
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "ledger.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		return tx.Set(ctx, "job_counter", "_", []byte("4"))
	}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.View(ctx, func(tx repository.Txn) error {
		got, err := tx.Get(ctx, "job_counter", "_")
		require.NoError(t, err)
		assert.Equal(t, "4", string(got))
		return nil
	}))
}

func TestStore_FileSettings(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	var timeout int
	require.NoError(t, s.db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, int(busyTimeout.Milliseconds()), timeout)

	var mode string
	require.NoError(t, s.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

// Two handles on one file stand in for the API and the worker: their
// read-modify-write transactions must queue on the file lock, not fail.
func TestStore_TwoHandlesShareOneFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Migrate(ctx))
	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	const perHandle = 25
	increment := func(tx repository.Txn) error {
		n := 0
		raw, err := tx.Get(ctx, "job_counter", "_")
		if err == nil {
			if n, err = strconv.Atoi(string(raw)); err != nil {
				return err
			}
		} else if !repository.IsNotFound(err) {
			return err
		}
		return tx.Set(ctx, "job_counter", "_", []byte(strconv.Itoa(n+1)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2*perHandle)
	for _, s := range []*Store{a, b} {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			for i := 0; i < perHandle; i++ {
				errs <- s.Update(ctx, increment)
			}
		}(s)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, a.View(ctx, func(tx repository.Txn) error {
		raw, err := tx.Get(ctx, "job_counter", "_")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(2*perHandle), string(raw))
		return nil
	}))
}
