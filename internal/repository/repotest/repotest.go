// Package repotest holds the behaviour every repository.Store backend must share.
package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ledger/internal/repository"
)

var errAbort = errors.New("abort")

// Run exercises newStore against the repository.Store contract. newStore must
// return an empty store; the suite closes it.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"GetMissing", testGetMissing},
		{"SetThenGet", testSetThenGet},
		{"ReadYourWrites", testReadYourWrites},
		{"RollbackOnError", testRollbackOnError},
		{"ViewIsReadOnly", testViewIsReadOnly},
		{"ScanOrdered", testScanOrdered},
		{"CollectionsIsolated", testCollectionsIsolated},
		{"TypedItemAndMap", testTypedItemAndMap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			require.NoError(t, s.Migrate(context.Background()))
			require.NoError(t, s.Ping(context.Background()))
			tt.fn(t, s)
		})
	}
}

func testGetMissing(t *testing.T, s repository.Store) {
	ctx := context.Background()
	err := s.View(ctx, func(tx repository.Txn) error {
		_, err := tx.Get(ctx, "jobs", "nope")
		return err
	})
	assert.True(t, repository.IsNotFound(err), "got %v", err)
}

func testSetThenGet(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		return tx.Set(ctx, "jobs", "a", []byte(`{"x":1}`))
	}))

	var got []byte
	require.NoError(t, s.View(ctx, func(tx repository.Txn) error {
		var err error
		got, err = tx.Get(ctx, "jobs", "a")
		return err
	}))
	assert.Equal(t, `{"x":1}`, string(got))

	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		return tx.Set(ctx, "jobs", "a", []byte(`{"x":2}`))
	}))
	require.NoError(t, s.View(ctx, func(tx repository.Txn) error {
		var err error
		got, err = tx.Get(ctx, "jobs", "a")
		return err
	}))
	assert.Equal(t, `{"x":2}`, string(got))
}

func testReadYourWrites(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		if err := tx.Set(ctx, "jobs", "k", []byte("v1")); err != nil {
			return err
		}
		got, err := tx.Get(ctx, "jobs", "k")
		if err != nil {
			return err
		}
		assert.Equal(t, "v1", string(got))

		var keys []string
		err = tx.Scan(ctx, "jobs", func(key string, _ []byte) error {
			keys = append(keys, key)
			return nil
		})
		assert.Equal(t, []string{"k"}, keys)
		return err
	}))
}

func testRollbackOnError(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		return tx.Set(ctx, "counter", "_", []byte("1"))
	}))

	err := s.Update(ctx, func(tx repository.Txn) error {
		if err := tx.Set(ctx, "counter", "_", []byte("2")); err != nil {
			return err
		}
		if err := tx.Set(ctx, "jobs", "1", []byte("{}")); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	require.NoError(t, s.View(ctx, func(tx repository.Txn) error {
		got, err := tx.Get(ctx, "counter", "_")
		require.NoError(t, err)
		assert.Equal(t, "1", string(got))

		_, err = tx.Get(ctx, "jobs", "1")
		assert.True(t, repository.IsNotFound(err), "partial write leaked: %v", err)
		return nil
	}))
}

func testViewIsReadOnly(t *testing.T, s repository.Store) {
	ctx := context.Background()
	err := s.View(ctx, func(tx repository.Txn) error {
		return tx.Set(ctx, "jobs", "a", []byte("x"))
	})
	assert.ErrorIs(t, err, repository.ErrReadOnly)
}

func testScanOrdered(t *testing.T, s repository.Store) {
	ctx := context.Background()
	ids := []uint64{10, 2, 7, 0, 100}
	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		for _, id := range ids {
			if err := tx.Set(ctx, "jobs", repository.EncodeKey(id), []byte("{}")); err != nil {
				return err
			}
		}
		return nil
	}))

	var got []uint64
	require.NoError(t, s.View(ctx, func(tx repository.Txn) error {
		return tx.Scan(ctx, "jobs", func(key string, _ []byte) error {
			id, err := repository.DecodeKey(key)
			got = append(got, id)
			return err
		})
	}))
	assert.Equal(t, []uint64{0, 2, 7, 10, 100}, got)
}

func testCollectionsIsolated(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		return tx.Set(ctx, "jobs", "1", []byte("job"))
	}))
	err := s.View(ctx, func(tx repository.Txn) error {
		_, err := tx.Get(ctx, "job_proposals", "1")
		return err
	})
	assert.True(t, repository.IsNotFound(err))
}

type sample struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func testTypedItemAndMap(t *testing.T, s repository.Store) {
	ctx := context.Background()
	counter := repository.NewItem[uint64]("counter")
	items := repository.NewMap[sample]("samples")

	err := s.View(ctx, func(tx repository.Txn) error {
		_, err := counter.Load(ctx, tx)
		return err
	})
	var nf *repository.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "counter", nf.Collection)

	require.NoError(t, s.Update(ctx, func(tx repository.Txn) error {
		if err := counter.Save(ctx, tx, 3); err != nil {
			return err
		}
		if err := items.Save(ctx, tx, 2, sample{Name: "b", N: 2}); err != nil {
			return err
		}
		return items.Save(ctx, tx, 1, sample{Name: "a", N: 1})
	}))

	require.NoError(t, s.View(ctx, func(tx repository.Txn) error {
		n, err := counter.Load(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)

		v, ok, err := items.MayLoad(ctx, tx, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, sample{Name: "b", N: 2}, v)

		_, err = items.Load(ctx, tx, 9)
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "9", nf.Key)

		var seen []uint64
		require.NoError(t, items.Range(ctx, tx, func(id uint64, _ sample) error {
			seen = append(seen, id)
			return nil
		}))
		assert.Equal(t, []uint64{1, 2}, seen)
		return nil
	}))
}
