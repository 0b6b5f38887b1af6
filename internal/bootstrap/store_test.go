package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ledger/internal/bootstrap"
	"job-ledger/internal/config"
	"job-ledger/internal/repository"
)

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	cases := map[string]config.Config{
		"memory": {StoreDriver: config.DriverMemory},
		"sqlite": {StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "ledger.db")},
		"redis":  {StoreDriver: config.DriverRedis, RedisAddr: mr.Addr(), RedisKeyPrefix: "test"},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, closeFn, err := bootstrap.OpenStore(ctx, cfg)
			require.NoError(t, err)
			defer closeFn()

			require.NoError(t, store.Ping(ctx))
			require.NoError(t, store.Update(ctx, func(tx repository.Txn) error {
				return tx.Set(ctx, "c", "k", []byte("v"))
			}))
			require.NoError(t, store.View(ctx, func(tx repository.Txn) error {
				v, err := tx.Get(ctx, "c", "k")
				assert.Equal(t, []byte("v"), v)
				return err
			}))
		})
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := bootstrap.OpenStore(context.Background(), config.Config{StoreDriver: "etcd"})
	assert.Error(t, err)
}
