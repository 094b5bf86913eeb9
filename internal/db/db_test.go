package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/store"
	"github.com/susu3304/chipbot/internal/store/storetest"
)

// Set CHIPBOT_TEST_POSTGRES to a disposable database URL to run these.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("CHIPBOT_TEST_POSTGRES")
	if url == "" {
		t.Skip("CHIPBOT_TEST_POSTGRES not set")
	}
	ctx := context.Background()

	storetest.Run(t, func(t *testing.T) store.Store {
		d, err := New(ctx, url)
		require.NoError(t, err)
		t.Cleanup(func() { _ = d.Close() })

		_, err = d.Pool().Exec(ctx, `DROP TABLE IF EXISTS participants, sessions, schema_migrations`)
		require.NoError(t, err)
		require.NoError(t, d.RunMigrations(ctx))
		require.NoError(t, d.RunMigrations(ctx), "migrations are idempotent")
		return d
	})
}
