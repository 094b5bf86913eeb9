package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/sqlitedb"
	"github.com/susu3304/chipbot/internal/store"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, err := openStore(ctx, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)

	st, err = openStore(ctx, "sqlite://"+filepath.Join(t.TempDir(), "chips.db"))
	require.NoError(t, err)
	assert.IsType(t, &sqlitedb.DB{}, st)
	require.NoError(t, st.Ping(ctx))
	require.NoError(t, st.Close())

	_, err = openStore(ctx, "sqlite://")
	assert.Error(t, err)

	_, err = openStore(ctx, "mysql://root:hunter2@db/chips")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://…@db:5432/chips", redact("postgres://user:pw@db:5432/chips"))
	assert.Equal(t, "memory://", redact("memory://"))
	assert.Equal(t, "…", redact("nonsense"))
}
