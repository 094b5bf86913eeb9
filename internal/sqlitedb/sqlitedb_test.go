package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/store"
	"github.com/susu3304/chipbot/internal/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		db, err := Open(context.Background(), "file:"+uuid.NewString()+"?mode=memory&cache=shared")
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return db
	})
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chips.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	sess := &model.Session{ID: uuid.NewString(), ChatID: "c", Status: model.StatusActive, CreatedAt: time.Now()}
	require.NoError(t, db.CreateSession(ctx, sess))
	_, err = db.AddChips(ctx, sess.ID, "Alice", 100)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	ps, err := db.Participants(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.EqualValues(t, 100, ps[0].ChipsBought)
}

func TestMalformedRowIsRejected(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, chat_id, status, created_at, hand) VALUES ('x', 'c', 'active', ?, '{"hole":["As"]}')`,
		time.Now().UTC())
	require.NoError(t, err)

	_, err = db.GetSession(ctx, "x")
	require.ErrorIs(t, err, model.ErrInvalidRecord)
}
