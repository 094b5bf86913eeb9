// Package storetest holds behaviour tests shared by every store backend.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/store"
)

// Run exercises a backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"SessionLifecycle", testSessionLifecycle},
		{"OneActivePerChat", testOneActivePerChat},
		{"AddChipsFoldsNames", testAddChipsFoldsNames},
		{"ConcurrentBuys", testConcurrentBuys},
		{"SetChipsEnd", testSetChipsEnd},
		{"ClearSession", testClearSession},
		{"ClosedSessionIsImmutable", testClosedSessionIsImmutable},
		{"RankingAndHandRoundTrip", testRankingAndHandRoundTrip},
		{"HistoryNewestFirst", testHistoryNewestFirst},
		{"Counts", testCounts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func newSession(t *testing.T, s store.Store, chatID string) *model.Session {
	t.Helper()
	sess := &model.Session{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		GuildID:   "guild",
		Status:    model.StatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.CreateSession(context.Background(), sess))
	return sess
}

func testSessionLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.ActiveSession(ctx, "chat")
	require.ErrorIs(t, err, store.ErrNotFound)

	sess := newSession(t, s, "chat")
	got, err := s.ActiveSession(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Nil(t, got.StartedAt)

	start := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.MarkStarted(ctx, sess.ID, start))
	require.NoError(t, s.MarkStarted(ctx, sess.ID, start.Add(time.Hour)))
	got, err = s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	assert.True(t, start.Equal(*got.StartedAt), "second MarkStarted must not move the start")

	require.NoError(t, s.EndSession(ctx, sess.ID, start.Add(2*time.Hour)))
	_, err = s.ActiveSession(ctx, "chat")
	require.ErrorIs(t, err, store.ErrNotFound)
	got, err = s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInactive, got.Status)
	require.NotNil(t, got.EndedAt)

	_, err = s.GetSession(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testOneActivePerChat(t *testing.T, s store.Store) {
	newSession(t, s, "chat")
	err := s.CreateSession(context.Background(), &model.Session{
		ID:        uuid.NewString(),
		ChatID:    "chat",
		Status:    model.StatusActive,
		CreatedAt: time.Now(),
	})
	require.ErrorIs(t, err, store.ErrActiveExists)

	// Other chats are unaffected.
	newSession(t, s, "other")
}

func testAddChipsFoldsNames(t *testing.T, s store.Store) {
	ctx := context.Background()
	sess := newSession(t, s, "chat")

	total, err := s.AddChips(ctx, sess.ID, "Alice", 100)
	require.NoError(t, err)
	assert.EqualValues(t, 100, total)
	total, err = s.AddChips(ctx, sess.ID, "ALICE", 50)
	require.NoError(t, err)
	assert.EqualValues(t, 150, total)
	_, err = s.AddChips(ctx, sess.ID, "bob", 20)
	require.NoError(t, err)

	ps, err := s.Participants(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Alice", ps[0].Name, "first spelling is kept")
	assert.EqualValues(t, 150, ps[0].ChipsBought)
	assert.Nil(t, ps[0].ChipsEnd)
	assert.Equal(t, "bob", ps[1].Name)
}

func testConcurrentBuys(t *testing.T, s store.Store) {
	ctx := context.Background()
	sess := newSession(t, s, "chat")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddChips(ctx, sess.ID, "carol", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ps, err := s.Participants(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.EqualValues(t, 200, ps[0].ChipsBought)
}

func testSetChipsEnd(t *testing.T, s store.Store) {
	ctx := context.Background()
	sess := newSession(t, s, "chat")

	require.ErrorIs(t, s.SetChipsEnd(ctx, sess.ID, "nobody", 10), store.ErrNotFound)

	_, err := s.AddChips(ctx, sess.ID, "Dave", 100)
	require.NoError(t, err)
	require.NoError(t, s.SetChipsEnd(ctx, sess.ID, "dave", 80))
	require.NoError(t, s.SetChipsEnd(ctx, sess.ID, "DAVE", 90))

	set, err := s.SetChipsEndIfUnset(ctx, sess.ID, "dave", 0)
	require.NoError(t, err)
	assert.False(t, set)

	_, err = s.AddChips(ctx, sess.ID, "erin", 100)
	require.NoError(t, err)
	set, err = s.SetChipsEndIfUnset(ctx, sess.ID, "Erin", 0)
	require.NoError(t, err)
	assert.True(t, set)

	ps, err := s.Participants(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.NotNil(t, ps[0].ChipsEnd)
	assert.EqualValues(t, 90, *ps[0].ChipsEnd)
	require.NotNil(t, ps[1].ChipsEnd)
	assert.EqualValues(t, 0, *ps[1].ChipsEnd)
}

func testClearSession(t *testing.T, s store.Store) {
	ctx := context.Background()
	sess := newSession(t, s, "chat")
	_, err := s.AddChips(ctx, sess.ID, "a", 1)
	require.NoError(t, err)
	_, err = s.AddChips(ctx, sess.ID, "b", 1)
	require.NoError(t, err)
	hole, err := cards.ParseList([]string{"As", "Ks"})
	require.NoError(t, err)
	require.NoError(t, s.SaveHand(ctx, sess.ID, model.HandState{Hole: hole}))

	n, err := s.ClearSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ps, err := s.Participants(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, ps)
	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, got.Hand.Empty())
	assert.True(t, got.Active())
}

func testClosedSessionIsImmutable(t *testing.T, s store.Store) {
	ctx := context.Background()
	sess := newSession(t, s, "chat")
	_, err := s.AddChips(ctx, sess.ID, "a", 10)
	require.NoError(t, err)
	require.NoError(t, s.EndSession(ctx, sess.ID, time.Now()))

	_, err = s.AddChips(ctx, sess.ID, "a", 10)
	require.ErrorIs(t, err, store.ErrSessionClosed)
	require.ErrorIs(t, s.SetChipsEnd(ctx, sess.ID, "a", 5), store.ErrSessionClosed)
	_, err = s.ClearSession(ctx, sess.ID)
	require.ErrorIs(t, err, store.ErrSessionClosed)
	require.ErrorIs(t, s.EndSession(ctx, sess.ID, time.Now()), store.ErrSessionClosed)
}

func testRankingAndHandRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	sess := newSession(t, s, "chat")

	ranking := []model.RankEntry{
		{Name: "Alice", Amount: decimal.RequireFromString("20.5")},
		{Name: "Bob", Amount: decimal.RequireFromString("-20.5")},
	}
	require.NoError(t, s.SaveRanking(ctx, sess.ID, ranking))

	hole, err := cards.ParseList([]string{"As", "Kd"})
	require.NoError(t, err)
	flop, err := cards.ParseList([]string{"2c", "7h", "9s"})
	require.NoError(t, err)
	turn := cards.Card{Rank: cards.Queen, Suit: cards.Hearts}
	hand := model.HandState{Hole: hole, Flop: flop, Turn: &turn}
	require.NoError(t, s.SaveHand(ctx, sess.ID, hand))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Ranking, 2)
	assert.Equal(t, "Alice", got.Ranking[0].Name)
	assert.True(t, got.Ranking[0].Amount.Equal(ranking[0].Amount))
	assert.True(t, got.Ranking[1].Amount.Equal(ranking[1].Amount))
	assert.Equal(t, hand, got.Hand)

	bad := model.HandState{Hole: hole[:1]}
	require.Error(t, s.SaveHand(ctx, sess.ID, bad))
}

func testHistoryNewestFirst(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	var ids []string
	for i := 0; i < 3; i++ {
		sess := newSession(t, s, "chat")
		require.NoError(t, s.EndSession(ctx, sess.ID, base.Add(time.Duration(i)*time.Minute)))
		ids = append(ids, sess.ID)
	}
	newSession(t, s, "chat")

	got, err := s.ListSessions(ctx, "chat", model.StatusInactive, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{got[0].ID, got[1].ID, got[2].ID})

	got, err = s.ListSessions(ctx, "chat", model.StatusInactive, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListSessions(ctx, "elsewhere", model.StatusInactive, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testCounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newSession(t, s, "chat-a")
	newSession(t, s, "chat-b")
	_, err := s.AddChips(ctx, a.ID, "x", 1)
	require.NoError(t, err)
	_, err = s.AddChips(ctx, a.ID, "y", 1)
	require.NoError(t, err)

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Counts{Sessions: 2, Chats: 2, Participants: 2}, c)
	require.NoError(t, s.Ping(ctx))
}
