package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/advice"
	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/session"
	"github.com/susu3304/chipbot/internal/store"
	"github.com/susu3304/chipbot/internal/vision"
)

const chat = "chan-1"

type fakeRecognizer struct {
	labels []string
	err    error
}

func (f fakeRecognizer) Recognize(context.Context, string) ([]string, error) {
	return f.labels, f.err
}

func newHandler(t *testing.T, rec vision.Recognizer) *Handler {
	t.Helper()
	st := store.NewMemory()
	t.Cleanup(func() { _ = st.Close() })
	return NewHandler(
		session.NewManager(st),
		ledger.New(st, ledger.DefaultTolerance),
		advice.NewAdvisor(advice.NewCache(), 0),
		equity.Options{Trials: 400, Seed: 7, Workers: 2},
		rec,
	)
}

func run(h *Handler, command string, args ...string) string {
	return h.Dispatch(context.Background(), Request{ChatID: chat, GuildID: "guild", Command: command, Args: args})
}

func say(t *testing.T, h *Handler, text string) string {
	t.Helper()
	reply, ok := h.DispatchText(context.Background(), chat, "guild", text)
	require.True(t, ok, "text %q was ignored", text)
	return reply
}

func TestSettleFlow(t *testing.T) {
	h := newHandler(t, nil)

	assert.Contains(t, run(h, "buy", "Alice", "100"), "Alice bought 100 chips (total 100)")
	assert.Contains(t, run(h, "buy", "Bob", "100"), "Bob bought 100 chips")

	reply := run(h, "end", "Alice", "120")
	assert.Contains(t, reply, "Alice finished with 120 chips")
	assert.Contains(t, reply, "Bob is the last one playing, set to 80 chips")
	assert.Contains(t, reply, "Everyone is done")

	assert.Contains(t, run(h, "end", "Bob", "80"), "Bob finished with 80 chips")

	reply = run(h, "settle", "1000")
	assert.Contains(t, reply, "Alice receives 20")
	assert.Contains(t, reply, "Bob pays 20")
	assert.Contains(t, reply, "Bob → Alice: 20")
	assert.NotContains(t, reply, "miss balancing")

	past, err := h.sessions.History(context.Background(), chat, 0)
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, model.StatusInactive, past[0].Status)
	require.Len(t, past[0].Ranking, 2)
	assert.Equal(t, "Alice", past[0].Ranking[0].Name)
	assert.Equal(t, "20", past[0].Ranking[0].Amount.String())

	assert.Contains(t, run(h, "history"), "Alice +20, Bob -20")
	assert.Contains(t, run(h, "debug"), "No players yet")
}

func TestSettleAlias(t *testing.T) {
	h := newHandler(t, nil)
	run(h, "buy", "Alice", "100")
	run(h, "buy", "Bob", "100")
	run(h, "end", "Alice", "150")

	reply := run(h, "SUMMARY", "500")
	assert.Contains(t, reply, "Alice receives 25")
	assert.Contains(t, reply, "Bob pays 25")
}

func TestSettleRejectsUnfinished(t *testing.T) {
	h := newHandler(t, nil)
	for _, n := range []string{"Ann", "Ben", "Cat"} {
		run(h, "buy", n, "100")
	}
	run(h, "end", "Ann", "100")

	reply := run(h, "settle", "1000")
	assert.Contains(t, reply, "Still playing: Ben, Cat")

	s, err := h.sessions.Active(context.Background(), chat, "guild")
	require.NoError(t, err)
	assert.True(t, s.Active())
}

func TestSettleRejectsMismatch(t *testing.T) {
	h := newHandler(t, nil)
	run(h, "buy", "Ann", "100")
	run(h, "buy", "Ben", "100")

	reply := run(h, "end", "Ann", "300")
	assert.Contains(t, reply, "Only one player left but 300 chips are already counted against 200 bought")

	reply = run(h, "end", "Ben", "0")
	assert.Contains(t, reply, "totals differ: bought 200, counted 300")

	reply = run(h, "settle", "1000")
	assert.Contains(t, reply, "Chip totals don't add up: bought 200, counted 300 (allowed difference 10)")
}

func TestSettleReportsResidual(t *testing.T) {
	h := newHandler(t, nil)
	run(h, "buy", "Ann", "1000")
	run(h, "buy", "Ben", "1000")
	run(h, "buy", "Cat", "1000")
	run(h, "end", "Ann", "1500")
	run(h, "end", "Ben", "600")
	run(h, "end", "Cat", "940")

	reply := run(h, "settle", "1000")
	assert.Contains(t, reply, "Chips were off by 40")
	assert.Contains(t, reply, "miss balancing by 40")
}

func TestUsageErrors(t *testing.T) {
	h := newHandler(t, nil)

	tests := []struct {
		command string
		args    []string
		want    string
	}{
		{"buy", []string{"Alice"}, "Usage: `buy <name> <chips>`"},
		{"buy", []string{"Alice", "lots"}, "\"lots\" is not a whole number"},
		{"buy", []string{"Alice", "-5"}, "invalid chip amount"},
		{"end", []string{"Zed", "10"}, "Player Zed not found"},
		{"settle", nil, "Usage: `settle <ratio>`"},
		{"settle", []string{"abc"}, "\"abc\" is not a number"},
		{"settle", []string{"1000"}, "Nobody has bought in yet"},
		{"history", []string{"0"}, "not a positive count"},
		{"fold", nil, "Unknown command `fold`"},
	}
	for _, tt := range tests {
		t.Run(tt.command+" "+strings.Join(tt.args, " "), func(t *testing.T) {
			assert.Contains(t, run(h, tt.command, tt.args...), tt.want)
		})
	}
}

func TestSettleInvalidRatio(t *testing.T) {
	h := newHandler(t, nil)
	run(h, "buy", "Ann", "100")
	run(h, "buy", "Ben", "100")
	run(h, "end", "Ann", "100")

	assert.Contains(t, run(h, "settle", "-1"), "ratio must be a positive number")
}

func TestClear(t *testing.T) {
	h := newHandler(t, nil)
	run(h, "buy", "Ann", "100")
	run(h, "buy", "Ben", "100")
	run(h, "hole", "As", "Kd")

	assert.Contains(t, run(h, "clear"), "Cleared 2 players")
	reply := run(h, "debug")
	assert.Contains(t, reply, "No players yet")
	assert.NotContains(t, reply, "Hand:")
}

func TestStats(t *testing.T) {
	h := newHandler(t, nil)
	assert.Contains(t, run(h, "stats"), "No finished games yet")

	for _, ends := range [][2]string{{"150", "50"}, {"80", "120"}} {
		run(h, "buy", "Ann", "100")
		run(h, "buy", "Ben", "100")
		run(h, "end", "Ann", ends[0])
		run(h, "end", "Ben", ends[1])
		require.Contains(t, run(h, "settle", "1000"), "Settlement")
	}

	reply := run(h, "stats")
	assert.Contains(t, reply, "Ann")
	assert.Contains(t, reply, "+30")
	assert.Contains(t, reply, "-30")
}

func TestTextShortcuts(t *testing.T) {
	h := newHandler(t, nil)

	assert.Contains(t, say(t, h, "!buy Ann 100"), "Ann bought 100 chips")

	reply := say(t, h, "+50 Ben Cat")
	assert.Contains(t, reply, "Ben bought 50 chips")
	assert.Contains(t, reply, "Cat bought 50 chips")

	assert.Contains(t, say(t, h, "+25 ann"), "total 125")
	assert.Contains(t, say(t, h, "Ben = 40"), "Ben finished with 40 chips")
	assert.Contains(t, say(t, h, "zed=10"), "Player zed not found")
	assert.Contains(t, say(t, h, "!help"), "Shortcuts")

	for _, text := range []string{"", "hello there", "!", "Ks", "nice hand Ks", "As Kd Qh Jc"} {
		_, ok := h.DispatchText(context.Background(), chat, "guild", text)
		assert.False(t, ok, "text %q should be ignored", text)
	}
}

func TestHandFlow(t *testing.T) {
	h := newHandler(t, nil)
	for _, n := range []string{"Ann", "Ben", "Cat"} {
		run(h, "buy", n, "100")
	}

	assert.Contains(t, say(t, h, "As Kd"), "Hole cards: A♠ K♦")

	reply := say(t, h, "2c 7h 9s")
	assert.Contains(t, reply, "📊 **Flop**")
	assert.Contains(t, reply, "Win vs 2 opponents")
	assert.Contains(t, reply, "You hold: High Card")

	reply = say(t, h, "Qh")
	assert.Contains(t, reply, "📊 **Turn**")

	reply = run(h, "equity", "1")
	assert.Contains(t, reply, "Win heads-up")
	assert.NotContains(t, reply, "opponents:")

	reply = say(t, h, "Ah")
	assert.Contains(t, reply, "📊 **River**")
	assert.Contains(t, reply, "You hold: Pair")
	assert.Contains(t, reply, "Win heads-up", "explicit opponent count is kept")

	_, ok := h.DispatchText(context.Background(), chat, "guild", "3d")
	assert.False(t, ok)

	assert.Contains(t, run(h, "flop", "As", "2d", "3d"), "card already in this hand")
	assert.Contains(t, run(h, "turn", "Zz"), "invalid card")
}

func TestHandNeedsHoleAndOpponents(t *testing.T) {
	h := newHandler(t, nil)
	assert.Contains(t, run(h, "equity"), "record your hole cards first")
	assert.Contains(t, run(h, "turn", "Qh"), "record the flop before the turn")

	run(h, "buy", "Ann", "100")
	run(h, "hole", "As,Kd")
	assert.Contains(t, run(h, "equity"), "Not enough players")
	assert.Contains(t, run(h, "equity", "3"), "Win vs 3 opponents")
}

func TestDispatchImage(t *testing.T) {
	ctx := context.Background()

	_, ok := newHandler(t, nil).DispatchImage(ctx, chat, "guild", "https://img/1.png")
	assert.False(t, ok)

	h := newHandler(t, fakeRecognizer{labels: []string{"Ah", "Kh"}})
	reply, ok := h.DispatchImage(ctx, chat, "guild", "https://img/1.png")
	require.True(t, ok)
	assert.Contains(t, reply, "Hole cards: A♥ K♥")

	h = newHandler(t, fakeRecognizer{labels: []string{"Qh"}})
	reply, ok = h.DispatchImage(ctx, chat, "guild", "https://img/1.png")
	require.True(t, ok)
	assert.Contains(t, reply, "no flop to add it to")

	h = newHandler(t, fakeRecognizer{})
	reply, _ = h.DispatchImage(ctx, chat, "guild", "https://img/1.png")
	assert.Contains(t, reply, "No cards found")

	h = newHandler(t, fakeRecognizer{err: errors.New("boom")})
	reply, _ = h.DispatchImage(ctx, chat, "guild", "https://img/1.png")
	assert.Contains(t, reply, "Couldn't read that photo")
}

func TestChatsAreIndependent(t *testing.T) {
	h := newHandler(t, nil)
	run(h, "buy", "Ann", "100")

	other := h.Dispatch(context.Background(), Request{ChatID: "chan-2", Command: "end", Args: []string{"Ann", "100"}})
	assert.Contains(t, other, "Player Ann not found")
}
