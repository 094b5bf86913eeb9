package equity

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/handeval"
)

func mustCards(t *testing.T, tokens ...string) []cards.Card {
	t.Helper()
	cs, err := cards.ParseList(tokens)
	require.NoError(t, err)
	return cs
}

func TestSimulateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	hole := mustCards(t, "As", "Kd")

	tests := []struct {
		name      string
		hole      []cards.Card
		board     []cards.Card
		opponents int
		wantErr   error
	}{
		{name: "no opponents", hole: hole, opponents: 0, wantErr: ErrInsufficientOpponents},
		{name: "one hole card", hole: hole[:1], opponents: 1, wantErr: ErrInvalidCards},
		{name: "two board cards", hole: hole, board: mustCards(t, "2c", "3c"), opponents: 1, wantErr: ErrInvalidCards},
		{name: "duplicate", hole: hole, board: mustCards(t, "As", "3c", "4c"), opponents: 1, wantErr: ErrInvalidCards},
		{name: "too many opponents", hole: hole, opponents: 24, wantErr: ErrInvalidCards},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(ctx, tt.hole, tt.board, tt.opponents, Options{Trials: 10, Seed: 1})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSimulateColumnsAndWinRates(t *testing.T) {
	hole := mustCards(t, "Js", "Ts")
	board := mustCards(t, "9s", "2d", "Kh")

	res, err := Simulate(context.Background(), hole, board, 3, Options{Trials: 2000, Seed: 99, Workers: 4})
	require.NoError(t, err)
	require.Equal(t, 2000, res.Trials)
	assert.Zero(t, res.Skipped)

	var player, multi, single float64
	for _, c := range handeval.AllCategories {
		player += res.PlayerPercent(c)
		multi += res.MultiPercent(c)
		single += res.SinglePercent(c)
	}
	assert.LessOrEqual(t, player, 100.0+1e-9)
	assert.LessOrEqual(t, multi, 100.0+1e-9)
	assert.LessOrEqual(t, single, 100.0+1e-9)
	assert.InDelta(t, 100.0, player, 1e-9)

	require.NotNil(t, res.MultiWinPercent())
	assert.GreaterOrEqual(t, *res.MultiWinPercent(), 0.0)
	assert.LessOrEqual(t, *res.MultiWinPercent(), 100.0)
	assert.GreaterOrEqual(t, res.SingleWinPercent(), 0.0)
	assert.LessOrEqual(t, res.SingleWinPercent(), 100.0)

	// Beating three hands is never easier than beating one.
	assert.Less(t, *res.MultiWinPercent(), res.SingleWinPercent())
}

func TestSimulateSingleOpponentHasNoMultiColumn(t *testing.T) {
	res, err := Simulate(context.Background(), mustCards(t, "7c", "7d"), nil, 1, Options{Trials: 500, Seed: 3})
	require.NoError(t, err)
	assert.Nil(t, res.MultiWinPercent())
	for _, c := range handeval.AllCategories {
		assert.Zero(t, res.Multi[c])
	}
}

func TestSimulateSameSeedIsReproducible(t *testing.T) {
	hole := mustCards(t, "Ah", "Qd")
	board := mustCards(t, "Qs", "8c", "3h", "2s")
	opts := Options{Trials: 1500, Seed: 1234, Workers: 3}

	a, err := Simulate(context.Background(), hole, board, 2, opts)
	require.NoError(t, err)
	b, err := Simulate(context.Background(), hole, board, 2, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSimulateFullBoardDoesNotCrash(t *testing.T) {
	hole := mustCards(t, "Ah", "Kh")
	board := mustCards(t, "Qh", "Jh", "Th", "2c", "3d")

	res, err := Simulate(context.Background(), hole, board, 4, Options{Trials: 300, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.PlayerPercent(handeval.RoyalFlush))
	assert.Equal(t, 100.0, res.SingleWinPercent())
	require.NotNil(t, res.MultiWinPercent())
	assert.Equal(t, 100.0, *res.MultiWinPercent())
}

func TestSimulatePocketAcesAgainstOne(t *testing.T) {
	res, err := Simulate(context.Background(), mustCards(t, "As", "Ah"), nil, 1, Options{Trials: 4000, Seed: 11})
	require.NoError(t, err)
	// Aces win about 85% heads-up against a random hand.
	assert.InDelta(t, 85.0, res.SingleWinPercent(), 6.0)
}

func TestMoreTrialsShrinkSpread(t *testing.T) {
	hole := mustCards(t, "8c", "9c")
	spread := func(trials int) float64 {
		var xs []float64
		for seed := int64(1); seed <= 20; seed++ {
			res, err := Simulate(context.Background(), hole, nil, 1, Options{Trials: trials, Seed: seed * 7919, Workers: 2})
			require.NoError(t, err)
			xs = append(xs, res.SingleWinPercent())
		}
		var mean float64
		for _, x := range xs {
			mean += x
		}
		mean /= float64(len(xs))
		var ss float64
		for _, x := range xs {
			ss += (x - mean) * (x - mean)
		}
		return math.Sqrt(ss / float64(len(xs)-1))
	}

	assert.Less(t, spread(2000), spread(100))
}

func TestSimulateHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Simulate(ctx, mustCards(t, "As", "Kd"), nil, 2, Options{Trials: 1000, Seed: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBreakdownFiltersAtRenderTime(t *testing.T) {
	res := &Result{Trials: 10000, Opponents: 2}
	res.Player[handeval.Pair] = 6000
	res.Player[handeval.HighCard] = 4000
	res.Multi[handeval.TwoPair] = 10000
	res.Single[handeval.Pair] = 9999
	res.Single[handeval.RoyalFlush] = 1

	rows := res.Breakdown(DefaultThreshold)
	got := make([]handeval.Category, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.Category)
	}
	// 1/10000 is exactly the threshold and is kept.
	assert.Equal(t, []handeval.Category{handeval.RoyalFlush, handeval.TwoPair, handeval.Pair, handeval.HighCard}, got)

	assert.Len(t, res.Breakdown(0), handeval.NumCategories)
	assert.Empty(t, res.Breakdown(101))
	assert.Equal(t, 10000, res.Multi[handeval.TwoPair], "filtering must not touch tallies")
}

func TestCurrentCategory(t *testing.T) {
	got, err := CurrentCategory(mustCards(t, "9c", "9d"), nil)
	require.NoError(t, err)
	assert.Equal(t, handeval.Pair, got)

	got, err = CurrentCategory(mustCards(t, "9c", "Td"), nil)
	require.NoError(t, err)
	assert.Equal(t, handeval.HighCard, got)

	got, err = CurrentCategory(mustCards(t, "9c", "Td"), mustCards(t, "9h", "Tc", "2s"))
	require.NoError(t, err)
	assert.Equal(t, handeval.TwoPair, got)
}

func TestStageFor(t *testing.T) {
	for n, want := range map[int]Stage{0: Preflop, 3: Flop, 4: Turn, 5: River} {
		got, err := StageFor(n)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := StageFor(2)
	require.ErrorIs(t, err, ErrInvalidCards)
	assert.Equal(t, "turn", Turn.String())
}
