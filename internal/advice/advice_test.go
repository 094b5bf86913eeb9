package advice

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/handeval"
)

func pct(v float64) *float64 { return &v }

func TestGenerateOrder(t *testing.T) {
	lines := Generate(Input{
		Category:     handeval.Pair,
		Stage:        equity.Turn,
		MultiWin:     pct(40),
		SingleWin:    62,
		PrevMultiWin: pct(30),
		Risky:        []Risk{{Category: handeval.Flush, Percent: 21.5}},
	})
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "up 10.0 points to 40.0%")
	assert.Contains(t, lines[1], "One pair")
	assert.Contains(t, lines[2], "40.0% to win")
	assert.Contains(t, lines[3], "Flush 21.5%")
}

func TestGenerateTrend(t *testing.T) {
	tests := []struct {
		name  string
		stage equity.Stage
		prev  *float64
		cur   float64
		want  string
	}{
		{name: "no previous", stage: equity.Flop, cur: 50},
		{name: "preflop", stage: equity.Preflop, prev: pct(10), cur: 50},
		{name: "steady", stage: equity.Flop, prev: pct(49), cur: 50, want: "steady"},
		{name: "up", stage: equity.River, prev: pct(20), cur: 50, want: "The river helped"},
		{name: "down", stage: equity.Flop, prev: pct(60), cur: 35, want: "down 25.0 points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := trendLine(Input{Stage: tt.stage, PrevMultiWin: tt.prev, MultiWin: pct(tt.cur)})
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Contains(t, line, tt.want)
		})
	}
}

func TestHeadlineFallsBackToSingle(t *testing.T) {
	lines := Generate(Input{Category: handeval.HighCard, Stage: equity.Preflop, SingleWin: 12})
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "12.0% to win")
	assert.Contains(t, lines[1], "folding")
}

func TestRiskyCategories(t *testing.T) {
	res := &equity.Result{Trials: 100, Opponents: 3}
	res.Multi[handeval.Flush] = 20
	res.Multi[handeval.Straight] = 10
	res.Multi[handeval.TwoPair] = 40
	res.Multi[handeval.Pair] = 30
	res.Single[handeval.FullHouse] = 90

	got := RiskyCategories(res, handeval.ThreeOfAKind, 15)
	assert.Equal(t, []Risk{{Category: handeval.Flush, Percent: 20}}, got)

	// Categories below the player's own never count.
	assert.Empty(t, RiskyCategories(res, handeval.RoyalFlush, 0))

	res.Opponents = 1
	got = RiskyCategories(res, handeval.ThreeOfAKind, 15)
	assert.Equal(t, []Risk{{Category: handeval.FullHouse, Percent: 90}}, got)
}

func TestAdvisorRemembersPreviousStreet(t *testing.T) {
	a := NewAdvisor(NewCache(), 0)
	assert.Equal(t, DefaultRiskThreshold, a.Threshold)

	flop := &equity.Result{Trials: 100, Opponents: 2, MultiWins: 30, SingleWins: 55}
	flop.Player[handeval.Pair] = 100
	lines := a.Advise("s1", flop, handeval.Pair, equity.Flop)
	for _, l := range lines {
		assert.NotContains(t, l, "points")
	}

	turn := &equity.Result{Trials: 100, Opponents: 2, MultiWins: 70, SingleWins: 80}
	lines = a.Advise("s1", turn, handeval.ThreeOfAKind, equity.Turn)
	assert.True(t, strings.Contains(lines[0], "up 40.0 points"), lines[0])

	a.Cache.Forget("s1")
	_, ok := a.Cache.Swap("s1", 1)
	assert.False(t, ok)
}

func TestCacheSwapIsAtomic(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	seen := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := c.Swap("s", float64(i))
			seen <- ok
		}(i)
	}
	wg.Wait()
	close(seen)

	first := 0
	for ok := range seen {
		if !ok {
			first++
		}
	}
	assert.Equal(t, 1, first)
}
