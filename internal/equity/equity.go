// Package equity estimates how often a partially revealed hold'em hand ends
// up best at showdown, by dealing random completions of the board and random
// opponent hands.
package equity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/handeval"
)

var (
	ErrInsufficientOpponents = errors.New("at least one opponent is required")
	ErrInvalidCards          = errors.New("invalid cards for simulation")
)

// DefaultTrials gives roughly a ±2 point 95% interval on mid-range win rates.
const DefaultTrials = 2000

// Options tunes a simulation. Zero values pick defaults.
type Options struct {
	Trials int
	// Seed makes runs reproducible for a fixed Workers count. Zero seeds
	// from the clock.
	Seed    int64
	Workers int
}

func (o Options) withDefaults() Options {
	if o.Trials <= 0 {
		o.Trials = DefaultTrials
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Workers > o.Trials {
		o.Workers = o.Trials
	}
	return o
}

// Simulate runs the Monte Carlo estimate for hole cards and a board of 0, 3,
// 4 or 5 cards against the given number of opponents.
func Simulate(ctx context.Context, hole, board []cards.Card, opponents int, opts Options) (*Result, error) {
	if opponents < 1 {
		return nil, ErrInsufficientOpponents
	}
	if err := validate(hole, board, opponents); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	shards := make([]Result, opts.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := range shards {
		n := opts.Trials / opts.Workers
		if i < opts.Trials%opts.Workers {
			n++
		}
		rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
		out := &shards[i]
		g.Go(func() error {
			return runShard(ctx, rng, hole, board, opponents, n, out)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Trials: opts.Trials, Opponents: opponents}
	for i := range shards {
		res.merge(&shards[i])
	}
	if res.Skipped > 0 {
		log.Warnf("Equity simulation skipped %d of %d trials", res.Skipped, res.Trials)
	}
	return res, nil
}

func validate(hole, board []cards.Card, opponents int) error {
	if len(hole) != 2 {
		return fmt.Errorf("%w: need 2 hole cards, got %d", ErrInvalidCards, len(hole))
	}
	switch len(board) {
	case 0, 3, 4, 5:
	default:
		return fmt.Errorf("%w: board must have 0, 3, 4 or 5 cards, got %d", ErrInvalidCards, len(board))
	}
	known := append(append([]cards.Card{}, hole...), board...)
	for _, c := range known {
		if !c.Valid() {
			return fmt.Errorf("%w: %v", ErrInvalidCards, c)
		}
	}
	if !cards.Distinct(known) {
		return fmt.Errorf("%w: duplicate card in %s", ErrInvalidCards, cards.Join(known))
	}
	if need := 5 - len(board) + 2*opponents; need > 52-len(known) {
		return fmt.Errorf("%w: %d opponents do not fit in one deck", ErrInvalidCards, opponents)
	}
	return nil
}

// trial is the outcome of one deal, committed to the tallies only when every
// evaluation in it succeeded.
type trial struct {
	player    handeval.Category
	multi     handeval.Category
	single    handeval.Category
	multiWin  bool
	singleWin bool
}

func runShard(ctx context.Context, rng *rand.Rand, hole, board []cards.Card, opponents, n int, out *Result) error {
	known := append(append([]cards.Card{}, hole...), board...)
	deck := cards.NewDeck(rng, known...)
	singleDeck := cards.NewDeck(rng, hole...)
	full := make([]cards.Card, 0, 5)

	for i := 0; i < n; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		t, err := deal(deck, singleDeck, hole, board, full, opponents)
		if err != nil {
			out.Skipped++
			log.Debugf("Skipping equity trial: %v", err)
			continue
		}
		out.Player[t.player]++
		if opponents > 1 {
			out.Multi[t.multi]++
			if t.multiWin {
				out.MultiWins++
			}
		}
		out.Single[t.single]++
		if t.singleWin {
			out.SingleWins++
		}
	}
	return nil
}

func deal(deck, singleDeck *cards.Deck, hole, board, full []cards.Card, opponents int) (trial, error) {
	var t trial

	deck.Reset()
	fill, err := deck.Draw(5 - len(board))
	if err != nil {
		return t, err
	}
	full = append(append(full[:0], board...), fill...)

	score, err := handeval.Evaluate(hole, full)
	if err != nil {
		return t, err
	}
	t.player = handeval.Classify(score)

	if opponents > 1 {
		best := handeval.WorstScore + 1
		for o := 0; o < opponents; o++ {
			opp, err := deck.Draw(2)
			if err != nil {
				return t, err
			}
			s, err := handeval.Evaluate(opp, full)
			if err != nil {
				return t, err
			}
			if handeval.Better(s, best) {
				best = s
			}
		}
		t.multi = handeval.Classify(best)
		t.multiWin = handeval.Better(score, best)
	}

	// The heads-up estimate deals its opponent from a fresh deck so it does not
	// depend on the multi-opponent draws above.
	singleDeck.Reset()
	singleDeck.Remove(full...)
	opp, err := singleDeck.Draw(2)
	if err != nil {
		return t, err
	}
	s, err := handeval.Evaluate(opp, full)
	if err != nil {
		return t, err
	}
	t.single = handeval.Classify(s)
	t.singleWin = handeval.Better(score, s)
	return t, nil
}

// CurrentCategory is the hand the player holds right now. Before the flop
// only a pocket pair or high card is possible.
func CurrentCategory(hole, board []cards.Card) (handeval.Category, error) {
	if len(hole) != 2 {
		return 0, fmt.Errorf("%w: need 2 hole cards, got %d", ErrInvalidCards, len(hole))
	}
	if len(board) < 3 {
		if hole[0].Rank == hole[1].Rank {
			return handeval.Pair, nil
		}
		return handeval.HighCard, nil
	}
	score, err := handeval.Evaluate(hole, board)
	if err != nil {
		return 0, err
	}
	return handeval.Classify(score), nil
}
