package equity

import (
	"fmt"

	"github.com/susu3304/chipbot/internal/handeval"
)

// DefaultThreshold is the display cut-off, in percent, for Breakdown.
const DefaultThreshold = 0.01

// Result holds raw tallies for every category. Percentages are derived on
// demand so that filtering stays a rendering concern.
type Result struct {
	Trials    int
	Skipped   int
	Opponents int

	Player [handeval.NumCategories]int
	Multi  [handeval.NumCategories]int
	Single [handeval.NumCategories]int

	MultiWins  int
	SingleWins int
}

func (r *Result) merge(o *Result) {
	r.Skipped += o.Skipped
	for i := range r.Player {
		r.Player[i] += o.Player[i]
		r.Multi[i] += o.Multi[i]
		r.Single[i] += o.Single[i]
	}
	r.MultiWins += o.MultiWins
	r.SingleWins += o.SingleWins
}

func (r *Result) percent(n int) float64 {
	if r.Trials == 0 {
		return 0
	}
	return 100 * float64(n) / float64(r.Trials)
}

// PlayerPercent is how often the player finished with category c.
func (r *Result) PlayerPercent(c handeval.Category) float64 {
	return r.percent(r.Player[c])
}

// MultiPercent is how often the strongest of all opponents finished with c.
func (r *Result) MultiPercent(c handeval.Category) float64 {
	return r.percent(r.Multi[c])
}

// SinglePercent is how often a lone opponent finished with c.
func (r *Result) SinglePercent(c handeval.Category) float64 {
	return r.percent(r.Single[c])
}

func (r *Result) SingleWinPercent() float64 {
	return r.percent(r.SingleWins)
}

// MultiWinPercent is nil when there is only one opponent, since the
// multi-opponent column is not simulated then.
func (r *Result) MultiWinPercent() *float64 {
	if r.Opponents <= 1 {
		return nil
	}
	p := r.percent(r.MultiWins)
	return &p
}

// Row is one line of a rendered breakdown.
type Row struct {
	Category handeval.Category
	Player   float64
	Multi    float64
	Single   float64
}

// Breakdown lists categories best first, dropping those where every column
// is below threshold percent.
func (r *Result) Breakdown(threshold float64) []Row {
	rows := make([]Row, 0, handeval.NumCategories)
	for _, c := range handeval.AllCategories {
		row := Row{
			Category: c,
			Player:   r.PlayerPercent(c),
			Multi:    r.MultiPercent(c),
			Single:   r.SinglePercent(c),
		}
		if row.Player < threshold && row.Multi < threshold && row.Single < threshold {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Stage is the betting street implied by the number of board cards.
type Stage int

const (
	Preflop Stage = iota
	Flop
	Turn
	River
)

func (s Stage) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	}
	return "unknown"
}

// StageFor maps a board length to its street.
func StageFor(boardLen int) (Stage, error) {
	switch boardLen {
	case 0:
		return Preflop, nil
	case 3:
		return Flop, nil
	case 4:
		return Turn, nil
	case 5:
		return River, nil
	}
	return 0, fmt.Errorf("%w: no street has %d board cards", ErrInvalidCards, boardLen)
}
