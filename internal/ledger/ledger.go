// Package ledger tracks buy-ins and cash-outs for a session and turns them
// into a settlement.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/store"
)

// DefaultTolerance is the fraction of chips bought that may go missing
// before settlement is refused.
const DefaultTolerance = 0.05

// chipsPerUnit is the chip count the settlement ratio is quoted against.
const chipsPerUnit = 1000

type Engine struct {
	store     store.Store
	tolerance float64
	now       func() time.Time
}

func New(st store.Store, tolerance float64) *Engine {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &Engine{store: st, tolerance: tolerance, now: time.Now}
}

func (e *Engine) Tolerance() float64 {
	return e.tolerance
}

// Totals sums a session's chip records.
type Totals struct {
	Bought     int64 // over every participant
	End        int64 // over finished participants
	Finished   int
	Unfinished int
}

func totalsOf(ps []model.Participant) Totals {
	var t Totals
	for _, p := range ps {
		t.Bought += p.ChipsBought
		if p.ChipsEnd != nil {
			t.End += *p.ChipsEnd
			t.Finished++
		} else {
			t.Unfinished++
		}
	}
	return t
}

// RecordBuy adds a buy-in and returns the participant's new total.
func (e *Engine) RecordBuy(ctx context.Context, sessionID, name string, amount int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidName
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: buy-in must be positive, got %d", ErrInvalidAmount, amount)
	}
	total, err := e.store.AddChips(ctx, sessionID, name, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to record buy-in for %s: %w", name, err)
	}
	if err := e.store.MarkStarted(ctx, sessionID, e.now()); err != nil {
		return 0, fmt.Errorf("failed to mark session started: %w", err)
	}
	log.Debugf("Buy-in: session=%s name=%s amount=%d total=%d", sessionID, name, amount, total)
	return total, nil
}

// RecordEnd sets a participant's final stack. Re-entering overwrites it.
func (e *Engine) RecordEnd(ctx context.Context, sessionID, name string, amount int64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if amount < 0 {
		return fmt.Errorf("%w: final stack cannot be negative, got %d", ErrInvalidAmount, amount)
	}
	if err := e.store.SetChipsEnd(ctx, sessionID, name, amount); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Name: name}
		}
		return fmt.Errorf("failed to record final stack for %s: %w", name, err)
	}
	log.Debugf("Cash-out: session=%s name=%s amount=%d", sessionID, name, amount)
	return nil
}

func (e *Engine) Participants(ctx context.Context, sessionID string) ([]model.Participant, error) {
	ps, err := e.store.Participants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	return ps, nil
}

// Unfinished returns participants who have not cashed out.
func (e *Engine) Unfinished(ctx context.Context, sessionID string) ([]model.Participant, error) {
	ps, err := e.Participants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []model.Participant
	for _, p := range ps {
		if !p.Finished() {
			out = append(out, p)
		}
	}
	return out, nil
}

// AutoCompleteLast infers the final stack of the only participant still
// playing so that chips balance exactly. It returns nil when there is not
// exactly one such participant, or when someone else finished them first.
func (e *Engine) AutoCompleteLast(ctx context.Context, sessionID string) (*model.Participant, error) {
	ps, err := e.Participants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	t := totalsOf(ps)
	if t.Unfinished != 1 {
		return nil, nil
	}
	var last model.Participant
	for _, p := range ps {
		if !p.Finished() {
			last = p
		}
	}

	inferred := t.Bought - t.End
	if inferred < 0 {
		return nil, &InconsistentTotalsError{Bought: t.Bought, End: t.End, Tolerance: e.tolerance}
	}
	set, err := e.store.SetChipsEndIfUnset(ctx, sessionID, last.Name, inferred)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-complete %s: %w", last.Name, err)
	}
	if !set {
		return nil, nil
	}
	last.ChipsEnd = &inferred
	log.Infof("Auto-completed %s with %d chips in session %s", last.Name, inferred, sessionID)
	return &last, nil
}

// Consistent reports whether end is within tolerance of bought.
func Consistent(bought, end int64, tolerance float64) bool {
	diff := bought - end
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= tolerance*float64(bought)
}

// IsConsistent checks chip conservation over finished participants.
func (e *Engine) IsConsistent(ctx context.Context, sessionID string) (bool, Totals, error) {
	ps, err := e.Participants(ctx, sessionID)
	if err != nil {
		return false, Totals{}, err
	}
	var finished []model.Participant
	for _, p := range ps {
		if p.Finished() {
			finished = append(finished, p)
		}
	}
	t := totalsOf(finished)
	t.Unfinished = len(ps) - len(finished)
	return Consistent(t.Bought, t.End, e.tolerance), t, nil
}

// Settlement is a computed, stored ranking and its transfer plan.
type Settlement struct {
	Ratio   decimal.Decimal
	Totals  Totals
	Ranking []model.RankEntry
	Plan    Plan
}

// ComputeSettlement converts every participant's chip delta to currency at
// ratio units per 1000 chips, stores the ranking on the session and returns
// it with a transfer plan.
func (e *Engine) ComputeSettlement(ctx context.Context, sessionID string, ratio float64) (*Settlement, error) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRatio, ratio)
	}
	ps, err := e.Participants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, ErrNoParticipants
	}
	var missing []string
	for _, p := range ps {
		if !p.Finished() {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteDataError{Names: missing}
	}
	t := totalsOf(ps)
	if !Consistent(t.Bought, t.End, e.tolerance) {
		return nil, &InconsistentTotalsError{Bought: t.Bought, End: t.End, Tolerance: e.tolerance}
	}

	r := decimal.NewFromFloat(ratio)
	ranking := make([]model.RankEntry, 0, len(ps))
	for _, p := range ps {
		delta := decimal.NewFromInt(*p.ChipsEnd - p.ChipsBought)
		ranking = append(ranking, model.RankEntry{
			Name:   p.Name,
			Amount: delta.Mul(r).Div(decimal.NewFromInt(chipsPerUnit)),
		})
	}
	SortRanking(ranking)

	if err := e.store.SaveRanking(ctx, sessionID, ranking); err != nil {
		return nil, fmt.Errorf("failed to store ranking: %w", err)
	}
	plan := Settle(ranking)
	if !plan.Residual.IsZero() {
		log.Infof("Session %s settles with residual %s", sessionID, plan.Residual)
	}
	return &Settlement{Ratio: r, Totals: t, Ranking: ranking, Plan: plan}, nil
}

// SortRanking orders entries by amount, highest first, ties by name.
func SortRanking(entries []model.RankEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].Amount.Cmp(entries[j].Amount); c != 0 {
			return c > 0
		}
		return model.NameKey(entries[i].Name) < model.NameKey(entries[j].Name)
	})
}
