package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/model"
)

var (
	ErrWrongCardCount = errors.New("wrong number of cards")
	ErrOutOfOrder     = errors.New("street recorded out of order")
	ErrHandComplete   = errors.New("river already recorded")
	ErrDuplicateCard  = errors.New("card already in this hand")
)

// Street is a recordable part of the hand.
type Street int

const (
	Hole Street = iota
	Flop
	Turn
	River
)

var streetNames = [...]string{"hole", "flop", "turn", "river"}

func (s Street) String() string {
	if s < Hole || s > River {
		return "unknown"
	}
	return streetNames[s]
}

// Cards is how many cards the street takes.
func (s Street) Cards() int {
	switch s {
	case Hole:
		return 2
	case Flop:
		return 3
	}
	return 1
}

func ParseStreet(name string) (Street, bool) {
	for i, n := range streetNames {
		if n == name {
			return Street(i), true
		}
	}
	return 0, false
}

// NextStreet picks where a single card goes: the turn, then the river.
func NextStreet(h model.HandState) (Street, error) {
	switch {
	case len(h.Flop) == 0:
		return 0, fmt.Errorf("%w: record the flop first", ErrOutOfOrder)
	case h.Turn == nil:
		return Turn, nil
	case h.River == nil:
		return River, nil
	}
	return 0, ErrHandComplete
}

// StreetFor maps a bare list of n cards to a street: 2 hole, 3 flop, 1 the
// next single-card street.
func StreetFor(h model.HandState, n int) (Street, error) {
	switch n {
	case 2:
		return Hole, nil
	case 3:
		return Flop, nil
	case 1:
		return NextStreet(h)
	}
	return 0, fmt.Errorf("%w: %d cards", ErrWrongCardCount, n)
}

// Apply returns h with the street recorded. New hole cards start a new hand,
// and recording a street drops any later ones.
func Apply(h model.HandState, street Street, cs []cards.Card) (model.HandState, error) {
	if len(cs) != street.Cards() {
		return h, fmt.Errorf("%w: %s takes %d, got %d", ErrWrongCardCount, street, street.Cards(), len(cs))
	}
	next := h
	switch street {
	case Hole:
		next = model.HandState{Hole: append([]cards.Card(nil), cs...)}
	case Flop:
		next.Flop = append([]cards.Card(nil), cs...)
		next.Turn, next.River = nil, nil
	case Turn:
		if len(h.Flop) == 0 {
			return h, fmt.Errorf("%w: record the flop before the turn", ErrOutOfOrder)
		}
		c := cs[0]
		next.Turn, next.River = &c, nil
	case River:
		if h.Turn == nil {
			return h, fmt.Errorf("%w: record the turn before the river", ErrOutOfOrder)
		}
		c := cs[0]
		next.River = &c
	default:
		return h, fmt.Errorf("unknown street %d", street)
	}

	all := append(append([]cards.Card{}, next.Hole...), next.Board()...)
	if !cards.Distinct(all) {
		return h, fmt.Errorf("%w: %s", ErrDuplicateCard, cards.Join(all))
	}
	if err := next.Validate(); err != nil {
		return h, err
	}
	return next, nil
}

// SetHand records a street on the session's hand and returns the new state.
func (m *Manager) SetHand(ctx context.Context, sessionID string, street Street, cs []cards.Card) (model.HandState, error) {
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return model.HandState{}, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	next, err := Apply(s.Hand, street, cs)
	if err != nil {
		return s.Hand, err
	}
	if err := m.store.SaveHand(ctx, sessionID, next); err != nil {
		return s.Hand, fmt.Errorf("failed to save hand: %w", err)
	}
	log.Debugf("Session %s %s: %s", sessionID, street, cards.Join(cs))
	return next, nil
}
