package model

import (
	"fmt"

	"github.com/susu3304/chipbot/internal/cards"
)

// HandState is the single hand tracked for a session.
type HandState struct {
	Hole  []cards.Card `json:"hole,omitempty"`
	Flop  []cards.Card `json:"flop,omitempty"`
	Turn  *cards.Card  `json:"turn,omitempty"`
	River *cards.Card  `json:"river,omitempty"`
}

// Board returns the community cards revealed so far.
func (h HandState) Board() []cards.Card {
	board := make([]cards.Card, 0, 5)
	board = append(board, h.Flop...)
	if h.Turn != nil {
		board = append(board, *h.Turn)
	}
	if h.River != nil {
		board = append(board, *h.River)
	}
	return board
}

func (h HandState) Empty() bool {
	return len(h.Hole) == 0 && len(h.Flop) == 0 && h.Turn == nil && h.River == nil
}

func (h HandState) Validate() error {
	if n := len(h.Hole); n != 0 && n != 2 {
		return fmt.Errorf("%w: %d hole cards", ErrInvalidRecord, n)
	}
	if n := len(h.Flop); n != 0 && n != 3 {
		return fmt.Errorf("%w: %d flop cards", ErrInvalidRecord, n)
	}
	if h.Turn != nil && len(h.Flop) == 0 {
		return fmt.Errorf("%w: turn without flop", ErrInvalidRecord)
	}
	if h.River != nil && h.Turn == nil {
		return fmt.Errorf("%w: river without turn", ErrInvalidRecord)
	}
	all := append(append([]cards.Card{}, h.Hole...), h.Board()...)
	for _, c := range all {
		if !c.Valid() {
			return fmt.Errorf("%w: bad card %v", ErrInvalidRecord, c)
		}
	}
	if !cards.Distinct(all) {
		return fmt.Errorf("%w: duplicate card in %s", ErrInvalidRecord, cards.Join(all))
	}
	return nil
}
