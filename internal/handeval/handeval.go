// Package handeval ranks Texas Hold'em hands.
//
// Scores come from github.com/chehsunliu/poker and follow its rank-class
// convention: 1 is a royal flush, 7462 is the worst high card, and a lower
// score always beats a higher one.
package handeval

import (
	"errors"
	"fmt"

	"github.com/chehsunliu/poker"
	"github.com/susu3304/chipbot/internal/cards"
)

var ErrInvalidHand = errors.New("invalid hand")

// Score orders hands; lower is better.
type Score int32

// WorstScore is the score of 7-5-4-3-2 offsuit.
const WorstScore Score = 7462

// Better reports whether a beats b.
func Better(a, b Score) bool {
	return a < b
}

// lib maps our cards onto the evaluator's encoding once.
var lib [4][cards.Ace + 1]poker.Card

func init() {
	for _, c := range cards.FullDeck() {
		lib[c.Suit][c.Rank] = poker.NewCard(c.Token())
	}
}

// Evaluate scores the best five-card hand made from two hole cards and a
// board of three to five cards.
func Evaluate(hole, board []cards.Card) (Score, error) {
	if len(hole) != 2 {
		return 0, fmt.Errorf("%w: need 2 hole cards, got %d", ErrInvalidHand, len(hole))
	}
	if len(board) < 3 || len(board) > 5 {
		return 0, fmt.Errorf("%w: board must have 3 to 5 cards, got %d", ErrInvalidHand, len(board))
	}
	all := make([]cards.Card, 0, 7)
	all = append(all, hole...)
	all = append(all, board...)
	return EvaluateCards(all)
}

// EvaluateCards scores the best five-card hand among five to seven cards.
func EvaluateCards(cs []cards.Card) (Score, error) {
	if len(cs) < 5 || len(cs) > 7 {
		return 0, fmt.Errorf("%w: need 5 to 7 cards, got %d", ErrInvalidHand, len(cs))
	}
	conv := make([]poker.Card, len(cs))
	for i, c := range cs {
		if !c.Valid() {
			return 0, fmt.Errorf("%w: %v", ErrInvalidHand, c)
		}
		conv[i] = lib[c.Suit][c.Rank]
	}
	if !cards.Distinct(cs) {
		return 0, fmt.Errorf("%w: duplicate card in %s", ErrInvalidHand, cards.Join(cs))
	}
	return Score(poker.Evaluate(conv)), nil
}

// Classify maps a score to its hand category.
func Classify(s Score) Category {
	if s == 1 {
		return RoyalFlush
	}
	// RankClass runs 1 (straight flush) .. 9 (high card), which lines up with
	// our categories shifted by one.
	return Category(poker.RankClass(int32(s)))
}
