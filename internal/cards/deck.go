package cards

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrNotEnoughCards = errors.New("not enough cards left in deck")

// Deck is the 52-card deck minus a set of known cards. Draws are without
// replacement until Reset.
type Deck struct {
	base  []Card
	cards []Card
	rng   *rand.Rand
}

// NewDeck builds a deck that never contains any of the excluded cards.
func NewDeck(rng *rand.Rand, exclude ...Card) *Deck {
	skip := make(map[Card]struct{}, len(exclude))
	for _, c := range exclude {
		skip[c] = struct{}{}
	}

	base := make([]Card, 0, 52-len(skip))
	for _, c := range FullDeck() {
		if _, ok := skip[c]; !ok {
			base = append(base, c)
		}
	}

	d := &Deck{
		base:  base,
		cards: make([]Card, len(base)),
		rng:   rng,
	}
	copy(d.cards, base)
	return d
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.cards)
}

// Reset puts every drawn card back.
func (d *Deck) Reset() {
	d.cards = d.cards[:len(d.base)]
	copy(d.cards, d.base)
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes n random cards from the deck.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughCards, n, len(d.cards))
	}
	out := make([]Card, n)
	for i := 0; i < n; i++ {
		last := len(d.cards) - 1
		j := d.rng.Intn(last + 1)
		d.cards[j], d.cards[last] = d.cards[last], d.cards[j]
		out[i] = d.cards[last]
		d.cards = d.cards[:last]
	}
	return out, nil
}

// Remove takes specific cards out of the remaining deck. Cards that are not
// present are ignored.
func (d *Deck) Remove(cs ...Card) {
	for _, c := range cs {
		for i, have := range d.cards {
			if have == c {
				last := len(d.cards) - 1
				d.cards[i] = d.cards[last]
				d.cards = d.cards[:last]
				break
			}
		}
	}
}
