package cards

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrInvalidCard = errors.New("invalid card")

// Suit is one of the four French suits.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitSymbols = [...]string{"♣", "♦", "♥", "♠"}
var suitLetters = [...]byte{'c', 'd', 'h', 's'}

func (s Suit) Symbol() string {
	if s > Spades {
		return "?"
	}
	return suitSymbols[s]
}

// Letter returns the lowercase suit letter used in card tokens (c, d, h, s).
func (s Suit) Letter() byte {
	if s > Spades {
		return '?'
	}
	return suitLetters[s]
}

// Rank runs from Two (2) to Ace (14).
type Rank uint8

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

const rankChars = "23456789TJQKA"

// Char returns the rank character used in card tokens ("T" for ten).
func (r Rank) Char() byte {
	if r < Two || r > Ace {
		return '?'
	}
	return rankChars[r-Two]
}

// Card is a single playing card. The zero value is not a valid card.
type Card struct {
	Rank Rank
	Suit Suit
}

func New(r Rank, s Suit) (Card, error) {
	c := Card{Rank: r, Suit: s}
	if !c.Valid() {
		return Card{}, fmt.Errorf("%w: rank %d suit %d", ErrInvalidCard, r, s)
	}
	return c, nil
}

func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit <= Spades
}

// String renders the card with its suit symbol, e.g. "A♠".
func (c Card) String() string {
	return string(c.Rank.Char()) + c.Suit.Symbol()
}

// Token renders the card as a two-character token, e.g. "As".
func (c Card) Token() string {
	return string([]byte{c.Rank.Char(), c.Suit.Letter()})
}

// MarshalText stores cards as tokens so persisted hand state stays readable.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidCard, c.Rank, c.Suit)
	}
	return []byte(c.Token()), nil
}

func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse reads a card token: a rank (2-9, T, J, Q, K, A or 10) followed by a suit
// letter (c, d, h, s) or symbol. Case is ignored.
func Parse(token string) (Card, error) {
	tok := strings.TrimSpace(token)
	if tok == "" {
		return Card{}, fmt.Errorf("%w: empty token", ErrInvalidCard)
	}
	upper := strings.ToUpper(tok)
	if strings.HasPrefix(upper, "10") {
		upper = "T" + upper[2:]
	}

	suitRune, size := utf8.DecodeLastRuneInString(upper)
	rankPart := upper[:len(upper)-size]
	if len(rankPart) != 1 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, token)
	}

	idx := strings.IndexByte(rankChars, rankPart[0])
	if idx < 0 {
		return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidCard, token)
	}

	var suit Suit
	switch suitRune {
	case 'C', '♣', '♧':
		suit = Clubs
	case 'D', '♦', '♢':
		suit = Diamonds
	case 'H', '♥', '♡':
		suit = Hearts
	case 'S', '♠', '♤':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("%w: bad suit in %q", ErrInvalidCard, token)
	}

	return Card{Rank: Two + Rank(idx), Suit: suit}, nil
}

// IsToken reports whether s parses as a card.
func IsToken(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// ParseList parses every token and rejects duplicates.
func ParseList(tokens []string) ([]Card, error) {
	out := make([]Card, 0, len(tokens))
	for _, t := range tokens {
		c, err := Parse(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if !Distinct(out) {
		return nil, fmt.Errorf("%w: duplicate card in %s", ErrInvalidCard, strings.Join(tokens, " "))
	}
	return out, nil
}

// Distinct reports whether no card appears twice.
func Distinct(cs []Card) bool {
	seen := make(map[Card]struct{}, len(cs))
	for _, c := range cs {
		if _, ok := seen[c]; ok {
			return false
		}
		seen[c] = struct{}{}
	}
	return true
}

// Join renders cards separated by spaces.
func Join(cs []Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// FullDeck returns the 52 cards ordered by suit then rank.
func FullDeck() []Card {
	out := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for r := Two; r <= Ace; r++ {
			out = append(out, Card{Rank: r, Suit: s})
		}
	}
	return out
}
