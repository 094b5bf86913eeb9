package handeval

// Category is one of the ten standard hand rankings, best first.
type Category int

const (
	RoyalFlush Category = iota
	StraightFlush
	FourOfAKind
	FullHouse
	Flush
	Straight
	ThreeOfAKind
	TwoPair
	Pair
	HighCard
)

// NumCategories sizes per-category tallies.
const NumCategories = 10

// AllCategories lists every category from best to worst.
var AllCategories = [NumCategories]Category{
	RoyalFlush, StraightFlush, FourOfAKind, FullHouse, Flush,
	Straight, ThreeOfAKind, TwoPair, Pair, HighCard,
}

var categoryNames = [NumCategories]string{
	"Royal Flush",
	"Straight Flush",
	"Four of a Kind",
	"Full House",
	"Flush",
	"Straight",
	"Three of a Kind",
	"Two Pair",
	"Pair",
	"High Card",
}

func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return "Unknown"
	}
	return categoryNames[c]
}

// Beats reports whether c is a strictly stronger category than other.
func (c Category) Beats(other Category) bool {
	return c < other
}
