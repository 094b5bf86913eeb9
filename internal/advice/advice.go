// Package advice turns equity results into short, human-readable guidance.
package advice

import (
	"fmt"
	"math"
	"strings"

	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/handeval"
)

// DefaultRiskThreshold is the opponent-category percentage above which a
// stronger category is called out as a threat.
const DefaultRiskThreshold = 15.0

// steadyBand is the change in win percentage still reported as steady.
const steadyBand = 2.0

// Risk is an opponent category that beats the player's current hand.
type Risk struct {
	Category handeval.Category
	Percent  float64
}

// Input is everything Generate looks at.
type Input struct {
	Category     handeval.Category
	Stage        equity.Stage
	MultiWin     *float64 // nil against a single opponent
	SingleWin    float64
	PrevMultiWin *float64 // nil when there is no earlier estimate
	Risky        []Risk
}

// headline is the win rate the advice talks about: against the whole table
// when there is more than one opponent.
func (in Input) headline() float64 {
	if in.MultiWin != nil {
		return *in.MultiWin
	}
	return in.SingleWin
}

// Generate returns the advice lines in display order: trend, hand note,
// probability tier, then threats.
func Generate(in Input) []string {
	var lines []string
	if line, ok := trendLine(in); ok {
		lines = append(lines, line)
	}
	lines = append(lines, categoryNote(in.Category, in.Stage))
	lines = append(lines, tierNote(in.headline()))
	if line, ok := threatLine(in.Risky); ok {
		lines = append(lines, line)
	}
	return lines
}

func trendLine(in Input) (string, bool) {
	if in.Stage == equity.Preflop || in.PrevMultiWin == nil {
		return "", false
	}
	cur, prev := in.headline(), *in.PrevMultiWin
	delta := cur - prev
	switch {
	case math.Abs(delta) < steadyBand:
		return fmt.Sprintf("📊 Win chance holding steady at %.1f%% (was %.1f%%).", cur, prev), true
	case delta > 0:
		return fmt.Sprintf("📈 The %s helped: win chance up %.1f points to %.1f%%.", in.Stage, delta, cur), true
	default:
		return fmt.Sprintf("📉 The %s hurt: win chance down %.1f points to %.1f%%.", in.Stage, -delta, cur), true
	}
}

func categoryNote(c handeval.Category, stage equity.Stage) string {
	switch c {
	case handeval.RoyalFlush, handeval.StraightFlush:
		return "🃏 You hold a " + strings.ToLower(c.String()) + ". Extract maximum value; slow-playing is fine."
	case handeval.FourOfAKind:
		return "🃏 Four of a kind is almost always best. Let them bet into you."
	case handeval.FullHouse:
		return "🃏 Full house: bet for value, only a bigger boat or better beats you."
	case handeval.Flush:
		return "🃏 Flush made. Bet to charge draws, and be careful if the board pairs."
	case handeval.Straight:
		return "🃏 Straight made. Watch for three of one suit on board."
	case handeval.ThreeOfAKind:
		return "🃏 Trips are strong. Build the pot before straights and flushes arrive."
	case handeval.TwoPair:
		return "🃏 Two pair is good but vulnerable. Protect it with a solid bet."
	case handeval.Pair:
		if stage == equity.Preflop {
			return "🃏 Pocket pair. Play it aggressively in position, hope to hit a set."
		}
		return "🃏 One pair. Keep the pot controlled unless your kicker is strong."
	}
	if stage == equity.Preflop {
		return "🃏 No pair yet. Suited or connected cards play better in position."
	}
	if stage == equity.River {
		return "🃏 Only high card at showdown. Check it down or fold to pressure."
	}
	return "🃏 Only high card so far. Continue only with good draws or a cheap price."
}

func tierNote(win float64) string {
	switch {
	case win >= 70:
		return fmt.Sprintf("💪 %.1f%% to win: you are a big favourite, bet for value.", win)
	case win >= 50:
		return fmt.Sprintf("👍 %.1f%% to win: slight edge, bet or call with confidence.", win)
	case win >= 30:
		return fmt.Sprintf("🤔 %.1f%% to win: marginal, prefer cheap showdowns.", win)
	case win >= 15:
		return fmt.Sprintf("⚠️ %.1f%% to win: behind, continue only with the right price.", win)
	}
	return fmt.Sprintf("🛑 %.1f%% to win: folding is usually right.", win)
}

func threatLine(risky []Risk) (string, bool) {
	if len(risky) == 0 {
		return "", false
	}
	parts := make([]string, len(risky))
	for i, r := range risky {
		parts[i] = fmt.Sprintf("%s %.1f%%", r.Category, r.Percent)
	}
	return "👀 Opponents often finish with " + strings.Join(parts, ", ") + ".", true
}

// RiskyCategories lists opponent categories that beat current and show up
// more than threshold percent of the time, strongest first. The multi-opponent
// column is used when it was simulated.
func RiskyCategories(res *equity.Result, current handeval.Category, threshold float64) []Risk {
	var out []Risk
	for _, c := range handeval.AllCategories {
		if !c.Beats(current) {
			break
		}
		p := res.SinglePercent(c)
		if res.Opponents > 1 {
			p = res.MultiPercent(c)
		}
		if p > threshold {
			out = append(out, Risk{Category: c, Percent: p})
		}
	}
	return out
}
