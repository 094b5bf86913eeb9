package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/handeval"
	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/model"
)

func money(d decimal.Decimal) string {
	return d.Round(2).String()
}

func formatSettlement(st *ledger.Settlement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 **Settlement** (%s per 1000 chips)\n", money(st.Ratio))
	for i, e := range st.Ranking {
		switch e.Amount.Sign() {
		case 1:
			fmt.Fprintf(&b, "%d. %s receives %s\n", i+1, e.Name, money(e.Amount))
		case -1:
			fmt.Fprintf(&b, "%d. %s pays %s\n", i+1, e.Name, money(e.Amount.Neg()))
		default:
			fmt.Fprintf(&b, "%d. %s breaks even\n", i+1, e.Name)
		}
	}
	if len(st.Plan.Transfers) > 0 {
		b.WriteString("\n💸 **Transfers**\n")
		for _, t := range st.Plan.Transfers {
			fmt.Fprintf(&b, "%s → %s: %s\n", t.From, t.To, money(t.Amount))
		}
	}
	if !st.Plan.Residual.IsZero() {
		fmt.Fprintf(&b, "\n⚖️ Chips were off by %d, so the amounts miss balancing by %s.\n",
			st.Totals.End-st.Totals.Bought, money(st.Plan.Residual))
	}
	b.WriteString("\nGame closed. The next buy-in starts a new one.")
	return b.String()
}

func formatDebug(s *model.Session, ps []model.Participant, tolerance float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Session `%s` (%s)\n", s.ID, s.Status)
	if len(ps) == 0 {
		b.WriteString("No players yet.\n")
	}
	var bought, end int64
	for _, p := range ps {
		bought += p.ChipsBought
		if p.Finished() {
			end += *p.ChipsEnd
			fmt.Fprintf(&b, "• %s: bought %d, finished %d\n", p.Name, p.ChipsBought, *p.ChipsEnd)
		} else {
			fmt.Fprintf(&b, "• %s: bought %d, playing\n", p.Name, p.ChipsBought)
		}
	}
	fmt.Fprintf(&b, "Total bought %d, counted %d, tolerance %.1f%%\n", bought, end, tolerance*100)
	if !s.Hand.Empty() {
		fmt.Fprintf(&b, "Hand: %s", cards.Join(s.Hand.Hole))
		if board := s.Hand.Board(); len(board) > 0 {
			fmt.Fprintf(&b, " | %s", cards.Join(board))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistory(past []model.Session) string {
	if len(past) == 0 {
		return "📜 No finished games yet."
	}
	var b strings.Builder
	b.WriteString("📜 **Past games**\n")
	for _, s := range past {
		when := s.CreatedAt
		if s.EndedAt != nil {
			when = *s.EndedAt
		}
		fmt.Fprintf(&b, "%s:", when.Format("2006-01-02"))
		if len(s.Ranking) == 0 {
			b.WriteString(" no result")
		}
		for i, e := range s.Ranking {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s %s", e.Name, signed(e.Amount))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func signed(d decimal.Decimal) string {
	if d.Sign() > 0 {
		return "+" + money(d)
	}
	return money(d)
}

func formatStats(stats []ledger.PlayerStats) string {
	if len(stats) == 0 {
		return "📈 No finished games yet."
	}
	var b strings.Builder
	b.WriteString("📈 **All-time**\n```\n")
	fmt.Fprintf(&b, "%-12s %10s %5s %4s %6s\n", "Player", "Profit", "Games", "Wins", "Rank")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-12s %10s %5d %4d %6.2f\n", truncate(s.Name, 12), signed(s.Profit), s.Games, s.Wins, s.AvgRank)
	}
	b.WriteString("```")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatEquity(hand model.HandState, stage equity.Stage, current handeval.Category, res *equity.Result, tips []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 **%s** %s", titleStage(stage), cards.Join(hand.Hole))
	if board := hand.Board(); len(board) > 0 {
		fmt.Fprintf(&b, " | %s", cards.Join(board))
	}
	fmt.Fprintf(&b, "\nYou hold: %s\n", current)
	if multi := res.MultiWinPercent(); multi != nil {
		fmt.Fprintf(&b, "Win vs %d opponents: %.1f%% · heads-up: %.1f%%\n", res.Opponents, *multi, res.SingleWinPercent())
	} else {
		fmt.Fprintf(&b, "Win heads-up: %.1f%%\n", res.SingleWinPercent())
	}

	b.WriteString("```\n")
	fmt.Fprintf(&b, "%-16s %6s %6s %6s\n", "Final hand", "You", "Best", "One")
	for _, row := range res.Breakdown(equity.DefaultThreshold) {
		fmt.Fprintf(&b, "%-16s %6.1f %6.1f %6.1f\n", row.Category, row.Player, row.Multi, row.Single)
	}
	b.WriteString("```")
	if res.Skipped > 0 {
		fmt.Fprintf(&b, "\n(%d of %d trials skipped)", res.Skipped, res.Trials)
	}
	for _, t := range tips {
		b.WriteString("\n")
		b.WriteString(t)
	}
	return b.String()
}

func titleStage(s equity.Stage) string {
	name := s.String()
	return strings.ToUpper(name[:1]) + name[1:]
}
