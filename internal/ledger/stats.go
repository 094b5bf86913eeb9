package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/susu3304/chipbot/internal/model"
)

// PlayerStats aggregates one name across settled sessions.
type PlayerStats struct {
	Name    string
	Profit  decimal.Decimal
	Games   int
	Wins    int // sessions finished in first place
	AvgRank float64
}

// Stats folds stored rankings into per-player totals, best profit first.
// The display name is the first spelling seen, so pass history newest first
// to show current names.
func Stats(history []model.Session) []PlayerStats {
	type acc struct {
		PlayerStats
		rankSum int
	}
	byKey := make(map[string]*acc)
	var order []string

	for _, s := range history {
		for i, entry := range s.Ranking {
			key := model.NameKey(entry.Name)
			a, ok := byKey[key]
			if !ok {
				a = &acc{PlayerStats: PlayerStats{Name: entry.Name, Profit: decimal.Zero}}
				byKey[key] = a
				order = append(order, key)
			}
			a.Profit = a.Profit.Add(entry.Amount)
			a.Games++
			a.rankSum += i + 1
			if i == 0 {
				a.Wins++
			}
		}
	}

	out := make([]PlayerStats, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		a.AvgRank = float64(a.rankSum) / float64(a.Games)
		out = append(out, a.PlayerStats)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Profit.Cmp(out[j].Profit); c != 0 {
			return c > 0
		}
		return model.NameKey(out[i].Name) < model.NameKey(out[j].Name)
	})
	return out
}
