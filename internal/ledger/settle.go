package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/susu3304/chipbot/internal/model"
)

// Transfer is one payment of the plan.
type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// Plan is the output of Settle. Residual is what the entries did not net
// to: positive means creditors are owed more than debtors pay.
type Plan struct {
	Transfers []Transfer
	Residual  decimal.Decimal
}

type balance struct {
	name string
	left decimal.Decimal // always positive
}

// Settle matches the largest debtor with the largest creditor until one side
// runs out. Both sides are ordered by magnitude, ties by name, so the plan is
// the same for the same entries.
func Settle(entries []model.RankEntry) Plan {
	var creditors, debtors []balance
	residual := decimal.Zero
	for _, e := range entries {
		residual = residual.Add(e.Amount)
		switch e.Amount.Sign() {
		case 1:
			creditors = append(creditors, balance{name: e.Name, left: e.Amount})
		case -1:
			debtors = append(debtors, balance{name: e.Name, left: e.Amount.Neg()})
		}
	}
	byMagnitude := func(bs []balance) func(i, j int) bool {
		return func(i, j int) bool {
			if c := bs[i].left.Cmp(bs[j].left); c != 0 {
				return c > 0
			}
			return model.NameKey(bs[i].name) < model.NameKey(bs[j].name)
		}
	}
	sort.SliceStable(creditors, byMagnitude(creditors))
	sort.SliceStable(debtors, byMagnitude(debtors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		c, d := &creditors[i], &debtors[j]
		amt := decimal.Min(c.left, d.left)
		transfers = append(transfers, Transfer{From: d.name, To: c.name, Amount: amt})
		c.left = c.left.Sub(amt)
		d.left = d.left.Sub(amt)
		if c.left.IsZero() {
			i++
		}
		if d.left.IsZero() {
			j++
		}
	}
	return Plan{Transfers: transfers, Residual: residual}
}
