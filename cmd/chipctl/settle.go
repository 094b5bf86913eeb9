package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/session"
	"github.com/susu3304/chipbot/internal/store"
)

type entry struct {
	name   string
	bought int64
	end    int64
}

func newSettleCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settle name:bought:end...",
		Short:   "Work out who pays whom after a game",
		Example: "  chipctl settle --ratio 50 alice:100:150 bob:100:50",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			entries, err := parseEntries(args)
			if err != nil {
				return err
			}
			return runSettle(cmd, entries, v.GetFloat64("ratio"), v.GetFloat64("tolerance"))
		},
	}
	f := cmd.Flags()
	f.Float64("ratio", 0, "money per 1000 chips")
	f.Float64("tolerance", ledger.DefaultTolerance, "allowed chip mismatch as a fraction of chips bought")
	return cmd
}

func parseEntries(args []string) ([]entry, error) {
	out := make([]entry, 0, len(args))
	for _, a := range args {
		parts := strings.Split(a, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%q: want name:bought:end", a)
		}
		bought, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: bad chips bought: %w", a, err)
		}
		end, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: bad final stack: %w", a, err)
		}
		out = append(out, entry{name: parts[0], bought: bought, end: end})
	}
	return out, nil
}

// runSettle replays the entries through a throwaway session so the result is
// exactly what the bot would post.
func runSettle(cmd *cobra.Command, entries []entry, ratio, tolerance float64) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st := store.NewMemory()
	defer st.Close()
	engine := ledger.New(st, tolerance)

	s, err := session.NewManager(st).Active(ctx, "chipctl", "")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := engine.RecordBuy(ctx, s.ID, e.name, e.bought); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := engine.RecordEnd(ctx, s.ID, e.name, e.end); err != nil {
			return err
		}
	}
	res, err := engine.ComputeSettlement(ctx, s.ID, ratio)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ranking := pterm.TableData{{"#", "Player", "Amount"}}
	for i, r := range res.Ranking {
		ranking = append(ranking, []string{strconv.Itoa(i + 1), r.Name, r.Amount.Round(2).String()})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(ranking).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)

	if len(res.Plan.Transfers) > 0 {
		transfers := pterm.TableData{{"From", "To", "Amount"}}
		for _, t := range res.Plan.Transfers {
			transfers = append(transfers, []string{t.From, t.To, t.Amount.Round(2).String()})
		}
		table, err = pterm.DefaultTable.WithHasHeader().WithData(transfers).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, table)
	}
	if !res.Plan.Residual.IsZero() {
		fmt.Fprint(out, pterm.Sprintfln("Unbalanced by %s", res.Plan.Residual.Round(2)))
	}
	return nil
}
