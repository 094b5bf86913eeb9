package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/susu3304/chipbot/internal/advice"
	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/equity"
)

func newEquityCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "equity",
		Short:   "Simulate how a hand finishes against random opponents",
		Example: "  chipctl equity --hole AsKd --board 2c7h9s --opponents 3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return runEquity(cmd, v)
		},
	}
	f := cmd.Flags()
	f.String("hole", "", "your two cards, e.g. AsKd")
	f.String("board", "", "0, 3, 4 or 5 community cards, e.g. 2c7h9s")
	f.Int("opponents", 1, "players against you")
	f.Int("trials", equity.DefaultTrials, "simulated deals")
	f.Int64("seed", 1, "random seed")
	f.Int("workers", 0, "parallel workers (0 uses every CPU)")
	f.Float64("risk-threshold", advice.DefaultRiskThreshold, "percent at which an opponent hand is called out")
	return cmd
}

func runEquity(cmd *cobra.Command, v *viper.Viper) error {
	hole, err := cards.ParseList(splitCards(v.GetString("hole")))
	if err != nil {
		return fmt.Errorf("--hole: %w", err)
	}
	board, err := cards.ParseList(splitCards(v.GetString("board")))
	if err != nil {
		return fmt.Errorf("--board: %w", err)
	}
	stage, err := equity.StageFor(len(board))
	if err != nil {
		return err
	}

	opts := equity.Options{
		Trials:  v.GetInt("trials"),
		Seed:    v.GetInt64("seed"),
		Workers: v.GetInt("workers"),
	}
	res, err := equity.Simulate(cmd.Context(), hole, board, v.GetInt("opponents"), opts)
	if err != nil {
		return err
	}
	current, err := equity.CurrentCategory(hole, board)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	shown := cards.Join(hole)
	if len(board) > 0 {
		shown += " | " + cards.Join(board)
	}
	fmt.Fprint(out, pterm.Sprintfln("%s %s, holding %s", stage, shown, current))
	if multi := res.MultiWinPercent(); multi != nil {
		fmt.Fprint(out, pterm.Sprintfln("Win vs %d opponents: %.1f%%, heads-up: %.1f%%", res.Opponents, *multi, res.SingleWinPercent()))
	} else {
		fmt.Fprint(out, pterm.Sprintfln("Win heads-up: %.1f%%", res.SingleWinPercent()))
	}

	data := pterm.TableData{{"Final hand", "You", "Best opponent", "One opponent"}}
	for _, row := range res.Breakdown(equity.DefaultThreshold) {
		data = append(data, []string{
			row.Category.String(),
			fmt.Sprintf("%.1f", row.Player),
			fmt.Sprintf("%.1f", row.Multi),
			fmt.Sprintf("%.1f", row.Single),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)

	in := advice.Input{
		Category:  current,
		Stage:     stage,
		MultiWin:  res.MultiWinPercent(),
		SingleWin: res.SingleWinPercent(),
		Risky:     advice.RiskyCategories(res, current, v.GetFloat64("risk-threshold")),
	}
	for _, line := range advice.Generate(in) {
		fmt.Fprintln(out, line)
	}
	return nil
}

// splitCards accepts "As Kd", "As,Kd" or the compact "AsKd".
func splitCards(s string) []string {
	var out []string
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' }) {
		for field != "" {
			n := 1
			if strings.HasPrefix(field, "10") {
				n = 2
			}
			if len(field) <= n {
				out = append(out, field)
				break
			}
			_, size := utf8.DecodeRuneInString(field[n:])
			out = append(out, field[:n+size])
			field = field[n+size:]
		}
	}
	return out
}
