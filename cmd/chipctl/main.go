// Command chipctl runs the equity simulator and the settlement engine from
// the terminal, without a chat connection.
package main

import (
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CHIPCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "chipctl",
		Short:         "Poker equity and chip settlement from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEquityCmd(v), newSettleCmd(v))
	return root
}
