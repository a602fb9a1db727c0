package commands

// One-shot lookups against the proxy backends and DexScreener.

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wallet-tracker/internal/tracker"

	"github.com/spf13/cobra"
)

var lookupOut string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the current top projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		tbl, err := newService(tracker.Deps{}).TopProjects(ctx)
		return showTable(cmd.OutOrStdout(), tbl, err, lookupOut, "No top projects data to save!")
	},
}

var pairsCmd = &cobra.Command{
	Use:   "pairs CONTRACT",
	Short: "List the Solana pair addresses of a token on DexScreener",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		tbl, err := newService(tracker.Deps{}).PairAddresses(ctx, args[0])
		return showTable(cmd.OutOrStdout(), tbl, err, lookupOut, "Not found pair address!")
	},
}

var tradersCmd = &cobra.Command{
	Use:   "traders PAIR...",
	Short: "List the top 100 traders of each pair",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		tbl, err := newService(tracker.Deps{}).TopTraders(ctx, args)
		return showTable(cmd.OutOrStdout(), tbl, err, lookupOut, "No wallet addresses found!")
	},
}

var walletsCmd = &cobra.Command{
	Use:   "wallets WALLET...",
	Short: "Show win rate, PnL and trade distribution of wallets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		tbl, err := newService(tracker.Deps{}).WalletInfo(ctx, args)
		return showTable(cmd.OutOrStdout(), tbl, err, lookupOut, "No wallets matching your filter were found!")
	},
}

func init() {
	for _, c := range []*cobra.Command{projectsCmd, pairsCmd, tradersCmd, walletsCmd} {
		c.Flags().StringVarP(&lookupOut, "out", "o", "", "save the result (.csv or .xlsx)")
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
