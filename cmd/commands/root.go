package commands

// Root command for Cobra CLI
// Loads configuration and logging before any subcommand runs
// Registers all subcommands

import (
	"fmt"

	"wallet-tracker/internal/config"
	"wallet-tracker/internal/infra/log"
	"wallet-tracker/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	quiet   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wallet-tracker",
	Short: "Wallet Tracker - find wallets that keep showing up across trader lists",
	Long: `Wallet Tracker collects top trader lists for Solana tokens and finds wallets
that appear in more than one of them. It runs as a CLI or as a Telegram bot.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		if err := log.Init(log.Options{Dir: cfg.App.LogsDir, Verbose: verbose, Quiet: quiet}); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	pf.String("data-dir", "", "directory for reports, uploads and snapshots")
	pf.String("logs-dir", "", "directory for app.log")
	pf.String("column", "", "identifier column name")
	pf.Int("workers", 0, "parallel API requests for batch lookups")
	pf.Int("retries", 0, "retries for 429/5xx responses")
	pf.Int("timeout", 0, "HTTP timeout in seconds")
	pf.BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	pf.BoolVarP(&quiet, "quiet", "q", false, "print errors only")

	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(pairsCmd)
	rootCmd.AddCommand(tradersCmd)
	rootCmd.AddCommand(walletsCmd)
	rootCmd.AddCommand(birdeyeCmd)
	rootCmd.AddCommand(bitqueryCmd)
	rootCmd.AddCommand(botCmd)
}

func newService(deps tracker.Deps) *tracker.Service {
	return tracker.New(cfg, deps)
}
