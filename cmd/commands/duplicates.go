package commands

// Commands working on local spreadsheets: duplicate extraction across files
// and duplicate removal inside one file.

import (
	"fmt"
	"path/filepath"

	bot "wallet-tracker/bots_monitor"
	"wallet-tracker/internal/features/charts"
	"wallet-tracker/internal/infra/log"
	"wallet-tracker/internal/tracker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	duplicatesOut    string
	duplicatesChart  string
	duplicatesTopN   int
	duplicatesNotify bool

	dedupeOut string
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates FILE...",
	Short: "Find wallets that appear more than once across .csv/.xlsx/.xls files",
	Long: `Reads the identifier column ("Wallet Address" by default) from every file,
counts each value and lists those seen more than once, most frequent first.
Files that cannot be read or lack the column are skipped with a warning.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDuplicates,
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe FILE",
	Short: "Remove repeated rows from one file, keeping the first occurrence",
	Args:  cobra.ExactArgs(1),
	RunE:  runDedupe,
}

func init() {
	duplicatesCmd.Flags().StringVarP(&duplicatesOut, "out", "o", "", "save the report (.csv or .xlsx)")
	duplicatesCmd.Flags().StringVar(&duplicatesChart, "chart", "", "save a bar chart of the top entries (.png)")
	duplicatesCmd.Flags().IntVar(&duplicatesTopN, "top", charts.DefaultTopN, "entries shown in the chart")
	duplicatesCmd.Flags().BoolVar(&duplicatesNotify, "notify", false, "send the report to the Telegram chat")

	dedupeCmd.Flags().StringVarP(&dedupeOut, "out", "o", "", "save the cleaned file (.csv or .xlsx)")
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	svc := newService(tracker.Deps{})

	report, res, err := svc.Duplicates(args, cfg.App.IdentifierColumn)
	if err != nil {
		return err
	}

	log.LogInfo("Duplicate extraction finished",
		zap.Int("files", res.Files),
		zap.Int("skipped", len(res.Failures)),
		zap.Int("values", len(res.Values)),
		zap.Int("duplicates", len(report)))

	if len(report) == 0 {
		log.LogWarn("No duplicated wallets found!")
		return nil
	}

	if err := report.Table().Render(cmd.OutOrStdout()); err != nil {
		return err
	}
	if err := save(report.Table(), duplicatesOut); err != nil {
		return err
	}

	if duplicatesChart != "" {
		if err := charts.RenderDuplicatesChart(report, duplicatesChart, duplicatesTopN); err != nil {
			return err
		}
		log.LogSuccess("Chart saved", zap.String("file", duplicatesChart))
	}

	if duplicatesNotify {
		if err := cfg.RequireTelegram(); err != nil {
			return err
		}
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("failed to initialize bot: %w", err)
		}
		chatID, err := bot.ParseChatID(cfg.Telegram.ChatID)
		if err != nil {
			return err
		}
		summary := bot.FormatDuplicatesSummary(report, res, filepath.Base)
		if err := bot.Notify(api, chatID, summary, duplicatesOut, duplicatesChart); err != nil {
			return err
		}
		log.LogSuccess("Report sent to Telegram")
	}
	return nil
}

func runDedupe(cmd *cobra.Command, args []string) error {
	svc := newService(tracker.Deps{})

	res, err := svc.Dedupe(args[0], cfg.App.IdentifierColumn)
	if err != nil {
		return err
	}
	log.LogInfo("Duplicate removal finished", zap.Int("kept", res.Table.Len()), zap.Int("removed", res.Removed))

	return showTable(cmd.OutOrStdout(), res.Table, nil, dedupeOut, "No cleaned data to save!")
}
