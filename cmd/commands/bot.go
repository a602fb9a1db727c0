package commands

// Command to run the Telegram bot
// Serves the configured chat until SIGINT/SIGTERM
// Implements graceful shutdown for proper termination

import (
	"fmt"
	"time"

	bot "wallet-tracker/bots_monitor"
	"wallet-tracker/internal/infra/log"
	"wallet-tracker/internal/tracker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	Long:  `Run the Telegram command bot. It only answers the chat configured in TELEGRAM_CHAT_ID.`,
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.LogError("Failed to initialize bot", zap.Error(err))
		return fmt.Errorf("failed to initialize bot: %w", err)
	}
	log.LogSuccess("Bot authorized", zap.String("username", api.Self.UserName))

	handler, err := bot.NewHandler(api, newService(tracker.Deps{}), cfg.Telegram.ChatID)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.RunCommandHandler(ctx, updates)
	}()

	log.LogSuccess("Bot is running", zap.String("status", "active"))

	<-ctx.Done()
	log.LogInfo("Shutdown signal received, gracefully stopping...")
	api.StopReceivingUpdates()

	select {
	case <-done:
		log.LogSuccess("Bot stopped gracefully")
	case <-time.After(10 * time.Second):
		log.LogWarn("Timeout waiting for running commands to stop, forcing shutdown")
	}
	return nil
}
