package bot

import (
	"fmt"
	"path/filepath"
	"strings"

	log "wallet-tracker/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notify posts text to chatID followed by each file: PNG files as photos,
// everything else as documents. Used by the CLI to push reports to the chat.
func Notify(api API, chatID int64, text string, files ...string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	for _, path := range files {
		if path == "" {
			continue
		}
		var c tgbotapi.Chattable
		if strings.EqualFold(filepath.Ext(path), ".png") {
			c = tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
		} else {
			c = tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
		}
		if _, err := api.Send(c); err != nil {
			return fmt.Errorf("failed to send %s: %w", path, err)
		}
	}

	log.LogInfo("Notification sent", zap.Int64("chatID", chatID), zap.Int("files", len(files)))
	return nil
}
