package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"wallet-tracker/internal/features/charts"
	"wallet-tracker/internal/features/duplicates"
	log "wallet-tracker/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// previewRows is how many report lines are quoted in the chat message.
const previewRows = 15

func (h *Handler) handleDuplicates(message *tgbotapi.Message, column string) {
	files, err := h.uploadedFiles(message.Chat.ID)
	if err != nil {
		log.LogError("Failed to list uploads", zap.Error(err))
	}
	if len(files) == 0 {
		h.reply(message, "Please upload one or more Excel or CSV files first.")
		return
	}

	report, res, err := h.svc.Duplicates(files, column)
	if h.rejected(message, err) {
		return
	}
	if err != nil {
		h.reply(message, html.EscapeString(err.Error()))
		return
	}

	summary := FormatDuplicatesSummary(report, res, displayName)
	if len(report) == 0 {
		h.reply(message, summary)
		return
	}

	csvPath := h.reportPath(message.Chat.ID, "duplicates.csv")
	if err := report.Table().WriteFile(csvPath); err != nil {
		log.LogError("Failed to write duplicates report", zap.Error(err))
		h.reply(message, summary+"\n\nAn error occurred while saving the file.")
		return
	}

	chartPath := h.reportPath(message.Chat.ID, "duplicates.png")
	if err := charts.RenderDuplicatesChart(report, chartPath, charts.DefaultTopN); err != nil {
		log.LogWarn("Failed to render duplicates chart", zap.Error(err))
		chartPath = ""
	}

	h.reply(message, summary)
	h.sendDocument(message, csvPath, fmt.Sprintf("Duplicated wallets: <code>%d</code>", len(report)))
	if chartPath != "" {
		photo := tgbotapi.NewPhoto(message.Chat.ID, tgbotapi.FilePath(chartPath))
		photo.ReplyToMessageID = message.MessageID
		if _, err := h.api.Send(photo); err != nil {
			log.LogError("Failed to send duplicates chart", zap.Error(err))
		}
	}

	log.LogInfo("Duplicates report sent",
		zap.Int("files", res.Files),
		zap.Int("skipped", len(res.Failures)),
		zap.Int("duplicates", len(report)))
}

func (h *Handler) handleDedupe(message *tgbotapi.Message, column string) {
	files, _ := h.uploadedFiles(message.Chat.ID)
	if len(files) == 0 {
		h.reply(message, "Please upload an Excel or CSV file first.")
		return
	}
	last := files[len(files)-1]

	res, err := h.svc.Dedupe(last, column)
	if h.rejected(message, err) {
		return
	}
	if err != nil {
		h.reply(message, html.EscapeString(displayName(last)+": "+cause(err).Error()))
		return
	}
	h.sendTable(message, res.Table, nil, "cleaned_data", fmt.Sprintf("Removed %d duplicates", res.Removed), "No cleaned data to save!")
}

// FormatDuplicatesSummary renders the outcome of a duplicates run as HTML.
// name maps a file path to what the user should see.
func FormatDuplicatesSummary(report duplicates.Report, res duplicates.ReadResult, name func(string) string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Files read: <code>%d</code>, identifiers: <code>%d</code>\n", res.Files, len(res.Values))
	for _, f := range res.Failures {
		fmt.Fprintf(&b, "⚠️ Skipped <code>%s</code>: %s\n", html.EscapeString(name(f.Path)), html.EscapeString(cause(f).Error()))
	}

	if len(report) == 0 {
		b.WriteString("\nNo duplicated wallets found!")
		return b.String()
	}

	fmt.Fprintf(&b, "\nDuplicated wallets: <code>%d</code>\n<pre>", len(report))
	for i, e := range report {
		if i == previewRows {
			fmt.Fprintf(&b, "... %d more", len(report)-previewRows)
			break
		}
		fmt.Fprintf(&b, "%s  %d\n", html.EscapeString(e.Identifier), e.Count)
	}
	b.WriteString("</pre>")
	return b.String()
}

// cause drops the path prefix of a FileError.
func cause(err error) error {
	var fe *duplicates.FileError
	if errors.As(err, &fe) {
		return fe.Err
	}
	return err
}
