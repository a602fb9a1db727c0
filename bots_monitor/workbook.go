package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"

	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/features/tables"
	log "wallet-tracker/internal/infra/log"
	"wallet-tracker/internal/tracker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const workbookUsage = "Usage: /workbook [proxy|defined] [birdeye|bitquery]\n/workbook saved - rebuild from the last run"

func (h *Handler) handleWorkbook(ctx context.Context, message *tgbotapi.Message, args []string) {
	req := tracker.WorkbookRequest{
		Projects: tracker.SourceProxy,
		Traders:  tracker.TradersBirdeye,
		Output:   h.reportPath(message.Chat.ID, "output.xlsx"),
	}
	for _, a := range args {
		switch a {
		case string(tracker.SourceProxy), string(tracker.SourceDefined):
			req.Projects = tracker.ProjectSource(a)
		case string(tracker.TradersBirdeye), string(tracker.TradersBitquery):
			req.Traders = tracker.TraderSource(a)
		case "saved":
			req.FromSnapshots = true
		default:
			h.reply(message, workbookUsage)
			return
		}
	}

	if req.FromSnapshots {
		h.reply(message, "Building workbook from the saved trader lists...")
	} else {
		h.reply(message, fmt.Sprintf("Building workbook from <b>%s</b> projects and <b>%s</b> traders...", req.Projects, req.Traders))
	}

	col, err := h.svc.TopTraderWorkbook(ctx, req)
	if h.rejected(message, err) {
		return
	}
	if req.FromSnapshots && errors.Is(err, os.ErrNotExist) {
		h.reply(message, "No saved trader lists yet, run /workbook first.")
		return
	}
	if errors.Is(err, tables.ErrEmptyReport) {
		h.reply(message, "No projects found!")
		return
	}
	if errors.Is(err, transport.ErrRemoteUnavailable) {
		h.reply(message, "No projects found!\n<i>The remote API did not answer, see logs.</i>")
		return
	}
	if err != nil {
		log.LogError("Workbook failed", zap.Error(err))
		h.reply(message, "Failed to build workbook: <i>"+html.EscapeString(shortError(err))+"</i>")
		return
	}

	caption := fmt.Sprintf("Projects: <code>%d</code>, without traders: <code>%d</code>", len(col.Projects), col.Failed)
	h.sendDocument(message, req.Output, caption)
}
