package bot

// Telegram command handler. Every command maps onto one tracker operation;
// results come back as CSV documents, the duplicates report also as a chart.

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/features/tables"
	"wallet-tracker/internal/infra/fs"
	log "wallet-tracker/internal/infra/log"
	"wallet-tracker/internal/jobs"
	"wallet-tracker/internal/tracker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// API is the part of *tgbotapi.BotAPI the handler needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Handler struct {
	api        API
	svc        *tracker.Service
	chatID     int64
	httpClient *http.Client
	now        func() time.Time
	maxUpload  int64

	wg sync.WaitGroup
}

func NewHandler(api API, svc *tracker.Service, chatID string) (*Handler, error) {
	id, err := ParseChatID(chatID)
	if err != nil {
		return nil, err
	}
	return &Handler{
		api:        api,
		svc:        svc,
		chatID:     id,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		now:        time.Now,
		maxUpload:  maxUploadSize,
	}, nil
}

// ParseChatID accepts numeric chat IDs, including negative group IDs.
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat ID %q: %w", s, err)
	}
	return id, nil
}

// RunCommandHandler serves updates until ctx is done or the channel closes.
// Commands run in their own goroutine so a long lookup never blocks the chat;
// overlapping runs of one operation are rejected by the tracker's guard.
func (h *Handler) RunCommandHandler(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	log.LogInfo("Starting command handler", zap.Int64("chatID", h.chatID))

	for {
		select {
		case <-ctx.Done():
			h.wg.Wait()
			return
		case update, ok := <-updates:
			if !ok {
				h.wg.Wait()
				return
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			if update.Message.Chat.ID != h.chatID {
				continue
			}
			msg := update.Message
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				h.HandleMessage(ctx, msg)
			}()
		}
	}
}

// HandleMessage processes one message from the served chat synchronously.
func (h *Handler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Document != nil {
		h.handleUpload(ctx, message)
		return
	}
	if !message.IsCommand() {
		return
	}

	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	log.LogDebug("Received command",
		zap.String("command", command),
		zap.String("args", args),
		zap.Int64("chatID", message.Chat.ID),
		zap.String("username", userName(message)))

	switch command {
	case "projects":
		h.handleProjects(ctx, message)
	case "pairs":
		h.handlePairs(ctx, message, args)
	case "traders":
		h.handleTraders(ctx, message, strings.Fields(args))
	case "wallets":
		h.handleWallets(ctx, message, strings.Fields(args))
	case "duplicates":
		h.handleDuplicates(message, args)
	case "dedupe":
		h.handleDedupe(message, args)
	case "workbook":
		h.handleWorkbook(ctx, message, strings.Fields(args))
	case "clear":
		h.handleClear(message)
	case "status":
		h.handleStatus(message)
	case "helps", "help", "start":
		h.handleHelp(message)
	}
}

const helpText = "" +
	"Commands:\n" +
	"• <code>/projects</code> - top projects\n" +
	"• <code>/pairs {contract}</code> - pair addresses of a token\n" +
	"• <code>/traders {pair} ...</code> - top 100 traders per pair\n" +
	"• <code>/wallets {wallet} ...</code> - wallet statistics\n" +
	"• <code>/duplicates [column]</code> - wallets found in more than one uploaded file\n" +
	"• <code>/dedupe [column]</code> - drop repeated rows from the last uploaded file\n" +
	"• <code>/workbook [proxy|defined] [birdeye|bitquery]</code> - top trader workbook\n" +
	"• <code>/workbook saved</code> - rebuild the workbook from the last run\n" +
	"• <code>/clear</code> - forget uploaded files\n" +
	"• <code>/status</code> - running operations\n" +
	"\n" +
	"Upload .csv, .xlsx or .xls files to this chat before /duplicates."

func (h *Handler) handleHelp(message *tgbotapi.Message) {
	h.reply(message, helpText)
}

func (h *Handler) handleProjects(ctx context.Context, message *tgbotapi.Message) {
	tbl, err := h.svc.TopProjects(ctx)
	if h.rejected(message, err) {
		return
	}
	h.sendTable(message, tbl, err, "top_projects", "Top projects", "No top projects data to save!")
}

func (h *Handler) handlePairs(ctx context.Context, message *tgbotapi.Message, contract string) {
	if contract == "" {
		h.reply(message, "Usage: /pairs {contract}\n\nExample: /pairs So11111111111111111111111111111111111111112")
		return
	}
	tbl, err := h.svc.PairAddresses(ctx, contract)
	if h.rejected(message, err) {
		return
	}
	h.sendTable(message, tbl, err, fs.SafeFileName(contract), "Pair addresses", "Not found pair address!")
}

func (h *Handler) handleTraders(ctx context.Context, message *tgbotapi.Message, pairs []string) {
	if len(pairs) == 0 {
		h.reply(message, "Usage: /traders {pair} [pair...]")
		return
	}
	tbl, err := h.svc.TopTraders(ctx, pairs)
	if h.rejected(message, err) {
		return
	}
	h.sendTable(message, tbl, err, "top_trader_list", "Top traders", "No wallet addresses found!")
}

func (h *Handler) handleWallets(ctx context.Context, message *tgbotapi.Message, wallets []string) {
	if len(wallets) == 0 {
		h.reply(message, "Usage: /wallets {wallet} [wallet...]")
		return
	}
	tbl, err := h.svc.WalletInfo(ctx, wallets)
	if h.rejected(message, err) {
		return
	}
	h.sendTable(message, tbl, err, "wallet_info", "Wallet info", "No wallets matching your filter were found!")
}

func (h *Handler) handleStatus(message *tgbotapi.Message) {
	var b strings.Builder
	b.WriteString("Status:\n")

	snapshot := h.svc.Guard().Snapshot()
	if len(snapshot) == 0 {
		b.WriteString("• nothing has run yet\n")
	}
	for _, st := range snapshot {
		line := fmt.Sprintf("• %s: <b>%s</b>", html.EscapeString(st.Op), st.State)
		if st.State == jobs.Failed && st.Err != nil {
			line += fmt.Sprintf(" (<i>%s</i>)", html.EscapeString(shortError(st.Err)))
		}
		b.WriteString(line + "\n")
	}

	files, err := h.uploadedFiles(message.Chat.ID)
	if err != nil {
		log.LogWarn("Failed to list uploads", zap.Error(err))
	}
	fmt.Fprintf(&b, "\nUploaded files: <code>%d</code>", len(files))

	snapshots, err := h.svc.Store().ListJSON(fs.TopTraderDir)
	if err != nil {
		log.LogWarn("Failed to list trader snapshots", zap.Error(err))
	}
	fmt.Fprintf(&b, "\nSaved trader lists: <code>%d</code>", len(snapshots))

	h.reply(message, b.String())
}

// rejected answers the user when err means the operation is already in flight.
func (h *Handler) rejected(message *tgbotapi.Message, err error) bool {
	if !errors.Is(err, jobs.ErrInFlight) {
		return false
	}
	op := strings.TrimSuffix(err.Error(), ": "+jobs.ErrInFlight.Error())
	h.reply(message, fmt.Sprintf("%s is running! Please wait a moment!", html.EscapeString(op)))
	return true
}

// sendTable writes tbl as CSV and sends it. An empty table is answered with emptyText.
func (h *Handler) sendTable(message *tgbotapi.Message, tbl *tables.Table, opErr error, name, title, emptyText string) {
	if errors.Is(opErr, tracker.ErrNoInput) {
		h.reply(message, html.EscapeString(opErr.Error()))
		return
	}
	if tbl.Len() == 0 {
		text := emptyText
		if errors.Is(opErr, transport.ErrRemoteUnavailable) {
			text += "\n<i>The remote API did not answer, see logs.</i>"
		} else if opErr != nil {
			text += "\n<i>" + html.EscapeString(shortError(opErr)) + "</i>"
		}
		h.reply(message, text)
		return
	}

	path := h.reportPath(message.Chat.ID, name+".csv")
	if err := tbl.WriteFile(path); err != nil {
		log.LogError("Failed to write report", zap.String("path", path), zap.Error(err))
		h.reply(message, "An error occurred while saving the file, please try again later")
		return
	}
	h.sendDocument(message, path, fmt.Sprintf("%s: <code>%d</code> rows", title, tbl.Len()))
}

func (h *Handler) reportPath(chatID int64, name string) string {
	stamp := h.now().Format("20060102_150405")
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return h.svc.Store().Path(filepath.Join("reports", strconv.FormatInt(chatID, 10), base+"_"+stamp+ext))
}

func (h *Handler) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = message.MessageID
	if _, err := h.api.Send(msg); err != nil {
		log.LogError("Failed to send message", zap.Error(err))
	}
}

func (h *Handler) sendDocument(message *tgbotapi.Message, path, caption string) {
	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FilePath(path))
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML
	doc.ReplyToMessageID = message.MessageID
	if _, err := h.api.Send(doc); err != nil {
		log.LogError("Failed to send document", zap.String("path", path), zap.Error(err))
		h.reply(message, "Failed to send the file, it is saved on the server:\n<code>"+html.EscapeString(path)+"</code>")
	}
}

func userName(message *tgbotapi.Message) string {
	if message.From == nil {
		return ""
	}
	return message.From.UserName
}

func shortError(err error) string {
	s := err.Error()
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
