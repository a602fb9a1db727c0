package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"wallet-tracker/internal/features/tables"
	"wallet-tracker/internal/infra/fs"
	log "wallet-tracker/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram bots may download files up to 20 MB.
const maxUploadSize = 20 * 1024 * 1024

var errUploadTooLarge = errors.New("file is larger than the upload limit")

func (h *Handler) uploadDir(chatID int64) string {
	return filepath.Join(fs.UploadsDir, strconv.FormatInt(chatID, 10))
}

// handleUpload stores a spreadsheet sent to the chat. Files are prefixed with the
// message ID so listing them by name returns them in upload order.
func (h *Handler) handleUpload(ctx context.Context, message *tgbotapi.Message) {
	doc := message.Document
	name := fs.SafeFileName(doc.FileName)
	if tables.DetectFormat(name) == tables.FormatUnknown {
		h.reply(message, "Unsupported file type! Please upload an Excel or CSV file.")
		return
	}
	if int64(doc.FileSize) > h.maxUpload {
		h.reply(message, "File is too large, the limit is 20 MB.")
		return
	}

	url, err := h.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		log.LogError("Failed to resolve file URL", zap.String("file", doc.FileName), zap.Error(err))
		h.reply(message, "Failed to download the file, please try again later")
		return
	}

	dir := h.svc.Store().Path(h.uploadDir(message.Chat.ID))
	path := filepath.Join(dir, fmt.Sprintf("%010d_%s", message.MessageID, name))
	err = h.download(ctx, url, path)
	if errors.Is(err, errUploadTooLarge) {
		log.LogWarn("Upload exceeds the size limit", zap.String("file", doc.FileName))
		h.reply(message, "File is too large, the limit is 20 MB.")
		return
	}
	if err != nil {
		log.LogError("Failed to download upload", zap.String("file", doc.FileName), zap.Error(err))
		h.reply(message, "Failed to download the file, please try again later")
		return
	}

	files, _ := h.uploadedFiles(message.Chat.ID)
	log.LogInfo("Stored upload",
		zap.String("file", path),
		zap.Int("total", len(files)),
		zap.String("username", userName(message)))
	h.reply(message, fmt.Sprintf("Saved <code>%s</code>. Files ready: <code>%d</code>", html.EscapeString(doc.FileName), len(files)))
}

func (h *Handler) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, h.maxUpload+1))
	if err == nil && n > h.maxUpload {
		err = errUploadTooLarge
	}
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// uploadedFiles lists the stored uploads of a chat in upload order.
func (h *Handler) uploadedFiles(chatID int64) ([]string, error) {
	dir := h.svc.Store().Path(h.uploadDir(chatID))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || tables.DetectFormat(e.Name()) == tables.FormatUnknown {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// displayName strips the ordering prefix added by handleUpload.
func displayName(path string) string {
	base := filepath.Base(path)
	if _, rest, ok := strings.Cut(base, "_"); ok {
		return rest
	}
	return base
}

func (h *Handler) handleClear(message *tgbotapi.Message) {
	files, _ := h.uploadedFiles(message.Chat.ID)
	if err := h.svc.Store().RemoveDir(h.uploadDir(message.Chat.ID)); err != nil {
		log.LogError("Failed to clear uploads", zap.Error(err))
		h.reply(message, "An error occurred, please try again later")
		return
	}
	h.reply(message, fmt.Sprintf("Removed <code>%d</code> uploaded files.", len(files)))
}
