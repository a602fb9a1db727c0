package commands

import (
	"errors"
	"io"

	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/features/tables"
	"wallet-tracker/internal/infra/log"
	"wallet-tracker/internal/jobs"

	"go.uber.org/zap"
)

// showTable prints tbl and, when out is set, saves it. Nothing to show and remote
// failures are warnings; only a failed write is returned as an error.
func showTable(w io.Writer, tbl *tables.Table, opErr error, out, emptyText string) error {
	if errors.Is(opErr, jobs.ErrInFlight) {
		return opErr
	}
	if opErr != nil && !errors.Is(opErr, transport.ErrRemoteUnavailable) {
		return opErr
	}
	if tbl == nil || tbl.Len() == 0 {
		if opErr != nil {
			log.LogWarn("Remote API did not answer", zap.Error(opErr))
		}
		log.LogWarn(emptyText)
		return nil
	}

	if err := tbl.Render(w); err != nil {
		return err
	}
	return save(tbl, out)
}

func save(tbl *tables.Table, out string) error {
	if out == "" {
		return nil
	}
	if err := tbl.WriteFile(out); err != nil {
		if errors.Is(err, tables.ErrEmptyReport) {
			log.LogWarn("Nothing to export")
			return nil
		}
		return err
	}
	log.LogSuccess("Saved", zap.String("file", out), zap.Int("rows", tbl.Len()))
	return nil
}
