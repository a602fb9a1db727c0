package commands

// Top trader workbooks: a token list (proxy backend or defined.fi) joined with
// the top traders of each token from BirdEye or Bitquery.

import (
	"context"
	"errors"

	"wallet-tracker/internal/clients_api/defined"
	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/features/tables"
	"wallet-tracker/internal/features/workbook"
	"wallet-tracker/internal/infra/log"
	"wallet-tracker/internal/tracker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	workbookSource      string
	workbookOut         string
	workbookShowBrowser bool
	workbookSnapshots   bool
)

var birdeyeCmd = &cobra.Command{
	Use:   "birdeye",
	Short: "Build a workbook of top projects and their top 100 traders by volume (BirdEye)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkbook(tracker.TradersBirdeye)
	},
}

var bitqueryCmd = &cobra.Command{
	Use:   "bitquery",
	Short: "Build a workbook of top projects and their top 100 traders by PnL (Bitquery)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkbook(tracker.TradersBitquery)
	},
}

func init() {
	for _, c := range []*cobra.Command{birdeyeCmd, bitqueryCmd} {
		c.Flags().StringVar(&workbookSource, "source", string(tracker.SourceDefined), "token list source: proxy or defined")
		c.Flags().StringVar(&workbookOut, "workbook", workbook.DefaultFileName, "output workbook")
		c.Flags().BoolVar(&workbookShowBrowser, "show-browser", false, "run Chrome with a window when scraping defined.fi")
		c.Flags().BoolVar(&workbookSnapshots, "from-snapshots", false, "rebuild the workbook from the last saved trader lists")
	}
}

func runWorkbook(traders tracker.TraderSource) error {
	src, err := tracker.ParseProjectSource(workbookSource)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := newService(tracker.Deps{
		Defined: defined.New(defined.Options{ShowBrowser: workbookShowBrowser, Timeout: cfg.API.Timeout()}),
	})

	return buildWorkbook(ctx, svc, tracker.WorkbookRequest{
		Projects:      src,
		Traders:       traders,
		Output:        workbookOut,
		FromSnapshots: workbookSnapshots,
	})
}

// buildWorkbook runs one workbook request. No projects and unreachable APIs are
// warnings; write failures and a run already in progress are errors.
func buildWorkbook(ctx context.Context, svc *tracker.Service, req tracker.WorkbookRequest) error {
	col, err := svc.TopTraderWorkbook(ctx, req)
	switch {
	case errors.Is(err, tables.ErrEmptyReport):
		log.LogWarn("No projects found, workbook not written")
		return nil
	case errors.Is(err, transport.ErrRemoteUnavailable):
		log.LogWarn("Remote API did not answer, workbook not written", zap.Error(err))
		return nil
	case err != nil:
		return err
	}
	if col.Failed > 0 {
		log.LogWarn("Some tokens have no traders", zap.Int("count", col.Failed))
	}
	log.LogSuccess("Workbook ready",
		zap.String("file", req.Output),
		zap.Int("projects", len(col.Projects)))
	return nil
}
