package tracker

import (
	"context"
	"errors"
	"fmt"

	"wallet-tracker/internal/clients_api/birdeye"
	"wallet-tracker/internal/clients_api/defined"
	"wallet-tracker/internal/features/workbook"
	"wallet-tracker/internal/infra/fs"
	logging "wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
)

// ProjectSource selects where the token list of a workbook comes from.
type ProjectSource string

const (
	SourceProxy   ProjectSource = "proxy"
	SourceDefined ProjectSource = "defined"
)

// TraderSource selects which API ranks the traders of each token.
type TraderSource string

const (
	TradersBirdeye  TraderSource = "birdeye"
	TradersBitquery TraderSource = "bitquery"
)

func ParseProjectSource(s string) (ProjectSource, error) {
	switch ProjectSource(s) {
	case SourceProxy, SourceDefined:
		return ProjectSource(s), nil
	}
	return "", fmt.Errorf("unknown project source %q (want proxy or defined)", s)
}

// WorkbookRequest describes one top-trader workbook run.
// FromSnapshots rebuilds the workbook from the contract list and trader lists
// saved by the last run, without calling any API.
type WorkbookRequest struct {
	Projects      ProjectSource
	Traders       TraderSource
	Output        string
	FromSnapshots bool
}

// TopTraderWorkbook lists the top projects, fetches the traders of each one and
// saves everything as a workbook. Trader lists are also kept as JSON snapshots
// under the data directory. No projects gives tables.ErrEmptyReport.
func (s *Service) TopTraderWorkbook(ctx context.Context, req WorkbookRequest) (*workbook.Collection, error) {
	if req.Output == "" {
		req.Output = workbook.DefaultFileName
	}
	if req.FromSnapshots {
		return s.workbookFromSnapshots(req.Output)
	}
	fetch, err := s.traderFetcher(req.Traders)
	if err != nil {
		return nil, err
	}

	var col *workbook.Collection
	err = s.guarded(OpWorkbook, func() error {
		projects, err := s.workbookProjects(ctx, req.Projects)
		if err != nil {
			return err
		}
		if err := s.store.SaveJSON(fs.ContractListFile, projects); err != nil {
			logging.LogWarn("Failed to save contract list", zap.Error(err))
		}

		col, err = workbook.Collect(ctx, s.store, projects, fetch, s.cfg.App.Workers)
		if err != nil {
			return err
		}
		return workbook.Write(req.Output, col)
	})
	return col, err
}

func (s *Service) workbookFromSnapshots(output string) (*workbook.Collection, error) {
	var col *workbook.Collection
	err := s.guarded(OpWorkbook, func() error {
		var projects []workbook.Project
		if err := s.store.LoadJSON(fs.ContractListFile, &projects); err != nil {
			return fmt.Errorf("saved contract list: %w", err)
		}
		col = workbook.LoadSnapshots(s.store, projects)
		if col.Failed > 0 {
			logging.LogWarn("Some tokens have no saved traders", zap.Int("count", col.Failed))
		}
		return workbook.Write(output, col)
	})
	return col, err
}

func (s *Service) traderFetcher(src TraderSource) (workbook.TraderFetcher, error) {
	switch src {
	case TradersBirdeye, "":
		return func(ctx context.Context, ca string) ([]string, error) {
			list, err := s.deps.Birdeye.GetTopTraders(ctx, ca)
			return birdeye.Owners(list), err
		}, nil
	case TradersBitquery:
		return func(ctx context.Context, ca string) ([]string, error) {
			list, err := s.deps.Bitquery.GetTopTraders(ctx, ca)
			owners := make([]string, 0, len(list))
			for _, t := range list {
				if t.Owner() != "" {
					owners = append(owners, t.Owner())
				}
			}
			return owners, err
		}, nil
	}
	return nil, fmt.Errorf("unknown trader source %q (want birdeye or bitquery)", src)
}

// workbookProjects returns up to App.TopProjects tokens. The proxy source has no
// pair address, so the first DexScreener pair of each contract is used.
func (s *Service) workbookProjects(ctx context.Context, src ProjectSource) ([]workbook.Project, error) {
	limit := s.cfg.App.TopProjects

	switch src {
	case SourceDefined:
		tokens, err := s.deps.Defined.DiscoverTokens(ctx, limit)
		if errors.Is(err, defined.ErrNoTokens) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("discover tokens: %w", err)
		}
		out := make([]workbook.Project, 0, len(tokens))
		for _, t := range tokens {
			out = append(out, workbook.Project{
				TokenName:       t.TokenName,
				ContractAddress: t.ContractAddress,
				PairAddress:     t.PairAddress,
			})
		}
		return out, nil

	case SourceProxy, "":
		projects, err := s.deps.Proxy.GetTopProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("top projects: %w", err)
		}
		if len(projects) > limit {
			projects = projects[:limit]
		}
		out := make([]workbook.Project, 0, len(projects))
		for _, p := range projects {
			wp := workbook.Project{TokenName: p.TokenName, ContractAddress: p.ContractAddress}
			if pairs, err := s.deps.Pairs.GetPairAddresses(ctx, p.ContractAddress); err == nil && len(pairs) > 0 {
				wp.PairAddress = pairs[0]
			}
			out = append(out, wp)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown project source %q", src)
}
