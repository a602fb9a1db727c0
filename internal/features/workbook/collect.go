package workbook

import (
	"context"
	"fmt"
	"sync"

	"wallet-tracker/internal/infra/fs"
	logging "wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Project is one row of the "Top Projects" sheet.
type Project struct {
	TokenName       string `json:"token_name"`
	ContractAddress string `json:"contract_address"`
	PairAddress     string `json:"pair_address"`
}

// TraderFetcher returns the trader wallets of one contract, best first.
type TraderFetcher func(ctx context.Context, contractAddress string) ([]string, error)

// Collection is the per-token trader lists, indexed like the projects they came from.
type Collection struct {
	Projects []Project
	Traders  [][]string
	Failed   int
}

// Collect fetches the traders of every project with at most workers requests in
// flight. A failed project gets an empty list. Each list is saved as
// top_trader/{token}.json in store when store is not nil; see snapshotNames.
func Collect(ctx context.Context, store *fs.Store, projects []Project, fetch TraderFetcher, workers int) (*Collection, error) {
	if workers <= 0 {
		workers = 1
	}

	col := &Collection{
		Projects: projects,
		Traders:  make([][]string, len(projects)),
	}

	names := snapshotNames(projects)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range projects {
		i, p := i, p
		g.Go(func() error {
			owners, err := fetch(gctx, p.ContractAddress)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.LogWarn("Top traders unavailable",
					zap.String("token", p.TokenName),
					zap.String("contract", p.ContractAddress),
					zap.Error(err))
				mu.Lock()
				col.Failed++
				mu.Unlock()
			}
			if owners == nil {
				owners = []string{}
			}
			col.Traders[i] = owners

			if store != nil {
				if err := store.SaveJSON(names[i], owners); err != nil {
					logging.LogWarn("Failed to save trader snapshot", zap.String("token", p.TokenName), zap.Error(err))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return col, err
	}

	logging.LogSuccess("Collected top traders",
		zap.Int("projects", len(projects)),
		zap.Int("failed", col.Failed))
	return col, nil
}

// LoadSnapshots rebuilds a collection from the snapshots saved by Collect.
// Projects without a snapshot get an empty list.
func LoadSnapshots(store *fs.Store, projects []Project) *Collection {
	col := &Collection{Projects: projects, Traders: make([][]string, len(projects))}
	names := snapshotNames(projects)
	for i, p := range projects {
		var owners []string
		if err := store.LoadJSON(names[i], &owners); err != nil {
			logging.LogDebug("No trader snapshot", zap.String("token", p.TokenName), zap.Error(err))
			owners = []string{}
			col.Failed++
		}
		col.Traders[i] = owners
	}
	return col
}

// snapshotNames gives every project its own snapshot. Token names are not unique,
// so a repeated name gets " (2)", " (3)" and so on, in project order.
func snapshotNames(projects []Project) []string {
	names := make([]string, len(projects))
	used := make(map[string]bool, len(projects))
	for i, p := range projects {
		name := fs.TopTraderName(p.TokenName)
		for n := 2; used[name]; n++ {
			name = fs.TopTraderName(fmt.Sprintf("%s (%d)", p.TokenName, n))
		}
		used[name] = true
		names[i] = name
	}
	return names
}
