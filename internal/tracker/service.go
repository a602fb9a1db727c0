package tracker

// Service is the single entry point behind the CLI and the Telegram bot.
// Every remote or file-heavy operation runs under the job guard, so a second
// trigger of the same operation is rejected while the first is in flight.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet-tracker/internal/clients_api/birdeye"
	"wallet-tracker/internal/clients_api/bitquery"
	"wallet-tracker/internal/clients_api/defined"
	"wallet-tracker/internal/clients_api/dexscreener"
	"wallet-tracker/internal/clients_api/proxy"
	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/config"
	"wallet-tracker/internal/features/cleaner"
	"wallet-tracker/internal/features/duplicates"
	"wallet-tracker/internal/features/tables"
	"wallet-tracker/internal/features/traders"
	"wallet-tracker/internal/infra/fs"
	"wallet-tracker/internal/infra/retry"
	"wallet-tracker/internal/jobs"
)

// Operation names, also shown to users when a run is rejected.
const (
	OpTopProjects = "Top Project API"
	OpPairs       = "Pair Address API"
	OpTopTraders  = "Dexscreener API"
	OpWalletInfo  = "GMGN API"
	OpDuplicates  = "Duplicate extraction"
	OpDedupe      = "Duplicate removal"
	OpWorkbook    = "Top trader workbook"
)

var ErrNoInput = errors.New("no input given")

type ProxyAPI interface {
	GetTopProjects(ctx context.Context) ([]proxy.Project, error)
	GetTopTraders(ctx context.Context, pairAddresses []string) ([]string, error)
	GetWalletInfo(ctx context.Context, wallets []string) ([]proxy.WalletInfo, error)
}

type PairsAPI interface {
	GetPairAddresses(ctx context.Context, contractAddress string) ([]string, error)
}

type BirdeyeAPI interface {
	GetTopTraders(ctx context.Context, contractAddress string) ([]birdeye.Trader, error)
}

type BitqueryAPI interface {
	GetTopTraders(ctx context.Context, mint string) ([]bitquery.Trader, error)
}

type TokenDiscoverer interface {
	DiscoverTokens(ctx context.Context, limit int) ([]defined.Token, error)
}

// Deps lets tests replace the remote clients. Nil fields are built from config.
type Deps struct {
	Proxy    ProxyAPI
	Pairs    PairsAPI
	Birdeye  BirdeyeAPI
	Bitquery BitqueryAPI
	Defined  TokenDiscoverer
}

type Service struct {
	cfg   *config.Config
	deps  Deps
	store *fs.Store
	guard *jobs.Guard
}

func New(cfg *config.Config, deps Deps) *Service {
	opts := TransportOptions(cfg)
	if deps.Proxy == nil {
		deps.Proxy = proxy.New(cfg.API.DexscreenerURL, cfg.API.GmgnURL, opts)
	}
	if deps.Pairs == nil {
		deps.Pairs = dexscreener.New("", opts)
	}
	if deps.Birdeye == nil {
		deps.Birdeye = birdeye.New(cfg.API.BirdeyeAPIKey, "", opts)
	}
	if deps.Bitquery == nil {
		deps.Bitquery = bitquery.New(cfg.API.BitqueryAPIKey, "", opts)
	}
	if deps.Defined == nil {
		deps.Defined = defined.New(defined.Options{Timeout: cfg.API.Timeout()})
	}
	return &Service{
		cfg:   cfg,
		deps:  deps,
		store: fs.NewStore(cfg.App.DataDir),
		guard: jobs.NewGuard(),
	}
}

// TransportOptions derives the shared HTTP settings from config.
func TransportOptions(cfg *config.Config) transport.Options {
	r := retry.Default
	r.MaxRetries = cfg.API.MaxRetries
	return transport.Options{
		Timeout:   cfg.API.Timeout(),
		RateLimit: float64(cfg.API.RateLimit),
		Retry:     r,
	}
}

func (s *Service) Config() *config.Config { return s.cfg }
func (s *Service) Store() *fs.Store       { return s.store }
func (s *Service) Guard() *jobs.Guard     { return s.guard }

// guarded runs fn as op. The error returned by fn is what the guard records.
func (s *Service) guarded(op string, fn func() error) error {
	run, err := s.guard.Begin(op)
	if err != nil {
		return err
	}
	err = fn()
	run.Finish(err)
	return err
}

// TopProjects returns the proxy's current top projects as a table.
// A remote failure yields an empty table together with the error.
func (s *Service) TopProjects(ctx context.Context) (*tables.Table, error) {
	var projects []proxy.Project
	err := s.guarded(OpTopProjects, func() error {
		var err error
		projects, err = s.deps.Proxy.GetTopProjects(ctx)
		return err
	})
	if errors.Is(err, jobs.ErrInFlight) {
		return nil, err
	}
	return traders.ProjectsTable(projects), err
}

func (s *Service) PairAddresses(ctx context.Context, contractAddress string) (*tables.Table, error) {
	if contractAddress == "" {
		return nil, fmt.Errorf("contract address: %w", ErrNoInput)
	}
	var pairs []string
	err := s.guarded(OpPairs, func() error {
		var err error
		pairs, err = s.deps.Pairs.GetPairAddresses(ctx, contractAddress)
		return err
	})
	if errors.Is(err, jobs.ErrInFlight) {
		return nil, err
	}
	return traders.PairsTable(pairs), err
}

func (s *Service) TopTraders(ctx context.Context, pairAddresses []string) (*tables.Table, error) {
	pairAddresses = NonEmpty(pairAddresses)
	if len(pairAddresses) == 0 {
		return nil, fmt.Errorf("pair addresses: %w", ErrNoInput)
	}
	var wallets []string
	err := s.guarded(OpTopTraders, func() error {
		var err error
		wallets, err = s.deps.Proxy.GetTopTraders(ctx, pairAddresses)
		return err
	})
	if errors.Is(err, jobs.ErrInFlight) {
		return nil, err
	}
	return traders.TradersTable(wallets), err
}

func (s *Service) WalletInfo(ctx context.Context, wallets []string) (*tables.Table, error) {
	wallets = NonEmpty(wallets)
	if len(wallets) == 0 {
		return nil, fmt.Errorf("wallet addresses: %w", ErrNoInput)
	}
	var infos []proxy.WalletInfo
	err := s.guarded(OpWalletInfo, func() error {
		var err error
		infos, err = s.deps.Proxy.GetWalletInfo(ctx, wallets)
		return err
	})
	if errors.Is(err, jobs.ErrInFlight) {
		return nil, err
	}
	return traders.WalletInfoTable(infos), err
}

// Duplicates runs the duplicate extraction over paths using the configured
// identifier column unless column is given.
func (s *Service) Duplicates(paths []string, column string) (duplicates.Report, duplicates.ReadResult, error) {
	if len(paths) == 0 {
		return nil, duplicates.ReadResult{}, fmt.Errorf("files: %w", ErrNoInput)
	}
	if column == "" {
		column = s.cfg.App.IdentifierColumn
	}
	var (
		report duplicates.Report
		res    duplicates.ReadResult
	)
	err := s.guarded(OpDuplicates, func() error {
		report, res = duplicates.Extract(paths, column)
		return nil
	})
	return report, res, err
}

func (s *Service) Dedupe(path, column string) (*cleaner.Result, error) {
	if path == "" {
		return nil, fmt.Errorf("file: %w", ErrNoInput)
	}
	if column == "" {
		column = s.cfg.App.IdentifierColumn
	}
	var res *cleaner.Result
	err := s.guarded(OpDedupe, func() error {
		var err error
		res, err = cleaner.RemoveDuplicates(path, column)
		return err
	})
	return res, err
}

// NonEmpty drops blank entries, the way pasted address lists are read.
func NonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
