package tracker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"wallet-tracker/internal/clients_api/birdeye"
	"wallet-tracker/internal/clients_api/bitquery"
	"wallet-tracker/internal/clients_api/defined"
	"wallet-tracker/internal/clients_api/proxy"
	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/config"
	"wallet-tracker/internal/features/tables"
	"wallet-tracker/internal/features/workbook"
	"wallet-tracker/internal/infra/fs"
	"wallet-tracker/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeProxy struct {
	projects []proxy.Project
	wallets  []string
	infos    []proxy.WalletInfo
	err      error

	block   chan struct{}
	entered chan struct{}
}

func (f *fakeProxy) GetTopProjects(ctx context.Context) ([]proxy.Project, error) {
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
	if f.err != nil {
		return []proxy.Project{}, f.err
	}
	return f.projects, nil
}

func (f *fakeProxy) GetTopTraders(ctx context.Context, pairs []string) ([]string, error) {
	return f.wallets, f.err
}

func (f *fakeProxy) GetWalletInfo(ctx context.Context, wallets []string) ([]proxy.WalletInfo, error) {
	return f.infos, f.err
}

type fakePairs map[string][]string

func (f fakePairs) GetPairAddresses(ctx context.Context, ca string) ([]string, error) {
	return f[ca], nil
}

type fakeBirdeye struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeBirdeye) GetTopTraders(ctx context.Context, ca string) ([]birdeye.Trader, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ca)
	f.mu.Unlock()
	return []birdeye.Trader{{Owner: ca + "-a"}, {Owner: ""}, {Owner: ca + "-b"}}, nil
}

type fakeBitquery struct{}

func (fakeBitquery) GetTopTraders(ctx context.Context, mint string) ([]bitquery.Trader, error) {
	var t bitquery.Trader
	t.Trade.Account.Owner = mint + "-q"
	return []bitquery.Trader{t}, nil
}

type fakeDefined []defined.Token

func (f fakeDefined) DiscoverTokens(ctx context.Context, limit int) ([]defined.Token, error) {
	if len(f) == 0 {
		return nil, defined.ErrNoTokens
	}
	return f, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{
			DataDir:          t.TempDir(),
			IdentifierColumn: "Wallet Address",
			TopProjects:      2,
			Workers:          2,
		},
	}
}

func TestTopProjectsRemoteFailureIsEmpty(t *testing.T) {
	remote := &transport.RemoteError{API: "dexscreener-proxy", Err: assert.AnError}
	svc := New(testConfig(t), Deps{Proxy: &fakeProxy{err: remote}})

	tbl, err := svc.TopProjects(context.Background())

	assert.ErrorIs(t, err, transport.ErrRemoteUnavailable)
	require.NotNil(t, tbl)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, jobs.Failed, svc.Guard().State(OpTopProjects))
}

func TestTopProjectsRejectsSecondTrigger(t *testing.T) {
	fp := &fakeProxy{
		projects: []proxy.Project{{TokenName: "A"}},
		block:    make(chan struct{}),
		entered:  make(chan struct{}),
	}
	svc := New(testConfig(t), Deps{Proxy: fp})

	done := make(chan error, 1)
	go func() {
		_, err := svc.TopProjects(context.Background())
		done <- err
	}()
	<-fp.entered

	_, err := svc.TopProjects(context.Background())
	assert.ErrorIs(t, err, jobs.ErrInFlight)
	assert.Equal(t, jobs.InFlight, svc.Guard().State(OpTopProjects))

	close(fp.block)
	require.NoError(t, <-done)
	assert.Equal(t, jobs.Idle, svc.Guard().State(OpTopProjects))
}

func TestTopTradersAndWalletInfo(t *testing.T) {
	fp := &fakeProxy{
		wallets: []string{"w1", "w2"},
		infos:   []proxy.WalletInfo{{WalletAddress: "w1", Distribution: []proxy.Value{"1"}}},
	}
	svc := New(testConfig(t), Deps{Proxy: fp})

	_, err := svc.TopTraders(context.Background(), []string{"", "  "})
	assert.ErrorIs(t, err, ErrNoInput)

	tbl, err := svc.TopTraders(context.Background(), []string{"P1", ""})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"w1", "1"}, {"w2", "2"}}, tbl.Rows)

	info, err := svc.WalletInfo(context.Background(), []string{"w1"})
	require.NoError(t, err)
	assert.Equal(t, "w1", info.Rows[0][0])
}

func TestDuplicatesUsesConfiguredColumn(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("Wallet Address\nw1\nw2\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("Wallet Address\nw2\n"), 0644))

	svc := New(testConfig(t), Deps{Proxy: &fakeProxy{}})
	report, res, err := svc.Duplicates([]string{a, b}, "")

	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, map[string]int{"w2": 2}, report.Counts())
}

func TestTopTraderWorkbookFromProxy(t *testing.T) {
	cfg := testConfig(t)
	fp := &fakeProxy{projects: []proxy.Project{
		{TokenName: "Alpha", ContractAddress: "CA1"},
		{TokenName: "Beta", ContractAddress: "CA2"},
		{TokenName: "Gamma", ContractAddress: "CA3"},
	}}
	be := &fakeBirdeye{}
	svc := New(cfg, Deps{Proxy: fp, Pairs: fakePairs{"CA1": {"P1", "P1b"}}, Birdeye: be})

	out := filepath.Join(t.TempDir(), "output.xlsx")
	col, err := svc.TopTraderWorkbook(context.Background(), WorkbookRequest{Projects: SourceProxy, Traders: TradersBirdeye, Output: out})
	require.NoError(t, err)

	require.Len(t, col.Projects, 2)
	assert.Equal(t, "P1", col.Projects[0].PairAddress)
	assert.Equal(t, "", col.Projects[1].PairAddress)
	assert.Equal(t, []string{"CA1-a", "CA1-b"}, col.Traders[0])
	assert.ElementsMatch(t, []string{"CA1", "CA2"}, be.calls)

	var saved []workbook.Project
	require.NoError(t, svc.Store().LoadJSON(fs.ContractListFile, &saved))
	assert.Len(t, saved, 2)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Top Projects", "Alpha", "Beta"}, f.GetSheetList())
}

func TestTopTraderWorkbookFromDefinedWithBitquery(t *testing.T) {
	svc := New(testConfig(t), Deps{
		Proxy:    &fakeProxy{},
		Bitquery: fakeBitquery{},
		Defined:  fakeDefined{{TokenName: "Alpha", ContractAddress: "CA1", PairAddress: "P1"}},
	})

	out := filepath.Join(t.TempDir(), "output.xlsx")
	col, err := svc.TopTraderWorkbook(context.Background(), WorkbookRequest{Projects: SourceDefined, Traders: TradersBitquery, Output: out})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"CA1-q"}}, col.Traders)
}

func TestTopTraderWorkbookUnknownSource(t *testing.T) {
	svc := New(testConfig(t), Deps{Proxy: &fakeProxy{}})
	_, err := svc.TopTraderWorkbook(context.Background(), WorkbookRequest{Traders: "nope"})
	assert.Error(t, err)

	_, err = ParseProjectSource("gmgn")
	assert.Error(t, err)
}

func TestTopTraderWorkbookNoProjects(t *testing.T) {
	svc := New(testConfig(t), Deps{Proxy: &fakeProxy{}, Birdeye: &fakeBirdeye{}, Defined: fakeDefined{}})

	for _, src := range []ProjectSource{SourceProxy, SourceDefined} {
		out := filepath.Join(t.TempDir(), "output.xlsx")
		_, err := svc.TopTraderWorkbook(context.Background(), WorkbookRequest{Projects: src, Traders: TradersBirdeye, Output: out})

		assert.ErrorIs(t, err, tables.ErrEmptyReport, src)
		assert.NoFileExists(t, out)
	}
}

func TestTopTraderWorkbookRemoteFailure(t *testing.T) {
	remote := &transport.RemoteError{API: "dexscreener-proxy", Err: assert.AnError}
	svc := New(testConfig(t), Deps{Proxy: &fakeProxy{err: remote}, Birdeye: &fakeBirdeye{}})

	_, err := svc.TopTraderWorkbook(context.Background(), WorkbookRequest{Projects: SourceProxy, Output: filepath.Join(t.TempDir(), "o.xlsx")})

	assert.ErrorIs(t, err, transport.ErrRemoteUnavailable)
	assert.Equal(t, jobs.Failed, svc.Guard().State(OpWorkbook))
}

func TestTopTraderWorkbookFromSnapshots(t *testing.T) {
	cfg := testConfig(t)
	be := &fakeBirdeye{}
	svc := New(cfg, Deps{
		Proxy:   &fakeProxy{},
		Birdeye: be,
		Defined: fakeDefined{{TokenName: "Alpha", ContractAddress: "CA1"}, {TokenName: "Alpha", ContractAddress: "CA2"}},
	})

	_, err := svc.TopTraderWorkbook(context.Background(), WorkbookRequest{FromSnapshots: true, Output: filepath.Join(t.TempDir(), "o.xlsx")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	first, err := svc.TopTraderWorkbook(context.Background(), WorkbookRequest{Projects: SourceDefined, Output: filepath.Join(t.TempDir(), "a.xlsx")})
	require.NoError(t, err)
	require.Len(t, be.calls, 2)

	out := filepath.Join(t.TempDir(), "b.xlsx")
	again, err := svc.TopTraderWorkbook(context.Background(), WorkbookRequest{FromSnapshots: true, Output: out})
	require.NoError(t, err)
	assert.Len(t, be.calls, 2)
	assert.Equal(t, first.Projects, again.Projects)
	assert.Equal(t, first.Traders, again.Traders)
	assert.FileExists(t, out)
}
