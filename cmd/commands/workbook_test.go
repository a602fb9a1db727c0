package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"wallet-tracker/internal/clients_api/birdeye"
	"wallet-tracker/internal/clients_api/proxy"
	"wallet-tracker/internal/clients_api/transport"
	"wallet-tracker/internal/config"
	"wallet-tracker/internal/features/tables"
	"wallet-tracker/internal/jobs"
	"wallet-tracker/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProxy struct {
	projects []proxy.Project
	err      error
}

func (s stubProxy) GetTopProjects(ctx context.Context) ([]proxy.Project, error) {
	return s.projects, s.err
}

func (s stubProxy) GetTopTraders(ctx context.Context, pairs []string) ([]string, error) {
	return nil, s.err
}

func (s stubProxy) GetWalletInfo(ctx context.Context, wallets []string) ([]proxy.WalletInfo, error) {
	return nil, s.err
}

type stubPairs struct{}

func (stubPairs) GetPairAddresses(ctx context.Context, ca string) ([]string, error) {
	return []string{ca + "-pair"}, nil
}

type stubBirdeye struct{}

func (stubBirdeye) GetTopTraders(ctx context.Context, ca string) ([]birdeye.Trader, error) {
	return []birdeye.Trader{{Owner: ca + "-w"}}, nil
}

func workbookService(t *testing.T, p stubProxy) *tracker.Service {
	t.Helper()
	cfg := &config.Config{App: config.AppConfig{
		DataDir:          t.TempDir(),
		IdentifierColumn: "Wallet Address",
		TopProjects:      30,
		Workers:          2,
	}}
	return tracker.New(cfg, tracker.Deps{Proxy: p, Pairs: stubPairs{}, Birdeye: stubBirdeye{}})
}

func proxyRequest(out string) tracker.WorkbookRequest {
	return tracker.WorkbookRequest{Projects: tracker.SourceProxy, Traders: tracker.TradersBirdeye, Output: out}
}

func TestBuildWorkbookNoProjectsIsWarning(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output.xlsx")

	err := buildWorkbook(context.Background(), workbookService(t, stubProxy{}), proxyRequest(out))

	assert.NoError(t, err)
	assert.NoFileExists(t, out)
}

func TestBuildWorkbookRemoteFailureIsWarning(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output.xlsx")
	down := stubProxy{err: &transport.RemoteError{API: "dexscreener-proxy", Err: assert.AnError}}

	err := buildWorkbook(context.Background(), workbookService(t, down), proxyRequest(out))

	assert.NoError(t, err)
	assert.NoFileExists(t, out)
}

func TestBuildWorkbookWriteFailureIsError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	svc := workbookService(t, stubProxy{projects: []proxy.Project{{TokenName: "Alpha", ContractAddress: "CA1"}}})

	err := buildWorkbook(context.Background(), svc, proxyRequest(filepath.Join(blocker, "output.xlsx")))

	var we *tables.WriteError
	assert.ErrorAs(t, err, &we)
}

func TestBuildWorkbookInFlightIsError(t *testing.T) {
	svc := workbookService(t, stubProxy{projects: []proxy.Project{{TokenName: "Alpha", ContractAddress: "CA1"}}})
	run, err := svc.Guard().Begin(tracker.OpWorkbook)
	require.NoError(t, err)
	defer run.Finish(nil)

	err = buildWorkbook(context.Background(), svc, proxyRequest(filepath.Join(t.TempDir(), "output.xlsx")))

	assert.ErrorIs(t, err, jobs.ErrInFlight)
}

func TestBuildWorkbookWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output.xlsx")
	svc := workbookService(t, stubProxy{projects: []proxy.Project{{TokenName: "Alpha", ContractAddress: "CA1"}}})

	require.NoError(t, buildWorkbook(context.Background(), svc, proxyRequest(out)))
	assert.FileExists(t, out)
}
