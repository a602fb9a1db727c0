package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "data_out", cfg.App.DataDir)
	assert.Equal(t, "Wallet Address", cfg.App.IdentifierColumn)
	assert.Equal(t, 30, cfg.App.TopProjects)
	assert.Equal(t, 3, cfg.API.MaxRetries)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout())
}

func TestLoadLegacyEnvNames(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DEXSCREENER_REQUEST_URL", "http://proxy.local:8000")
	t.Setenv("GMGN_REQUEST_URL", "http://gmgn.local:8001")
	t.Setenv("BIRDEYE_API_KEY", "bird")
	t.Setenv("WALLET_TRACKER_COLUMN", "Trader")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://proxy.local:8000", cfg.API.DexscreenerURL)
	assert.Equal(t, "http://gmgn.local:8001", cfg.API.GmgnURL)
	assert.Equal(t, "bird", cfg.API.BirdeyeAPIKey)
	assert.Equal(t, "Trader", cfg.App.IdentifierColumn)
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  request_timeout: 15
app:
  data_dir: from_file
  workers: 2
`), 0644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("data-dir", "", "")
	flags.String("column", "", "")
	require.NoError(t, flags.Parse([]string{"--data-dir", "from_flag"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.App.DataDir, "flags win over the file")
	assert.Equal(t, "Wallet Address", cfg.App.IdentifierColumn, "unset flags do not shadow defaults")
	assert.Equal(t, 2, cfg.App.Workers)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout())
}

func TestLoadRejectsEmptyColumn(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("column", "", "")
	require.NoError(t, flags.Parse([]string{"--column", ""}))

	_, err := Load("", flags)
	assert.Error(t, err)
}

func TestRequireTelegram(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireTelegram())

	cfg.Telegram.BotToken = "token"
	assert.Error(t, cfg.RequireTelegram())

	cfg.Telegram.ChatID = "-100"
	assert.NoError(t, cfg.RequireTelegram())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
