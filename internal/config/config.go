package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	App      AppConfig      `mapstructure:"app"`
}

// APIConfig holds the remote backends. DexscreenerURL and GmgnURL point at the
// proxy backends that wrap the upstream sites and answer with {"message": [...]}.
type APIConfig struct {
	DexscreenerURL string `mapstructure:"dexscreener_url"`
	GmgnURL        string `mapstructure:"gmgn_url"`
	BirdeyeAPIKey  string `mapstructure:"birdeye_api_key"`
	BitqueryAPIKey string `mapstructure:"bitquery_api_key"`
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds, 0 = client default
	MaxRetries     int    `mapstructure:"max_retries"`
	RateLimit      int    `mapstructure:"rate_limit"` // requests per second per client
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type AppConfig struct {
	DataDir          string `mapstructure:"data_dir"`
	LogsDir          string `mapstructure:"logs_dir"`
	IdentifierColumn string `mapstructure:"identifier_column"`
	TopProjects      int    `mapstructure:"top_projects"`
	Workers          int    `mapstructure:"workers"`
}

// Timeout converts RequestTimeout to a duration.
func (c APIConfig) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// Load resolves configuration in order of precedence:
// flags > environment > .env > config.yaml > defaults.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.ReadInConfig() // optional
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("WALLET_TRACKER")
	v.AutomaticEnv()
	bindEnvAliases(v)

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnvAliases keeps the variable names the tracker has always used.
func bindEnvAliases(v *viper.Viper) {
	v.BindEnv("api.dexscreener_url", "DEXSCREENER_REQUEST_URL")
	v.BindEnv("api.gmgn_url", "GMGN_REQUEST_URL")
	v.BindEnv("api.birdeye_api_key", "BIRDEYE_API_KEY")
	v.BindEnv("api.bitquery_api_key", "BITQUERY_API_KEY")
	v.BindEnv("api.request_timeout", "WALLET_TRACKER_REQUEST_TIMEOUT")
	v.BindEnv("api.max_retries", "WALLET_TRACKER_MAX_RETRIES")
	v.BindEnv("api.rate_limit", "WALLET_TRACKER_RATE_LIMIT")

	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")

	v.BindEnv("app.data_dir", "WALLET_TRACKER_DATA_DIR")
	v.BindEnv("app.logs_dir", "WALLET_TRACKER_LOGS_DIR")
	v.BindEnv("app.identifier_column", "WALLET_TRACKER_COLUMN")
	v.BindEnv("app.top_projects", "WALLET_TRACKER_TOP_PROJECTS")
	v.BindEnv("app.workers", "WALLET_TRACKER_WORKERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.dexscreener_url", "")
	v.SetDefault("api.gmgn_url", "")
	v.SetDefault("api.birdeye_api_key", "")
	v.SetDefault("api.bitquery_api_key", "")
	v.SetDefault("api.request_timeout", 0) // no timeout beyond the HTTP client's own
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.rate_limit", 5)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("app.data_dir", "data_out")
	v.SetDefault("app.logs_dir", "logs")
	v.SetDefault("app.identifier_column", "Wallet Address")
	v.SetDefault("app.top_projects", 30)
	v.SetDefault("app.workers", 4)
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data-dir": "app.data_dir",
	"logs-dir": "app.logs_dir",
	"column":   "app.identifier_column",
	"workers":  "app.workers",
	"retries":  "api.max_retries",
	"timeout":  "api.request_timeout",
}

// bindFlags binds only flags the user actually set, so unset flags never shadow env or file values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

func validate(cfg *Config) error {
	if cfg.App.IdentifierColumn == "" {
		return fmt.Errorf("app.identifier_column must not be empty")
	}
	if cfg.App.DataDir == "" {
		return fmt.Errorf("app.data_dir must not be empty")
	}
	if cfg.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0, got %d", cfg.API.MaxRetries)
	}
	if cfg.App.Workers <= 0 {
		cfg.App.Workers = 1
	}
	if cfg.App.TopProjects <= 0 {
		cfg.App.TopProjects = 30
	}
	return nil
}

// RequireTelegram reports whether the bot settings are present.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required (env: TELEGRAM_BOT_TOKEN)")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required (env: TELEGRAM_CHAT_ID)")
	}
	return nil
}
