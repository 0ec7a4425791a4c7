package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"okx-trader/internal/exchange/okx"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	OKX        OKXConfig        `mapstructure:"okx"`
	Network    NetworkConfig    `mapstructure:"network"`
	Strategies StrategiesConfig `mapstructure:"strategies"`
}

type AppConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	PrettyLog   bool   `mapstructure:"pretty_log"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type OKXConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIPrefix   string `mapstructure:"api_prefix"`
	WSURL       string `mapstructure:"ws_url"`
	APIKey      string `mapstructure:"api_key"`
	SecretKey   string `mapstructure:"secret_key"`
	Passphrase  string `mapstructure:"passphrase"`
	Sandbox     bool   `mapstructure:"sandbox"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

// NetworkConfig holds the optional DNS override applied to the REST transport.
type NetworkConfig struct {
	DNSServer string `mapstructure:"dns_server"`
}

type StrategiesConfig struct {
	Grid  GridConfig  `mapstructure:"grid"`
	Trend TrendConfig `mapstructure:"trend"`
}

type GridConfig struct {
	Symbol        string `mapstructure:"symbol"`
	IntervalSec   int    `mapstructure:"interval_sec"`
	RetryDelaySec int    `mapstructure:"retry_delay_sec"`
}

type TrendConfig struct {
	Symbol        string  `mapstructure:"symbol"`
	Leverage      string  `mapstructure:"leverage"`
	MaxDrawdown   float64 `mapstructure:"max_drawdown"`
	IntervalSec   int     `mapstructure:"interval_sec"`
	RetryDelaySec int     `mapstructure:"retry_delay_sec"`
}

var ErrMissingCredentials = errors.New("config: missing okx credentials")

// envBindings maps config keys to the flat environment names used by .env files.
var envBindings = map[string][]string{
	"okx.api_key":                   {"OKX_API_KEY"},
	"okx.secret_key":                {"OKX_SECRET_KEY"},
	"okx.passphrase":                {"OKX_PASSPHRASE"},
	"okx.sandbox":                   {"OKX_SANDBOX", "USE_SANDBOX"},
	"strategies.grid.symbol":        {"SPOT_SYMBOL"},
	"strategies.trend.symbol":       {"SWAP_SYMBOL"},
	"strategies.trend.leverage":     {"LEVERAGE"},
	"strategies.trend.max_drawdown": {"MAX_DRAWDOWN"},
	"network.dns_server":            {"DNS_SERVER"},
	"app.log_level":                 {"LOG_LEVEL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.pretty_log", true)
	v.SetDefault("app.metrics_addr", "")
	v.SetDefault("okx.base_url", "https://www.okx.com")
	v.SetDefault("okx.api_prefix", "/api/v5")
	v.SetDefault("okx.ws_url", "wss://ws.okx.com:8443/ws/v5/public")
	v.SetDefault("okx.timeout_sec", 10)
	v.SetDefault("okx.max_attempts", okx.DefaultMaxAttempts)
	v.SetDefault("strategies.grid.symbol", "BTC-USDT")
	v.SetDefault("strategies.grid.interval_sec", 60)
	v.SetDefault("strategies.grid.retry_delay_sec", 30)
	v.SetDefault("strategies.trend.symbol", "BTC-USDT-SWAP")
	v.SetDefault("strategies.trend.leverage", "10")
	v.SetDefault("strategies.trend.max_drawdown", 0.1)
	v.SetDefault("strategies.trend.interval_sec", 300)
	v.SetDefault("strategies.trend.retry_delay_sec", 60)
}

// LoadConfig resolves configuration from path/config.yaml (optional), a .env
// file next to it or in the working directory, and the process environment.
func LoadConfig(path string) (*Config, error) {
	for _, f := range []string{filepath.Join(path, ".env"), ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports missing credentials. Signing still works with empty values,
// so callers treat the result as a warning.
func (c *Config) Validate() error {
	var missing []string
	if c.OKX.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.OKX.SecretKey == "" {
		missing = append(missing, "secret_key")
	}
	if c.OKX.Passphrase == "" {
		missing = append(missing, "passphrase")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) Credentials() okx.Credentials {
	return okx.Credentials{
		APIKey:     c.OKX.APIKey,
		SecretKey:  c.OKX.SecretKey,
		Passphrase: c.OKX.Passphrase,
	}
}

func (c *Config) Endpoint() okx.EndpointConfig {
	return okx.EndpointConfig{
		BaseURL:   strings.TrimSuffix(c.OKX.BaseURL, "/"),
		APIPrefix: c.OKX.APIPrefix,
		Timeout:   time.Duration(c.OKX.TimeoutSec) * time.Second,
		Sandbox:   c.OKX.Sandbox,
	}
}
