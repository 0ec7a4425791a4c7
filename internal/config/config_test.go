package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

// unsetEnv clears key for the duration of the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}

func clearCredentialEnv(t *testing.T) {
	for _, key := range []string{"OKX_API_KEY", "OKX_SECRET_KEY", "OKX_PASSPHRASE", "OKX_SANDBOX", "USE_SANDBOX"} {
		unsetEnv(t, key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearCredentialEnv(t)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.OKX.BaseURL != "https://www.okx.com" || cfg.OKX.APIPrefix != "/api/v5" {
		t.Fatalf("unexpected endpoint defaults: %+v", cfg.OKX)
	}
	if cfg.OKX.MaxAttempts != 3 || cfg.OKX.TimeoutSec != 10 {
		t.Fatalf("unexpected request defaults: %+v", cfg.OKX)
	}
	if cfg.Strategies.Grid.Symbol != "BTC-USDT" || cfg.Strategies.Grid.IntervalSec != 60 || cfg.Strategies.Grid.RetryDelaySec != 30 {
		t.Fatalf("unexpected grid defaults: %+v", cfg.Strategies.Grid)
	}
	trend := cfg.Strategies.Trend
	if trend.Symbol != "BTC-USDT-SWAP" || trend.Leverage != "10" || trend.IntervalSec != 300 || trend.RetryDelaySec != 60 {
		t.Fatalf("unexpected trend defaults: %+v", trend)
	}
	if !errors.Is(cfg.Validate(), ErrMissingCredentials) {
		t.Fatalf("expected missing credentials to be reported")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearCredentialEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
okx:
  api_key: file-key
  secret_key: file-secret
  passphrase: file-pass
  timeout_sec: 5
strategies:
  grid:
    symbol: ETH-USDT
  trend:
    leverage: "3"
`)
	t.Setenv("OKX_API_KEY", "env-key")
	t.Setenv("USE_SANDBOX", "true")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.OKX.APIKey != "env-key" {
		t.Fatalf("expected environment to override file, got %q", cfg.OKX.APIKey)
	}
	if cfg.OKX.SecretKey != "file-secret" || cfg.OKX.Passphrase != "file-pass" {
		t.Fatalf("unexpected credentials from file: %+v", cfg.OKX)
	}
	if !cfg.OKX.Sandbox {
		t.Fatalf("expected sandbox from USE_SANDBOX")
	}
	if cfg.Strategies.Grid.Symbol != "ETH-USDT" || cfg.Strategies.Trend.Leverage != "3" {
		t.Fatalf("unexpected strategies: %+v", cfg.Strategies)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	ep := cfg.Endpoint()
	if ep.Timeout != 5*time.Second || !ep.Sandbox || ep.BaseURL != "https://www.okx.com" {
		t.Fatalf("unexpected endpoint: %+v", ep)
	}
	if creds := cfg.Credentials(); creds.APIKey != "env-key" || creds.SecretKey != "file-secret" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	clearCredentialEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, ".env", "OKX_API_KEY=dot-key\nOKX_SECRET_KEY=dot-secret\nOKX_PASSPHRASE=dot-pass\n")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.OKX.APIKey != "dot-key" || cfg.OKX.SecretKey != "dot-secret" || cfg.OKX.Passphrase != "dot-pass" {
		t.Fatalf("unexpected credentials from .env: %+v", cfg.OKX)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	clearCredentialEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "okx: [unterminated\n")

	if _, err := LoadConfig(dir); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}

func TestValidateListsMissingFields(t *testing.T) {
	cfg := &Config{OKX: OKXConfig{APIKey: "k"}}
	err := cfg.Validate()
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if got := err.Error(); got != "config: missing okx credentials: secret_key, passphrase" {
		t.Fatalf("unexpected message %q", got)
	}
}
