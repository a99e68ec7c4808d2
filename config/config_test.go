package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	d := Default()
	if cfg.Database != d.Database {
		t.Errorf("expected default database %+v, got %+v", d.Database, cfg.Database)
	}
	if cfg.Cache.TTL != d.Cache.TTL || cfg.Cache.EarlyRefresh == nil {
		t.Errorf("unexpected cache config %+v", cfg.Cache)
	}
	if len(cfg.Currencies) != len(d.Currencies) {
		t.Errorf("expected the default currencies, got %+v", cfg.Currencies)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  dsn: postgres://catalog@localhost/catalog?sslmode=disable
  max_open_conns: 8
cache:
  ttl: 30s
  namespaces:
    product-list: 5s
  early_refresh:
    disabled: true
images:
  base_url: https://images.example.com
  rate_limit: 2.5
currencies:
  - code: CHF
    symbol: "CHF "
    decimals: 2
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.MaxOpenConns != 8 {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Cache.TTL != 30*time.Second || cfg.Cache.Capacity != Default().Cache.Capacity {
		t.Errorf("expected the file TTL over default capacity, got %+v", cfg.Cache)
	}
	if cfg.Cache.TTLFor("product-list", 0) != 5*time.Second {
		t.Errorf("expected a namespace override, got %v", cfg.Cache.Namespaces)
	}
	if cfg.Cache.EarlyRefresh != nil {
		t.Error("expected early refresh to be disabled")
	}
	if cfg.Images.BaseURL != "https://images.example.com" || cfg.Images.RateLimit != 2.5 || cfg.Images.BatchSize != 50 {
		t.Errorf("unexpected images config %+v", cfg.Images)
	}
	if len(cfg.Currencies) != 1 || cfg.Currencies[0].Code != "CHF" {
		t.Errorf("unexpected currencies %+v", cfg.Currencies)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_DATABASE_DSN", "file:env?mode=memory")
	t.Setenv("CATALOG_CACHE_TTL", "2m")
	t.Setenv("CATALOG_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "database:\n  dsn: file:yaml?mode=memory\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.DSN != "file:env?mode=memory" {
		t.Errorf("expected the environment to win, got %q", cfg.Database.DSN)
	}
	if cfg.Cache.TTL != 2*time.Minute || cfg.Log.Level != "warn" {
		t.Errorf("unexpected overrides %+v %+v", cfg.Cache, cfg.Log)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"database", "database:\n  driver: oracle\n"},
		{"cache", "cache:\n  capacity: -1\n"},
		{"images", "images:\n  base_url: not a url\n"},
		{"currencies", "currencies:\n  - code: eu\n"},
		{"log", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.name) {
				t.Errorf("expected the %s section to be named, got %v", tt.name, err)
			}
			if verr := goerrors.FromOzzoValidation(err, "invalid config"); !goerrors.IsValidation(verr) {
				t.Errorf("expected a validation error, got %v", verr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("expected info records to be filtered")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected a JSON record, got %q", out)
	}

	buf.Reset()
	NewLogger(LogConfig{Level: "bogus"}, &buf).Info("text record")
	if !strings.Contains(buf.String(), "msg=\"text record\"") {
		t.Errorf("expected a text record at info level, got %q", buf.String())
	}
}
