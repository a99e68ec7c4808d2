// Package config loads catalog settings from a YAML file and CATALOG_*
// environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-catalog/cache"
	"github.com/goliatone/go-catalog/internal/currency"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/store"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CATALOG_DATABASE_DSN.
const EnvPrefix = "CATALOG"

// Config is the full catalog configuration.
type Config struct {
	Database   store.Config        `mapstructure:"database"`
	Cache      cache.Config        `mapstructure:"cache"`
	Images     media.Config        `mapstructure:"images"`
	Currencies []currency.Currency `mapstructure:"currencies"`
	Log        LogConfig           `mapstructure:"log"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing is overridden: an
// in-memory sqlite database and no image service.
func Default() Config {
	return Config{
		Database: store.Config{
			Driver: store.DriverSQLite,
			DSN:    "file:catalog?mode=memory&cache=shared",
		},
		Cache:      cache.DefaultConfig(),
		Images:     media.DefaultConfig(),
		Currencies: append([]currency.Currency(nil), currency.DefaultCurrencies...),
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.num_shards", d.Cache.NumShards)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.eviction_percentage", d.Cache.EvictionPercentage)
	v.SetDefault("cache.missing_record_storage", d.Cache.MissingRecordStorage)
	v.SetDefault("cache.eviction_interval", d.Cache.EvictionInterval)
	v.SetDefault("cache.early_refresh.min_async_refresh_time", d.Cache.EarlyRefresh.MinAsyncRefreshTime)
	v.SetDefault("cache.early_refresh.max_async_refresh_time", d.Cache.EarlyRefresh.MaxAsyncRefreshTime)
	v.SetDefault("cache.early_refresh.sync_refresh_time", d.Cache.EarlyRefresh.SyncRefreshTime)
	v.SetDefault("cache.early_refresh.retry_base_delay", d.Cache.EarlyRefresh.RetryBaseDelay)

	v.SetDefault("images.base_url", d.Images.BaseURL)
	v.SetDefault("images.timeout", d.Images.Timeout)
	v.SetDefault("images.rate_limit", d.Images.RateLimit)
	v.SetDefault("images.burst", d.Images.Burst)
	v.SetDefault("images.batch_size", d.Images.BatchSize)
	v.SetDefault("images.api_key", d.Images.APIKey)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads path, when not empty, on top of the defaults and applies
// CATALOG_* environment overrides. The result is validated.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if v.GetBool("cache.early_refresh.disabled") {
		cfg.Cache.EarlyRefresh = nil
	}
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = Default().Currencies
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	return validation.Errors{
		"database":   dbConfig(c.Database).Validate(),
		"cache":      c.Cache.Validate(),
		"images":     imagesConfig(c.Images).Validate(),
		"currencies": validation.Validate(c.Currencies, validation.Each(validation.By(validateCurrency))),
		"log":        c.Log.Validate(),
	}.Filter()
}

func validateCurrency(value any) error {
	c, _ := value.(currency.Currency)
	return validation.ValidateStruct(&c,
		validation.Field(&c.Code, validation.Required, validation.Length(3, 3), is.UpperCase),
		validation.Field(&c.Decimals, validation.Min(0), validation.Max(4)),
	)
}

// dbConfig adds validation to store.Config without tying store to ozzo.
type dbConfig store.Config

func (d dbConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(
			store.DriverPostgres, "pg", "postgresql", store.DriverSQLite, "sqlite3",
		).Error("must be postgres or sqlite")),
		validation.Field(&d.DSN, validation.Required),
		validation.Field(&d.MaxOpenConns, validation.Min(0)),
		validation.Field(&d.MaxIdleConns, validation.Min(0)),
	)
}

type imagesConfig media.Config

func (i imagesConfig) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.BaseURL, is.URL),
		validation.Field(&i.RateLimit, validation.Min(0.0)),
		validation.Field(&i.Burst, validation.Min(0)),
		validation.Field(&i.BatchSize, validation.Min(0)),
	)
}

// Validate checks the log section.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("json", "text")),
	)
}

// NewLogger builds the slog logger described by l, writing to w.
func NewLogger(l LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
