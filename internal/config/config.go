package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/trendlab/faber/internal/core"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Collector CollectorConfig `mapstructure:"collector"`
	Backtest  BacktestConfig  `mapstructure:"backtest"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Indexes   []IndexConfig   `mapstructure:"indexes"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type CollectorConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// BacktestConfig holds engine defaults and the presentation-layer bounds
// on the moving-average window.
type BacktestConfig struct {
	DefaultSMAWindow int `mapstructure:"default_sma_window"`
	MinSMAWindow     int `mapstructure:"min_sma_window"`
	MaxSMAWindow     int `mapstructure:"max_sma_window"`
	CacheSize        int `mapstructure:"cache_size"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IndexConfig names a benchmark offered to clients.
type IndexConfig struct {
	Name   string `mapstructure:"name"`
	Symbol string `mapstructure:"symbol"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults, including the standard
// benchmark catalog.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Collector: CollectorConfig{
			TimeoutSeconds: 10,
		},
		Backtest: BacktestConfig{
			DefaultSMAWindow: 10,
			MinSMAWindow:     2,
			MaxSMAWindow:     24,
			CacheSize:        64,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "localfs",
			Path:    "data/backtests",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Indexes: []IndexConfig{
			{Name: "S&P 500", Symbol: "^GSPC"},
			{Name: "EuroStoxx 600", Symbol: "^STOXX"},
			{Name: "DAX", Symbol: "^GDAXI"},
			{Name: "CAC40", Symbol: "^FCHI"},
			{Name: "FTSE 100", Symbol: "^FTSE"},
			{Name: "Nikkei 225", Symbol: "^N225"},
			{Name: "NASDAQ Composite", Symbol: "^IXIC"},
			{Name: "OMX Stockholm 30", Symbol: "^OMX"},
			{Name: "Russell 2000", Symbol: "^RUT"},
			{Name: "Amazon", Symbol: "AMZN"},
			{Name: "Bitcoin", Symbol: "BTC-USD"},
			{Name: "USD/SEK", Symbol: "SEK=X"},
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Backtest.MinSMAWindow < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_sma_window must be at least 2, got %d", c.Backtest.MinSMAWindow))
	}
	if c.Backtest.MaxSMAWindow < c.Backtest.MinSMAWindow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_sma_window %d below min_sma_window %d",
				c.Backtest.MaxSMAWindow, c.Backtest.MinSMAWindow))
	}
	if c.Backtest.DefaultSMAWindow < c.Backtest.MinSMAWindow ||
		c.Backtest.DefaultSMAWindow > c.Backtest.MaxSMAWindow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("default_sma_window %d outside [%d, %d]",
				c.Backtest.DefaultSMAWindow, c.Backtest.MinSMAWindow, c.Backtest.MaxSMAWindow))
	}

	switch c.Archive.Type {
	case "", "localfs":
		if c.Archive.Enabled && c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required for localfs"))
		}
	case "s3":
		if c.Archive.Enabled && c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Archive.Type))
	}

	return nil
}

// IndexItems converts the catalog into core values.
func (c *Config) IndexItems() []core.IndexItem {
	items := make([]core.IndexItem, len(c.Indexes))
	for i, ix := range c.Indexes {
		items[i] = core.IndexItem{Name: ix.Name, Symbol: ix.Symbol}
	}
	return items
}
