package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects and sizes the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// MatchConfig tunes field comparison and the verdict.
type MatchConfig struct {
	// StrictDateEquality compares dates of birth as calendar dates instead of
	// as text rendered with DateFormat.
	StrictDateEquality bool     `yaml:"strict_date_equality" mapstructure:"strict_date_equality"`
	DateFormat         string   `yaml:"date_format" mapstructure:"date_format"`
	DateLayouts        []string `yaml:"date_layouts" mapstructure:"date_layouts"`
	PassThreshold      float64  `yaml:"pass_threshold" mapstructure:"pass_threshold"`
	WeightsFile        string   `yaml:"weights_file" mapstructure:"weights_file"`
}

// BatchConfig bounds batch verification.
type BatchConfig struct {
	MaxConcurrent int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ImportConfig configures tabular imports.
type ImportConfig struct {
	Sheet int `yaml:"sheet" mapstructure:"sheet"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RECONCILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("match.strict_date_equality", false)
	v.SetDefault("match.date_format", "02/01/2006")
	v.SetDefault("match.date_layouts", []string{"02/01/2006", "02-01-2006", "2006-01-02", "02.01.2006", "2 Jan 2006"})
	v.SetDefault("match.pass_threshold", 70.0)
	v.SetDefault("match.weights_file", "")
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("batch.rate_per_sec", 20.0)
	v.SetDefault("import.sheet", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "migrate",
// "import", "verify", "geo", "report", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required (sqlite file path)")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported (postgres, sqlite)", c.Store.Driver))
	}

	switch mode {
	case "migrate", "geo", "report":
	case "import":
		if c.Import.Sheet < 0 {
			errs = append(errs, "import.sheet must be >= 0")
		}
	case "verify":
		errs = append(errs, c.validateMatch()...)
		errs = append(errs, c.validateBatch()...)
	case "serve":
		errs = append(errs, c.validateMatch()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateMatch() []string {
	var errs []string
	if c.Match.PassThreshold <= 0 || c.Match.PassThreshold > 100 {
		errs = append(errs, "match.pass_threshold must be in (0, 100]")
	}
	if strings.TrimSpace(c.Match.DateFormat) == "" {
		errs = append(errs, "match.date_format is required")
	}
	if c.Match.StrictDateEquality && len(c.Match.DateLayouts) == 0 {
		errs = append(errs, "match.date_layouts is required when strict_date_equality is set")
	}
	return errs
}

func (c *Config) validateBatch() []string {
	var errs []string
	if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 50 {
		errs = append(errs, "batch.max_concurrent must be between 1 and 50")
	}
	if c.Batch.RatePerSec < 0 {
		errs = append(errs, "batch.rate_per_sec must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
