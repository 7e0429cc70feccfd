package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Query     QueryConfig     `yaml:"query" mapstructure:"query"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Diag      DiagConfig      `yaml:"diag" mapstructure:"diag"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Input     InputConfig     `yaml:"input" mapstructure:"input"`
	Schedule  ScheduleConfig  `yaml:"schedule" mapstructure:"schedule"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// QueryConfig holds the default collection target.
type QueryConfig struct {
	Category         string `yaml:"category" mapstructure:"category"`
	Location         string `yaml:"location" mapstructure:"location"`
	FallbackLocation string `yaml:"fallback_location" mapstructure:"fallback_location"`
}

// PipelineConfig configures orchestration behavior.
type PipelineConfig struct {
	Quota          int  `yaml:"quota" mapstructure:"quota"`
	MockAPIEnabled bool `yaml:"mock_api_enabled" mapstructure:"mock_api_enabled"`
}

// ScrapeConfig configures the search-scrape adapter and its HTTP engine.
type ScrapeConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries        int     `yaml:"retries" mapstructure:"retries"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	SearchBaseURL  string  `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// AnthropicConfig holds Anthropic API settings for the structuring capability.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExportConfig configures the export sink.
type ExportConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	BaseName string `yaml:"base_name" mapstructure:"base_name"`
	XLSX     bool   `yaml:"xlsx" mapstructure:"xlsx"`
}

// DiagConfig configures blocked-page capture.
type DiagConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// InputConfig configures the manual-input provider.
type InputConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "stdin" or "file"
	File     string `yaml:"file" mapstructure:"file"`
}

// ScheduleConfig configures the periodic trigger.
type ScheduleConfig struct {
	At string `yaml:"at" mapstructure:"at"` // local time of day, "HH:MM"
}

// ServerConfig configures the HTTP trigger server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("query.category", "digital marketing agencies")
	v.SetDefault("query.location", "Abbottabad, Pakistan")
	v.SetDefault("query.fallback_location", "Khyber Pakhtunkhwa, Pakistan")
	v.SetDefault("pipeline.quota", 5)
	v.SetDefault("pipeline.mock_api_enabled", true)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.retries", 3)
	v.SetDefault("scrape.requests_per_sec", 0.5)
	v.SetDefault("scrape.search_base_url", "https://www.google.com/search")
	// Env-only keys need a registered default for AutomaticEnv to
	// surface them through Unmarshal.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("input.file", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.base_name", "business_data")
	v.SetDefault("export.xlsx", false)
	v.SetDefault("diag.dir", "diagnostics")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("input.provider", "stdin")
	v.SetDefault("schedule.at", "08:00")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
