// Package config loads the importer's settings from a config file, IMPORTER_*
// environment variables and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"statement-importer/internal/download"
	"statement-importer/internal/isin"
	"statement-importer/internal/quotes"
	"statement-importer/internal/reporter"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// EnvPrefix prefixes every environment variable the importer reads
const EnvPrefix = "IMPORTER"

// DefaultBondsURL points to the treasury bond rate workbook
const DefaultBondsURL = "https://www.gov.pl/attachment/b3ec5054-0cc1-45ce-900a-6242e284e65c"

// AppConfig holds every setting of the importer
type AppConfig struct {
	Database string `mapstructure:"database"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   string `mapstructure:"file"`
	} `mapstructure:"log"`

	Bonds struct {
		URL      string        `mapstructure:"url"`
		Timeout  time.Duration `mapstructure:"timeout"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"bonds"`

	Quotes struct {
		Currency            string  `mapstructure:"currency"`
		MaxUpdatesPerSecond float64 `mapstructure:"max_updates_per_second"`
	} `mapstructure:"quotes"`

	ISIN struct {
		MapFile string `mapstructure:"map_file"`
	} `mapstructure:"isin"`

	Schedule struct {
		Cron       string        `mapstructure:"cron"`
		RunTimeout time.Duration `mapstructure:"run_timeout"`
	} `mapstructure:"schedule"`
}

// SetDefaults registers the default of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database", "importer.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("bonds.url", DefaultBondsURL)
	v.SetDefault("bonds.timeout", 15*time.Second)
	v.SetDefault("bonds.cache_ttl", time.Hour)
	v.SetDefault("quotes.currency", "PLN")
	v.SetDefault("quotes.max_updates_per_second", 0.0)
	v.SetDefault("isin.map_file", "")
	v.SetDefault("schedule.cron", "0 18 * * 1-5")
	v.SetDefault("schedule.run_timeout", 30*time.Minute)
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "env_file", path, err)
	}
	return nil
}

// Load reads the configuration. cfgFile may be empty.
func Load(v *viper.Viper, cfgFile string) (*AppConfig, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
				WithSuggestion("check that the config file exists and is valid YAML, JSON or TOML")
		}
	}

	config := &AppConfig{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every setting
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "database", c.Database, nil)
	}
	if err := c.LoggerConfig().Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", c.Log, err)
	}
	if c.Bonds.URL == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "bonds.url", c.Bonds.URL, nil)
	}
	if err := c.DownloadConfig().Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "bonds", c.Bonds, err)
	}
	if err := c.QuotesConfig().Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "quotes", c.Quotes, err)
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "schedule.cron", c.Schedule.Cron, err)
	}
	if c.Schedule.RunTimeout < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "schedule.run_timeout", c.Schedule.RunTimeout,
			fmt.Errorf("timeout cannot be negative"))
	}
	return nil
}

// LoggerConfig returns the logger settings
func (c *AppConfig) LoggerConfig() *logger.Config {
	config := logger.DefaultConfig()
	config.Level = logger.Level(strings.ToLower(c.Log.Level))
	config.Format = logger.Format(strings.ToLower(c.Log.Format))
	if c.Log.File != "" {
		config.Output = logger.FileOutput
		config.File = c.Log.File
	}
	return config
}

// DownloadConfig returns the downloader settings for the bond workbook
func (c *AppConfig) DownloadConfig() *download.Config {
	config := download.DefaultConfig()
	config.Timeout = c.Bonds.Timeout
	config.CacheTTL = c.Bonds.CacheTTL
	return config
}

// QuotesConfig returns the quote synthesizer settings
func (c *AppConfig) QuotesConfig() *quotes.Config {
	config := quotes.DefaultConfig()
	config.Currency = strings.ToUpper(c.Quotes.Currency)
	config.MaxUpdatesPerSecond = c.Quotes.MaxUpdatesPerSecond
	return config
}

// Resolver returns the built-in ISIN table, extended with the map file when
// one is configured
func (c *AppConfig) Resolver() (*isin.Resolver, error) {
	resolver := isin.Default()
	if c.ISIN.MapFile == "" {
		return resolver, nil
	}
	return resolver.LoadFile(c.ISIN.MapFile)
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(strings.ToLower(format))

	switch config.Format {
	case reporter.FormatConsole:
		config.ShowComments = true
	case reporter.FormatCSV:
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", format, err).
			WithSuggestion("use one of: console, json, csv")
	}
	return config, nil
}
