// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for calcsite.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Locales LocalesConfig `yaml:"locales,omitempty"`
	Catalog CatalogConfig `yaml:"catalog,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address       string  `yaml:"address"`
	MaxUploadSize string  `yaml:"maxUploadSize"`
	RateLimit     float64 `yaml:"rateLimit"` // requests per second per client, 0 disables
	RateBurst     int     `yaml:"rateBurst"`
}

// LocalesConfig lists the locales the site serves.
type LocalesConfig struct {
	Default   string   `yaml:"default"`
	Supported []string `yaml:"supported"`
}

// CatalogConfig points at an optional directory of calculator files that
// add to or override the built-in catalog.
type CatalogConfig struct {
	Dir   string `yaml:"dir,omitempty"`
	Watch bool   `yaml:"watch,omitempty"`
}

// HistoryConfig controls saved calculations.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Limit   int    `yaml:"limit"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes))
	v.SetDefault("server.rateLimit", constants.DefaultRateLimit)
	v.SetDefault("server.rateBurst", constants.DefaultRateBurst)
	v.SetDefault("locales.default", constants.DefaultLocale)
	v.SetDefault("locales.supported", constants.SupportedLocales)
	v.SetDefault("catalog.dir", "")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", constants.DefaultHistoryPath)
	v.SetDefault("history.limit", constants.DefaultHistoryLimit)
	v.SetDefault("output.format", constants.OutputFormatPretty)
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path loads defaults only. In both cases
// CALCSITE_* environment variables override file values, e.g.
// CALCSITE_SERVER_ADDRESS for server.address.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if _, err := configuration.Server.UploadSizeBytes(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// UploadSizeBytes parses MaxUploadSize, falling back to the default for an
// empty or non-positive size.
func (s ServerConfig) UploadSizeBytes() (int64, error) {
	size, err := ParseSize(s.MaxUploadSize)
	if err != nil {
		return 0, err
	}
	if size <= 0 {
		return constants.DefaultMaxUploadSizeBytes, nil
	}
	return size, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	if len(c.Locales.Supported) == 0 {
		warnings = append(warnings, "No supported locales configured, only the default locale will be served")
	}
	for _, locale := range c.Locales.Supported {
		if err := validation.ValidateLocale(locale, constants.SupportedLocales); err != nil {
			warnings = append(warnings, fmt.Sprintf("Locale '%s' has no calculator translations: %v", locale, err))
		}
	}
	if c.Locales.Default != "" && len(c.Locales.Supported) > 0 {
		if err := validation.ValidateLocale(c.Locales.Default, c.Locales.Supported); err != nil {
			warnings = append(warnings, fmt.Sprintf("Default locale '%s' is not in the supported list", c.Locales.Default))
		}
	}

	if c.Server.RateLimit < 0 {
		warnings = append(warnings, fmt.Sprintf("Server rate limit %g is negative, rate limiting is disabled", c.Server.RateLimit))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		warnings = append(warnings, fmt.Sprintf("Server rate burst %d rejects every request, use at least 1", c.Server.RateBurst))
	}

	if c.Catalog.Watch && c.Catalog.Dir == "" {
		warnings = append(warnings, "Catalog watch is enabled but no catalog directory is configured")
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		warnings = append(warnings, "History is enabled but no database path is configured")
	}

	return warnings
}
