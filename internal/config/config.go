package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Notes      NotesConfig      `yaml:"notes" mapstructure:"notes"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Roster     RosterConfig     `yaml:"roster" mapstructure:"roster"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Proximity  ProximityConfig  `yaml:"proximity" mapstructure:"proximity"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the canonical dataset seed files.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// NotesConfig configures the notes store backend.
type NotesConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeocodeConfig configures the Nominatim client.
type GeocodeConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	IntervalMS   int    `yaml:"interval_ms" mapstructure:"interval_ms"`
	CentroidPath string `yaml:"centroid_path" mapstructure:"centroid_path"`
}

// Interval returns the minimum inter-request delay.
func (g GeocodeConfig) Interval() time.Duration {
	return time.Duration(g.IntervalMS) * time.Millisecond
}

// RosterConfig locates an optional YAML roster override.
type RosterConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SalesforceConfig holds Salesforce JWT auth settings for the pull command.
type SalesforceConfig struct {
	ClientID   string  `yaml:"client_id" mapstructure:"client_id"`
	Username   string  `yaml:"username" mapstructure:"username"`
	KeyPath    string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL   string  `yaml:"login_url" mapstructure:"login_url"`
	RecordType string  `yaml:"record_type" mapstructure:"record_type"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ProximityConfig configures the customer-proximity filter.
type ProximityConfig struct {
	RadiusMiles float64 `yaml:"radius_miles" mapstructure:"radius_miles"`
}

// ServerConfig configures the dashboard API server.
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
	v.SetEnvPrefix("STRATMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("notes.driver", "sqlite")
	v.SetDefault("notes.database_url", "stratmap-notes.db")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.user_agent", "stratmap/1.0")
	v.SetDefault("geocode.interval_ms", 1100)
	v.SetDefault("geocode.centroid_path", "data/state-centroids.yaml")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 5)
	v.SetDefault("proximity.radius_miles", 50)
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
