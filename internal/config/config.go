// Package config loads application configuration and city definitions.
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
	Store  StoreConfig       `yaml:"store" mapstructure:"store"`
	Dots   DotsConfig        `yaml:"dots" mapstructure:"dots"`
	Server ServerConfig      `yaml:"server" mapstructure:"server"`
	Log    LogConfig         `yaml:"log" mapstructure:"log"`
	Cities map[string]string `yaml:"cities" mapstructure:"cities"`
}

// StoreConfig configures the optional run/dot persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DotsConfig configures dot generation defaults. Flags override these
// per invocation.
type DotsConfig struct {
	Ratio        float64 `yaml:"ratio" mapstructure:"ratio"`
	Concurrency  int     `yaml:"concurrency" mapstructure:"concurrency"`
	ForceRareDot bool    `yaml:"force_rare_dot" mapstructure:"force_rare_dot"`
	OutputDir    string  `yaml:"output_dir" mapstructure:"output_dir"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("DOTMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "dotmap.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("dots.ratio", 100)
	v.SetDefault("dots.concurrency", 4)
	v.SetDefault("dots.force_rare_dot", false)
	v.SetDefault("dots.output_dir", "out")
	v.SetDefault("cities.copenhagen", "cities/copenhagen.yaml")
	v.SetDefault("cities.berlin", "cities/berlin.yaml")

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
