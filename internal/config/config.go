package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Emails  EmailsConfig  `mapstructure:"emails"`
	Parser  ParserConfig  `mapstructure:"parser"`
	Indexer IndexerConfig `mapstructure:"indexer"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServiceConfig describes the runtime environment
type ServiceConfig struct {
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// DBConfig holds database settings
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// EmailsConfig holds email folder settings
type EmailsConfig struct {
	Path       string   `mapstructure:"path"`
	Extensions []string `mapstructure:"extensions"`
}

// ParserConfig bounds the MIME parser
type ParserConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

// IndexerConfig controls background indexing
type IndexerConfig struct {
	Workers int `mapstructure:"workers"`
}

// LoggingConfig controls application logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // "info", "debug", etc.
	Format string `mapstructure:"format"` // "json" or "text"
}

// Default returns default configuration
func Default() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Use ~/.eml-parser for data directory
	dataDir := filepath.Join(homeDir, ".eml-parser")

	return &Config{
		Service: ServiceConfig{Environment: "development"},
		Server: ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			MaxBodyBytes: 25 << 20,
		},
		DB:      DBConfig{Path: filepath.Join(dataDir, "emails.db")},
		Emails:  EmailsConfig{Path: "./emails", Extensions: []string{".eml"}},
		Parser:  ParserConfig{MaxDepth: 32},
		Indexer: IndexerConfig{Workers: 4},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from defaults, an optional config.yaml and
// EML_PARSER_* environment variables. Extra search paths are tried before
// the working directory.
func Load(searchPaths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("EML_PARSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/eml-parser")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logrus.Debug("No config file found, using defaults and environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("service.environment", d.Service.Environment)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)

	v.SetDefault("db.path", d.DB.Path)

	v.SetDefault("emails.path", d.Emails.Path)
	v.SetDefault("emails.extensions", d.Emails.Extensions)

	v.SetDefault("parser.max_depth", d.Parser.MaxDepth)
	v.SetDefault("indexer.workers", d.Indexer.Workers)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate ensures critical configuration values are present
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max_body_bytes must be positive")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db path cannot be empty")
	}
	if c.Emails.Path == "" {
		return fmt.Errorf("emails path cannot be empty")
	}
	if c.Parser.MaxDepth < 1 {
		return fmt.Errorf("parser max_depth must be at least 1")
	}
	if c.Indexer.Workers < 1 {
		return fmt.Errorf("indexer workers must be at least 1")
	}
	return nil
}

// IsDevelopment returns true when running in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Service.Environment, "development")
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}
