// Package config loads and validates the slackmech configuration.
//
// Configuration comes from a YAML file with ${VAR} expansion, then a pass
// of SLACKMECH_* environment variable overrides, so tokens never have to
// live in the file itself.
//
// # Example Configuration
//
//	slack:
//	  bot_token: "${SLACK_BOT_TOKEN}"
//	  app_token: "${SLACK_APP_TOKEN}"
//	bot:
//	  aliases: "bot,assistant"
//	  log_handled_messages: true
//	  force_user_lookup: false
//	storage:
//	  backend: sqlite
//	  sqlite_path: slackmech-state.db
//	logging:
//	  level: info
//	  file: /var/log/slackmech/slackmech.log
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/keepmind9/slackmech/pkg/constants"
)

const (
	DefaultLogLevel       = "info"
	DefaultStorageBackend = "sqlite"
)

// Config represents the complete slackmech configuration structure
type Config struct {
	Slack   SlackConfig   `yaml:"slack"`
	Bot     BotConfig     `yaml:"bot"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// SlackConfig holds the gateway credentials
type SlackConfig struct {
	BotToken string `yaml:"bot_token" env:"SLACKMECH_BOT_TOKEN"`
	AppToken string `yaml:"app_token" env:"SLACKMECH_APP_TOKEN"`
}

// BotConfig controls mention matching and dispatch behavior
type BotConfig struct {
	// Aliases is a comma-separated, case-sensitive list of names the bot
	// also answers to (besides its own mention and display name)
	Aliases string `yaml:"aliases" env:"SLACKMECH_ALIASES"`
	// LogHandledMessages logs every message that reaches a handler
	LogHandledMessages bool `yaml:"log_handled_messages" env:"SLACKMECH_LOG_HANDLED_MESSAGES"`
	// ForceUserLookup resolves unknown senders before dispatching to handlers
	ForceUserLookup bool `yaml:"force_user_lookup" env:"SLACKMECH_FORCE_USER_LOOKUP"`
}

// StorageConfig selects and configures the plugin state backend
type StorageConfig struct {
	Backend    string `yaml:"backend" env:"SLACKMECH_STORAGE_BACKEND"` // sqlite or memory
	SQLitePath string `yaml:"sqlite_path" env:"SLACKMECH_SQLITE_PATH"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	File         string `yaml:"file"`          // Log file path
	MaxSize      int    `yaml:"max_size"`      // Single file max size in MB
	MaxBackups   int    `yaml:"max_backups"`   // Number of backups to keep
	MaxAge       int    `yaml:"max_age"`       // Maximum days to retain
	Compress     bool   `yaml:"compress"`      // Whether to compress old logs
	EnableStdout bool   `yaml:"enable_stdout"` // Also output to stdout
}

// LoadConfig loads configuration from file, expands environment variables
// and applies SLACKMECH_* overrides
func LoadConfig(configPath string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	expandedData, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	// Parse YAML
	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides win over the file
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDefaults(&config)

	// Validate configuration
	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return "" // Return empty string to let config parsing fail
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

// applyDefaults fills in defaults for optional settings
func applyDefaults(config *Config) {
	if config.Storage.Backend == "" {
		config.Storage.Backend = DefaultStorageBackend
	}
	if config.Storage.SQLitePath == "" {
		config.Storage.SQLitePath = constants.DefaultSQLitePath
	}
	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = constants.DefaultLogMaxAge
	}
}

// Validate checks the configuration for errors
func Validate(config *Config) error {
	if config.Slack.BotToken == "" {
		return fmt.Errorf("slack.bot_token is required")
	}
	if config.Slack.AppToken == "" {
		return fmt.Errorf("slack.app_token is required")
	}
	if !strings.HasPrefix(config.Slack.AppToken, "xapp-") {
		return fmt.Errorf("slack.app_token must be an app-level token (xapp-...)")
	}
	switch config.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("storage.backend must be sqlite or memory, got %q", config.Storage.Backend)
	}
	return nil
}

// MaskSecret masks sensitive information for display
func MaskSecret(s string) string {
	if len(s) <= constants.MinSecretLengthForMasking {
		return "***"
	}
	return s[:constants.SecretMaskPrefixLength] + "***" + s[len(s)-constants.SecretMaskSuffixLength:]
}

// Warnings returns non-fatal findings about the configuration
func Warnings(config *Config) []string {
	var warnings []string
	if !strings.HasPrefix(config.Slack.BotToken, "xoxb-") {
		warnings = append(warnings, "slack.bot_token does not look like a bot token (xoxb-...)")
	}
	if config.Storage.Backend == "memory" {
		warnings = append(warnings, "memory storage backend loses all plugin state on restart")
	}
	for _, alias := range strings.Split(config.Bot.Aliases, ",") {
		if alias != strings.TrimSpace(alias) {
			warnings = append(warnings, fmt.Sprintf("alias %q has surrounding whitespace, it is matched literally", alias))
		}
	}
	return warnings
}
