package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keepmind9/slackmech/internal/config"
	"github.com/spf13/cobra"
)

var (
	validateConfigFile string
	validateShow       bool
	validateJSON       bool
)

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Config   string   `json:"config"`
	Storage  string   `json:"storage,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the slackmech configuration file",
	Long: `Validate the slackmech configuration file without connecting to Slack.

This command checks:
  - YAML syntax and ${VAR} expansion
  - Required Slack credentials
  - Storage backend selection

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors`,
	Run: func(cmd *cobra.Command, args []string) {
		configFile := validateConfigFile
		if configFile == "" {
			// Try default locations
			for _, loc := range []string{
				"config.yaml",
				filepath.Join(os.Getenv("HOME"), ".config/slackmech/config.yaml"),
				"/etc/slackmech/config.yaml",
			} {
				if _, err := os.Stat(loc); err == nil {
					configFile = loc
					break
				}
			}
		}

		result := ValidationResult{Valid: true, Config: configFile}

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.Storage = cfg.Storage.Backend
			result.Warnings = config.Warnings(cfg)
		}

		// Show full config if requested
		if validateShow && cfg != nil {
			fmt.Printf("✓ Configuration loaded: %s\n\n", configFile)
			fmt.Println("Slack:")
			fmt.Printf("  bot_token: %s\n", config.MaskSecret(cfg.Slack.BotToken))
			fmt.Printf("  app_token: %s\n", config.MaskSecret(cfg.Slack.AppToken))
			fmt.Println("\nBot:")
			fmt.Printf("  aliases: %q\n", cfg.Bot.Aliases)
			fmt.Printf("  log_handled_messages: %t\n", cfg.Bot.LogHandledMessages)
			fmt.Printf("  force_user_lookup: %t\n", cfg.Bot.ForceUserLookup)
			fmt.Println("\nStorage:")
			fmt.Printf("  backend: %s\n", cfg.Storage.Backend)
			if cfg.Storage.Backend == "sqlite" {
				fmt.Printf("  sqlite_path: %s\n", cfg.Storage.SQLitePath)
			}
			fmt.Println("\nLogging:")
			fmt.Printf("  level: %s\n", cfg.Logging.Level)
			if cfg.Logging.File != "" {
				fmt.Printf("  file: %s\n", cfg.Logging.File)
			}
			fmt.Println()
		}

		if validateJSON {
			output, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				fmt.Printf("{\"error\": \"failed to marshal json: %v\"}\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		} else {
			if result.Valid {
				fmt.Printf("✅ Configuration is valid: %s\n", configFile)
				fmt.Printf("   Storage backend: %s\n", result.Storage)
			} else {
				fmt.Printf("❌ Configuration is invalid: %s\n", configFile)
				for _, e := range result.Errors {
					fmt.Printf("   error: %s\n", e)
				}
			}
			for _, w := range result.Warnings {
				fmt.Printf("   warning: %s\n", w)
			}
		}

		if !result.Valid {
			os.Exit(1)
		}
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "config", "c", "", "Configuration file path")
	validateCmd.Flags().BoolVar(&validateShow, "show", false, "Show the loaded configuration with masked tokens")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
