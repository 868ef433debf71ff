package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/keepmind9/slackmech/internal/builtin"
	"github.com/keepmind9/slackmech/internal/config"
	"github.com/keepmind9/slackmech/internal/dispatch"
	"github.com/keepmind9/slackmech/internal/gateway"
	"github.com/keepmind9/slackmech/internal/logger"
	"github.com/keepmind9/slackmech/internal/models"
	"github.com/keepmind9/slackmech/internal/storage"
)

var (
	configFile string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the slackmech bot",
		Long:  "Connect to Slack over socket-mode and dispatch events to registered plugins until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			// Load configuration
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}

			// Initialize logger
			logConfig := logger.Config{
				Level:        cfg.Logging.Level,
				File:         cfg.Logging.File,
				MaxSize:      cfg.Logging.MaxSize,
				MaxBackups:   cfg.Logging.MaxBackups,
				MaxAge:       cfg.Logging.MaxAge,
				Compress:     cfg.Logging.Compress,
				EnableStdout: cfg.Logging.EnableStdout,
			}
			if err := logger.InitLogger(logConfig); err != nil {
				log.Fatalf("Failed to initialize logger: %v", err)
			}

			logger.WithFields(logrus.Fields{
				"config_file": configFile,
				"log_level":   cfg.Logging.Level,
				"storage":     cfg.Storage.Backend,
			}).Info("slackmech-starting")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Storage backend
			store := newStorage(cfg)
			if err := store.Init(ctx); err != nil {
				log.Fatalf("Failed to initialize storage: %v", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.WithField("error", err).Error("failed-to-close-storage")
				}
			}()

			// Slack client and identity
			client, err := gateway.Connect(ctx, cfg.Slack.BotToken, cfg.Slack.AppToken)
			if err != nil {
				log.Fatalf("Failed to connect to Slack: %v", err)
			}
			if err := client.LoadDirectory(ctx); err != nil {
				log.Fatalf("Failed to load Slack directory: %v", err)
			}

			// Registry is fully populated before the first event arrives
			registry := models.NewRegistry()
			registry.Use(
				&builtin.PingPong{},
				&builtin.Echo{},
				&builtin.Feedback{},
				builtin.NewMemory(store),
				builtin.NewEventStats(store),
			)

			dispatcher := dispatch.New(registry, client, client, dispatch.Config{
				BotID:              client.BotID(),
				BotName:            client.BotName(),
				Aliases:            cfg.Bot.Aliases,
				LogHandledMessages: cfg.Bot.LogHandledMessages,
				ForceUserLookup:    cfg.Bot.ForceUserLookup,
			})

			fmt.Printf("slackmech connected as %s (%s)\n", client.BotName(), client.BotID())

			if err := client.Run(ctx, dispatcher); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithField("error", err).Error("socket-mode-loop-failed")
			}
			logger.Info("slackmech-stopped")
		},
	}
)

// newStorage selects the storage backend from the configuration
func newStorage(cfg *config.Config) storage.Storage {
	if cfg.Storage.Backend == "memory" {
		return storage.NewMemory()
	}
	return storage.NewSQLite(cfg.Storage.SQLitePath)
}

func init() {
	startCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}
