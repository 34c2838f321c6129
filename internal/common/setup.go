package common

import (
	"context"
	"log"
	"strings"

	"stars-ledger-go/internal/database"
	"stars-ledger-go/internal/ledger"
	"stars-ledger-go/internal/models"
	"stars-ledger-go/internal/telegram"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	Store  *database.Service
	Engine *ledger.Engine
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the store, the subscription checker and the
// operator notifier into an engine. Without a chat API token the checker
// treats everyone as subscribed and notifications go to the log.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var checker ledger.SubscriptionChecker
	var notifier ledger.OperatorNotifier
	if cfg.Telegram.BotToken != "" {
		chatService, err := telegram.NewService(cfg.Telegram)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		checker, notifier = chatService, chatService
	} else {
		zap.L().Warn("No chat API token configured; subscription checks pass and operator events go to the log")
		checker = ledger.AssumeSubscribed{}
		notifier = ledger.LogNotifier{}
	}

	engine := ledger.NewEngine(dbService, checker, notifier, cfg.Engine)

	return &Services{
		Store:  dbService,
		Engine: engine,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for read-only operations like the stats report.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
