package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/xvierd/studyx/internal/adapters/git"
	"github.com/xvierd/studyx/internal/adapters/notification"
	"github.com/xvierd/studyx/internal/adapters/storage"
	"github.com/xvierd/studyx/internal/config"
	"github.com/xvierd/studyx/internal/logger"
	"github.com/xvierd/studyx/internal/ports"
	"github.com/xvierd/studyx/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	configPath string
	config     *config.Config
	log        *zap.Logger
	storage    ports.Storage
	study      *services.StudyService
	stats      *services.StatsService
	backup     *services.BackupService
	state      *services.StateService
	git        *git.Detector
	notifier   *notification.Notifier
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices() error {
	var err error
	app.configPath, err = config.GetConfigPath()
	if err != nil {
		return err
	}
	app.config, err = config.LoadFrom(app.configPath)
	if err != nil {
		// Fall back to defaults so a broken file can still be fixed with
		// "studyx config set".
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		app.config = config.DefaultConfig()
		if app.config.Storage.DataDir, err = config.ExpandHome(app.config.Storage.DataDir); err != nil {
			return err
		}
	}

	app.log, err = logger.New(app.config.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if dbPath == "" {
		dbPath = config.GetDBPath(app.config)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	app.storage, err = storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.log.Debug("storage opened", zap.String("path", dbPath))

	app.git = git.NewDetector()
	app.notifier = notification.New(app.config.Notifications)

	app.study = services.NewStudyService(app.storage, app.log.Named("study"))
	app.stats = services.NewStatsService(app.storage)
	app.stats.SetWeekStart(app.config.WeekStart())
	app.backup = services.NewBackupService(app.storage, app.log.Named("backup"))
	app.state = services.NewStateService(app.study, app.stats)

	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	if app.log != nil {
		_ = app.log.Sync()
	}
	if app.storage != nil {
		err := app.storage.Close()
		app.storage = nil
		return err
	}
	return nil
}

// setupSignalHandler returns a context that is cancelled on interrupt signals.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
