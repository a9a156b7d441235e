package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/scorewarp/scorewarper/internal/alignment"
	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/internal/influx"
	"github.com/scorewarp/scorewarper/internal/logging"
	intOtel "github.com/scorewarp/scorewarper/internal/otel"
	"github.com/scorewarp/scorewarper/internal/scene"
	"github.com/scorewarp/scorewarper/internal/storage"
	"github.com/scorewarp/scorewarper/internal/warp"
	"github.com/scorewarp/scorewarper/pkg/core"
)

// shutdownTimeout bounds the final OTel flush.
const shutdownTimeout = 5 * time.Second

// app holds what every command shares: configuration, logging and telemetry.
type app struct {
	start        time.Time
	slogManager  *logging.SlogManager
	logger       *slog.Logger
	runContext   *logging.RunContext
	otelProvider *intOtel.Provider
	logFile      *os.File
	logFilePath  string
}

// newApp loads configuration from configDir and sets up logging. Logs go to a
// per-session file under logsDir, or to stderr when logsDir is empty.
func newApp(configDir string, stderr io.Writer) (*app, error) {
	a := &app{
		start:       time.Now(),
		slogManager: logging.NewSlogManager(),
		runContext:  &logging.RunContext{},
	}

	if err := config.LoadOrDefault(configDir); err != nil {
		return nil, err
	}

	logOut := stderr
	if logsDir := config.GetString("logsDir"); logsDir != "" {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		a.logFilePath = logging.LogFilePath(logsDir, binaryName, a.start)
		f, err := os.OpenFile(a.logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		logOut = f
	}

	// OTel records share the session log file
	var otelWriter io.Writer
	if a.logFile != nil {
		otelWriter = a.logFile
	}
	provider, err := intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), otelWriter))
	if err != nil {
		a.closeLogFile()
		return nil, fmt.Errorf("failed to initialize OTel: %w", err)
	}
	a.otelProvider = provider

	a.slogManager.Setup(logOut, config.GetString("logLevel"), provider.LoggerProvider(), a.runContext.Attrs)
	a.logger = a.slogManager.Logger()
	if a.logFile != nil {
		a.logger.Info("Logging to file", "path", a.logFilePath)
	}
	return a, nil
}

// Close flushes telemetry and closes the log file.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.slogManager.Flush(ctx); err != nil {
		a.logger.Warn("Failed to flush logs", "error", err)
	}
	if err := a.otelProvider.Shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shut down OTel", "error", err)
	}
	a.closeLogFile()
}

func (a *app) closeLogFile() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// loadSession reads a score and its performance alignment and derives positions.
// The scene is not warped.
func (a *app) loadSession(scorePath, mapsPath string, cfg config.WarpConfig) (*warp.Session, error) {
	a.runContext.Set(filepath.Base(scorePath), filepath.Base(mapsPath))

	sc, err := scene.LoadFile(scorePath)
	if err != nil {
		return nil, err
	}
	events, err := alignment.LoadFile(mapsPath)
	if err != nil {
		return nil, err
	}
	matcher, err := alignment.SyntheticMatcher(cfg.SyntheticPattern)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Loaded inputs", "events", len(events), "geometry", fmt.Sprintf("%+v", sc.Geometry()))

	return warp.NewSession(sc, events, warp.Options{
		SyntheticPattern:   matcher,
		StemMatchThreshold: cfg.StemMatchThreshold,
		BootstrapShift:     cfg.BootstrapShift,
		Logger:             a.logger,
	})
}

// recordRun stores the run in the configured backend and, when enabled, InfluxDB.
// Failures are logged and returned joined; the warped output is already written by then.
func (a *app) recordRun(run *core.WarpRun) error {
	var errs []error

	backend, err := createStorageBackend(config.GetStorageConfig(), a.slogManager)
	if err != nil {
		errs = append(errs, err)
	} else {
		errs = append(errs, a.storeRun(backend, run))
	}

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		errs = append(errs, a.sendRun(influxCfg, run))
	}

	err = errors.Join(errs...)
	if err != nil {
		a.logger.Error("Failed to record run", "error", err)
	}
	return err
}

func (a *app) storeRun(backend storage.Backend, run *core.WarpRun) error {
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	recordErr := backend.RecordRun(run)
	if recordErr == nil {
		a.logger.Info("Recorded run", "id", run.ID)
		if exp, ok := backend.(storage.Exportable); ok {
			a.logger.Info("Exported run", "path", exp.GetExportedFilePath())
		}
	}
	return errors.Join(recordErr, backend.Close())
}

func (a *app) sendRun(cfg config.InfluxConfig, run *core.WarpRun) error {
	backupDir := config.GetString("logsDir")
	if backupDir == "" {
		backupDir = "."
	}
	m := influx.NewManager(a.logger, filepath.Join(backupDir, "influx_backup.log.gz"))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := m.Connect(ctx, cfg); err != nil {
		return errors.Join(fmt.Errorf("failed to connect to InfluxDB: %w", err), m.Close())
	}
	return errors.Join(m.WriteRun(run), m.Close())
}
