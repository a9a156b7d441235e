// Package gormstorage implements the storage.Backend interface on top of any GORM dialect.
// The SQLite and Postgres backends embed it and only differ in how the DB is opened.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/scorewarp/scorewarper/internal/database"
	"github.com/scorewarp/scorewarper/internal/logging"
	"github.com/scorewarp/scorewarper/internal/model"
	"github.com/scorewarp/scorewarper/internal/model/convert"
	"github.com/scorewarp/scorewarper/pkg/core"

	"gorm.io/gorm"
)

// ErrNoDatabase is returned when a backend is used without a connection.
var ErrNoDatabase = errors.New("no database configured")

// Dependencies holds the collaborators of a GORM backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend stores runs through GORM.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// SetDB injects a connection opened after construction.
func (b *Backend) SetDB(db *gorm.DB) {
	b.deps.DB = db
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	if err := database.Migrate(b.deps.DB, b.deps.LogManager.Logger()); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// RecordRun inserts the run and its samples in one transaction and assigns the DB ID back.
func (b *Backend) RecordRun(run *core.WarpRun) error {
	if !b.dbReady {
		return ErrNoDatabase
	}

	gormRun := convert.CoreToWarpRun(*run)
	gormRun.ID = 0
	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&gormRun).Error
	})
	if err != nil {
		b.deps.LogManager.Logger().Error("Failed to insert warp run", "score", run.ScoreName, "error", err)
		return fmt.Errorf("failed to insert warp run: %w", err)
	}

	run.ID = gormRun.ID
	b.deps.LogManager.Logger().Debug("Recorded warp run", "id", run.ID, "samples", len(gormRun.Samples))
	return nil
}

// ListRuns returns every stored run with its samples, newest first.
func (b *Backend) ListRuns() ([]core.WarpRun, error) {
	if !b.dbReady {
		return nil, ErrNoDatabase
	}

	var rows []model.WarpRun
	err := b.deps.DB.
		Preload("Samples", func(db *gorm.DB) *gorm.DB {
			return db.Order("event_index ASC")
		}).
		Order("start_time DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list warp runs: %w", err)
	}

	runs := make([]core.WarpRun, len(rows))
	for i, r := range rows {
		runs[i] = convert.WarpRunToCore(r)
	}
	return runs, nil
}
