// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
package postgres

import (
	"fmt"

	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/internal/database"
	"github.com/scorewarp/scorewarper/internal/logging"
	gormstorage "github.com/scorewarp/scorewarper/internal/storage/gorm"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
// When DB is nil, Init connects using Config.
type Dependencies struct {
	DB         *gorm.DB
	Config     config.DBConfig
	LogManager *logging.SlogManager
}

// Backend implements storage.Backend on a Postgres server.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:         deps.DB,
			LogManager: deps.LogManager,
		}),
		deps: deps,
	}
}

// Init connects if no DB was injected, then runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.OpenPostgres(b.deps.Config, b.deps.LogManager.Logger())
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
		b.Backend.SetDB(db)
	}
	return b.Backend.Init()
}
