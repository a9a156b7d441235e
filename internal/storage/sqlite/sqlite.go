// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database dumped to disk via VACUUM INTO.
// It wraps the GORM backend via composition. The SQLite-specific concerns are
// creating the in-memory DB and keeping the disk copy current.
package sqlitestorage

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/internal/database"
	"github.com/scorewarp/scorewarper/internal/logging"
	"github.com/scorewarp/scorewarper/pkg/core"
	gormstorage "github.com/scorewarp/scorewarper/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      config.SQLiteConfig
	log      *logging.SlogManager
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// New creates a new SQLite storage backend. Runs already dumped to cfg.Path
// are loaded into the in-memory database so that history accumulates across invocations.
func New(cfg config.SQLiteConfig, logManager *logging.SlogManager) (*Backend, error) {
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}

	db, err := database.OpenSQLite("", logManager.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

// Init migrates the schema, restores the on-disk history and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if err := b.restore(); err != nil {
		return err
	}

	if b.cfg.Path != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}

	return nil
}

// RecordRun stores the run and, without a dump interval, dumps immediately.
func (b *Backend) RecordRun(run *core.WarpRun) error {
	if err := b.Backend.RecordRun(run); err != nil {
		return err
	}
	if b.cfg.Path != "" && b.cfg.DumpInterval <= 0 {
		return b.dump()
	}
	return nil
}

// Close stops the dump goroutine, writes a final dump and closes the embedded GORM backend.
// Later calls return the result of the first.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.close()
	})
	return b.closeErr
}

func (b *Backend) close() error {
	close(b.stopChan)
	b.wg.Wait()

	var dumpErr error
	if b.cfg.Path != "" {
		dumpErr = b.dump()
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return dumpErr
}

// restore copies the runs of an existing dump into the in-memory database.
func (b *Backend) restore() error {
	if b.cfg.Path == "" {
		return nil
	}
	if _, err := os.Stat(b.cfg.Path); err != nil {
		return nil
	}
	if err := b.db.Exec("ATTACH DATABASE ? AS disk", b.cfg.Path).Error; err != nil {
		return fmt.Errorf("failed to attach %s: %w", b.cfg.Path, err)
	}
	defer b.db.Exec("DETACH DATABASE disk")

	var tables int64
	err := b.db.Raw("SELECT count(*) FROM disk.sqlite_master WHERE type = 'table' AND name IN ('warp_runs', 'position_samples')").
		Scan(&tables).Error
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", b.cfg.Path, err)
	}
	if tables < 2 {
		return nil
	}

	err = b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO warp_runs SELECT * FROM disk.warp_runs").Error; err != nil {
			return err
		}
		return tx.Exec("INSERT INTO position_samples SELECT * FROM disk.position_samples").Error
	})
	if err != nil {
		return fmt.Errorf("failed to restore runs from %s: %w", b.cfg.Path, err)
	}
	b.log.Logger().Info("Restored run history", "path", b.cfg.Path)
	return nil
}

func (b *Backend) dump() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.Path); err != nil {
		b.log.Logger().Error("Error dumping to disk", "path", b.cfg.Path, "error", err)
		return err
	}
	b.log.Logger().Debug("Dumped to disk", "path", b.cfg.Path, "duration", time.Since(start))
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.dump()
		}
	}
}
