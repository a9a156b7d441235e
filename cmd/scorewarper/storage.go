package main

import (
	"fmt"

	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/internal/logging"
	"github.com/scorewarp/scorewarper/internal/storage"
	"github.com/scorewarp/scorewarper/internal/storage/memory"
	pgstorage "github.com/scorewarp/scorewarper/internal/storage/postgres"
	sqlitestorage "github.com/scorewarp/scorewarper/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig, logManager *logging.SlogManager) (storage.Backend, error) {
	log := logManager.Logger()

	switch storageCfg.Type {
	case "postgres":
		log.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Config:     config.GetDBConfig(),
			LogManager: logManager,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, logManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		log.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "memory", "":
		log.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
