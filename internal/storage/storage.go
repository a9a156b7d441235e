// internal/storage/storage.go
package storage

import "github.com/scorewarp/scorewarper/pkg/core"

// Backend is the interface all run history implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// RecordRun persists a run and assigns its ID.
	RecordRun(run *core.WarpRun) error
	// ListRuns returns stored runs, newest first.
	ListRuns() ([]core.WarpRun, error)
}

// Exportable is an optional interface for backends that write each run to a file.
type Exportable interface {
	GetExportedFilePath() string
}
