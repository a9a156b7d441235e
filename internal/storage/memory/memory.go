// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/pkg/core"
)

// Backend keeps no database; each run is exported to its own JSON file
// and the output directory is the history.
type Backend struct {
	cfg            config.MemoryConfig
	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init seeds the ID counter from runs already exported to the output directory
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	runs, err := b.readExports()
	if err != nil {
		return err
	}
	for _, r := range runs {
		if r.ID > b.idCounter {
			b.idCounter = r.ID
		}
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// RecordRun assigns the next ID and exports the run
func (b *Backend) RecordRun(run *core.WarpRun) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	run.ID = b.idCounter

	if err := b.exportJSON(run); err != nil {
		return fmt.Errorf("failed to export run: %w", err)
	}
	return nil
}

// ListRuns reads back every exported run, newest first
func (b *Backend) ListRuns() ([]core.WarpRun, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	runs, err := b.readExports()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].StartTime.Equal(runs[j].StartTime) {
			return runs[i].StartTime.After(runs[j].StartTime)
		}
		return runs[i].ID > runs[j].ID
	})
	return runs, nil
}

// GetExportedFilePath returns the path of the most recent export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
