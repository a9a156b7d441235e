// internal/storage/memory/memory_test.go
package memory

import (
	"testing"
	"time"

	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/internal/storage"
	"github.com/scorewarp/scorewarper/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify Backend implements storage.Backend interface
var _ storage.Backend = (*Backend)(nil)

// Verify Backend implements storage.Exportable interface
var _ storage.Exportable = (*Backend)(nil)

func testRun(score string, start time.Time) *core.WarpRun {
	stats := core.ApplyStats{}
	stats.AddShifted("note")
	return &core.WarpRun{
		ScoreName:       score,
		PerformanceName: "take.json",
		StartTime:       start,
		Duration:        2 * time.Second,
		Range:           core.ActiveRange{FirstOnsetIndex: 1, LastOnsetIndex: 3},
		Resolved:        3,
		State:           core.StatePrimaryWarped,
		Stats:           stats,
		Samples:         []core.PositionSample{{EventIndex: 1, PrimaryID: "n1", DrawingX: 100}},
		Displacement:    []float64{0, 2, 4},
	}
}

func TestNew(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: "/tmp/test", CompressOutput: true})
	require.NotNil(t, b)
	assert.Equal(t, "/tmp/test", b.cfg.OutputDir)
	assert.True(t, b.cfg.CompressOutput)
	assert.Empty(t, b.GetExportedFilePath())
}

func TestInit_MissingDirectory(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir() + "/absent"})
	require.NoError(t, b.Init())

	runs, err := b.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, b.Close())
}

func TestRecordRun_AssignsSequentialIDs(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.Init())

	start := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	first := testRun("etude", start)
	second := testRun("etude", start.Add(time.Minute))
	require.NoError(t, b.RecordRun(first))
	require.NoError(t, b.RecordRun(second))

	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)
}

func TestInit_SeedsIDsFromExistingExports(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.Init())
	require.NoError(t, b.RecordRun(testRun("etude", start)))
	require.NoError(t, b.RecordRun(testRun("etude", start.Add(time.Second))))

	reopened := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, reopened.Init())
	run := testRun("etude", start.Add(time.Hour))
	require.NoError(t, reopened.RecordRun(run))
	assert.Equal(t, uint(3), run.ID)
}

func TestListRuns_NewestFirst(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: true})
	require.NoError(t, b.Init())

	start := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	require.NoError(t, b.RecordRun(testRun("old", start)))
	require.NoError(t, b.RecordRun(testRun("new", start.Add(time.Hour))))

	runs, err := b.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ScoreName)
	assert.Equal(t, "old", runs[1].ScoreName)

	got := runs[1]
	assert.Equal(t, core.StatePrimaryWarped, got.State)
	assert.Equal(t, 2*time.Second, got.Duration)
	assert.Equal(t, core.ActiveRange{FirstOnsetIndex: 1, LastOnsetIndex: 3}, got.Range)
	assert.Equal(t, []float64{0, 2, 4}, got.Displacement)
	assert.Equal(t, 1, got.Stats.ShiftedByKind["note"])
	require.Len(t, got.Samples, 1)
	assert.Equal(t, "n1", got.Samples[0].PrimaryID)
}
