package postgres

import (
	"testing"

	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/internal/database"
	"github.com/scorewarp/scorewarper/internal/logging"
	"github.com/scorewarp/scorewarper/internal/storage"
	"github.com/scorewarp/scorewarper/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestNew(t *testing.T) {
	b := New(Dependencies{})
	require.NotNil(t, b)
	assert.NotNil(t, b.deps.LogManager)
	assert.Nil(t, b.DB())
}

func TestInit_UnreachableServer(t *testing.T) {
	b := New(Dependencies{Config: config.DBConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "nobody",
		Password: "nothing",
		Database: "none",
	}})

	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to postgres")
}

// An injected connection skips dialing, so any GORM dialect can stand in for the server.
func TestInit_InjectedDB(t *testing.T) {
	logManager := logging.NewSlogManager()
	db, err := database.OpenSQLite("", logManager.Logger())
	require.NoError(t, err)

	b := New(Dependencies{DB: db, LogManager: logManager})
	require.NoError(t, b.Init())
	defer b.Close()

	run := &core.WarpRun{ScoreName: "etude.svg", State: core.StateIndividuallyAdjusted}
	require.NoError(t, b.RecordRun(run))

	runs, err := b.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, core.StateIndividuallyAdjusted, runs[0].State)
}
