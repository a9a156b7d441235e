package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/internal/logging"
	"github.com/scorewarp/scorewarper/internal/scene/scenetest"
	"github.com/scorewarp/scorewarper/internal/storage/memory"
	sqlitestorage "github.com/scorewarp/scorewarper/internal/storage/sqlite"
	"github.com/scorewarp/scorewarper/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workspace is a temp dir with a config, a three-note score and its performance.
type workspace struct {
	dir     string
	score   string
	maps    string
	runsDir string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	ws := workspace{
		dir:     dir,
		score:   filepath.Join(dir, "score.svg"),
		maps:    filepath.Join(dir, "take.json"),
		runsDir: filepath.Join(dir, "runs"),
	}

	cfg := fmt.Sprintf(`{
  "logsDir": %q,
  "warp": {"bootstrapShift": false},
  "storage": {"type": "memory", "memory": {"outputDir": %q, "compressOutput": false}}
}`, filepath.Join(dir, "logs"), ws.runsDir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(cfg), 0644))

	svg := scenetest.Page(600, 1000, 0,
		scenetest.Note("n1", 100),
		scenetest.Note("n2", 300),
		scenetest.Note("n3", 500),
	)
	require.NoError(t, os.WriteFile(ws.score, []byte(svg), 0644))

	maps := `[
  {"obs_num": 1, "obs_mean_onset": 0, "xml_id": ["n1"]},
  {"obs_num": 2, "obs_mean_onset": 1.25, "xml_id": ["n2"]},
  {"obs_num": 3, "obs_mean_onset": 2, "xml_id": ["n3"]}
]`
	require.NoError(t, os.WriteFile(ws.maps, []byte(maps), 0644))
	return ws
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_NoArgs(t *testing.T) {
	code, _, stderr := runCLI()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage: scorewarper")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI("transpose")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "transpose"`)
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "scorewarper "+CurrentVersion)
}

func TestRun_Help(t *testing.T) {
	code, stdout, _ := runCLI("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "positions")
}

func TestWarpCommand_MissingFlags(t *testing.T) {
	code, _, stderr := runCLI("warp", "-score", "a.svg")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "flag -maps is required")
}

func TestWarpCommand_FlagHelp(t *testing.T) {
	code, _, stderr := runCLI("warp", "-h")
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "-individual")
}

func TestWarpCommand_EndToEnd(t *testing.T) {
	ws := newWorkspace(t)
	out := filepath.Join(ws.dir, "warped.svg")

	code, stdout, stderr := runCLI("warp", "-score", ws.score, "-maps", ws.maps, "-out", out, "-config", ws.dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "3 shifted")
	assert.Contains(t, stdout, "3/3 events resolved")
	assert.Contains(t, stdout, "state primary-warped")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `transform="translate(50, 0)"`)

	// the run was exported to the memory backend's output directory
	runs, err := memory.New(config.MemoryConfig{OutputDir: ws.runsDir}).ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "score.svg", runs[0].ScoreName)
	assert.Equal(t, "take.json", runs[0].PerformanceName)
	assert.Equal(t, core.StatePrimaryWarped, runs[0].State)
	assert.Equal(t, 3, runs[0].Resolved)

	logs, err := filepath.Glob(filepath.Join(ws.dir, "logs", "scorewarper.*.log"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestWarpCommand_IndividualFlag(t *testing.T) {
	ws := newWorkspace(t)
	out := filepath.Join(ws.dir, "warped.svg")

	code, stdout, stderr := runCLI("warp", "-score", ws.score, "-maps", ws.maps, "-out", out,
		"-config", ws.dir, "-individual", "-no-record")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "state individually-adjusted")
	assert.NoDirExists(t, ws.runsDir)
}

func TestWarpCommand_FatalErrorWritesNothing(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.WriteFile(ws.maps, []byte(`[]`), 0644))
	out := filepath.Join(ws.dir, "warped.svg")

	code, _, stderr := runCLI("warp", "-score", ws.score, "-maps", ws.maps, "-out", out, "-config", ws.dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "scorewarper:")
	assert.NoFileExists(t, out)
	assert.NoDirExists(t, ws.runsDir)
}

func TestPositionsCommand(t *testing.T) {
	ws := newWorkspace(t)
	out := filepath.Join(ws.dir, "positions.json")

	code, _, stderr := runCLI("positions", "-score", ws.score, "-maps", ws.maps, "-out", out, "-config", ws.dir)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var derived core.Derived
	require.NoError(t, json.Unmarshal(data, &derived))

	require.Len(t, derived.Samples, 3)
	assert.Equal(t, 350.0, derived.Samples[1].TargetDrawingX)
	assert.Equal(t, "unwarped", derived.State)
	assert.Equal(t, 0.0, derived.FirstOnset)
	assert.Equal(t, 2.0, derived.LastOnset)
	assert.Len(t, derived.Displacement, 1000)
}

func TestPositionsCommand_Stdout(t *testing.T) {
	ws := newWorkspace(t)

	code, stdout, stderr := runCLI("positions", "-score", ws.score, "-maps", ws.maps, "-config", ws.dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"targetDrawingX": 350`)
}

func TestRunsCommand(t *testing.T) {
	ws := newWorkspace(t)
	out := filepath.Join(ws.dir, "warped.svg")
	code, _, stderr := runCLI("warp", "-score", ws.score, "-maps", ws.maps, "-out", out, "-config", ws.dir)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runCLI("runs", "-config", ws.dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "SCORE")
	assert.Contains(t, stdout, "score.svg")
	assert.Contains(t, stdout, "primary-warped")

	code, stdout, stderr = runCLI("runs", "-json", "-config", ws.dir)
	require.Equal(t, 0, code, stderr)
	var runs []core.WarpRun
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, uint(1), runs[0].ID)
}

func TestCreateStorageBackend(t *testing.T) {
	logManager := logging.NewSlogManager()

	b, err := createStorageBackend(config.StorageConfig{Type: "memory"}, logManager)
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{Type: "sqlite"}, logManager)
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)

	_, err = createStorageBackend(config.StorageConfig{Type: "cassette"}, logManager)
	assert.Error(t, err)
}
