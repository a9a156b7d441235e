// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scorewarp/scorewarper/internal/util"
	"github.com/scorewarp/scorewarper/pkg/core"
)

// RunExport is the root JSON structure of an exported run
type RunExport struct {
	ID              uint                  `json:"id"`
	ScoreName       string                `json:"scoreName"`
	PerformanceName string                `json:"performanceName"`
	StartTime       time.Time             `json:"startTime"`
	DurationMs      float64               `json:"durationMs"`
	Range           core.ActiveRange      `json:"range"`
	Resolved        int                   `json:"resolved"`
	Missing         int                   `json:"missing"`
	State           string                `json:"state"`
	Stats           core.ApplyStats       `json:"stats"`
	Samples         []core.PositionSample `json:"samples"`
	Displacement    []float64             `json:"displacement"`
}

func buildExport(run *core.WarpRun) RunExport {
	samples := run.Samples
	if samples == nil {
		samples = []core.PositionSample{}
	}
	displacement := run.Displacement
	if displacement == nil {
		displacement = []float64{}
	}
	return RunExport{
		ID:              run.ID,
		ScoreName:       run.ScoreName,
		PerformanceName: run.PerformanceName,
		StartTime:       run.StartTime,
		DurationMs:      float64(run.Duration) / float64(time.Millisecond),
		Range:           run.Range,
		Resolved:        run.Resolved,
		Missing:         run.Missing,
		State:           run.State.String(),
		Stats:           run.Stats,
		Samples:         samples,
		Displacement:    displacement,
	}
}

func (e RunExport) toCore() core.WarpRun {
	run := core.WarpRun{
		ID:              e.ID,
		ScoreName:       e.ScoreName,
		PerformanceName: e.PerformanceName,
		StartTime:       e.StartTime,
		Duration:        time.Duration(e.DurationMs * float64(time.Millisecond)),
		Range:           e.Range,
		Resolved:        e.Resolved,
		Missing:         e.Missing,
		Stats:           e.Stats,
		Samples:         e.Samples,
		Displacement:    e.Displacement,
	}
	for _, s := range []core.WarpState{core.StatePrimaryWarped, core.StateIndividuallyAdjusted} {
		if s.String() == e.State {
			run.State = s
		}
	}
	return run
}

// exportFileName builds "<score>_<timestamp>.json[.gz]"
func (b *Backend) exportFileName(run *core.WarpRun, attempt int) string {
	name := util.SafeFileName(run.ScoreName)
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%s", name, run.StartTime.Format("20060102_150405"))
	if attempt > 0 {
		base = fmt.Sprintf("%s_%d", base, attempt)
	}
	if b.cfg.CompressOutput {
		return base + ".json.gz"
	}
	return base + ".json"
}

// exportJSON writes the run to a new file in the output directory
func (b *Backend) exportJSON(run *core.WarpRun) error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// never overwrite an earlier run with the same score and second
	var outputPath string
	for attempt := 0; ; attempt++ {
		outputPath = filepath.Join(b.cfg.OutputDir, b.exportFileName(run, attempt))
		if _, err := os.Stat(outputPath); errors.Is(err, os.ErrNotExist) {
			break
		}
	}

	export := buildExport(run)
	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

// readExports decodes every export in the output directory. A missing directory is an empty history.
func (b *Backend) readExports() ([]core.WarpRun, error) {
	entries, err := os.ReadDir(b.cfg.OutputDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var runs []core.WarpRun
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz")) {
			continue
		}
		export, err := readExport(filepath.Join(b.cfg.OutputDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		runs = append(runs, export.toCore())
	}
	return runs, nil
}

func readExport(path string) (RunExport, error) {
	var export RunExport

	f, err := os.Open(path)
	if err != nil {
		return export, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return export, err
		}
		defer gz.Close()
		r = gz
	}

	err = json.NewDecoder(r).Decode(&export)
	return export, err
}

func writeJSON(path string, data RunExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data RunExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
