// Package convert maps run history between core types and GORM models
package convert

import (
	"encoding/json"
	"time"

	"github.com/scorewarp/scorewarper/internal/model"
	"github.com/scorewarp/scorewarper/pkg/core"
	"gorm.io/datatypes"
)

// CoreToWarpRun converts a core.WarpRun to its GORM model.
// The core ID is carried over so that updates address the same row.
func CoreToWarpRun(r core.WarpRun) model.WarpRun {
	out := model.WarpRun{
		ScoreName:       r.ScoreName,
		PerformanceName: r.PerformanceName,
		StartTime:       r.StartTime,
		DurationMs:      float64(r.Duration) / float64(time.Millisecond),
		FirstOnsetIndex: r.Range.FirstOnsetIndex,
		LastOnsetIndex:  r.Range.LastOnsetIndex,
		Resolved:        r.Resolved,
		Missing:         r.Missing,
		State:           r.State.String(),
		Shifted:         r.Stats.Shifted,
		Skipped:         r.Stats.Skipped,
		ShiftedByKind:   marshalJSON(r.Stats.ShiftedByKind),
		SkippedByKind:   marshalJSON(r.Stats.SkippedByKind),
		NotesAdjusted:   r.Stats.NotesAdjusted,
		NotesUnmatched:  r.Stats.NotesUnmatched,
		Displacement:    marshalJSON(r.Displacement),
		Samples:         make([]model.PositionSample, len(r.Samples)),
	}
	out.ID = r.ID
	for i, s := range r.Samples {
		out.Samples[i] = CoreToPositionSample(s)
	}
	return out
}

// CoreToPositionSample converts a core.PositionSample to its GORM model.
func CoreToPositionSample(s core.PositionSample) model.PositionSample {
	return model.PositionSample{
		EventIndex:     s.EventIndex,
		PrimaryID:      s.PrimaryID,
		OnsetSeconds:   s.OnsetSeconds,
		DrawingX:       s.DrawingX,
		ScreenX:        s.ScreenX,
		TargetDrawingX: s.TargetDrawingX,
		TargetScreenX:  s.TargetScreenX,
		Missing:        s.Missing,
	}
}

// WarpRunToCore converts a GORM WarpRun to a core.WarpRun.
// Malformed JSON columns decode to empty values.
func WarpRunToCore(r model.WarpRun) core.WarpRun {
	out := core.WarpRun{
		ID:              r.ID,
		ScoreName:       r.ScoreName,
		PerformanceName: r.PerformanceName,
		StartTime:       r.StartTime,
		Duration:        time.Duration(r.DurationMs * float64(time.Millisecond)),
		Range: core.ActiveRange{
			FirstOnsetIndex: r.FirstOnsetIndex,
			LastOnsetIndex:  r.LastOnsetIndex,
		},
		Resolved: r.Resolved,
		Missing:  r.Missing,
		State:    ParseWarpState(r.State),
		Stats: core.ApplyStats{
			Shifted:        r.Shifted,
			Skipped:        r.Skipped,
			NotesAdjusted:  r.NotesAdjusted,
			NotesUnmatched: r.NotesUnmatched,
		},
	}
	if len(r.ShiftedByKind) > 0 {
		_ = json.Unmarshal(r.ShiftedByKind, &out.Stats.ShiftedByKind)
	}
	if len(r.SkippedByKind) > 0 {
		_ = json.Unmarshal(r.SkippedByKind, &out.Stats.SkippedByKind)
	}
	if len(r.Displacement) > 0 {
		_ = json.Unmarshal(r.Displacement, &out.Displacement)
	}
	if len(r.Samples) > 0 {
		out.Samples = make([]core.PositionSample, len(r.Samples))
		for i, s := range r.Samples {
			out.Samples[i] = PositionSampleToCore(s)
		}
	}
	return out
}

// PositionSampleToCore converts a GORM PositionSample to a core.PositionSample.
func PositionSampleToCore(s model.PositionSample) core.PositionSample {
	return core.PositionSample{
		EventIndex:     s.EventIndex,
		PrimaryID:      s.PrimaryID,
		OnsetSeconds:   s.OnsetSeconds,
		DrawingX:       s.DrawingX,
		ScreenX:        s.ScreenX,
		TargetDrawingX: s.TargetDrawingX,
		TargetScreenX:  s.TargetScreenX,
		Missing:        s.Missing,
	}
}

// ParseWarpState is the inverse of core.WarpState.String.
// Unknown names map to core.StateUnwarped.
func ParseWarpState(s string) core.WarpState {
	switch s {
	case core.StatePrimaryWarped.String():
		return core.StatePrimaryWarped
	case core.StateIndividuallyAdjusted.String():
		return core.StateIndividuallyAdjusted
	default:
		return core.StateUnwarped
	}
}

func marshalJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
