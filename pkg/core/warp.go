// pkg/core/warp.go
package core

import (
	"math"
	"time"
)

// PageGeometry describes how drawing space maps onto the rendered page.
type PageGeometry struct {
	WidthPx       float64
	HeightPx      float64
	ViewBoxX      float64
	ViewBoxY      float64
	ViewBoxWidth  float64
	ViewBoxHeight float64
	MarginOffset  float64 // horizontal component of the page-margin translation
}

// ToScreen converts a drawing-space x position to page pixels.
func (g PageGeometry) ToScreen(drawingX float64) float64 {
	return (drawingX + g.MarginOffset) * g.WidthPx / g.ViewBoxWidth
}

// DrawableWidth is the size of the displacement domain in drawing units.
func (g PageGeometry) DrawableWidth() int {
	return int(math.Ceil(g.ViewBoxWidth))
}

// PositionSample holds the derived positions of one event in the active range.
// Missing samples keep their slot so that index k lines up across every
// derived array; their DrawingX and ScreenX are zero and carry no meaning.
//
// DrawingX is the anchor of the event's primary element: its notehead's left
// edge, or, when that element is a note inside a chord, the median notehead
// position of the whole chord. Overlays that need the exact notehead of a
// chord member must measure it themselves.
type PositionSample struct {
	EventIndex     int     `json:"eventIndex"`
	PrimaryID      string  `json:"primaryId"`
	OnsetSeconds   float64 `json:"onsetSeconds"`
	DrawingX       float64 `json:"drawingX"`
	ScreenX        float64 `json:"screenX"`
	TargetDrawingX float64 `json:"targetDrawingX"`
	TargetScreenX  float64 `json:"targetScreenX"`
	Missing        bool    `json:"missing,omitempty"`
}

// WarpState is the lifecycle phase of a loaded scene.
type WarpState int

const (
	StateUnwarped WarpState = iota
	StatePrimaryWarped
	StateIndividuallyAdjusted
)

func (s WarpState) String() string {
	switch s {
	case StateUnwarped:
		return "unwarped"
	case StatePrimaryWarped:
		return "primary-warped"
	case StateIndividuallyAdjusted:
		return "individually-adjusted"
	default:
		return "unknown"
	}
}

// ApplyStats counts what a pass over the scene did.
type ApplyStats struct {
	Shifted        int            `json:"shifted"`
	Skipped        int            `json:"skipped"`
	ShiftedByKind  map[string]int `json:"shiftedByKind,omitempty"`
	SkippedByKind  map[string]int `json:"skippedByKind,omitempty"`
	NotesAdjusted  int            `json:"notesAdjusted,omitempty"`
	NotesUnmatched int            `json:"notesUnmatched,omitempty"`
}

// AddShifted records a displaced primitive of the given kind.
func (s *ApplyStats) AddShifted(kind string) {
	if s.ShiftedByKind == nil {
		s.ShiftedByKind = make(map[string]int)
	}
	s.Shifted++
	s.ShiftedByKind[kind]++
}

// AddSkipped records a primitive left untouched by a defensive no-op.
func (s *ApplyStats) AddSkipped(kind string) {
	if s.SkippedByKind == nil {
		s.SkippedByKind = make(map[string]int)
	}
	s.Skipped++
	s.SkippedByKind[kind]++
}

// Derived bundles the read-only outputs of a scene load for overlay consumers.
// All fields are invalidated together when a new scene is loaded.
type Derived struct {
	Geometry      PageGeometry     `json:"geometry"`
	Range         ActiveRange      `json:"range"`
	Samples       []PositionSample `json:"samples"`
	FirstOnset    float64          `json:"firstOnset"`
	LastOnset     float64          `json:"lastOnset"`
	FirstScreenX  float64          `json:"firstScreenX"`
	LastScreenX   float64          `json:"lastScreenX"`
	Displacement  []float64        `json:"displacement,omitempty"`
	State         string           `json:"state"`
	MissingEvents []string         `json:"missingEvents,omitempty"`
}

// WarpRun is the persisted summary of one warp invocation.
type WarpRun struct {
	ID              uint
	ScoreName       string
	PerformanceName string
	StartTime       time.Time
	Duration        time.Duration
	Range           ActiveRange
	Resolved        int
	Missing         int
	State           WarpState
	Stats           ApplyStats
	Samples         []PositionSample
	Displacement    []float64
}
