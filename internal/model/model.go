package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&WarpRun{},
	&PositionSample{},
}

////////////////////////
// RUN HISTORY MODELS
////////////////////////

// WarpRun is one recorded invocation of the warping engine
type WarpRun struct {
	gorm.Model
	ScoreName       string         `json:"scoreName" gorm:"size:255;index:idx_warprun_score"`
	PerformanceName string         `json:"performanceName" gorm:"size:255"`
	StartTime       time.Time      `json:"startTime" gorm:"index:idx_warprun_start_time"`
	DurationMs      float64        `json:"durationMs"`
	FirstOnsetIndex int            `json:"firstOnsetIndex"`
	LastOnsetIndex  int            `json:"lastOnsetIndex"`
	Resolved        int            `json:"resolved"`
	Missing         int            `json:"missing"`
	State           string         `json:"state" gorm:"size:32"`
	Shifted         int            `json:"shifted"`
	Skipped         int            `json:"skipped"`
	ShiftedByKind   datatypes.JSON `json:"shiftedByKind"`
	SkippedByKind   datatypes.JSON `json:"skippedByKind"`
	NotesAdjusted   int            `json:"notesAdjusted"`
	NotesUnmatched  int            `json:"notesUnmatched"`
	// Displacement is stored as a JSON array, one value per drawing unit.
	Displacement datatypes.JSON   `json:"displacement"`
	Samples      []PositionSample `json:"samples" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:WarpRunID;"`
}

func (*WarpRun) TableName() string {
	return "warp_runs"
}

// PositionSample is the derived position of one event in a recorded run
type PositionSample struct {
	ID             uint    `json:"id" gorm:"primarykey;autoIncrement;"`
	WarpRunID      uint    `json:"warpRunId" gorm:"index:idx_positionsample_run_id"`
	EventIndex     int     `json:"eventIndex"`
	PrimaryID      string  `json:"primaryId" gorm:"size:127"`
	OnsetSeconds   float64 `json:"onsetSeconds"`
	DrawingX       float64 `json:"drawingX"`
	ScreenX        float64 `json:"screenX"`
	TargetDrawingX float64 `json:"targetDrawingX"`
	TargetScreenX  float64 `json:"targetScreenX"`
	Missing        bool    `json:"missing"`
}

func (*PositionSample) TableName() string {
	return "position_samples"
}
