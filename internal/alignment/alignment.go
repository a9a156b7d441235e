// Package alignment loads performance-to-score alignment datasets and finds
// their active range: the playable events between leading boundary entries
// (negative onsets) and trailing synthetic padding entries.
package alignment

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/scorewarp/scorewarper/internal/util"
	"github.com/scorewarp/scorewarper/pkg/core"
)

// DefaultSyntheticPattern marks padding events appended after the last played note.
const DefaultSyntheticPattern = "trailing"

// record is one entry of the maps file.
type record struct {
	ObsNum       int      `json:"obs_num"`
	ObsMeanOnset *float64 `json:"obs_mean_onset"`
	XMLID        []string `json:"xml_id"`
}

// LoadFile reads a dataset from a JSON maps file.
func LoadFile(path string) ([]core.AlignmentEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a JSON array of alignment records.
func Load(r io.Reader) ([]core.AlignmentEvent, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode alignment dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	events := make([]core.AlignmentEvent, 0, len(records))
	for i, rec := range records {
		if len(rec.XMLID) == 0 {
			return nil, fmt.Errorf("%w: record %d has no identifiers", ErrMalformedRecord, i)
		}
		if rec.ObsMeanOnset == nil {
			return nil, fmt.Errorf("%w: record %d (%s) has no onset", ErrMalformedRecord, i, rec.XMLID[0])
		}
		events = append(events, core.AlignmentEvent{
			ObsNum:       rec.ObsNum,
			EventIDs:     rec.XMLID,
			OnsetSeconds: *rec.ObsMeanOnset,
		})
	}
	return events, nil
}

// SyntheticMatcher compiles the padding pattern, falling back to the default
// when pattern is empty.
func SyntheticMatcher(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = DefaultSyntheticPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid synthetic pattern %q: %w", pattern, err)
	}
	return re, nil
}

// ComputeActiveRange skips leading events whose onset is negative (or not a
// number) and trailing events whose primary identifier matches synthetic.
// A nil matcher excludes no trailing events.
func ComputeActiveRange(events []core.AlignmentEvent, synthetic *regexp.Regexp) (core.ActiveRange, error) {
	if len(events) == 0 {
		return core.ActiveRange{}, ErrEmptyDataset
	}

	first := 0
	for first < len(events) && isBoundary(events[first]) {
		first++
	}
	last := len(events) - 1
	for last >= first && synthetic != nil && synthetic.MatchString(events[last].PrimaryID()) {
		last--
	}
	if first > last {
		return core.ActiveRange{}, fmt.Errorf("%w: %d events, all excluded", ErrNoActiveRange, len(events))
	}
	return core.ActiveRange{FirstOnsetIndex: first, LastOnsetIndex: last}, nil
}

func isBoundary(e core.AlignmentEvent) bool {
	return !util.IsFinite(e.OnsetSeconds) || e.OnsetSeconds < 0
}
