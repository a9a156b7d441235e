// pkg/core/alignment.go
package core

// AlignmentEvent is one notated event with a known performance onset.
// Chord notes played together share an event and list several identifiers;
// the first identifier is the primary one used for position lookups.
type AlignmentEvent struct {
	ObsNum       int
	EventIDs     []string
	OnsetSeconds float64
}

// PrimaryID returns the first identifier of the event, or "" if it has none.
func (e AlignmentEvent) PrimaryID() string {
	if len(e.EventIDs) == 0 {
		return ""
	}
	return e.EventIDs[0]
}

// ActiveRange bounds the playable subsequence of an alignment dataset.
// Both indices are inclusive.
type ActiveRange struct {
	FirstOnsetIndex int
	LastOnsetIndex  int
}

// Len returns the number of events covered by the range.
func (r ActiveRange) Len() int {
	return r.LastOnsetIndex - r.FirstOnsetIndex + 1
}

// Contains reports whether dataset index i lies inside the range.
func (r ActiveRange) Contains(i int) bool {
	return i >= r.FirstOnsetIndex && i <= r.LastOnsetIndex
}
