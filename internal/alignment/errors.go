package alignment

import "errors"

var (
	// ErrEmptyDataset is returned when an alignment dataset holds no events.
	ErrEmptyDataset = errors.New("alignment dataset is empty")

	// ErrNoActiveRange is returned when every event is a boundary or padding entry.
	ErrNoActiveRange = errors.New("alignment dataset has no playable events")

	// ErrMalformedRecord is returned for records without identifiers.
	ErrMalformedRecord = errors.New("malformed alignment record")
)
