package scene

import "errors"

var (
	// ErrMissingGeometry is returned when the page size or viewbox cannot be read.
	ErrMissingGeometry = errors.New("scene is missing page geometry")

	// ErrNoPageMargin is returned when the page-margin container is absent.
	ErrNoPageMargin = errors.New("scene has no page-margin container")

	// ErrNotSVG is returned when the document root is not an svg element.
	ErrNotSVG = errors.New("document root is not an svg element")
)
