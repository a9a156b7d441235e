package geo

import (
	"errors"
	"fmt"
	"strconv"

	geom "github.com/peterstace/simplefeatures/geom"
)

// SVG coordinates are planar drawing units; every geometry built here is XY only.
// Horizontal extents are read back from simplefeatures envelopes.

// ErrInvalidCoordinates is returned when a coordinate list cannot be parsed
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ParseNumbers scans an SVG number list. Separators may be commas, whitespace,
// or nothing at all when a sign or second decimal point starts the next number
// ("10-20", "1.5.5").
func ParseNumbers(s string) ([]float64, error) {
	var out []float64
	i := 0
	for i < len(s) {
		c := s[i]
		if c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		start := i
		if c == '+' || c == '-' {
			i++
		}
		seenDot, seenExp, digits := false, false, false
	scan:
		for i < len(s) {
			c = s[i]
			switch {
			case c >= '0' && c <= '9':
				digits = true
			case c == '.' && !seenDot && !seenExp:
				seenDot = true
			case (c == 'e' || c == 'E') && digits && !seenExp:
				seenExp = true
				if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
					i++
				}
			default:
				break scan
			}
			i++
		}
		if !digits {
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrInvalidCoordinates, s[start:min(start+1, len(s))], start)
		}
		v, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			return nil, ErrInvalidCoordinates
		}
		out = append(out, v)
	}
	return out, nil
}

// ParsePoints parses a polygon/polyline "points" attribute ("x1,y1 x2,y2 ...")
// into a coordinate sequence.
func ParsePoints(points string) (geom.Sequence, error) {
	nums, err := ParseNumbers(points)
	if err != nil {
		return geom.Sequence{}, err
	}
	if len(nums) == 0 || len(nums)%2 != 0 {
		return geom.Sequence{}, fmt.Errorf("%w: %d values in point list", ErrInvalidCoordinates, len(nums))
	}
	return geom.NewSequence(nums, geom.DimXY), nil
}

// SequenceEnvelope returns the bounding envelope of every coordinate in seq,
// after mapping each one through t. Non-finite points are left out.
func SequenceEnvelope(seq geom.Sequence, t Matrix) geom.Envelope {
	var env geom.Envelope
	for i := 0; i < seq.Length(); i++ {
		env = ExtendEnvelope(env, t.Apply(seq.Get(i).XY))
	}
	return env
}

// ExtendEnvelope grows env to cover xy. A NaN or infinite point leaves env
// unchanged.
func ExtendEnvelope(env geom.Envelope, xy geom.XY) geom.Envelope {
	ext, err := env.ExtendToIncludeXY(xy)
	if err != nil {
		return env
	}
	return ext
}

// HorizontalExtent returns the min and max x of env. ok is false for an empty envelope.
func HorizontalExtent(env geom.Envelope) (minX, maxX float64, ok bool) {
	lo, hi, ok := env.MinMaxXYs()
	if !ok {
		return 0, 0, false
	}
	return lo.X, hi.X, true
}
