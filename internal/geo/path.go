package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// pathArity is the number of parameters each SVG path command consumes.
var pathArity = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7, 'Z': 0,
}

func isPathCommand(c byte) bool {
	if c == 'e' || c == 'E' {
		return false
	}
	_, ok := pathArity[c&^0x20]
	return ok
}

// ParsePathData walks an SVG path "d" attribute and returns the absolute
// positions of every end point and control point it names. Curves are bounded
// by their control polygon, which is enough for horizontal extents.
func ParsePathData(d string) (geom.Sequence, error) {
	var flat []float64
	var cx, cy, sx, sy float64
	i := 0
	for i < len(d) {
		c := d[i]
		if c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		if !isPathCommand(c) {
			return geom.Sequence{}, fmt.Errorf("%w: unknown path command %q", ErrInvalidCoordinates, c)
		}
		upper := c &^ 0x20
		arity := pathArity[upper]
		rel := c != upper
		i++
		j := i
		for j < len(d) && !isPathCommand(d[j]) {
			j++
		}
		args, err := ParseNumbers(d[i:j])
		if err != nil {
			return geom.Sequence{}, err
		}
		i = j

		if upper == 'Z' {
			cx, cy = sx, sy
			continue
		}
		if len(args) == 0 || len(args)%arity != 0 {
			return geom.Sequence{}, fmt.Errorf("%w: command %q takes %d values, got %d", ErrInvalidCoordinates, c, arity, len(args))
		}

		for k := 0; k < len(args); k += arity {
			a := args[k : k+arity]
			ox, oy := 0.0, 0.0
			if rel {
				ox, oy = cx, cy
			}
			switch upper {
			case 'H':
				cx = a[0] + ox
			case 'V':
				cy = a[0] + oy
			case 'A':
				// radii, rotation and flags are not positions
				cx, cy = a[5]+ox, a[6]+oy
			default:
				for p := 0; p < arity-2; p += 2 {
					flat = append(flat, a[p]+ox, a[p+1]+oy)
				}
				cx, cy = a[arity-2]+ox, a[arity-1]+oy
			}
			flat = append(flat, cx, cy)
			if upper == 'M' && k == 0 {
				sx, sy = cx, cy
			}
		}
	}
	if len(flat) == 0 {
		return geom.Sequence{}, fmt.Errorf("%w: empty path", ErrInvalidCoordinates)
	}
	return geom.NewSequence(flat, geom.DimXY), nil
}
