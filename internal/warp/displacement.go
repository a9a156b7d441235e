package warp

import (
	"github.com/scorewarp/scorewarper/internal/util"
)

// DisplacementFunction maps every integer drawing-space x in [0, len) to the
// horizontal offset that moves x to its warped position.
type DisplacementFunction []float64

// BuildDisplacement builds the displacement over [0, width) from parallel
// arrays of sample positions and their targets. Between two samples the
// displacement is interpolated linearly; before the first and after the last
// sample it holds the boundary sample's value. A non-finite value holds the
// last finite one. The inputs are not modified.
//
// xs must be non-decreasing; equal positions are allowed and the later
// sample wins.
func BuildDisplacement(xs, targets []float64, width int) DisplacementFunction {
	if width <= 0 {
		return DisplacementFunction{}
	}
	fn := make(DisplacementFunction, width)
	n := min(len(xs), len(targets))
	if n == 0 {
		return fn
	}

	disp := func(k int) float64 { return targets[k] - xs[k] }

	j := 0
	held := 0.0
	for x := range width {
		fx := float64(x)
		for j < n && xs[j] <= fx {
			j++
		}

		var d float64
		switch {
		case j == 0:
			d = disp(0)
		case j == n:
			d = disp(n - 1)
		case xs[j-1] == fx:
			d = disp(j - 1)
		default:
			x0, x1 := xs[j-1], xs[j]
			t := (fx - x0) / (x1 - x0)
			d = disp(j-1) + t*(disp(j)-disp(j-1))
		}

		if !util.IsFinite(d) {
			d = held
		}
		held = d
		fn[x] = d
	}
	return fn
}

// At returns the displacement for a drawing-space x, rounding to the nearest
// integer and clamping into the domain. An empty function, or a non-finite x,
// yields no displacement.
func (fn DisplacementFunction) At(x float64) float64 {
	i, ok := util.RoundIndex(x, len(fn))
	if !ok {
		return 0
	}
	return fn[i]
}

// Width is the size of the function's domain.
func (fn DisplacementFunction) Width() int {
	return len(fn)
}
