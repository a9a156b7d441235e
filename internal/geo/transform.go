package geo

import (
	"fmt"
	"math"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Matrix is a 2D affine transform in SVG order:
// x' = A*x + C*y + E, y' = B*x + D*y + F.
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity is the transform that leaves every point in place.
var Identity = Matrix{A: 1, D: 1}

// Apply maps xy through m.
func (m Matrix) Apply(xy geom.XY) geom.XY {
	return geom.XY{
		X: m.A*xy.X + m.C*xy.Y + m.E,
		Y: m.B*xy.X + m.D*xy.Y + m.F,
	}
}

// Mul returns m·n, the transform that applies n first and then m.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// TransformOp is a single entry of an SVG transform list, e.g. translate(10, 0).
type TransformOp struct {
	Name string
	Args []float64
}

// Matrix converts the op to its affine form.
func (op TransformOp) Matrix() (Matrix, error) {
	a := op.Args
	switch op.Name {
	case "translate":
		switch len(a) {
		case 1:
			return Matrix{A: 1, D: 1, E: a[0]}, nil
		case 2:
			return Matrix{A: 1, D: 1, E: a[0], F: a[1]}, nil
		}
	case "scale":
		switch len(a) {
		case 1:
			return Matrix{A: a[0], D: a[0]}, nil
		case 2:
			return Matrix{A: a[0], D: a[1]}, nil
		}
	case "matrix":
		if len(a) == 6 {
			return Matrix{A: a[0], B: a[1], C: a[2], D: a[3], E: a[4], F: a[5]}, nil
		}
	case "rotate":
		if len(a) == 1 || len(a) == 3 {
			rad := a[0] * math.Pi / 180
			sin, cos := math.Sincos(rad)
			r := Matrix{A: cos, B: sin, C: -sin, D: cos}
			if len(a) == 3 {
				to := Matrix{A: 1, D: 1, E: a[1], F: a[2]}
				back := Matrix{A: 1, D: 1, E: -a[1], F: -a[2]}
				return to.Mul(r).Mul(back), nil
			}
			return r, nil
		}
	case "skewX":
		if len(a) == 1 {
			return Matrix{A: 1, C: math.Tan(a[0] * math.Pi / 180), D: 1}, nil
		}
	case "skewY":
		if len(a) == 1 {
			return Matrix{A: 1, B: math.Tan(a[0] * math.Pi / 180), D: 1}, nil
		}
	default:
		return Identity, fmt.Errorf("unknown transform %q", op.Name)
	}
	return Identity, fmt.Errorf("transform %s takes a different number of arguments than %d", op.Name, len(a))
}

func (op TransformOp) String() string {
	parts := make([]string, len(op.Args))
	for i, v := range op.Args {
		parts[i] = formatNumber(v)
	}
	return op.Name + "(" + strings.Join(parts, ", ") + ")"
}

// TransformList is a parsed SVG "transform" attribute.
type TransformList []TransformOp

// ParseTransform parses an SVG transform attribute. An empty string yields an empty list.
func ParseTransform(s string) (TransformList, error) {
	var list TransformList
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open <= 0 || closing < open {
			return nil, fmt.Errorf("malformed transform %q", s)
		}
		name := strings.TrimSpace(rest[:open])
		args, err := ParseNumbers(rest[open+1 : closing])
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", name, err)
		}
		op := TransformOp{Name: name, Args: args}
		if _, err := op.Matrix(); err != nil {
			return nil, err
		}
		list = append(list, op)
		rest = strings.TrimLeft(rest[closing+1:], " ,\t\n")
	}
	return list, nil
}

// Matrix composes the list left to right, as SVG does.
func (l TransformList) Matrix() Matrix {
	m := Identity
	for _, op := range l {
		// ops were validated by ParseTransform
		opm, _ := op.Matrix()
		m = m.Mul(opm)
	}
	return m
}

// LeadingTranslateX returns the x component of a leading translate op.
func (l TransformList) LeadingTranslateX() (float64, bool) {
	if len(l) == 0 || l[0].Name != "translate" || len(l[0].Args) == 0 {
		return 0, false
	}
	return l[0].Args[0], true
}

// AddTranslateX accumulates dx into a leading translate, inserting one when
// the list does not start with a translation. Other ops are kept as they are.
func (l TransformList) AddTranslateX(dx float64) TransformList {
	if len(l) > 0 && l[0].Name == "translate" && len(l[0].Args) > 0 {
		out := make(TransformList, len(l))
		copy(out, l)
		args := append([]float64(nil), l[0].Args...)
		args[0] += dx
		if len(args) == 1 {
			args = append(args, 0)
		}
		out[0] = TransformOp{Name: "translate", Args: args}
		return out
	}
	return append(TransformList{{Name: "translate", Args: []float64{dx, 0}}}, l...)
}

func (l TransformList) String() string {
	parts := make([]string, len(l))
	for i, op := range l {
		parts[i] = op.String()
	}
	return strings.Join(parts, " ")
}

// formatNumber keeps serialized transforms short and stable across runs.
func formatNumber(f float64) string {
	s := fmt.Sprintf("%.4f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
