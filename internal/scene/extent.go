package scene

import (
	"strings"

	"github.com/beevik/etree"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/scorewarp/scorewarper/internal/geo"
	"github.com/scorewarp/scorewarper/internal/util"
)

// symbolGlyph is the horizontal footprint of a referenced glyph, in the
// symbol's own viewBox units.
type symbolGlyph struct {
	vbMinX, vbWidth float64
	minX, maxX      float64
}

// nonRendered subtrees hold definitions, never positioned geometry.
var nonRendered = map[string]bool{
	"defs": true, "symbol": true, "clipPath": true, "mask": true,
	"title": true, "desc": true, "metadata": true, "style": true,
}

func (s *Scene) indexSymbols() {
	for _, sym := range s.root.FindElements(".//symbol") {
		id := ID(sym)
		if id == "" {
			continue
		}
		vb, err := geo.ParseNumbers(sym.SelectAttrValue("viewBox", ""))
		if err != nil || len(vb) != 4 || vb[2] <= 0 {
			continue
		}
		var env geom.Envelope
		for _, c := range sym.ChildElements() {
			env = s.expand(c, s.original[c].Matrix(), env)
		}
		minX, maxX, ok := geo.HorizontalExtent(env)
		if !ok {
			continue
		}
		s.symbols[id] = symbolGlyph{vbMinX: vb[0], vbWidth: vb[2], minX: minX, maxX: maxX}
	}
}

// Extent returns the horizontal extent of e in its parent's coordinate
// system, as engraved. The element's own transform and anything the warp
// added are ignored; transforms of its descendants are honoured.
func (s *Scene) Extent(e *etree.Element) (minX, maxX float64, ok bool) {
	return geo.HorizontalExtent(s.expand(e, geo.Identity, geom.Envelope{}))
}

func (s *Scene) expand(e *etree.Element, m geo.Matrix, env geom.Envelope) geom.Envelope {
	if nonRendered[e.Tag] {
		return env
	}
	for _, xy := range s.ownPoints(e) {
		env = geo.ExtendEnvelope(env, m.Apply(xy))
	}
	if e.Tag == "text" {
		// tspans share the text anchor already counted above
		return env
	}
	for _, c := range e.ChildElements() {
		cm := m
		if t, ok := s.original[c]; ok {
			cm = m.Mul(t.Matrix())
		}
		env = s.expand(c, cm, env)
	}
	return env
}

// ownPoints returns the positioned points an element draws itself, before
// its own transform.
func (s *Scene) ownPoints(e *etree.Element) []geom.XY {
	attr := func(k string) (float64, bool) {
		v, err := util.ParseLength(e.SelectAttrValue(k, ""))
		return v, err == nil
	}
	switch e.Tag {
	case "use":
		return s.usePoints(e)
	case "path":
		seq, err := geo.ParsePathData(e.SelectAttrValue("d", ""))
		if err != nil {
			return nil
		}
		return seqPoints(seq)
	case "polygon", "polyline":
		seq, err := geo.ParsePoints(e.SelectAttrValue("points", ""))
		if err != nil {
			return nil
		}
		return seqPoints(seq)
	case "rect":
		x, okX := attr("x")
		if !okX {
			x = 0
		}
		y, _ := attr("y")
		w, _ := attr("width")
		return []geom.XY{{X: x, Y: y}, {X: x + w, Y: y}}
	case "circle":
		cx, _ := attr("cx")
		cy, _ := attr("cy")
		r, _ := attr("r")
		return []geom.XY{{X: cx - r, Y: cy}, {X: cx + r, Y: cy}}
	case "ellipse":
		cx, _ := attr("cx")
		cy, _ := attr("cy")
		rx, _ := attr("rx")
		return []geom.XY{{X: cx - rx, Y: cy}, {X: cx + rx, Y: cy}}
	case "line":
		x1, _ := attr("x1")
		y1, _ := attr("y1")
		x2, _ := attr("x2")
		y2, _ := attr("y2")
		return []geom.XY{{X: x1, Y: y1}, {X: x2, Y: y2}}
	case "text":
		return textPoints(e)
	}
	return nil
}

func (s *Scene) usePoints(e *etree.Element) []geom.XY {
	x, err := util.ParseLength(e.SelectAttrValue("x", "0"))
	if err != nil {
		return nil
	}
	y, _ := util.ParseLength(e.SelectAttrValue("y", "0"))
	ref := e.SelectAttrValue("xlink:href", e.SelectAttrValue("href", ""))
	glyph, ok := s.symbols[strings.TrimPrefix(ref, "#")]
	if !ok {
		return []geom.XY{{X: x, Y: y}}
	}
	scale := 1.0
	if w, err := util.ParseLength(e.SelectAttrValue("width", "")); err == nil && w > 0 {
		scale = w / glyph.vbWidth
	}
	return []geom.XY{
		{X: x + (glyph.minX-glyph.vbMinX)*scale, Y: y},
		{X: x + (glyph.maxX-glyph.vbMinX)*scale, Y: y},
	}
}

func textPoints(e *etree.Element) []geom.XY {
	var pts []geom.XY
	collect := func(el *etree.Element) {
		xs, err := geo.ParseNumbers(el.SelectAttrValue("x", ""))
		if err != nil {
			return
		}
		y := 0.0
		if ys, err := geo.ParseNumbers(el.SelectAttrValue("y", "")); err == nil && len(ys) > 0 {
			y = ys[0]
		}
		for _, x := range xs {
			pts = append(pts, geom.XY{X: x, Y: y})
		}
	}
	collect(e)
	for _, t := range e.FindElements(".//tspan") {
		collect(t)
	}
	return pts
}

func seqPoints(seq geom.Sequence) []geom.XY {
	pts := make([]geom.XY, seq.Length())
	for i := range pts {
		pts[i] = seq.Get(i).XY
	}
	return pts
}

// NoteheadAnchor returns the drawing-space x of a note's notehead glyph: the
// x attribute of the first use inside its notehead group, mapped through the
// engraved transforms up to the page margin. Notes without a notehead fall
// back to the left edge of their extent.
func (s *Scene) NoteheadAnchor(note *etree.Element) (float64, bool) {
	if head := childWithClass(note, "notehead"); head != nil {
		if use := head.FindElement(".//use"); use != nil {
			if x, err := util.ParseLength(use.SelectAttrValue("x", "")); err == nil {
				m := geo.Identity
				for p := use; p != nil && p != s.margin; p = p.Parent() {
					if t, ok := s.original[p]; ok {
						m = t.Matrix().Mul(m)
					}
				}
				return m.Apply(geom.XY{X: x}).X, true
			}
		}
	}
	minX, _, ok := s.DrawingExtent(note)
	return minX, ok
}

// EventAnchor is the drawing-space position an alignment identifier stands
// for. Notes inside a chord share the chord's median anchor so that members
// of one sonority read as a single column.
func (s *Scene) EventAnchor(e *etree.Element) (float64, bool) {
	if hasClass(e, "chord") {
		return s.ChordAnchor(e)
	}
	if hasClass(e, "note") {
		if c := enclosingChord(e); c != nil {
			return s.ChordAnchor(c)
		}
	}
	return s.NoteheadAnchor(e)
}

// NoteheadWidths returns the rendered width of every notehead glyph in the scene.
func (s *Scene) NoteheadWidths() []float64 {
	var widths []float64
	for _, head := range s.root.FindElements(".//g[@class]") {
		if !hasClass(head, "notehead") {
			continue
		}
		if minX, maxX, ok := s.Extent(head); ok && maxX > minX {
			widths = append(widths, maxX-minX)
		}
	}
	return widths
}

// ChordAnchor is the median notehead position of the chord's member notes.
// The median keeps displaced seconds and clusters from dragging the anchor.
func (s *Scene) ChordAnchor(chord *etree.Element) (float64, bool) {
	var xs []float64
	for _, n := range s.ChordMembers(chord) {
		if x, ok := s.NoteheadAnchor(n); ok {
			xs = append(xs, x)
		}
	}
	if len(xs) == 0 {
		return 0, false
	}
	return util.Median(xs), true
}

// ChordMembers returns the notes inside a chord group, in document order.
func (s *Scene) ChordMembers(chord *etree.Element) []*etree.Element {
	var notes []*etree.Element
	walk(chord, func(e *etree.Element) bool {
		if e != chord && e.Tag == "g" && hasClass(e, "note") {
			notes = append(notes, e)
			return false
		}
		return true
	})
	return notes
}

func childWithClass(e *etree.Element, name string) *etree.Element {
	for _, c := range e.ChildElements() {
		if hasClass(c, name) {
			return c
		}
	}
	return nil
}

// walk visits e and its descendants depth first; returning false from fn
// skips the element's children.
func walk(e *etree.Element, fn func(*etree.Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.ChildElements() {
		walk(c, fn)
	}
}
