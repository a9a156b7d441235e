package scene

import (
	"github.com/beevik/etree"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/scorewarp/scorewarper/internal/geo"
)

// Kind is the closed set of displaceable primitive kinds.
type Kind int

const (
	KindNoteOrRest Kind = iota
	KindChord
	KindBeam
	KindArpeggio
	KindHairpin
	KindLedgerDash
	KindSpanPath
	KindGlyph
	kindCount
)

// Order is the fixed order in which kinds are displaced. Later kinds rely on
// containers of earlier kinds having been claimed already.
var Order = []Kind{
	KindNoteOrRest,
	KindChord,
	KindBeam,
	KindArpeggio,
	KindHairpin,
	KindLedgerDash,
	KindSpanPath,
	KindGlyph,
}

func (k Kind) String() string {
	switch k {
	case KindNoteOrRest:
		return "note"
	case KindChord:
		return "chord"
	case KindBeam:
		return "beam"
	case KindArpeggio:
		return "arpeggio"
	case KindHairpin:
		return "hairpin"
	case KindLedgerDash:
		return "ledger"
	case KindSpanPath:
		return "span"
	case KindGlyph:
		return "glyph"
	default:
		return "unknown"
	}
}

// Primitive is one classified element. Group is the enclosing ledgerLines,
// slur, tie or barLine group for dashes and span paths.
type Primitive struct {
	Kind   Kind
	Elem   *etree.Element
	Group  *etree.Element
	IsRest bool
}

// Inventory holds every displaceable primitive of a scene, bucketed by kind
// in document order.
type Inventory struct {
	byKind [kindCount][]Primitive
}

// Of returns the primitives of one kind.
func (inv *Inventory) Of(k Kind) []Primitive {
	if k < 0 || k >= kindCount {
		return nil
	}
	return inv.byKind[k]
}

// Len returns the total number of primitives.
func (inv *Inventory) Len() int {
	n := 0
	for _, b := range inv.byKind {
		n += len(b)
	}
	return n
}

func (inv *Inventory) add(p Primitive) {
	inv.byKind[p.Kind] = append(inv.byKind[p.Kind], p)
}

// container classes claim their whole subtree: nothing nested inside them is
// displaced on its own.
var containerKinds = map[string]Kind{
	"note":      KindNoteOrRest,
	"rest":      KindNoteOrRest,
	"mRest":     KindNoteOrRest,
	"multiRest": KindNoteOrRest,
	"chord":     KindChord,
	"arpeg":     KindArpeggio,
	"hairpin":   KindHairpin,
}

var spanClasses = map[string]bool{"slur": true, "tie": true, "barLine": true, "lv": true, "phrase": true}

var glyphTags = map[string]bool{"text": true, "rect": true, "circle": true, "ellipse": true, "use": true}

// Classify scans the page once and sorts every displaceable element into its kind.
func (s *Scene) Classify() *Inventory {
	inv := &Inventory{}
	for _, c := range s.margin.ChildElements() {
		s.classify(c, inv)
	}
	return inv
}

func (s *Scene) classify(e *etree.Element, inv *Inventory) {
	if nonRendered[e.Tag] {
		return
	}
	if e.Tag == "g" {
		for _, c := range classes(e) {
			if k, ok := containerKinds[c]; ok {
				inv.add(Primitive{Kind: k, Elem: e, IsRest: c != "note" && k == KindNoteOrRest})
				return
			}
		}
		for _, c := range classes(e) {
			switch {
			case c == "beam":
				inv.add(Primitive{Kind: KindBeam, Elem: e})
			case c == "ledgerLines":
				s.collectPaths(e, KindLedgerDash, inv)
				return
			case spanClasses[c]:
				s.collectPaths(e, KindSpanPath, inv)
				return
			}
		}
	}
	switch {
	case e.Tag == "line":
		inv.add(Primitive{Kind: KindSpanPath, Elem: e})
		return
	case glyphTags[e.Tag]:
		inv.add(Primitive{Kind: KindGlyph, Elem: e})
		return
	}
	for _, c := range e.ChildElements() {
		s.classify(c, inv)
	}
}

func (s *Scene) collectPaths(group *etree.Element, k Kind, inv *Inventory) {
	walk(group, func(e *etree.Element) bool {
		if e.Tag == "path" || e.Tag == "line" {
			inv.add(Primitive{Kind: k, Elem: e, Group: group})
			return false
		}
		return true
	})
}

// BeamSegments returns the polygons drawing a beam's bars, excluding
// anything owned by the notes and chords under the beam.
func (s *Scene) BeamSegments(beam *etree.Element) []*etree.Element {
	var segs []*etree.Element
	walk(beam, func(e *etree.Element) bool {
		if e != beam && e.Tag == "g" && (hasClass(e, "note") || hasClass(e, "chord") || hasClass(e, "beam")) {
			return false
		}
		if e.Tag == "polygon" {
			segs = append(segs, e)
		}
		return true
	})
	return segs
}

// Stem is a stem under a beam, with the note or chord it belongs to.
type Stem struct {
	X     float64 // drawing-space x of the stem line
	Owner *etree.Element
	Chord bool
}

// BeamStems returns the stems under a beam in document order.
func (s *Scene) BeamStems(beam *etree.Element) []Stem {
	var stems []Stem
	walk(beam, func(e *etree.Element) bool {
		if e.Tag != "g" || !hasClass(e, "stem") {
			return true
		}
		minX, _, ok := s.DrawingExtent(e)
		if !ok {
			return false
		}
		st := Stem{X: minX}
		for p := e.Parent(); p != nil && p != beam.Parent(); p = p.Parent() {
			if hasClass(p, "note") || hasClass(p, "chord") {
				st.Owner = p
				st.Chord = hasClass(p, "chord")
				break
			}
		}
		// a stem of a note inside a chord belongs to the chord
		if st.Owner != nil && !st.Chord {
			if c := enclosingChord(st.Owner); c != nil {
				st.Owner, st.Chord = c, true
			}
		}
		stems = append(stems, st)
		return false
	})
	return stems
}

func enclosingChord(e *etree.Element) *etree.Element {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p.Tag == "g" && hasClass(p, "chord") {
			return p
		}
	}
	return nil
}

// ParentToDrawing composes the engraved transforms of every ancestor of e
// below the page margin: it maps e's parent coordinates to drawing space.
func (s *Scene) ParentToDrawing(e *etree.Element) geo.Matrix {
	m := geo.Identity
	for p := e.Parent(); p != nil && p != s.margin; p = p.Parent() {
		if t, ok := s.original[p]; ok {
			m = t.Matrix().Mul(m)
		}
	}
	return m
}

// DrawingExtent returns the engraved horizontal extent of e in drawing space,
// including its own transform.
func (s *Scene) DrawingExtent(e *etree.Element) (minX, maxX float64, ok bool) {
	m := s.ParentToDrawing(e)
	if t, has := s.original[e]; has {
		m = m.Mul(t.Matrix())
	}
	return geo.HorizontalExtent(s.expand(e, m, geom.Envelope{}))
}

// ToDrawingX maps an x in e's parent coordinates to drawing space.
func (s *Scene) ToDrawingX(e *etree.Element, x float64) float64 {
	return s.ParentToDrawing(e).Apply(geom.XY{X: x}).X
}
