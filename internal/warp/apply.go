package warp

import (
	"math"

	"github.com/beevik/etree"
	"github.com/scorewarp/scorewarper/internal/geo"
	"github.com/scorewarp/scorewarper/internal/scene"
	"github.com/scorewarp/scorewarper/internal/util"
	"github.com/scorewarp/scorewarper/pkg/core"
)

// Reasons a primitive is left in place.
const (
	reasonAlreadyWarped  = "already warped"
	reasonHasTransform   = "carries a transform"
	reasonNoGeometry     = "no geometry"
	reasonNonFinite      = "non-finite displacement"
	reasonDegenerateSpan = "non-positive or non-finite scale"
)

// shifter displaces one primitive of a given kind. It returns the reason
// the primitive was left in place, or "" once it has been displaced.
type shifter func(s *Session, p scene.Primitive) string

var shifters = map[scene.Kind]shifter{
	scene.KindNoteOrRest: shiftNoteOrRest,
	scene.KindChord:      shiftChord,
	scene.KindBeam:       shiftBeam,
	scene.KindArpeggio:   shiftLeftEdge,
	scene.KindHairpin:    shiftSpan,
	scene.KindLedgerDash: shiftLeftEdge,
	scene.KindSpanPath:   shiftSpan,
	scene.KindGlyph:      shiftGlyph,
}

// Warp applies the displacement function to every primitive of the scene,
// kind by kind in scene.Order. A primitive that cannot be displaced is
// counted and logged; it never stops the pass. Each element is displaced at
// most once per session, so running Warp again leaves the scene as it is.
func (s *Session) Warp() core.ApplyStats {
	stats := core.ApplyStats{
		NotesAdjusted:  s.stats.NotesAdjusted,
		NotesUnmatched: s.stats.NotesUnmatched,
	}

	inv := s.scene.Classify()
	for _, k := range scene.Order {
		shift := shifters[k]
		kind := k.String()
		for _, p := range inv.Of(k) {
			reason := shift(s, p)
			if reason == "" {
				stats.AddShifted(kind)
				s.metrics.recordShifted(kind)
				continue
			}
			stats.AddSkipped(kind)
			s.metrics.recordSkipped(kind)
			if reason == reasonAlreadyWarped {
				s.log.Debug("Primitive left in place", "id", scene.ID(p.Elem), "kind", kind, "reason", reason)
			} else {
				s.log.Warn("Primitive left in place", "id", scene.ID(p.Elem), "kind", kind, "reason", reason)
			}
		}
	}

	if s.state == core.StateUnwarped {
		s.state = core.StatePrimaryWarped
	}
	s.stats = stats
	s.log.Info("Primary warp applied", "shifted", stats.Shifted, "skipped", stats.Skipped)
	return stats
}

func shiftNoteOrRest(s *Session, p scene.Primitive) string {
	var x float64
	var ok bool
	if p.IsRest {
		x, _, ok = s.scene.DrawingExtent(p.Elem)
	} else {
		x, ok = s.scene.NoteheadAnchor(p.Elem)
	}
	if !ok {
		return reasonNoGeometry
	}
	return s.translate(p.Elem, x)
}

// shiftChord moves the chord as a unit from the median of its noteheads.
// Chords are transform-free containers when engraved; one that already
// carries a transform is left alone.
func shiftChord(s *Session, p scene.Primitive) string {
	if s.scene.Warped(p.Elem) {
		return reasonAlreadyWarped
	}
	if s.scene.HasTransform(p.Elem) {
		return reasonHasTransform
	}
	x, ok := s.scene.ChordAnchor(p.Elem)
	if !ok {
		return reasonNoGeometry
	}
	return s.translate(p.Elem, x)
}

// shiftBeam stretches every bar segment between the stems it connects.
// The notes and chords under the beam are primitives of their own.
func shiftBeam(s *Session, p scene.Primitive) string {
	segments := s.scene.BeamSegments(p.Elem)
	if len(segments) == 0 {
		return reasonNoGeometry
	}
	stems := s.scene.BeamStems(p.Elem)

	first := ""
	shifted := false
	for _, seg := range segments {
		reason := s.shiftBeamSegment(seg, stems)
		if reason == "" {
			shifted = true
		} else if first == "" {
			first = reason
		}
	}
	if shifted {
		return ""
	}
	return first
}

func (s *Session) shiftBeamSegment(seg *etree.Element, stems []scene.Stem) string {
	x1, x2, ok := s.scene.Extent(seg)
	if !ok {
		return reasonNoGeometry
	}
	d1, d2 := s.scene.ToDrawingX(seg, x1), s.scene.ToDrawingX(seg, x2)

	a1, a2 := d1, d2
	if len(stems) > 0 {
		left := nearestStem(stems, d1, s.opts.StemMatchThreshold)
		if left < 0 {
			left = 0
		}
		right := nearestStem(stems, d2, s.opts.StemMatchThreshold)
		if right < 0 {
			right = len(stems) - 1
		}
		a1, a2 = s.stemAnchor(stems[left]), s.stemAnchor(stems[right])
	}

	if x1 == x2 {
		return s.translate(seg, d1)
	}
	return s.stretch(seg, x1, x2, s.fn.At(a1), s.fn.At(a2))
}

// nearestStem returns the index of the stem closest to x within threshold,
// or -1 when none is in reach.
func nearestStem(stems []scene.Stem, x, threshold float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, st := range stems {
		if d := math.Abs(st.X - x); d <= threshold && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// stemAnchor is the position the stem's owner was displaced from, so the
// beam end follows the stem exactly.
func (s *Session) stemAnchor(st scene.Stem) float64 {
	if st.Owner != nil {
		if st.Chord {
			if x, ok := s.scene.ChordAnchor(st.Owner); ok {
				return x
			}
		} else if x, ok := s.scene.NoteheadAnchor(st.Owner); ok {
			return x
		}
	}
	return st.X
}

func shiftLeftEdge(s *Session, p scene.Primitive) string {
	x, _, ok := s.scene.DrawingExtent(p.Elem)
	if !ok {
		return reasonNoGeometry
	}
	return s.translate(p.Elem, x)
}

// shiftSpan lands both ends of a path on their own warped positions.
// Zero-width spans such as barlines are translated like rigid glyphs.
func shiftSpan(s *Session, p scene.Primitive) string {
	x1, x2, ok := s.scene.Extent(p.Elem)
	if !ok {
		return reasonNoGeometry
	}
	if x1 == x2 {
		return shiftLeftEdge(s, p)
	}
	d1, d2 := s.scene.ToDrawingX(p.Elem, x1), s.scene.ToDrawingX(p.Elem, x2)
	return s.stretch(p.Elem, x1, x2, s.fn.At(d1), s.fn.At(d2))
}

// shiftGlyph uses the centre of circles and ellipses and the left edge of
// everything else.
func shiftGlyph(s *Session, p scene.Primitive) string {
	minX, maxX, ok := s.scene.DrawingExtent(p.Elem)
	if !ok {
		return reasonNoGeometry
	}
	x := minX
	if p.Elem.Tag == "circle" || p.Elem.Tag == "ellipse" {
		x = (minX + maxX) / 2
	}
	return s.translate(p.Elem, x)
}

// translate adds the displacement at drawingX to e's leading translation.
func (s *Session) translate(e *etree.Element, drawingX float64) string {
	if s.scene.Warped(e) {
		return reasonAlreadyWarped
	}
	dx := s.fn.At(drawingX)
	if !util.IsFinite(dx) {
		return reasonNonFinite
	}
	if dx = s.toLocal(e, dx); dx != 0 {
		s.scene.SetTransform(e, s.scene.Transform(e).AddTranslateX(dx))
	}
	s.scene.MarkWarped(e)
	return ""
}

// stretch installs translate+scale on e so that local x1 moves by shift1 and
// local x2 by shift2. Shifts are in drawing units.
func (s *Session) stretch(e *etree.Element, x1, x2, shift1, shift2 float64) string {
	if s.scene.Warped(e) {
		return reasonAlreadyWarped
	}
	if s.scene.HasTransform(e) {
		return reasonHasTransform
	}
	sh1, sh2 := s.toLocal(e, shift1), s.toLocal(e, shift2)
	scale := (x2 + sh2 - (x1 + sh1)) / (x2 - x1)
	if !util.IsFinite(scale) || scale <= 0 {
		return reasonDegenerateSpan
	}

	s.scene.SetTransform(e, geo.TransformList{
		{Name: "translate", Args: []float64{x1 + sh1 - scale*x1, 0}},
		{Name: "scale", Args: []float64{scale, 1}},
	})
	s.scene.MarkWarped(e)
	return ""
}

// toLocal converts a drawing-space horizontal distance into e's parent
// coordinates.
func (s *Session) toLocal(e *etree.Element, dx float64) float64 {
	m := s.scene.ParentToDrawing(e)
	if m.A == 0 || !util.IsFinite(m.A) {
		return dx
	}
	return dx / m.A
}
