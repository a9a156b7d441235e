// Package scenetest builds small engraved-score SVG documents for tests.
// The markup mirrors what the engraving engine emits: a definition-scale
// svg holding a translated page-margin group, notes with notehead glyphs
// referencing a shared symbol, beams as polygons and spans as paths.
package scenetest

import (
	"fmt"
	"strings"
)

// NoteheadSymbol is the glyph id every notehead references. Its drawn
// extent is [0, 300] in a 1000-unit viewBox, so a 1000px wide use is 300
// drawing units wide.
const NoteheadSymbol = "E0A4"

// NoteheadWidth is the rendered width of one notehead.
const NoteheadWidth = 300.0

// Page wraps body in a page of the given pixel width and drawing-space viewbox.
func Page(widthPx, viewBoxWidth, margin float64, body ...string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%gpx" height="%gpx">
<defs><symbol id="%s" viewBox="0 0 1000 1000" overflow="inherit"><path transform="scale(1,-1)" d="M0 0L300 0L300 100L0 100Z"/></symbol></defs>
<svg class="definition-scale" viewBox="0 0 %g %g">
<g class="page-margin" transform="translate(%g, %g)">
<g class="system"><g class="measure"><g class="staff"><g class="layer">
%s
</g></g></g></g>
</g>
</svg>
</svg>`, widthPx, widthPx*1.4, NoteheadSymbol, viewBoxWidth, viewBoxWidth*1.4, margin, margin, strings.Join(body, "\n"))
}

// Note is a stemless note whose notehead glyph sits at x.
func Note(id string, x float64) string {
	return fmt.Sprintf(`<g id="%s" class="note"><g class="notehead"><use xlink:href="#%s" x="%g" y="500" height="1000px" width="1000px"/></g></g>`,
		id, NoteheadSymbol, x)
}

// NoteWithStem is a note with a stem drawn at stemX.
func NoteWithStem(id string, x, stemX float64) string {
	return fmt.Sprintf(`<g id="%s" class="note"><g class="notehead"><use xlink:href="#%s" x="%g" y="500" height="1000px" width="1000px"/></g><g class="stem"><path d="M%g 500L%g 200"/></g></g>`,
		id, NoteheadSymbol, x, stemX, stemX)
}

// DataNote is a note addressed only through the data-id fallback attribute.
func DataNote(id string, x float64) string {
	return fmt.Sprintf(`<g data-id="%s" class="note"><g class="notehead"><use xlink:href="#%s" x="%g" y="500" height="1000px" width="1000px"/></g></g>`,
		id, NoteheadSymbol, x)
}

// Chord groups its children: member notes and, optionally, a ChordStem.
func Chord(id string, notes ...string) string {
	return fmt.Sprintf(`<g id="%s" class="chord">%s</g>`, id, strings.Join(notes, ""))
}

// ChordStem is a chord-level stem at x.
func ChordStem(x float64) string {
	return fmt.Sprintf(`<g class="stem"><path d="M%g 500L%g 200"/></g>`, x, x)
}

// Rest is a rest glyph at x.
func Rest(id string, x float64) string {
	return fmt.Sprintf(`<g id="%s" class="rest"><use xlink:href="#%s" x="%g" y="500" height="1000px" width="1000px"/></g>`,
		id, NoteheadSymbol, x)
}

// Beam groups its notes with one polygon per bar segment.
func Beam(id string, segments []string, notes ...string) string {
	return fmt.Sprintf(`<g id="%s" class="beam">%s%s</g>`, id, strings.Join(notes, ""), strings.Join(segments, ""))
}

// Segment is a beam bar polygon from x1 to x2.
func Segment(x1, x2 float64) string {
	return fmt.Sprintf(`<polygon points="%g,200 %g,200 %g,240 %g,240"/>`, x1, x2, x2, x1)
}

// Hairpin is a crescendo wedge from x1 to x2.
func Hairpin(id string, x1, x2 float64) string {
	return fmt.Sprintf(`<g id="%s" class="hairpin"><path d="M%g 900L%g 880M%g 900L%g 920"/></g>`, id, x2, x1, x1, x2)
}

// Slur is a curved span from x1 to x2.
func Slur(id string, x1, x2 float64) string {
	return fmt.Sprintf(`<g id="%s" class="slur"><path d="M%g 150C%g 100 %g 100 %g 150"/></g>`, id, x1, x1+(x2-x1)/4, x2-(x2-x1)/4, x2)
}

// BarLine is a vertical barline at x.
func BarLine(id string, x float64) string {
	return fmt.Sprintf(`<g id="%s" class="barLine"><path d="M%g 100L%g 900"/></g>`, id, x, x)
}

// LedgerLines holds one dash per x, each 400 units long.
func LedgerLines(xs ...float64) string {
	var b strings.Builder
	b.WriteString(`<g class="ledgerLines above">`)
	for _, x := range xs {
		fmt.Fprintf(&b, `<path d="M%g 100L%g 100"/>`, x, x+400)
	}
	b.WriteString(`</g>`)
	return b.String()
}

// Arpeggio is an arpeggio mark at x.
func Arpeggio(id string, x float64) string {
	return fmt.Sprintf(`<g id="%s" class="arpeg"><path d="M%g 100L%g 900"/><use xlink:href="#%s" x="%g" y="100" height="1000px" width="1000px"/></g>`,
		id, x, x, NoteheadSymbol, x)
}

// Text is a text element anchored at x.
func Text(id string, x float64, s string) string {
	return fmt.Sprintf(`<text id="%s" x="%g" y="950">%s</text>`, id, x, s)
}

// Circle is a point marker centred on cx.
func Circle(id string, cx float64) string {
	return fmt.Sprintf(`<circle id="%s" cx="%g" cy="50" r="20"/>`, id, cx)
}
