// Package scene wraps a rendered score (an SVG document produced by an
// engraving engine) and exposes what the warping engine needs from it:
// identifier lookup, page geometry, the page-margin translation, a one-pass
// classification of displaceable primitives and horizontal extent queries.
//
// Extents are always computed from the transforms the document carried when
// it was loaded, so geometry queries keep returning engraved positions while
// the warp adds translations on top.
package scene

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/beevik/etree"
	"github.com/scorewarp/scorewarper/internal/geo"
	"github.com/scorewarp/scorewarper/internal/util"
	"github.com/scorewarp/scorewarper/pkg/core"
)

// Identifier attributes, in lookup order. data-id is the documented fallback.
const (
	attrID     = "id"
	attrXMLID  = "xml:id"
	attrDataID = "data-id"
)

// Scene is one loaded score page. It is not safe for concurrent mutation.
type Scene struct {
	doc    *etree.Document
	root   *etree.Element
	margin *etree.Element

	byID     map[string]*etree.Element
	byDataID map[string]*etree.Element

	// transforms as loaded; geometry queries never see warp output
	original map[*etree.Element]geo.TransformList
	symbols  map[string]symbolGlyph

	geometry core.PageGeometry

	// warp bookkeeping, kept with the document so a later session sees it
	warped       map[*etree.Element]bool
	bootstrapped bool
}

// LoadFile reads and parses an SVG file.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Parse builds a Scene from an in-memory SVG document.
func Parse(b []byte) (*Scene, error) {
	return Load(bytes.NewReader(b))
}

// Load parses an SVG document and indexes it.
func Load(r io.Reader) (*Scene, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil, ErrNotSVG
	}

	s := &Scene{
		doc:      doc,
		root:     root,
		byID:     make(map[string]*etree.Element),
		byDataID: make(map[string]*etree.Element),
		original: make(map[*etree.Element]geo.TransformList),
		symbols:  make(map[string]symbolGlyph),
		warped:   make(map[*etree.Element]bool),
	}
	if err := s.index(root); err != nil {
		return nil, err
	}
	s.indexSymbols()

	if err := s.readGeometry(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) index(e *etree.Element) error {
	if id := e.SelectAttrValue(attrID, ""); id != "" {
		s.byID[id] = e
	} else if id := e.SelectAttrValue(attrXMLID, ""); id != "" {
		s.byID[id] = e
	}
	if id := e.SelectAttrValue(attrDataID, ""); id != "" {
		if _, dup := s.byDataID[id]; !dup {
			s.byDataID[id] = e
		}
	}
	if t := e.SelectAttrValue("transform", ""); t != "" {
		list, err := geo.ParseTransform(t)
		if err != nil {
			return fmt.Errorf("element %s: %w", describe(e), err)
		}
		s.original[e] = list
	}
	if s.margin == nil && e.Tag == "g" && hasClass(e, "page-margin") {
		s.margin = e
	}
	for _, c := range e.ChildElements() {
		if err := s.index(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) readGeometry() error {
	var g core.PageGeometry
	var err error

	if g.WidthPx, err = util.ParseLength(s.root.SelectAttrValue("width", "")); err != nil {
		return fmt.Errorf("%w: page width: %v", ErrMissingGeometry, err)
	}
	if g.HeightPx, err = util.ParseLength(s.root.SelectAttrValue("height", "")); err != nil {
		return fmt.Errorf("%w: page height: %v", ErrMissingGeometry, err)
	}

	viewBox := ""
	if def := findClass(s.root, "definition-scale"); def != nil {
		viewBox = def.SelectAttrValue("viewBox", "")
	}
	if viewBox == "" {
		viewBox = s.root.SelectAttrValue("viewBox", "")
	}
	vb, err := geo.ParseNumbers(viewBox)
	if err != nil || len(vb) != 4 {
		return fmt.Errorf("%w: viewBox %q", ErrMissingGeometry, viewBox)
	}
	g.ViewBoxX, g.ViewBoxY, g.ViewBoxWidth, g.ViewBoxHeight = vb[0], vb[1], vb[2], vb[3]
	if g.ViewBoxWidth <= 0 || g.WidthPx <= 0 || math.IsInf(g.ViewBoxWidth, 0) {
		return fmt.Errorf("%w: non-positive width", ErrMissingGeometry)
	}

	if s.margin == nil {
		return ErrNoPageMargin
	}
	g.MarginOffset, _ = s.Transform(s.margin).LeadingTranslateX()

	s.geometry = g
	return nil
}

// Geometry returns the page geometry, including the current margin offset.
func (s *Scene) Geometry() core.PageGeometry {
	return s.geometry
}

// MarginOffset returns the horizontal translation of the page-margin container.
func (s *Scene) MarginOffset() float64 {
	return s.geometry.MarginOffset
}

// ShiftMargin moves the page-margin container horizontally by dx and keeps
// the cached geometry in step.
func (s *Scene) ShiftMargin(dx float64) {
	list := s.Transform(s.margin).AddTranslateX(dx)
	s.SetTransform(s.margin, list)
	s.geometry.MarginOffset, _ = list.LeadingTranslateX()
}

// Bootstrapped reports whether the margin bootstrap shift has been applied.
func (s *Scene) Bootstrapped() bool {
	return s.bootstrapped
}

// MarkBootstrapped records that the margin bootstrap shift has been applied.
func (s *Scene) MarkBootstrapped() {
	s.bootstrapped = true
}

// Warped reports whether the warp has already placed e.
func (s *Scene) Warped(e *etree.Element) bool {
	return s.warped[e]
}

// MarkWarped records that the warp has placed e.
func (s *Scene) MarkWarped(e *etree.Element) {
	s.warped[e] = true
}

// Lookup resolves an identifier to its element, trying the id attributes
// first and data-id second.
func (s *Scene) Lookup(id string) (*etree.Element, bool) {
	if e, ok := s.byID[id]; ok {
		return e, true
	}
	e, ok := s.byDataID[id]
	return e, ok
}

// ID returns the identifier an element is addressed by, or "".
func ID(e *etree.Element) string {
	for _, key := range []string{attrID, attrXMLID, attrDataID} {
		if v := e.SelectAttrValue(key, ""); v != "" {
			return v
		}
	}
	return ""
}

// Root returns the document's svg element.
func (s *Scene) Root() *etree.Element {
	return s.root
}

// WriteTo serializes the scene, including every transform the warp added.
func (s *Scene) WriteTo(w io.Writer) (int64, error) {
	return s.doc.WriteTo(w)
}

// Bytes serializes the scene into memory.
func (s *Scene) Bytes() ([]byte, error) {
	return s.doc.WriteToBytes()
}

// WriteFile serializes the scene to path.
func (s *Scene) WriteFile(path string) error {
	return s.doc.WriteToFile(path)
}

// Transform returns the element's current transform list. Malformed
// attributes read as empty; they were rejected at load time.
func (s *Scene) Transform(e *etree.Element) geo.TransformList {
	list, _ := geo.ParseTransform(e.SelectAttrValue("transform", ""))
	return list
}

// OriginalTransform returns the transform list the element carried at load time.
func (s *Scene) OriginalTransform(e *etree.Element) geo.TransformList {
	return s.original[e]
}

// HasTransform reports whether the element currently carries a transform.
func (s *Scene) HasTransform(e *etree.Element) bool {
	return strings.TrimSpace(e.SelectAttrValue("transform", "")) != ""
}

// SetTransform replaces the element's transform attribute.
func (s *Scene) SetTransform(e *etree.Element, list geo.TransformList) {
	if len(list) == 0 {
		e.RemoveAttr("transform")
		return
	}
	e.CreateAttr("transform", list.String())
}

// AncestorTranslateX sums, in drawing units, the horizontal translation
// added on top of the engraved transforms of every ancestor of e below the
// page-margin container. Each ancestor's offset is in its own parent's
// units and is scaled through that parent chain.
func (s *Scene) AncestorTranslateX(e *etree.Element) float64 {
	var sum float64
	for p := e.Parent(); p != nil && p != s.margin; p = p.Parent() {
		cur, _ := s.Transform(p).LeadingTranslateX()
		orig, _ := s.original[p].LeadingTranslateX()
		if d := cur - orig; d != 0 {
			sum += d * s.ParentToDrawing(p).A
		}
	}
	return sum
}

func classes(e *etree.Element) []string {
	return strings.Fields(e.SelectAttrValue("class", ""))
}

func hasClass(e *etree.Element, name string) bool {
	for _, c := range classes(e) {
		if c == name {
			return true
		}
	}
	return false
}

func findClass(e *etree.Element, name string) *etree.Element {
	if hasClass(e, name) {
		return e
	}
	for _, c := range e.ChildElements() {
		if found := findClass(c, name); found != nil {
			return found
		}
	}
	return nil
}

func describe(e *etree.Element) string {
	if id := ID(e); id != "" {
		return e.Tag + "#" + id
	}
	return e.GetPath()
}
