// Package surface draws resolved glyphs onto a page.
//
// A [Surface] receives one call per placement: [Surface.Draw] for a glyph
// variant and [Surface.DrawFallback] for a blank placeholder. The transform
// passed to Draw maps the glyph box into the cell; (x, y) is the cell
// origin. [Surface.Clear] resets the page before a new render pass.
//
// Two implementations are provided: [SVG] produces a standalone SVG
// document and [Recorder] keeps the calls for inspection.
package surface

import (
	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/handwrite/pkg/catalog"
)

// Surface is a drawing target for one page.
type Surface interface {
	// Clear removes everything drawn so far.
	Clear()

	// Draw places variant id with its glyph box mapped by t and then
	// translated to (x, y).
	Draw(id catalog.VariantID, x, y float64, t matrix.Matrix) error

	// DrawFallback places a placeholder text at (x, y).
	DrawFallback(text string, x, y float64)
}

// OpKind distinguishes recorded operations.
type OpKind string

const (
	OpGlyph    OpKind = "glyph"
	OpFallback OpKind = "fallback"
)

// Op is one recorded drawing call.
type Op struct {
	Kind      OpKind            `json:"kind"`
	Variant   catalog.VariantID `json:"variant,omitempty"`
	Text      string            `json:"text,omitempty"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	Transform matrix.Matrix     `json:"transform"`
}

// Recorder is a surface that records every call.
type Recorder struct {
	Ops     []Op
	Cleared int // number of Clear calls
}

func (r *Recorder) Clear() {
	r.Ops = r.Ops[:0]
	r.Cleared++
}

func (r *Recorder) Draw(id catalog.VariantID, x, y float64, t matrix.Matrix) error {
	r.Ops = append(r.Ops, Op{Kind: OpGlyph, Variant: id, X: x, Y: y, Transform: t})
	return nil
}

func (r *Recorder) DrawFallback(text string, x, y float64) {
	r.Ops = append(r.Ops, Op{Kind: OpFallback, Text: text, X: x, Y: y, Transform: matrix.Identity})
}

// Multi fans every call out to several surfaces. Draw stops at the first
// error.
type Multi []Surface

func (m Multi) Clear() {
	for _, s := range m {
		s.Clear()
	}
}

func (m Multi) Draw(id catalog.VariantID, x, y float64, t matrix.Matrix) error {
	for _, s := range m {
		if err := s.Draw(id, x, y, t); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) DrawFallback(text string, x, y float64) {
	for _, s := range m {
		s.DrawFallback(text, x, y)
	}
}

var (
	_ Surface = (*Recorder)(nil)
	_ Surface = Multi(nil)
	_ Surface = (*SVG)(nil)
)
