package pipeline

import (
	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/grid"
	pageio "github.com/matzehuels/handwrite/pkg/io"
)

// ToDocument converts a result to its page document.
func ToDocument(res *Result) *pageio.Page {
	doc := &pageio.Page{
		Version:   pageio.Version,
		PassID:    res.PassID,
		Seed:      res.Seed,
		Text:      res.Text,
		Layout:    res.Layout,
		Margin:    res.Margin,
		Decorate:  res.Decorate,
		Truncated: res.Page.Truncated,
		Glyphs:    make([]pageio.Glyph, len(res.Glyphs)),
	}
	for i, g := range res.Glyphs {
		doc.Glyphs[i] = pageio.Glyph{
			Char:      string(g.Char),
			Column:    g.Column,
			Row:       g.Row,
			Cell:      g.Cell,
			X:         g.X,
			Y:         g.Y,
			Variant:   string(g.Variant),
			Fallback:  g.Fallback,
			Transform: g.Transform,
		}
	}
	return doc
}

// FromDocument rebuilds a result from a page document so it can be passed
// to [Runner.Redraw]. Artifacts are empty. The returned options carry the
// document's layout and seed.
func FromDocument(doc *pageio.Page) (*Result, Options) {
	res := &Result{
		PassID:    doc.PassID,
		Seed:      doc.Seed,
		Text:      doc.Text,
		Layout:    doc.Layout,
		Margin:    doc.Margin,
		Decorate:  doc.Decorate,
		Page:      grid.Page{Truncated: doc.Truncated},
		Glyphs:    make([]Glyph, len(doc.Glyphs)),
		Artifacts: make(map[string][]byte),
	}
	res.Page.Placements = make([]grid.Placement, len(doc.Glyphs))
	for i, g := range doc.Glyphs {
		p := grid.Placement{
			Char:   g.Rune(),
			Column: g.Column,
			Row:    g.Row,
			Cell:   g.Cell,
			X:      g.X,
			Y:      g.Y,
		}
		res.Page.Placements[i] = p
		res.Glyphs[i] = Glyph{
			Placement: p,
			Variant:   catalog.VariantID(g.Variant),
			Fallback:  g.Fallback,
			Transform: matrix.Matrix(g.Transform),
		}
	}
	opts := Options{
		Text:        doc.Text,
		CellSize:    doc.Layout.CellSize,
		ColumnLimit: doc.Layout.ColumnLimit,
		MaxRows:     doc.Layout.MaxRowsPerColumn,
		MaxColumns:  doc.Layout.MaxColumns,
		Margin:      doc.Margin,
		Seed:        doc.Seed,
		Decorate:    doc.Decorate,
	}
	return res, opts
}
