package surface

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/handwrite/pkg/catalog"
)

// Background is an image drawn underneath the glyphs.
type Background struct {
	Data   []byte
	Format string // image format name as reported by image.DecodeConfig
	Width  int
	Height int
}

// SVGOption configures an SVG surface.
type SVGOption func(*SVG)

// WithPageSize sets the document size used when there is no background.
func WithPageSize(w, h float64) SVGOption {
	return func(s *SVG) { s.width, s.height = w, h }
}

// WithMargin offsets all glyphs by m pixels on both axes.
func WithMargin(m float64) SVGOption { return func(s *SVG) { s.margin = m } }

// WithGlyphSize sets the size of the glyph box variants are scaled into
// before the draw transform applies.
func WithGlyphSize(size float64) SVGOption { return func(s *SVG) { s.glyphSize = size } }

// WithFontSize sets the font size of fallback text.
func WithFontSize(size float64) SVGOption { return func(s *SVG) { s.fontSize = size } }

// WithBackground draws bg under the glyphs and sizes the page to it.
func WithBackground(bg Background) SVGOption { return func(s *SVG) { s.background = &bg } }

// SVG is a surface producing an SVG document. Each variant is embedded once
// as a <symbol> and referenced by every draw of it.
type SVG struct {
	loader     catalog.Loader
	width      float64
	height     float64
	margin     float64
	glyphSize  float64
	fontSize   float64
	background *Background

	symbols map[catalog.VariantID]int
	defs    []symbol
	ops     []Op
}

type symbol struct {
	id      string
	viewBox string
	inner   []byte
}

// NewSVG creates an empty SVG surface loading variants from loader.
func NewSVG(loader catalog.Loader, opts ...SVGOption) *SVG {
	s := &SVG{
		loader:    loader,
		width:     450,
		height:    450,
		glyphSize: 15,
		fontSize:  15,
		symbols:   make(map[catalog.VariantID]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clear drops all draws. Loaded symbols are kept for the next pass but
// only those drawn again are written out.
func (s *SVG) Clear() {
	s.ops = s.ops[:0]
}

// Draw queues variant id. The variant is loaded and parsed on first use.
func (s *SVG) Draw(id catalog.VariantID, x, y float64, t matrix.Matrix) error {
	if _, ok := s.symbols[id]; !ok {
		data, err := s.loader.Load(id)
		if err != nil {
			return err
		}
		sym, err := parseSymbol(data, s.glyphSize)
		if err != nil {
			return fmt.Errorf("parse variant %s: %w", id, err)
		}
		sym.id = "v" + strconv.Itoa(len(s.defs))
		s.symbols[id] = len(s.defs)
		s.defs = append(s.defs, sym)
	}
	s.ops = append(s.ops, Op{Kind: OpGlyph, Variant: id, X: x, Y: y, Transform: t})
	return nil
}

// DrawFallback queues a text placeholder.
func (s *SVG) DrawFallback(text string, x, y float64) {
	s.ops = append(s.ops, Op{Kind: OpFallback, Text: text, X: x, Y: y, Transform: matrix.Identity})
}

// Size returns the document size in pixels.
func (s *SVG) Size() (w, h int) {
	if s.background != nil {
		return s.background.Width, s.background.Height
	}
	return int(math.Ceil(s.width + 2*s.margin)), int(math.Ceil(s.height + 2*s.margin))
}

// Bytes renders the document.
func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	s.Render(&buf)
	return buf.Bytes()
}

// Render writes the document to out.
func (s *SVG) Render(out io.Writer) {
	w, h := s.Size()
	canvas := svg.New(out)
	canvas.Start(w, h, fmt.Sprintf(`viewBox="0 0 %d %d"`, w, h))

	if bg := s.background; bg != nil {
		uri := "data:image/" + bg.Format + ";base64," + base64.StdEncoding.EncodeToString(bg.Data)
		canvas.Image(0, 0, bg.Width, bg.Height, uri)
	}

	used := s.usedSymbols()
	if len(used) > 0 {
		canvas.Def()
		for _, i := range used {
			d := s.defs[i]
			fmt.Fprintf(canvas.Writer, "<symbol id=%q viewBox=%q>%s</symbol>\n", d.id, d.viewBox, d.inner)
		}
		canvas.DefEnd()
	}

	shift := matrix.Translate(s.margin, s.margin)
	size := fmt.Sprintf(`width="%s" height="%s"`, num(s.glyphSize), num(s.glyphSize))
	for _, op := range s.ops {
		switch op.Kind {
		case OpGlyph:
			m := op.Transform.Mul(matrix.Translate(op.X, op.Y)).Mul(shift)
			canvas.Gtransform(transformAttr(m))
			canvas.Use(0, 0, "#"+s.defs[s.symbols[op.Variant]].id, size)
			canvas.Gend()
		case OpFallback:
			x := int(math.Round(op.X + s.margin))
			y := int(math.Round(op.Y + s.margin + s.fontSize))
			canvas.Text(x, y, op.Text, fmt.Sprintf(`font-size="%s" xml:space="preserve"`, num(s.fontSize)))
		}
	}
	canvas.End()
}

// usedSymbols returns the indexes of symbols drawn in the current pass in
// first-use order.
func (s *SVG) usedSymbols() []int {
	seen := make(map[int]bool)
	var out []int
	for _, op := range s.ops {
		if op.Kind != OpGlyph {
			continue
		}
		i := s.symbols[op.Variant]
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}

func transformAttr(m matrix.Matrix) string {
	parts := make([]string, len(m))
	for i, v := range m {
		parts[i] = num(v)
	}
	return "matrix(" + strings.Join(parts, " ") + ")"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// Variant parsing
// =============================================================================

type svgRoot struct {
	XMLName xml.Name `xml:"svg"`
	ViewBox string   `xml:"viewBox,attr"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	Inner   []byte   `xml:",innerxml"`
}

// parseSymbol extracts the drawing of a variant file. Files without a
// viewBox get one from their width and height, falling back to a square of
// the glyph size.
func parseSymbol(data []byte, glyphSize float64) (symbol, error) {
	var root svgRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return symbol{}, err
	}
	viewBox := strings.TrimSpace(root.ViewBox)
	if viewBox == "" {
		w, okW := parseLength(root.Width)
		h, okH := parseLength(root.Height)
		if !okW || !okH {
			w, h = glyphSize, glyphSize
		}
		viewBox = "0 0 " + num(w) + " " + num(h)
	}
	return symbol{viewBox: viewBox, inner: bytes.TrimSpace(root.Inner)}, nil
}

// parseLength reads an SVG length such as "15", "15px" or "15.5pt",
// ignoring the unit.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := len(s)
	for end > 0 && (s[end-1] < '0' || s[end-1] > '9') && s[end-1] != '.' {
		end--
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
