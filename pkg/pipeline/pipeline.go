// Package pipeline runs handwriting render passes.
//
// A render pass turns text into a page document:
//
//  1. Normalize: NFC composition and CRLF line endings to LF
//  2. Layout: flow characters into the cell grid ([grid.Layout])
//  3. Pick: choose a non-repeating variant per character ([picker.Picker])
//  4. Decorate: compute a jittered glyph transform per cell ([decorate])
//  5. Draw: place every glyph on an SVG page ([surface.SVG])
//  6. Export: convert the page to the requested formats ([export])
//
// Only the export stage is cached. Picking depends on the recency windows
// the [Runner] keeps between passes, so two passes over the same text give
// different pages.
//
// # Usage
//
//	runner := pipeline.NewRunner(assets, cache, nil, logger)
//	result, err := runner.Render(ctx, pipeline.Options{
//	    Text:     "永和九年",
//	    CellSize: 15,
//	    Formats:  []string{"svg", "pdf"},
//	    Decorate: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pdf := result.Artifacts["pdf"]
//
// A finished page can be changed glyph by glyph and drawn again without
// picking:
//
//	if err := runner.Override(result.Glyphs, 3, "永/7.svg"); err != nil {
//	    log.Fatal(err)
//	}
//	result, err = runner.Redraw(ctx, result, opts)
package pipeline

import (
	"io"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"
	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/errors"
	"github.com/matzehuels/handwrite/pkg/export"
	"github.com/matzehuels/handwrite/pkg/grid"
	"github.com/matzehuels/handwrite/pkg/picker"
	"github.com/matzehuels/handwrite/pkg/surface"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultCellSize is the cell edge length in pixels.
	DefaultCellSize = 15.0

	// DefaultPNGScale is the zoom factor of PNG exports.
	DefaultPNGScale = 2.0

	// MaxTextLength bounds the input in runes. Layout stops at the page
	// capacity anyway; this only limits normalization work.
	MaxTextLength = 64 * 1024
)

// =============================================================================
// Options - Render Pass Configuration
// =============================================================================

// Options configures one render pass.
// This struct supports JSON serialization for server requests.
type Options struct {
	Text string `json:"text"`

	// Layout options
	CellSize    float64 `json:"cell_size,omitempty"`
	ColumnLimit int     `json:"column_limit,omitempty"`
	MaxRows     int     `json:"max_rows,omitempty"`
	MaxColumns  int     `json:"max_columns,omitempty"`
	Margin      float64 `json:"margin,omitempty"`

	// Pick options
	Seed        uint64 `json:"seed,omitempty"` // 0 picks a random seed
	OnExhausted string `json:"on_exhausted,omitempty"`
	Decorate    bool   `json:"decorate,omitempty"`

	// Export options
	Formats  []string `json:"formats,omitempty"`
	PNGScale float64  `json:"png_scale,omitempty"`

	// Runtime options (not serialized)
	Background []byte          `json:"-"` // image drawn under the glyphs; sizes the page
	Surface    surface.Surface `json:"-"` // receives the same calls as the SVG page
	Logger     *log.Logger     `json:"-"`

	validated bool
	policy    picker.Policy
	formats   []export.Format
}

// ValidateAndSetDefaults checks option ranges and fills in defaults.
// Zero values mean "default". It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.CellSize == 0 {
		o.CellSize = DefaultCellSize
	}
	if o.ColumnLimit == 0 {
		o.ColumnLimit = grid.DefaultColumnLimit
	}
	if o.MaxRows == 0 {
		o.MaxRows = grid.DefaultMaxRowsPerColumn
	}
	if o.MaxColumns == 0 {
		o.MaxColumns = grid.DefaultMaxColumns
	}
	if err := o.GridConfig().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layout")
	}
	if o.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "margin must not be negative, got %g", o.Margin)
	}
	if n := utf8.RuneCountInString(o.Text); n > MaxTextLength {
		return errors.New(errors.ErrCodeInvalidInput, "text too long: %d characters, at most %d", n, MaxTextLength)
	}

	policy, err := picker.ParsePolicy(o.OnExhausted)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid on_exhausted")
	}
	o.policy = policy
	o.OnExhausted = policy.String()

	if len(o.Formats) == 0 {
		o.Formats = []string{string(export.FormatSVG)}
	}
	formats, err := export.ParseFormats(strings.Join(o.Formats, ","))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid formats")
	}
	o.formats = formats
	o.Formats = make([]string, len(formats))
	for i, f := range formats {
		o.Formats[i] = string(f)
	}

	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.PNGScale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %g", o.PNGScale)
	}

	if o.Seed == 0 {
		o.Seed = rand.Uint64()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// GridConfig returns the layout configuration of the options.
func (o *Options) GridConfig() grid.Config {
	return grid.Config{
		CellSize:         o.CellSize,
		ColumnLimit:      o.ColumnLimit,
		MaxRowsPerColumn: o.MaxRows,
		MaxColumns:       o.MaxColumns,
	}
}

// NormalizeText prepares input for layout: line endings become '\n' and
// the text is NFC-composed so a character and its combining marks share
// one cell.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}

// =============================================================================
// Result - Render Pass Output
// =============================================================================

// Glyph is a placement resolved to what is drawn there.
type Glyph struct {
	grid.Placement

	// Variant is the drawn variant, empty for fallback blanks.
	Variant catalog.VariantID

	// Fallback is the blank text drawn when there is no variant.
	Fallback string

	// Transform maps the glyph box into the cell at (X, Y).
	Transform matrix.Matrix
}

// IsFallback reports whether the glyph is drawn as a blank.
func (g Glyph) IsFallback() bool { return g.Variant == "" }

// Result contains the outputs of a render pass.
type Result struct {
	// PassID identifies the pass in logs and page documents.
	PassID string

	// Seed is the seed the pass used, so it can be repeated.
	Seed uint64

	// Text is the normalized input.
	Text string

	// Layout is the grid configuration of the page.
	Layout grid.Config

	// Margin and Decorate are the page settings the glyphs were drawn with.
	Margin   float64
	Decorate bool

	// Page is the layout: placements and the truncation flag.
	Page grid.Page

	// Glyphs has one entry per placement, in the same order.
	Glyphs []Glyph

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and count information.
	Stats Stats

	// CacheInfo tracks export cache use.
	CacheInfo CacheInfo
}

// Stats contains render pass statistics.
type Stats struct {
	Chars      int
	Placements int
	Fallbacks  int
	LayoutTime time.Duration
	PickTime   time.Duration
	DrawTime   time.Duration
	ExportTime time.Duration
}

// CacheInfo counts export cache lookups.
type CacheInfo struct {
	Hits   int
	Misses int
}
