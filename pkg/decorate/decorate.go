// Package decorate perturbs glyph placements so repeated characters do not
// look stamped.
//
// A glyph is drawn in a square box of [DefaultReference] units. The
// [Decorator] maps that box into its grid cell with a random uniform scale,
// a small per-axis stretch derived from the cell position, and a random
// offset of a few pixels. Decoration only changes how a glyph is drawn, never
// where the layout put it.
package decorate

import (
	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/handwrite/pkg/grid"
)

// Decoration defaults.
const (
	DefaultReference = 15.0 // glyph box size the variants are drawn for
	DefaultJitter    = 2.0  // maximum offset per axis, in pixels

	scaleSpread   = 0.05 // uniform scale is drawn from [1-s, 1+s]
	stretchFactor = 0.03 // per-axis stretch step, five steps centered on 1
)

// Source is a source of uniformly distributed floats.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// Option configures a Decorator.
type Option func(*Decorator)

// WithReference sets the glyph box size. Values below or equal to 0 are ignored.
func WithReference(size float64) Option {
	return func(d *Decorator) {
		if size > 0 {
			d.reference = size
		}
	}
}

// WithJitter sets the maximum per-axis offset in pixels.
func WithJitter(px float64) Option {
	return func(d *Decorator) { d.jitter = max(0, px) }
}

// Disabled turns off all randomness: glyphs fill their cell exactly.
func Disabled() Option {
	return func(d *Decorator) { d.disabled = true }
}

// Decorator computes glyph transforms.
type Decorator struct {
	src       Source
	reference float64
	jitter    float64
	disabled  bool
}

// New creates a decorator drawing randomness from src. A nil src disables
// decoration.
func New(src Source, opts ...Option) *Decorator {
	d := &Decorator{
		src:       src,
		reference: DefaultReference,
		jitter:    DefaultJitter,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.src == nil {
		d.disabled = true
	}
	return d
}

// Reference returns the glyph box size the transforms map from.
func (d *Decorator) Reference() float64 { return d.reference }

// Enabled reports whether transforms are randomized.
func (d *Decorator) Enabled() bool { return !d.disabled }

// Transform returns the matrix mapping a glyph box of Reference units into
// the cell of p. The translation is relative to the cell origin (p.X, p.Y).
func (d *Decorator) Transform(p grid.Placement, cellSize float64) matrix.Matrix {
	base := cellSize / d.reference
	if d.disabled {
		return matrix.Scale(base, base)
	}

	scale := base * d.uniform(1-scaleSpread, 1+scaleSpread)
	sx := scale * Stretch(p.X)
	sy := scale * Stretch(p.Y)

	tx := (cellSize-d.reference*sx)/2 + d.uniform(-d.jitter, d.jitter)
	ty := (cellSize-d.reference*sy)/2 + d.uniform(-d.jitter, d.jitter)
	return matrix.Matrix{sx, 0, 0, sy, tx, ty}
}

// Stretch returns the per-axis stretch for a pixel coordinate: one of
// 0.94, 0.97, 1, 1.03 or 1.06 depending on the coordinate modulo 5.
func Stretch(coord float64) float64 {
	step := ((int(coord) % 5) + 5) % 5
	return 1 + stretchFactor*float64(step-2)
}

func (d *Decorator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*d.src.Float64()
}
