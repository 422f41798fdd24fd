package pipeline

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/handwrite/pkg/cache"
	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/decorate"
	"github.com/matzehuels/handwrite/pkg/errors"
	"github.com/matzehuels/handwrite/pkg/export"
	"github.com/matzehuels/handwrite/pkg/grid"
	"github.com/matzehuels/handwrite/pkg/observability"
	"github.com/matzehuels/handwrite/pkg/picker"
)

// decorateSalt separates the decoration stream from the pick stream so
// turning decoration on or off does not change the picked variants.
const decorateSalt = 0x9e3779b97f4a7c15

// Runner executes render passes over one asset catalog.
//
// The runner owns a [picker.Picker] whose recency windows live as long as
// the runner, so consecutive passes avoid each other's variants. Only one
// pass runs at a time; a concurrent call fails with [errors.ErrCodeBusy].
type Runner struct {
	Assets    catalog.Assets
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
	Converter export.Converter // nil uses rsvg-convert

	mu     sync.Mutex
	src    *passSource
	picker *picker.Picker
}

// NewRunner creates a runner over assets with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(assets catalog.Assets, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	src := &passSource{}
	return &Runner{
		Assets: assets,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		src:    src,
		picker: picker.New(assets, src),
	}
}

// Render runs a full pass: normalize, layout, pick, decorate, draw and
// export. A truncated page is not an error; see Result.Page.Truncated.
func (r *Runner) Render(ctx context.Context, opts Options) (*Result, error) {
	if !r.mu.TryLock() {
		return nil, errors.New(errors.ErrCodeBusy, "a render pass is already running")
	}
	defer r.mu.Unlock()

	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	text := NormalizeText(opts.Text)
	res := &Result{
		PassID:    uuid.NewString(),
		Seed:      opts.Seed,
		Text:      text,
		Layout:    opts.GridConfig(),
		Margin:    opts.Margin,
		Decorate:  opts.Decorate,
		Artifacts: make(map[string][]byte),
	}
	res.Stats.Chars = utf8.RuneCountInString(text)

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, res.PassID, res.Stats.Chars)

	err := r.render(ctx, res, opts)
	hooks.OnRenderComplete(ctx, res.PassID, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) render(ctx context.Context, res *Result, opts Options) error {
	hooks := observability.Pipeline()
	logger := opts.Logger.With("pass", res.PassID)

	// Stage 1: Layout
	layoutStart := time.Now()
	res.Page = grid.Layout([]rune(res.Text), res.Layout)
	res.Stats.Placements = len(res.Page.Placements)
	res.Stats.LayoutTime = time.Since(layoutStart)
	hooks.OnLayoutComplete(ctx, res.PassID, res.Stats.Placements, res.Page.Truncated, res.Stats.LayoutTime)

	logger.Debug("computed layout",
		"placements", res.Stats.Placements,
		"truncated", res.Page.Truncated,
		"duration", res.Stats.LayoutTime)
	if res.Page.Truncated {
		logger.Warn("text does not fit on the page, the rest is dropped",
			"placed", res.Stats.Placements,
			"capacity", grid.MaxPlacements(res.Layout))
	}

	// Stage 2: Pick and decorate
	pickStart := time.Now()
	res.Glyphs = r.pick(res.Page.Placements, opts)
	res.Stats.PickTime = time.Since(pickStart)
	fallbacks := countFallbacks(res.Glyphs)
	hooks.OnPickComplete(ctx, res.PassID, len(res.Glyphs)-fallbacks, fallbacks, res.Stats.PickTime)

	logger.Debug("picked variants",
		"glyphs", len(res.Glyphs)-fallbacks,
		"fallbacks", fallbacks,
		"duration", res.Stats.PickTime)

	// Stage 3: Draw and export
	if err := r.draw(ctx, res, opts); err != nil {
		return err
	}
	logger.Info("rendered page",
		"chars", res.Stats.Chars,
		"formats", opts.Formats,
		"duration", res.Stats.DrawTime+res.Stats.ExportTime)
	return nil
}

// pick resolves every placement to a variant or a fallback blank and
// computes its transform. The recency windows carry over to the next pass.
func (r *Runner) pick(placements []grid.Placement, opts Options) []Glyph {
	r.src.reseed(opts.Seed)
	r.picker.SetPolicy(opts.policy)

	var dec *decorate.Decorator
	if opts.Decorate {
		dec = decorate.New(picker.NewSource(opts.Seed ^ decorateSalt))
	} else {
		dec = decorate.New(nil)
	}

	glyphs := make([]Glyph, len(placements))
	for i, p := range placements {
		g := Glyph{Placement: p, Transform: dec.Transform(p, opts.CellSize)}
		if id, ok := r.picker.Pick(p.Char); ok {
			g.Variant = id
		} else {
			g.Fallback = picker.Fallback(p.Char)
		}
		glyphs[i] = g
	}
	return glyphs
}

// Redraw draws the glyphs of an earlier pass again without picking, for
// example after [Runner.Override]. Layout options in opts are ignored in
// favour of prev's; the export options apply. The recency windows are not
// touched.
func (r *Runner) Redraw(ctx context.Context, prev *Result, opts Options) (*Result, error) {
	if !r.mu.TryLock() {
		return nil, errors.New(errors.ErrCodeBusy, "a render pass is already running")
	}
	defer r.mu.Unlock()

	opts.CellSize = prev.Layout.CellSize
	opts.ColumnLimit = prev.Layout.ColumnLimit
	opts.MaxRows = prev.Layout.MaxRowsPerColumn
	opts.MaxColumns = prev.Layout.MaxColumns
	opts.Margin = prev.Margin
	opts.Seed = prev.Seed
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	res := &Result{
		PassID:    uuid.NewString(),
		Seed:      prev.Seed,
		Text:      prev.Text,
		Layout:    prev.Layout,
		Margin:    prev.Margin,
		Decorate:  prev.Decorate,
		Page:      grid.Page{Truncated: prev.Page.Truncated},
		Glyphs:    make([]Glyph, len(prev.Glyphs)),
		Artifacts: make(map[string][]byte),
	}
	copy(res.Glyphs, prev.Glyphs)
	res.Page.Placements = make([]grid.Placement, len(res.Glyphs))
	for i, g := range res.Glyphs {
		res.Page.Placements[i] = g.Placement
	}
	res.Stats.Chars = utf8.RuneCountInString(res.Text)
	res.Stats.Placements = len(res.Glyphs)

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, res.PassID, res.Stats.Chars)
	err := r.draw(ctx, res, opts)
	hooks.OnRenderComplete(ctx, res.PassID, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("redrew page", "pass", res.PassID, "glyphs", len(res.Glyphs), "formats", opts.Formats)
	return res, nil
}

// AllVariants lists every variant of ch. The recency windows are not read.
func (r *Runner) AllVariants(ch rune) []catalog.VariantID {
	return r.picker.AllVariants(ch)
}

// Windows returns a copy of the picker's recency windows.
func (r *Runner) Windows() map[rune][]catalog.VariantID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.picker.Snapshot()
}

// RestoreWindows replaces the picker's recency windows, for example with
// the state saved in a preview session.
func (r *Runner) RestoreWindows(windows map[rune][]catalog.VariantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.picker.Restore(windows)
}

// ResetWindows forgets every recent pick.
func (r *Runner) ResetWindows() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.picker.Reset()
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func countFallbacks(glyphs []Glyph) int {
	n := 0
	for _, g := range glyphs {
		if g.IsFallback() {
			n++
		}
	}
	return n
}

// passSource is the picker's random source. It is reseeded at the start
// of every pass so a pass depends only on its seed and the windows.
type passSource struct {
	rng *rand.Rand
}

func (s *passSource) reseed(seed uint64) { s.rng = picker.NewSource(seed) }

func (s *passSource) IntN(n int) int {
	if s.rng == nil {
		s.reseed(0)
	}
	return s.rng.IntN(n)
}
