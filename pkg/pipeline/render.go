package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/handwrite/pkg/cache"
	"github.com/matzehuels/handwrite/pkg/decorate"
	"github.com/matzehuels/handwrite/pkg/errors"
	"github.com/matzehuels/handwrite/pkg/export"
	"github.com/matzehuels/handwrite/pkg/grid"
	pageio "github.com/matzehuels/handwrite/pkg/io"
	"github.com/matzehuels/handwrite/pkg/observability"
	"github.com/matzehuels/handwrite/pkg/picker"
	"github.com/matzehuels/handwrite/pkg/surface"
)

// cacheKeyType labels export cache events.
const cacheKeyType = "artifact"

// draw places res.Glyphs on a fresh page and exports it. Variants that
// cannot be loaded or parsed are drawn as fallback blanks and the glyph is
// updated to match.
func (r *Runner) draw(ctx context.Context, res *Result, opts Options) error {
	drawStart := time.Now()
	page, err := r.newPage(res.Layout, opts)
	if err != nil {
		return err
	}
	var target surface.Surface = page
	if opts.Surface != nil {
		target = surface.Multi{page, opts.Surface}
	}
	target.Clear()

	res.Stats.Fallbacks = 0
	for i := range res.Glyphs {
		g := &res.Glyphs[i]
		if !g.IsFallback() {
			err := target.Draw(g.Variant, g.X, g.Y, g.Transform)
			if err == nil {
				continue
			}
			opts.Logger.Warn("variant unusable, drawing a blank", "variant", g.Variant, "err", err)
			g.Variant = ""
			g.Fallback = picker.Fallback(g.Char)
		}
		target.DrawFallback(g.Fallback, g.X, g.Y)
		res.Stats.Fallbacks++
	}
	svg := page.Bytes()
	res.Stats.DrawTime = time.Since(drawStart)

	exportStart := time.Now()
	for _, f := range opts.formats {
		start := time.Now()
		data, err := r.export(ctx, res, svg, f, opts)
		observability.Pipeline().OnExportComplete(ctx, res.PassID, string(f), len(data), time.Since(start), err)
		if err != nil {
			return err
		}
		res.Artifacts[string(f)] = data
	}
	res.Stats.ExportTime = time.Since(exportStart)
	return nil
}

// newPage creates the SVG page for a grid. A background image replaces
// the grid bounds as page size.
func (r *Runner) newPage(cfg grid.Config, opts Options) (*surface.SVG, error) {
	w, h := grid.Bounds(cfg)
	svgOpts := []surface.SVGOption{
		surface.WithPageSize(w, h),
		surface.WithMargin(opts.Margin),
		surface.WithGlyphSize(decorate.DefaultReference),
		surface.WithFontSize(cfg.CellSize),
	}
	if len(opts.Background) > 0 {
		bw, bh, format, err := export.PaperSize(opts.Background)
		if err != nil {
			return nil, err
		}
		svgOpts = append(svgOpts, surface.WithBackground(surface.Background{
			Data:   opts.Background,
			Format: format,
			Width:  bw,
			Height: bh,
		}))
	}
	return surface.NewSVG(r.Assets, svgOpts...), nil
}

// export produces one artifact. PDF and PNG conversions are cached by the
// hash of the SVG page.
func (r *Runner) export(ctx context.Context, res *Result, svg []byte, f export.Format, opts Options) ([]byte, error) {
	switch f {
	case export.FormatSVG:
		return svg, nil
	case export.FormatJSON:
		var buf bytes.Buffer
		if err := pageio.WriteJSON(ToDocument(res), &buf); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode page")
		}
		return buf.Bytes(), nil
	}

	keyOpts := cache.ArtifactKeyOpts{Format: string(f)}
	if f == export.FormatPNG {
		keyOpts.Scale = opts.PNGScale
	}
	key := r.Keyer.ArtifactKey(cache.Hash(svg), keyOpts)
	hooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Warn("cache read failed", "format", f, "err", err)
	}
	if err == nil && hit {
		hooks.OnCacheHit(ctx, cacheKeyType)
		res.CacheInfo.Hits++
		return data, nil
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)
	res.CacheInfo.Misses++

	conv := r.Converter
	if conv == nil {
		conv = export.Rsvg{Scale: opts.PNGScale}
	}
	data, err = conv.Convert(ctx, svg, f)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
		opts.Logger.Warn("cache write failed", "format", f, "err", err)
	} else {
		hooks.OnCacheSet(ctx, cacheKeyType, len(data))
	}
	return data, nil
}
