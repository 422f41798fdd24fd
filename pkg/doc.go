// Package pkg provides the core libraries for handwrite page rendering.
//
// # Overview
//
// Handwrite lays text out on a grid page and draws each character with one
// of its hand-drawn SVG variants. A per-character recency window keeps the
// same variant from showing up again too soon, so repeated letters look
// written rather than stamped.
//
// # Architecture
//
// The data flow of one render pass:
//
//	Text
//	  ↓
//	[grid] (assign every character a cell; mark truncation)
//	  ↓
//	[picker] (choose a variant per cell from the [catalog])
//	  ↓
//	[decorate] (optional per-glyph jitter)
//	  ↓
//	[surface] (draw an SVG page)
//	  ↓
//	[export] (SVG, PDF, PNG) and [io] (JSON page documents)
//
// [pipeline] runs the pass and caches exports through [cache].
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/handwrite/pkg/cache"
//	    "github.com/matzehuels/handwrite/pkg/catalog"
//	    "github.com/matzehuels/handwrite/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(catalog.NewDir("assets"), cache.NewNullCache(), nil, nil)
//	res, err := runner.Render(context.Background(), pipeline.Options{
//	    Text:    "hello world",
//	    Formats: []string{"svg", "json"},
//	})
//	svg := res.Artifacts["svg"]
//
// # Main Packages
//
// Layout and picking:
//   - [grid]: cell assignment for visual columns
//   - [picker]: non-repeating variant choice with recency windows
//   - [catalog]: variant trees on disk or in memory
//   - [decorate]: glyph jitter transforms
//
// Output:
//   - [surface]: drawing targets, including the SVG page
//   - [export]: PDF and PNG conversion, background images
//   - [io]: JSON page documents for later overrides
//
// Infrastructure:
//   - [cache]: export cache backends (file, Redis, null)
//   - [session]: preview server sessions (memory, file, Redis)
//   - [ledger]: processed-asset bookkeeping (JSON file, MongoDB)
//   - [config]: TOML configuration file
//   - [observability]: pipeline, cache and server event hooks
//   - [errors]: coded errors
//   - [buildinfo]: version information
package pkg
