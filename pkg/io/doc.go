// Package io reads and writes rendered pages as JSON.
//
// A page document records every glyph of a render pass: its cell, the
// variant drawn there (or the fallback blank) and the glyph transform. It
// is enough to redraw the page without picking again, which is how single
// glyphs are overridden after a pass.
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "pass_id": "4a1c...",
//	  "seed": 7,
//	  "text": "永永",
//	  "layout": {"cell_size": 15, "column_limit": 1, "max_rows_per_column": 30, "max_columns": 30},
//	  "margin": 0,
//	  "truncated": false,
//	  "glyphs": [
//	    {"char": "永", "column": 0, "row": 0, "cell": 0, "x": 0, "y": 0,
//	     "variant": "永/3.svg", "transform": [1, 0, 0, 1, 0, 0]}
//	  ]
//	}
//
// A glyph has either a variant or a fallback text, never both.
//
// # Import
//
// Use [ImportJSON] to read a page from a file path, or [ReadJSON] to read
// from any io.Reader. Both validate the document and report the offending
// glyph index on failure.
//
// # Export
//
// Use [ExportJSON] to write a page to a file, or [WriteJSON] to write to any
// io.Writer.
package io
