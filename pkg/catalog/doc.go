// Package catalog provides access to hand-drawn glyph assets.
//
// # Overview
//
// Every character that can be rendered has one or more hand-drawn variants,
// each a small SVG file. The catalog answers two questions for the rest of
// the system: which variants exist for a character ([Catalog]), and what is
// the content of a given variant ([Loader]).
//
// # Directory Layout
//
// The on-disk layout is one directory per character, named by the character
// itself, containing any number of .svg files:
//
//	assets/
//	  永/
//	    1.svg
//	    2.svg
//	  A/
//	    a1.svg
//
// [Dir] serves this layout from any [io/fs.FS], so tests can use
// [testing/fstest.MapFS] and the CLI uses [os.DirFS].
//
// # Variant Identifiers
//
// A [VariantID] is the slash-separated path of the variant relative to the
// asset root ("永/1.svg"). Identifiers are opaque to the picker and the
// layout engine; only loaders interpret them.
//
// A character without a directory, or with an empty directory, simply has
// no variants. That is not an error: callers substitute a fallback blank.
package catalog
