package pipeline

import (
	"slices"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/errors"
)

// Override replaces the variant of glyphs[index] with id. The variant must
// be one of the glyph's character variants. The glyph keeps its placement
// and transform; the recency windows are not touched.
func (r *Runner) Override(glyphs []Glyph, index int, id catalog.VariantID) error {
	if index < 0 || index >= len(glyphs) {
		return errors.New(errors.ErrCodeInvalidInput, "glyph index %d out of range [0, %d)", index, len(glyphs))
	}
	g := &glyphs[index]
	if !slices.Contains(r.AllVariants(g.Char), id) {
		return errors.New(errors.ErrCodeAssetNotFound, "%s is not a variant of %q", id, g.Char)
	}
	g.Variant = id
	g.Fallback = ""
	return nil
}
