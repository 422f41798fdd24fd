package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/errors"
)

// ReadJSON decodes and validates a page from r.
//
// ReadJSON returns an [errors.ErrCodeInvalidFormat] error if:
//   - The JSON is malformed
//   - The version is newer than [Version]
//   - The layout configuration is unusable
//   - A glyph's char is not exactly one character
//   - A glyph has both or neither of variant and fallback
//   - A glyph's variant belongs to another character
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Page, error) {
	var p Page
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode page")
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ImportJSON reads a page from a JSON file at path.
func ImportJSON(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Validate checks a decoded page. See [ReadJSON] for the rules.
func Validate(p *Page) error {
	if p.Version > Version {
		return errors.New(errors.ErrCodeInvalidFormat, "page version %d is newer than supported version %d", p.Version, Version)
	}
	if err := p.Layout.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "page layout")
	}
	for i, g := range p.Glyphs {
		if utf8.RuneCountInString(g.Char) != 1 {
			return errors.New(errors.ErrCodeInvalidFormat, "glyph %d: char %q is not a single character", i, g.Char)
		}
		if (g.Variant == "") == (g.Fallback == "") {
			return errors.New(errors.ErrCodeInvalidFormat, "glyph %d: exactly one of variant and fallback must be set", i)
		}
		if g.Variant != "" && catalog.VariantID(g.Variant).Char() != g.Rune() {
			return errors.New(errors.ErrCodeInvalidFormat, "glyph %d: variant %s does not belong to %q", i, g.Variant, g.Char)
		}
	}
	return nil
}
