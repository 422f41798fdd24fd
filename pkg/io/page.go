package io

import (
	"unicode/utf8"

	"github.com/matzehuels/handwrite/pkg/grid"
)

// Version is the current page document version.
const Version = 1

// Page is a rendered page document.
type Page struct {
	Version   int         `json:"version"`
	PassID    string      `json:"pass_id,omitempty"`
	Seed      uint64      `json:"seed"`
	Text      string      `json:"text"`
	Layout    grid.Config `json:"layout"`
	Margin    float64     `json:"margin,omitempty"`
	Decorate  bool        `json:"decorate,omitempty"`
	Truncated bool        `json:"truncated"`
	Glyphs    []Glyph     `json:"glyphs"`
}

// Glyph is one placed character of a page.
type Glyph struct {
	Char      string     `json:"char"`
	Column    int        `json:"column"`
	Row       int        `json:"row"`
	Cell      int        `json:"cell"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Variant   string     `json:"variant,omitempty"`
	Fallback  string     `json:"fallback,omitempty"`
	Transform [6]float64 `json:"transform"`
}

// Rune returns the glyph's character, or utf8.RuneError if Char is not a
// single character.
func (g Glyph) Rune() rune {
	r, size := utf8.DecodeRuneInString(g.Char)
	if size != len(g.Char) {
		return utf8.RuneError
	}
	return r
}
