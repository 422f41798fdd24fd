package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON encodes a page as indented JSON and writes it to w.
// A zero Version is written as the current [Version].
func WriteJSON(p *Page, w io.Writer) error {
	out := *p
	if out.Version == 0 {
		out.Version = Version
	}
	if out.Glyphs == nil {
		out.Glyphs = []Glyph{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a page to a JSON file at path.
func ExportJSON(p *Page, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(p, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
