package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateVariantPath validates a glyph variant identifier read from
// untrusted input (page JSON files, HTTP requests).
// Variant identifiers are slash-separated paths relative to the asset root,
// for example "永/3.svg".
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 bytes
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
//   - Must name an .svg file
func ValidateVariantPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "variant path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "variant path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "variant path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "variant path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "variant path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "variant path cannot contain backslashes")
	}
	if !strings.HasSuffix(path, ".svg") {
		return New(ErrCodeInvalidPath, "variant path must name an .svg file")
	}

	return nil
}

// ValidateCharacter checks that s holds exactly one printable character.
// It is used for command-line and URL arguments that name a single glyph.
func ValidateCharacter(s string) (rune, error) {
	if s == "" {
		return 0, New(ErrCodeInvalidInput, "character cannot be empty")
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return 0, New(ErrCodeInvalidInput, "character is not valid UTF-8")
	}
	if size != len(s) {
		return 0, New(ErrCodeInvalidInput, "expected a single character, got %q", s)
	}
	if unicode.IsControl(r) {
		return 0, New(ErrCodeInvalidInput, "character %U is a control character", r)
	}
	return r, nil
}
