package catalog

import (
	"path"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/matzehuels/handwrite/pkg/errors"
)

// VariantID identifies one hand-drawn rendering of a character.
type VariantID string

// Char returns the character directory the variant lives in.
// It returns utf8.RuneError for identifiers that do not start with a
// single-character directory.
func (id VariantID) Char() rune {
	dir := path.Dir(string(id))
	r, size := utf8.DecodeRuneInString(dir)
	if size != len(dir) {
		return utf8.RuneError
	}
	return r
}

// Name returns the file name of the variant without its directory.
func (id VariantID) Name() string {
	return path.Base(string(id))
}

// Catalog lists the variants available for a character.
type Catalog interface {
	// Variants returns the variant identifiers for r in a stable order.
	// It returns nil if r has no variants.
	Variants(r rune) []VariantID

	// Exists reports whether r has at least one variant.
	Exists(r rune) bool
}

// Loader reads the content of a variant.
type Loader interface {
	Load(id VariantID) ([]byte, error)
}

// Assets is a catalog that can also load variants and enumerate characters.
type Assets interface {
	Catalog
	Loader

	// Characters returns every character with a variant directory, sorted.
	Characters() []rune
}

// =============================================================================
// Memory
// =============================================================================

// Memory is an in-memory catalog. The zero value is empty and ready to use.
// It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	variants map[rune][]VariantID
	data     map[VariantID][]byte
}

// NewMemory creates a catalog holding the given variants.
// Variants are kept in the order given.
func NewMemory(variants map[rune][]VariantID) *Memory {
	m := &Memory{}
	for r, ids := range variants {
		for _, id := range ids {
			m.Add(r, id, nil)
		}
	}
	return m
}

// Add registers a variant for r with optional SVG content.
func (m *Memory) Add(r rune, id VariantID, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.variants == nil {
		m.variants = make(map[rune][]VariantID)
		m.data = make(map[VariantID][]byte)
	}
	if !slices.Contains(m.variants[r], id) {
		m.variants[r] = append(m.variants[r], id)
	}
	if data != nil {
		m.data[id] = data
	}
}

// Variants returns a copy of the variants registered for r.
func (m *Memory) Variants(r rune) []VariantID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.variants[r])
}

// Exists reports whether r has at least one variant.
func (m *Memory) Exists(r rune) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.variants[r]) > 0
}

// Load returns the content registered for id.
func (m *Memory) Load(id VariantID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeAssetNotFound, "variant %s not found", id)
	}
	return data, nil
}

// Characters returns every character with at least one variant, sorted.
func (m *Memory) Characters() []rune {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chars := make([]rune, 0, len(m.variants))
	for r, ids := range m.variants {
		if len(ids) > 0 {
			chars = append(chars, r)
		}
	}
	slices.Sort(chars)
	return chars
}

var _ Assets = (*Memory)(nil)
