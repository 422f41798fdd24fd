package picker

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/handwrite/pkg/catalog"
)

// DefaultWindowSize is the number of recent picks remembered per character.
const DefaultWindowSize = 10

// Source is a source of uniformly distributed integers.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewSource returns a seeded PCG source.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Policy decides what Pick does when every candidate is in the window.
type Policy int

const (
	// FallbackBlank reports no variant so the caller draws a blank.
	FallbackBlank Policy = iota
	// ReuseOldest returns the least recently used candidate.
	ReuseOldest
)

func (p Policy) String() string {
	switch p {
	case FallbackBlank:
		return "blank"
	case ReuseOldest:
		return "reuse"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses the names returned by [Policy.String].
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "blank":
		return FallbackBlank, nil
	case "reuse":
		return ReuseOldest, nil
	default:
		return 0, fmt.Errorf("unknown exhausted-window policy %q (want blank or reuse)", s)
	}
}

// Option configures a Picker.
type Option func(*Picker)

// WithWindowSize sets how many recent picks are remembered per character.
// Values below 1 are ignored.
func WithWindowSize(n int) Option {
	return func(p *Picker) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithPolicy sets the exhausted-window policy.
func WithPolicy(policy Policy) Option {
	return func(p *Picker) { p.policy = policy }
}

// Picker chooses variants for characters while avoiding recent repeats.
type Picker struct {
	cat     catalog.Catalog
	src     Source
	size    int
	policy  Policy
	windows map[rune][]catalog.VariantID
}

// New creates a picker with empty recency windows.
// If src is nil a source seeded with 0 is used.
func New(cat catalog.Catalog, src Source, opts ...Option) *Picker {
	if src == nil {
		src = NewSource(0)
	}
	p := &Picker{
		cat:     cat,
		src:     src,
		size:    DefaultWindowSize,
		windows: make(map[rune][]catalog.VariantID),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetPolicy changes the exhausted-window policy for later picks.
func (p *Picker) SetPolicy(policy Policy) { p.policy = policy }

// Pick returns a variant for r that is not in r's recency window.
// It returns false if r has no variants, or if all of them are in the
// window and the policy is [FallbackBlank]. Only r's window is updated.
func (p *Picker) Pick(r rune) (catalog.VariantID, bool) {
	candidates := p.cat.Variants(r)
	if len(candidates) == 0 {
		return "", false
	}

	window := p.windows[r]
	available := make([]catalog.VariantID, 0, len(candidates))
	for _, id := range candidates {
		if !slices.Contains(window, id) {
			available = append(available, id)
		}
	}

	if len(available) == 0 {
		if p.policy != ReuseOldest {
			return "", false
		}
		return p.reuse(r, candidates)
	}

	id := available[p.src.IntN(len(available))]
	window = append(window, id)
	if len(window) > p.size {
		window = slices.Delete(window, 0, len(window)-p.size)
	}
	p.windows[r] = window
	return id, true
}

// reuse moves the oldest window entry that is still a candidate to the tail.
func (p *Picker) reuse(r rune, candidates []catalog.VariantID) (catalog.VariantID, bool) {
	window := p.windows[r]
	for i, id := range window {
		if slices.Contains(candidates, id) {
			window = append(slices.Delete(window, i, i+1), id)
			p.windows[r] = window
			return id, true
		}
	}
	return "", false
}

// AllVariants lists every variant of r. It never reads or changes the
// recency windows.
func (p *Picker) AllVariants(r rune) []catalog.VariantID {
	return p.cat.Variants(r)
}

// Window returns a copy of r's recency window, oldest first.
func (p *Picker) Window(r rune) []catalog.VariantID {
	return slices.Clone(p.windows[r])
}

// Snapshot returns a copy of all recency windows.
func (p *Picker) Snapshot() map[rune][]catalog.VariantID {
	out := make(map[rune][]catalog.VariantID, len(p.windows))
	for r, w := range p.windows {
		if len(w) > 0 {
			out[r] = slices.Clone(w)
		}
	}
	return out
}

// Restore replaces all recency windows with a copy of windows. Windows
// longer than the picker's size keep their newest entries.
func (p *Picker) Restore(windows map[rune][]catalog.VariantID) {
	p.windows = make(map[rune][]catalog.VariantID, len(windows))
	for r, w := range windows {
		if len(w) > p.size {
			w = w[len(w)-p.size:]
		}
		if len(w) > 0 {
			p.windows[r] = slices.Clone(w)
		}
	}
}

// Reset clears all recency windows.
func (p *Picker) Reset() {
	clear(p.windows)
}

// =============================================================================
// Fallback glyphs
// =============================================================================

// Fallback blanks drawn in place of characters without a variant.
const (
	FullWidthBlank = "\u3000"
	HalfWidthBlank = " "
)

// IsCJK reports whether r is in the CJK Unified Ideographs block.
func IsCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// Fallback returns the blank drawn for r when no variant is available.
func Fallback(r rune) string {
	if IsCJK(r) {
		return FullWidthBlank
	}
	return HalfWidthBlank
}
