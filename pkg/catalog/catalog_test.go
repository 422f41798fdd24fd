package catalog

import (
	"testing"
	"testing/fstest"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/handwrite/pkg/errors"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"永/2.svg":      {Data: []byte("<svg/>")},
		"永/1.svg":      {Data: []byte("<svg>one</svg>")},
		"永/notes.txt":  {Data: []byte("ignored")},
		"A/a1.svg":      {Data: []byte("<svg/>")},
		"A/sub/x.svg":   {Data: []byte("<svg/>")},
		"empty/.keep":   {Data: nil},
		"B/.gitkeep":    {Data: nil},
		"README.md":     {Data: []byte("assets")},
		"last.json":     {Data: []byte("{}")},
		"C/c1.svg":      {Data: []byte("<svg/>")},
		"C/c2.svg":      {Data: []byte("<svg/>")},
		"C/c3.svg.orig": {Data: []byte("<svg/>")},
	}
}

func TestDirVariants(t *testing.T) {
	d := NewFS(testFS())

	tests := []struct {
		name string
		char rune
		want []VariantID
	}{
		{"sorted svg files only", '永', []VariantID{"永/1.svg", "永/2.svg"}},
		{"subdirectories skipped", 'A', []VariantID{"A/a1.svg"}},
		{"suffix must match exactly", 'C', []VariantID{"C/c1.svg", "C/c2.svg"}},
		{"empty directory", 'B', nil},
		{"missing directory", 'Z', nil},
		{"dot is not the root", '.', nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Variants(tt.char)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Variants(%q) mismatch (-want +got):\n%s", tt.char, diff)
			}
			if d.Exists(tt.char) != (len(tt.want) > 0) {
				t.Errorf("Exists(%q) = %v, want %v", tt.char, d.Exists(tt.char), len(tt.want) > 0)
			}
		})
	}
}

func TestDirVariantsReturnsCopy(t *testing.T) {
	d := NewFS(testFS())

	first := d.Variants('永')
	first[0] = "mutated"

	second := d.Variants('永')
	if second[0] != "永/1.svg" {
		t.Errorf("cached listing was mutated through returned slice: %v", second)
	}
}

func TestDirRefresh(t *testing.T) {
	fsys := testFS()
	d := NewFS(fsys)

	if got := len(d.Variants('永')); got != 2 {
		t.Fatalf("Variants() = %d entries, want 2", got)
	}

	fsys["永/3.svg"] = &fstest.MapFile{Data: []byte("<svg/>")}
	if got := len(d.Variants('永')); got != 2 {
		t.Errorf("Variants() before Refresh = %d entries, want cached 2", got)
	}

	d.Refresh()
	if got := len(d.Variants('永')); got != 3 {
		t.Errorf("Variants() after Refresh = %d entries, want 3", got)
	}
}

func TestDirLoad(t *testing.T) {
	d := NewFS(testFS())

	data, err := d.Load("永/1.svg")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if string(data) != "<svg>one</svg>" {
		t.Errorf("Load() = %q", data)
	}

	if _, err := d.Load("永/9.svg"); !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("Load(missing) error = %v, want %s", err, errors.ErrCodeAssetNotFound)
	}
	if _, err := d.Load("../secret.svg"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Load(traversal) error = %v, want %s", err, errors.ErrCodeInvalidPath)
	}
}

func TestDirCharacters(t *testing.T) {
	d := NewFS(testFS())

	want := []rune{'A', 'B', 'C', '永'}
	if diff := cmp.Diff(want, d.Characters()); diff != "" {
		t.Errorf("Characters() mismatch (-want +got):\n%s", diff)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory(map[rune][]VariantID{
		'a': {"a/2.svg", "a/1.svg"},
	})
	m.Add('b', "b/1.svg", []byte("<svg/>"))
	m.Add('b', "b/1.svg", nil)

	if diff := cmp.Diff([]VariantID{"a/2.svg", "a/1.svg"}, m.Variants('a')); diff != "" {
		t.Errorf("Variants(a) should keep insertion order (-want +got):\n%s", diff)
	}
	if got := m.Variants('b'); len(got) != 1 {
		t.Errorf("duplicate Add should be ignored, got %v", got)
	}
	if m.Exists('c') {
		t.Error("Exists(c) = true for unknown character")
	}

	if data, err := m.Load("b/1.svg"); err != nil || string(data) != "<svg/>" {
		t.Errorf("Load(b/1.svg) = %q, %v", data, err)
	}
	if _, err := m.Load("a/1.svg"); !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("Load without data error = %v, want %s", err, errors.ErrCodeAssetNotFound)
	}

	if diff := cmp.Diff([]rune{'a', 'b'}, m.Characters()); diff != "" {
		t.Errorf("Characters() mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryZeroValue(t *testing.T) {
	var m Memory
	if m.Exists('x') || m.Variants('x') != nil {
		t.Error("zero Memory should be empty")
	}
	m.Add('x', "x/1.svg", nil)
	if !m.Exists('x') {
		t.Error("zero Memory should accept Add")
	}
}

func TestVariantID(t *testing.T) {
	tests := []struct {
		id       VariantID
		wantChar rune
		wantName string
	}{
		{"永/1.svg", '永', "1.svg"},
		{"A/a1.svg", 'A', "a1.svg"},
		{"AB/x.svg", utf8.RuneError, "x.svg"},
	}
	for _, tt := range tests {
		if got := tt.id.Char(); got != tt.wantChar {
			t.Errorf("%s.Char() = %q, want %q", tt.id, got, tt.wantChar)
		}
		if got := tt.id.Name(); got != tt.wantName {
			t.Errorf("%s.Name() = %q, want %q", tt.id, got, tt.wantName)
		}
	}
}
