package catalog

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/matzehuels/handwrite/pkg/errors"
)

// VariantExt is the file extension of glyph variant files.
const VariantExt = ".svg"

// Dir is a catalog backed by a directory-per-character file tree.
// Listings are cached per character; call [Dir.Refresh] after the tree
// changes on disk. It is safe for concurrent use.
type Dir struct {
	fsys fs.FS

	mu      sync.Mutex
	listing map[rune][]VariantID
}

// NewDir creates a catalog rooted at the given directory.
func NewDir(root string) *Dir {
	return NewFS(os.DirFS(root))
}

// NewFS creates a catalog over fsys.
func NewFS(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys, listing: make(map[rune][]VariantID)}
}

// Variants returns the .svg files in r's directory, sorted by file name.
// Missing or unreadable directories yield no variants.
func (d *Dir) Variants(r rune) []VariantID {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ids, ok := d.listing[r]; ok {
		return slices.Clone(ids)
	}
	ids := d.scan(r)
	d.listing[r] = ids
	return slices.Clone(ids)
}

func (d *Dir) scan(r rune) []VariantID {
	dir := string(r)
	if dir == "." || !fs.ValidPath(dir) {
		return nil
	}
	entries, err := fs.ReadDir(d.fsys, dir)
	if err != nil {
		return nil
	}
	var ids []VariantID
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), VariantExt) {
			continue
		}
		ids = append(ids, VariantID(path.Join(dir, e.Name())))
	}
	return ids
}

// Exists reports whether r has at least one variant.
func (d *Dir) Exists(r rune) bool {
	return len(d.Variants(r)) > 0
}

// Load reads the SVG content of id.
func (d *Dir) Load(id VariantID) ([]byte, error) {
	if err := errors.ValidateVariantPath(string(id)); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(d.fsys, string(id))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(errors.ErrCodeAssetNotFound, err, "variant %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read variant %s", id)
	}
	return data, nil
}

// Characters returns every single-character directory at the root, sorted.
// Directories are listed even when they hold no variants yet.
func (d *Dir) Characters() []rune {
	entries, err := fs.ReadDir(d.fsys, ".")
	if err != nil {
		return nil
	}
	var chars []rune
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		r, size := utf8.DecodeRuneInString(e.Name())
		if r == utf8.RuneError || size != len(e.Name()) {
			continue
		}
		chars = append(chars, r)
	}
	slices.Sort(chars)
	return chars
}

// Refresh drops all cached listings.
func (d *Dir) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.listing)
}

var _ Assets = (*Dir)(nil)
