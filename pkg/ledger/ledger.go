// Package ledger records when each asset file was last processed by an
// offline tool, so unchanged files can be skipped on the next run.
//
// A [Ledger] lives in memory. It is read and written explicitly through a
// [Store]; nothing is loaded implicitly.
//
//	store := ledger.NewFileStore("last_compress.json")
//	l, err := store.Load(ctx)
//	changed, err := ledger.Changed(os.DirFS("assets"), l)
//	for _, path := range changed {
//	    process(path)
//	    l.Mark(path, time.Now())
//	}
//	err = store.Save(ctx, l)
//
// The render pipeline never reads the ledger.
package ledger

import (
	"context"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Ledger maps asset paths to the time they were last processed.
// It is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string]time.Time)}
}

// FromEntries creates a ledger holding a copy of entries.
func FromEntries(entries map[string]time.Time) *Ledger {
	l := New()
	maps.Copy(l.entries, entries)
	return l
}

// NeedsProcessing reports whether path was never processed or was modified
// after it was last processed.
func (l *Ledger) NeedsProcessing(path string, modTime time.Time) bool {
	last, ok := l.Last(path)
	return !ok || modTime.After(last)
}

// Last returns the last processing time of path.
func (l *Ledger) Last(path string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.entries[path]
	return t, ok
}

// Mark records that path was processed at t.
func (l *Ledger) Mark(path string, t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[path] = t
}

// Forget removes path from the ledger.
func (l *Ledger) Forget(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, path)
}

// Entries returns a copy of all entries.
func (l *Ledger) Entries() map[string]time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.entries)
}

// Paths returns all recorded paths, sorted.
func (l *Ledger) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.entries))
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Store loads and saves ledgers.
type Store interface {
	// Load returns the stored ledger, or an empty one if nothing is stored.
	Load(ctx context.Context) (*Ledger, error)

	// Save replaces the stored ledger with l.
	Save(ctx context.Context, l *Ledger) error
}

// Changed lists the .svg files under fsys that need processing, sorted.
func Changed(fsys fs.FS, l *Ledger) ([]string, error) {
	var out []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".svg") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if l.NeedsProcessing(path, info.ModTime()) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
