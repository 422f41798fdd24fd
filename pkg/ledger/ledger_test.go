package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNeedsProcessing(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := New()
	l.Mark("永/1.svg", base)

	tests := []struct {
		name    string
		path    string
		modTime time.Time
		want    bool
	}{
		{"never processed", "永/2.svg", base, true},
		{"modified before", "永/1.svg", base.Add(-time.Hour), false},
		{"modified at the same time", "永/1.svg", base, false},
		{"modified after", "永/1.svg", base.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.NeedsProcessing(tt.path, tt.modTime); got != tt.want {
				t.Errorf("NeedsProcessing(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	l.Forget("永/1.svg")
	if !l.NeedsProcessing("永/1.svg", base.Add(-time.Hour)) {
		t.Error("forgotten path should need processing")
	}
}

func TestChanged(t *testing.T) {
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fsys := fstest.MapFS{
		"a/1.svg":    {ModTime: old},
		"a/2.svg":    {ModTime: old.Add(48 * time.Hour)},
		"b/1.svg":    {ModTime: old},
		"b/notes.md": {ModTime: old.Add(48 * time.Hour)},
	}
	l := FromEntries(map[string]time.Time{
		"a/1.svg": old.Add(time.Hour),
		"a/2.svg": old.Add(time.Hour),
	})

	got, err := Changed(fsys, l)
	if err != nil {
		t.Fatalf("Changed() error: %v", err)
	}
	want := []string{"a/2.svg", "b/1.svg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Changed() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "state", "last_compress.json"))

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() of missing file error: %v", err)
	}
	if empty.Len() != 0 {
		t.Fatalf("Load() of missing file has %d entries", empty.Len())
	}

	l := New()
	l.Mark("永/1.svg", time.Unix(1714564800, 250_000_000))
	l.Mark("A/a.svg", time.Unix(1700000000, 0))
	if err := store.Save(ctx, l); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(l.Paths(), got.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	for path, want := range l.Entries() {
		have, _ := got.Last(path)
		if d := have.Sub(want); d < -time.Microsecond || d > time.Microsecond {
			t.Errorf("Last(%q) = %v, want %v", path, have, want)
		}
	}
}

func TestFileStoreFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_compress.json")
	if err := os.WriteFile(path, []byte(`{"data/font/永/1.svg": 1714564800.5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	got, ok := l.Last("data/font/永/1.svg")
	want := time.Unix(1714564800, 500_000_000)
	if !ok || !got.Equal(want) {
		t.Errorf("Last() = %v, %v; want %v", got, ok, want)
	}

	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Error("Load() of corrupt file should fail")
	}
}

func TestMongoDocuments(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := FromEntries(map[string]time.Time{"b.svg": at, "a.svg": at.Add(time.Hour)})

	docs := toMongo(l)
	want := []mongoEntry{
		{Path: "a.svg", ProcessedAt: at.Add(time.Hour)},
		{Path: "b.svg", ProcessedAt: at},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Errorf("toMongo() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(l.Entries(), fromMongo(docs).Entries()); diff != "" {
		t.Errorf("fromMongo() mismatch (-want +got):\n%s", diff)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("HANDWRITE_TEST_MONGO")
	if uri == "" {
		t.Skip("HANDWRITE_TEST_MONGO not set")
	}
	ctx := context.Background()
	store, err := NewMongoStore(ctx, uri, "handwrite_test", "ledger_"+time.Now().Format("150405.000"))
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	defer store.Close(ctx)
	defer store.coll.Drop(ctx)

	l := New()
	l.Mark("a.svg", time.Now().UTC().Truncate(time.Millisecond))
	l.Mark("b.svg", time.Now().UTC().Truncate(time.Millisecond))
	if err := store.Save(ctx, l); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	l.Forget("b.svg")
	if err := store.Save(ctx, l); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff([]string{"a.svg"}, got.Paths()); diff != "" {
		t.Errorf("Load() paths mismatch (-want +got):\n%s", diff)
	}
}
