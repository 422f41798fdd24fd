package ledger

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps a ledger in a JSON file mapping each path to a Unix
// timestamp in fractional seconds.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the ledger file path.
func (s *FileStore) Path() string { return s.path }

// Load implements [Store]. A missing file yields an empty ledger.
func (s *FileStore) Load(_ context.Context) (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	l := New()
	for path, secs := range raw {
		l.entries[path] = fromUnixSeconds(secs)
	}
	return l, nil
}

// Save implements [Store]. The file is replaced atomically.
func (s *FileStore) Save(_ context.Context, l *Ledger) error {
	raw := make(map[string]float64, l.Len())
	for path, t := range l.Entries() {
		raw[path] = toUnixSeconds(t)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func toUnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9)))
}

var _ Store = (*FileStore)(nil)
