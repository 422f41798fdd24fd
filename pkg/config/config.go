// Package config loads the optional handwrite configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/handwrite/config.toml
// (~/.config/handwrite/config.toml by default). Every key is optional;
// command-line flags override file values.
//
//	assets = "~/handwriting/assets"
//
//	[layout]
//	cell_size = 15
//	columns = 2
//	margin = 10
//
//	[render]
//	formats = ["svg", "pdf"]
//	decorate = true
//	on_exhausted = "reuse"
//
//	[cache]
//	redis = "redis://localhost:6379/0"
//
//	[ledger]
//	mongo = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//	session_ttl = "12h"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/handwrite/pkg/errors"
)

// AppName names the configuration, cache and data directories.
const AppName = "handwrite"

// Config is the contents of the configuration file.
type Config struct {
	Assets string `toml:"assets"`

	Layout Layout `toml:"layout"`
	Render Render `toml:"render"`
	Cache  Cache  `toml:"cache"`
	Ledger Ledger `toml:"ledger"`
	Server Server `toml:"server"`
}

// Layout holds grid settings.
type Layout struct {
	CellSize   float64 `toml:"cell_size"`
	Columns    int     `toml:"columns"`
	MaxRows    int     `toml:"max_rows"`
	MaxColumns int     `toml:"max_columns"`
	Margin     float64 `toml:"margin"`
}

// Render holds render pass settings.
type Render struct {
	Formats     []string `toml:"formats"`
	Decorate    *bool    `toml:"decorate"`
	OnExhausted string   `toml:"on_exhausted"`
	Seed        uint64   `toml:"seed"`
	PNGScale    float64  `toml:"png_scale"`
	Background  string   `toml:"background"`
}

// Cache selects the artifact cache backend.
type Cache struct {
	Dir   string `toml:"dir"`
	Redis string `toml:"redis"`
}

// Ledger selects the asset ledger store.
type Ledger struct {
	Path       string `toml:"path"`
	Mongo      string `toml:"mongo"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server holds preview server settings.
type Server struct {
	Addr       string        `toml:"addr"`
	Redis      string        `toml:"redis"`
	SessionTTL time.Duration `toml:"session_ttl"`
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration file at path. A missing file yields an
// empty configuration unless required is set.
func Load(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return &Config{}, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML configuration data. Unknown keys are rejected so
// typos do not go unnoticed.
func Parse(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	c.Assets = ExpandHome(c.Assets)
	c.Render.Background = ExpandHome(c.Render.Background)
	c.Cache.Dir = ExpandHome(c.Cache.Dir)
	c.Ledger.Path = ExpandHome(c.Ledger.Path)
	return &c, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
