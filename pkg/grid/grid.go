package grid

import (
	"fmt"
)

// Default page limits.
const (
	DefaultMaxRowsPerColumn = 30
	DefaultMaxColumns       = 30
	DefaultColumnLimit      = 1
	MaxColumnLimit          = 4
)

// Config parametrizes a layout pass. It is supplied by the caller and never
// modified by the engine.
type Config struct {
	CellSize         float64 `json:"cell_size"`
	ColumnLimit      int     `json:"column_limit"`
	MaxRowsPerColumn int     `json:"max_rows_per_column"`
	MaxColumns       int     `json:"max_columns"`
}

// DefaultConfig returns a single-column configuration with the given cell size.
func DefaultConfig(cellSize float64) Config {
	return Config{
		CellSize:         cellSize,
		ColumnLimit:      DefaultColumnLimit,
		MaxRowsPerColumn: DefaultMaxRowsPerColumn,
		MaxColumns:       DefaultMaxColumns,
	}
}

// Validate reports whether the configuration is usable by [Layout].
// Layout itself does not validate; callers are expected to check first.
func (c Config) Validate() error {
	if c.CellSize <= 0 {
		return fmt.Errorf("cell size must be positive, got %g", c.CellSize)
	}
	if c.ColumnLimit < 1 || c.ColumnLimit > MaxColumnLimit {
		return fmt.Errorf("column limit must be between 1 and %d, got %d", MaxColumnLimit, c.ColumnLimit)
	}
	if c.MaxRowsPerColumn < 1 {
		return fmt.Errorf("max rows per column must be positive, got %d", c.MaxRowsPerColumn)
	}
	if c.MaxColumns < 1 {
		return fmt.Errorf("max columns must be positive, got %d", c.MaxColumns)
	}
	if c.MaxColumns < c.ColumnLimit {
		return fmt.Errorf("max columns (%d) must be at least the column limit (%d)", c.MaxColumns, c.ColumnLimit)
	}
	return nil
}

// Placement is the cell assigned to one input character.
type Placement struct {
	Char   rune    `json:"char"`
	Column int     `json:"column"` // visual column index
	Row    int     `json:"row"`    // row within the visual column
	Cell   int     `json:"cell"`   // cell within the row
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Page is the result of one layout pass.
type Page struct {
	Placements []Placement `json:"placements"`
	Truncated  bool        `json:"truncated"`
}

// Capacity returns the number of cells per row in visual column i.
// Grid slots left over after an even split go to the leftmost columns.
func Capacity(i int, cfg Config) int {
	n := cfg.MaxColumns / cfg.ColumnLimit
	if i < cfg.MaxColumns%cfg.ColumnLimit {
		n++
	}
	return n
}

// Capacities returns the per-row capacity of every visual column.
func Capacities(cfg Config) []int {
	caps := make([]int, cfg.ColumnLimit)
	for i := range caps {
		caps[i] = Capacity(i, cfg)
	}
	return caps
}

// MaxPlacements returns the number of characters a page can hold.
func MaxPlacements(cfg Config) int {
	total := 0
	for _, c := range Capacities(cfg) {
		total += c
	}
	return total * cfg.MaxRowsPerColumn
}

// Bounds returns the pixel extent of a full page.
func Bounds(cfg Config) (width, height float64) {
	cells := 0
	for _, c := range Capacities(cfg) {
		cells += c
	}
	return float64(cells) * cfg.CellSize, float64(cfg.MaxRowsPerColumn) * cfg.CellSize
}

// IsLineBreak reports whether r ends a line.
func IsLineBreak(r rune) bool {
	return r == '\n'
}

// Layout assigns a cell to every character of text until the page is full.
// Line breaks produce no placement. If the page runs out of visual columns
// the page is marked truncated and the offending character and everything
// after it are dropped.
//
// cfg must satisfy [Config.Validate].
func Layout(text []rune, cfg Config) Page {
	var page Page

	column, row, col := 0, 0, -1
	shift := 0 // cells occupied by the visual columns to the left

	for _, r := range text {
		if IsLineBreak(r) {
			row++
			col = -1
			continue
		}

		col++
		capacity := Capacity(column, cfg)
		if col >= capacity {
			col = 0
			row++
		}
		if row >= cfg.MaxRowsPerColumn {
			shift += capacity
			column++
			row = 0
		}
		if column >= cfg.ColumnLimit {
			page.Truncated = true
			break
		}

		page.Placements = append(page.Placements, Placement{
			Char:   r,
			Column: column,
			Row:    row,
			Cell:   col,
			X:      float64(shift+col) * cfg.CellSize,
			Y:      float64(row) * cfg.CellSize,
		})
	}
	return page
}
