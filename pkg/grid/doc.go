// Package grid flows a character stream into a page of fixed-size cells.
//
// # Overview
//
// A page is split into up to [Config.ColumnLimit] visual columns that sit
// side by side. Each visual column is a block of cells: a number of cells
// per row (its capacity) and up to [Config.MaxRowsPerColumn] rows. The
// [Config.MaxColumns] grid slots of a row are shared between the visual
// columns, with the remainder going to the leftmost columns first:
//
//	MaxColumns=30, ColumnLimit=4  →  capacities 8, 8, 7, 7
//	MaxColumns=30, ColumnLimit=3  →  capacities 10, 10, 10
//
// # Algorithm
//
// [Layout] makes a single left-to-right, top-to-bottom pass. For every
// character it evaluates, in order:
//
//  1. Line break: move to the next row of the current visual column. No
//     placement is emitted and no capacity check runs.
//  2. Row overflow: the character does not fit on the current row, so it
//     wraps to the start of the next row.
//  3. Column overflow: the visual column has run out of rows, so layout
//     continues at the top of the next visual column.
//  4. Page overflow: no visual columns are left. The page is marked
//     truncated and the remaining characters are dropped.
//
// A single character can cascade through steps 2 to 4.
//
// # Determinism
//
// Layout is a pure function of its inputs: the same text and configuration
// always produce the same placements. Randomness (glyph choice, jitter)
// belongs to later stages.
//
//	page := grid.Layout([]rune("ab\ncd"), grid.Config{CellSize: 10, ColumnLimit: 1,
//	    MaxRowsPerColumn: 30, MaxColumns: 30})
//	// a (0,0)  b (10,0)
//	// c (0,10) d (10,10)
package grid
