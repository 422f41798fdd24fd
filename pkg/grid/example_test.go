package grid_test

import (
	"fmt"

	"github.com/matzehuels/handwrite/pkg/grid"
)

func ExampleLayout() {
	cfg := grid.Config{CellSize: 10, ColumnLimit: 1, MaxRowsPerColumn: 30, MaxColumns: 30}
	page := grid.Layout([]rune("ab\ncd"), cfg)

	for _, p := range page.Placements {
		fmt.Printf("%c (%g,%g)\n", p.Char, p.X, p.Y)
	}
	fmt.Println("truncated:", page.Truncated)
	// Output:
	// a (0,0)
	// b (10,0)
	// c (0,10)
	// d (10,10)
	// truncated: false
}

func ExampleCapacities() {
	cfg := grid.Config{CellSize: 15, ColumnLimit: 4, MaxRowsPerColumn: 30, MaxColumns: 30}
	fmt.Println(grid.Capacities(cfg))
	fmt.Println(grid.MaxPlacements(cfg))
	// Output:
	// [8 8 7 7]
	// 900
}
