package layout_test

import (
	"fmt"

	"github.com/matzehuels/pagestack/pkg/layout"
)

func ExamplePack() {
	// Five A5-sized pages on a 2×2 grid.
	g, err := layout.NewGeometry(2, 2, 420, 595)
	if err != nil {
		panic(err)
	}

	for p := range layout.Pack(5, g, layout.TopLeft) {
		fmt.Printf("page %s -> sheet %d cell (%d,%d) label at (%.0f,%.0f)\n",
			p.LabelText, p.SheetIndex, p.Row, p.Col, p.Label.X, p.Label.Y)
	}
	fmt.Println("sheets:", g.TotalSheets(5))
	// Output:
	// page 1 -> sheet 0 cell (0,0) label at (10,20)
	// page 2 -> sheet 0 cell (0,1) label at (430,20)
	// page 3 -> sheet 0 cell (1,0) label at (10,615)
	// page 4 -> sheet 0 cell (1,1) label at (430,615)
	// page 5 -> sheet 1 cell (0,0) label at (10,20)
	// sheets: 2
}

func ExampleTemplate() {
	g, _ := layout.NewGeometry(1, 2, 100, 100)

	for p := range layout.Pack(2, g, layout.BottomRight, layout.WithLabeler(layout.Template("Page {n}"))) {
		fmt.Println(p.LabelText, p.LabelAlign)
	}
	// Output:
	// Page 1 right
	// Page 2 right
}

func ExampleNewGeometry() {
	_, err := layout.NewGeometry(0, 2, 595, 842)
	fmt.Println(err)
	// Output:
	// INVALID_GEOMETRY: rows must be at least 1, got 0
}
