package assemble_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/layout"
)

type a5Pages int

func (n a5Pages) NumPages() int                        { return int(n) }
func (a5Pages) PageSize(int) (float64, float64, error) { return 420, 595, nil }

type printer struct{ sheets int }

func (p *printer) Begin(sheets int, w, h float64) error {
	p.sheets = sheets
	fmt.Printf("%d sheets of %gx%g\n", sheets, w, h)
	return nil
}

func (p *printer) DrawPage(sheet, page int, dest layout.Rect) error {
	fmt.Printf("sheet %d: page %d at (%g,%g)\n", sheet, page, dest.X0, dest.Y0)
	return nil
}

func (p *printer) DrawLabel(int, assemble.Label) error { return nil }

func (p *printer) Finish() (assemble.Document, error) { return nil, nil }

func ExampleAssemble() {
	src := a5Pages(3)

	g, err := assemble.GeometryFor(src, 1, 2)
	if err != nil {
		panic(err)
	}
	if _, err := assemble.Assemble(context.Background(), src, g, layout.TopLeft, &printer{}); err != nil {
		panic(err)
	}
	// Output:
	// 2 sheets of 840x595
	// sheet 0: page 0 at (0,0)
	// sheet 0: page 1 at (420,0)
	// sheet 1: page 2 at (0,0)
}
