// Package layout computes N-up sheet placements for paginated documents.
//
// # Overview
//
// N-up layout arranges several source pages on one output sheet in a grid of
// rows × columns. This package is the pure, renderer-independent core of
// Pagestack: given a page count, a [Geometry] and a label [Anchor] it returns,
// for every source page, the sheet it lands on, the cell it occupies and where
// its page-number label is drawn.
//
// # Geometry
//
// A [Geometry] is validated once by [NewGeometry] and immutable afterwards:
//
//	g, err := layout.NewGeometry(2, 2, 595, 842) // 2×2 grid of A4 cells
//	if err != nil {
//	    return err // INVALID_GEOMETRY
//	}
//	g.SheetWidth()  // 1190
//	g.SheetHeight() // 1684
//
// # Packing
//
// [Pack] yields placements lazily in ascending page order. Cells are filled
// row-major: left to right, then top to bottom. A partial last sheet simply
// receives fewer placements.
//
//	for p := range layout.Pack(5, g, layout.TopLeft) {
//	    fmt.Println(p.SheetIndex, p.Row, p.Col, p.LabelText)
//	}
//
// [TotalSheets] reports ceil(pages / cells per sheet), which is 0 for an
// empty document.
//
// # Coordinates
//
// All coordinates are in PDF points with the origin at the sheet's top-left
// corner and Y increasing downward. A label [Point] is the text baseline
// origin; for right-hand anchors the [Placement.LabelAlign] hint asks the
// renderer to end the string at the point instead of starting it there.
//
// # Labels
//
// The default label is the 1-based page number. [WithLabeler] replaces the
// text function and [Template] builds one from strings such as "Page {n}".
package layout
