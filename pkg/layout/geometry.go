package layout

import (
	"math"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// Rect is an axis-aligned rectangle in sheet coordinates.
// (X0, Y0) is the top-left corner and (X1, Y1) the bottom-right corner.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Point is a position in sheet coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry describes an N-up grid: how many rows and columns of cells a sheet
// holds and the size of one cell. Construct it with [NewGeometry].
type Geometry struct {
	rows, cols int
	cellW      float64
	cellH      float64
}

// NewGeometry validates and returns a grid geometry.
// It fails with INVALID_GEOMETRY if rows or cols is below 1 or if a cell
// dimension is not a positive finite number.
func NewGeometry(rows, cols int, cellWidth, cellHeight float64) (Geometry, error) {
	if rows < 1 {
		return Geometry{}, errors.New(errors.ErrCodeInvalidGeometry, "rows must be at least 1, got %d", rows)
	}
	if cols < 1 {
		return Geometry{}, errors.New(errors.ErrCodeInvalidGeometry, "cols must be at least 1, got %d", cols)
	}
	if !positive(cellWidth) {
		return Geometry{}, errors.New(errors.ErrCodeInvalidGeometry, "cell width must be positive, got %v", cellWidth)
	}
	if !positive(cellHeight) {
		return Geometry{}, errors.New(errors.ErrCodeInvalidGeometry, "cell height must be positive, got %v", cellHeight)
	}
	if rows > math.MaxInt/cols {
		return Geometry{}, errors.New(errors.ErrCodeInvalidGeometry, "grid %dx%d is too large", rows, cols)
	}
	return Geometry{rows: rows, cols: cols, cellW: cellWidth, cellH: cellHeight}, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (g Geometry) Rows() int           { return g.rows }
func (g Geometry) Cols() int           { return g.cols }
func (g Geometry) CellWidth() float64  { return g.cellW }
func (g Geometry) CellHeight() float64 { return g.cellH }

// SheetWidth returns cols × cell width.
func (g Geometry) SheetWidth() float64 { return float64(g.cols) * g.cellW }

// SheetHeight returns rows × cell height.
func (g Geometry) SheetHeight() float64 { return float64(g.rows) * g.cellH }

// CellsPerSheet returns rows × cols.
func (g Geometry) CellsPerSheet() int { return g.rows * g.cols }

// SheetRect returns the full sheet rectangle.
func (g Geometry) SheetRect() Rect {
	return Rect{X1: g.SheetWidth(), Y1: g.SheetHeight()}
}

// CellRect returns the rectangle of the cell at (row, col).
func (g Geometry) CellRect(row, col int) Rect {
	return Rect{
		X0: float64(col) * g.cellW,
		Y0: float64(row) * g.cellH,
		X1: float64(col+1) * g.cellW,
		Y1: float64(row+1) * g.cellH,
	}
}

// IsZero reports whether g is the zero value, i.e. was not built by NewGeometry.
func (g Geometry) IsZero() bool { return g.rows == 0 }

// TotalSheets returns the number of sheets needed for numPages source pages:
// ceil(numPages / CellsPerSheet). It is 0 when numPages ≤ 0.
func (g Geometry) TotalSheets(numPages int) int {
	return TotalSheets(numPages, g)
}

// TotalSheets returns ceil(numPages / g.CellsPerSheet()), or 0 for an empty
// document. Negative page counts are treated as 0.
func TotalSheets(numPages int, g Geometry) int {
	n := g.CellsPerSheet()
	if numPages <= 0 || n <= 0 {
		return 0
	}
	// (numPages-1)/n + 1 avoids overflow of numPages+n-1.
	return (numPages-1)/n + 1
}
