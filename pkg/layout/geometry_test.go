package layout

import (
	"math"
	"testing"

	"github.com/matzehuels/pagestack/pkg/errors"
)

func TestNewGeometry(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		w, h       float64
		wantErr    bool
	}{
		{"2x2 a4", 2, 2, 595, 842, false},
		{"1x1", 1, 1, 1, 1, false},
		{"wide strip", 1, 12, 100, 50, false},
		{"zero rows", 0, 2, 595, 842, true},
		{"zero cols", 2, 0, 595, 842, true},
		{"negative rows", -1, 2, 595, 842, true},
		{"zero width", 2, 2, 0, 842, true},
		{"negative height", 2, 2, 595, -1, true},
		{"nan width", 2, 2, math.NaN(), 842, true},
		{"inf height", 2, 2, 595, math.Inf(1), true},
		{"overflowing grid", math.MaxInt, 2, 1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGeometry(tt.rows, tt.cols, tt.w, tt.h)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGeometry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidGeometry) {
					t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidGeometry)
				}
				if !g.IsZero() {
					t.Error("failed NewGeometry returned a non-zero geometry")
				}
				return
			}
			if g.Rows() != tt.rows || g.Cols() != tt.cols {
				t.Errorf("grid = %dx%d, want %dx%d", g.Rows(), g.Cols(), tt.rows, tt.cols)
			}
		})
	}
}

func TestGeometryDerived(t *testing.T) {
	g, err := NewGeometry(2, 3, 100, 50)
	if err != nil {
		t.Fatal(err)
	}

	if got := g.SheetWidth(); got != 300 {
		t.Errorf("SheetWidth() = %v, want 300", got)
	}
	if got := g.SheetHeight(); got != 100 {
		t.Errorf("SheetHeight() = %v, want 100", got)
	}
	if got := g.CellsPerSheet(); got != 6 {
		t.Errorf("CellsPerSheet() = %v, want 6", got)
	}
	if got, want := g.SheetRect(), (Rect{X1: 300, Y1: 100}); got != want {
		t.Errorf("SheetRect() = %+v, want %+v", got, want)
	}
	if got, want := g.CellRect(1, 2), (Rect{X0: 200, Y0: 50, X1: 300, Y1: 100}); got != want {
		t.Errorf("CellRect(1, 2) = %+v, want %+v", got, want)
	}
}

func TestTotalSheets(t *testing.T) {
	tests := []struct {
		pages, rows, cols int
		want              int
	}{
		{0, 2, 2, 0},
		{-3, 2, 2, 0},
		{1, 2, 2, 1},
		{4, 2, 2, 1},
		{5, 2, 2, 2},
		{8, 2, 2, 2},
		{9, 2, 2, 3},
		{7, 1, 1, 7},
		{10, 1, 4, 3},
		{math.MaxInt, 1, 1, math.MaxInt},
		{math.MaxInt, 2, 2, math.MaxInt/4 + 1},
	}

	for _, tt := range tests {
		g, err := NewGeometry(tt.rows, tt.cols, 10, 10)
		if err != nil {
			t.Fatal(err)
		}
		if got := g.TotalSheets(tt.pages); got != tt.want {
			t.Errorf("TotalSheets(%d) on %dx%d = %d, want %d", tt.pages, tt.rows, tt.cols, got, tt.want)
		}
	}
}

func TestTotalSheetsMatchesCeil(t *testing.T) {
	for rows := 1; rows <= 4; rows++ {
		for cols := 1; cols <= 4; cols++ {
			g, _ := NewGeometry(rows, cols, 1, 1)
			n := rows * cols
			for pages := 0; pages <= 40; pages++ {
				want := int(math.Ceil(float64(pages) / float64(n)))
				got := g.TotalSheets(pages)
				if got != want {
					t.Fatalf("%dx%d, %d pages: TotalSheets = %d, want %d", rows, cols, pages, got, want)
				}
				if (got == 0) != (pages == 0) {
					t.Fatalf("%dx%d, %d pages: zero sheets iff zero pages violated", rows, cols, pages)
				}
			}
		}
	}
}

func TestTotalSheetsZeroGeometry(t *testing.T) {
	if got := TotalSheets(10, Geometry{}); got != 0 {
		t.Errorf("TotalSheets on zero geometry = %d, want 0", got)
	}
}
