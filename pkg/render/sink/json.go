package sink

import (
	"encoding/json"

	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

// PlanMeta carries grid settings into the JSON plan.
type PlanMeta struct {
	Input  string        `json:"input,omitempty"`
	Rows   int           `json:"rows,omitempty"`
	Cols   int           `json:"cols,omitempty"`
	Anchor layout.Anchor `json:"anchor"`
}

// Plan is the JSON document written by [JSONRenderer].
type Plan struct {
	PlanMeta
	Kind        string          `json:"kind"`
	Pages       int             `json:"pages"`
	Sheets      int             `json:"sheets"`
	SheetWidth  float64         `json:"sheet_width"`
	SheetHeight float64         `json:"sheet_height"`
	Label       planLabelStyle  `json:"label_style"`
	Placements  []PlanPlacement `json:"placements"`
}

type planLabelStyle struct {
	Font  string  `json:"font"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// PlanPlacement is one placed page.
type PlanPlacement struct {
	Page  int         `json:"page"`
	Sheet int         `json:"sheet"`
	Dest  layout.Rect `json:"dest"`
	Label *PlanLabel  `json:"label,omitempty"`
}

// PlanLabel is the label of a placed page.
type PlanLabel struct {
	Text  string       `json:"text"`
	At    layout.Point `json:"at"`
	Align layout.Align `json:"align"`
}

// JSONRenderer records placements and writes them as a [Plan].
type JSONRenderer struct {
	plan    Plan
	started bool
}

func newJSONRenderer(src source.Source, c config) *JSONRenderer {
	return &JSONRenderer{plan: Plan{
		PlanMeta: c.meta,
		Kind:     src.Kind().String(),
		Pages:    src.NumPages(),
		Label: planLabelStyle{
			Font:  c.style.Font,
			Size:  c.style.Size,
			Color: render.HexColor(c.style.Color),
		},
		Placements: []PlanPlacement{},
	}}
}

// Begin implements [assemble.Renderer].
func (r *JSONRenderer) Begin(sheets int, width, height float64) error {
	if r.started {
		return errors.New(errors.ErrCodeRender, "JSON renderer already started")
	}
	r.started = true
	r.plan.Sheets = sheets
	r.plan.SheetWidth = width
	r.plan.SheetHeight = height
	return nil
}

// DrawPage implements [assemble.Renderer].
func (r *JSONRenderer) DrawPage(sheet, page int, dest layout.Rect) error {
	if err := checkSheet(sheet, r.plan.Sheets); err != nil {
		return err
	}
	r.plan.Placements = append(r.plan.Placements, PlanPlacement{Page: page, Sheet: sheet, Dest: dest})
	return nil
}

// DrawLabel implements [assemble.Renderer]. The label is attached to the
// most recently drawn page.
func (r *JSONRenderer) DrawLabel(sheet int, label assemble.Label) error {
	n := len(r.plan.Placements)
	if n == 0 || r.plan.Placements[n-1].Sheet != sheet {
		return errors.New(errors.ErrCodeRender, "label on sheet %d without a page", sheet)
	}
	r.plan.Placements[n-1].Label = &PlanLabel{Text: label.Text, At: label.At, Align: label.Align}
	return nil
}

// Finish implements [assemble.Renderer].
func (r *JSONRenderer) Finish() (assemble.Document, error) {
	if !r.started {
		return nil, errors.New(errors.ErrCodeRender, "JSON renderer not started")
	}
	data, err := json.MarshalIndent(r.plan, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode plan")
	}
	data = append(data, '\n')
	return &bytesDocument{data: data, sheets: r.plan.Sheets, contentType: render.FormatJSON.ContentType()}, nil
}
