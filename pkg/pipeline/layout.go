package pipeline

import (
	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/source"
)

// Layout returns the grid geometry for src. Cells take the source page size,
// so every page is placed at its original scale.
func Layout(src source.Source, opts Options) (layout.Geometry, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.Geometry{}, err
	}
	return assemble.GeometryFor(src, opts.Rows, opts.Cols)
}

// Placements lists where every page of src lands, in page order.
func Placements(src source.Source, opts Options) (layout.Geometry, []layout.Placement, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.Geometry{}, nil, err
	}
	g, err := Layout(src, opts)
	if err != nil {
		return layout.Geometry{}, nil, err
	}
	seq := layout.Pack(src.NumPages(), g, opts.AnchorValue(), layout.WithLabeler(opts.Labeler()))
	return g, layout.Collect(seq), nil
}
