package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/render/sink"
	"github.com/matzehuels/pagestack/pkg/source"
)

// Render assembles src into every requested format.
func Render(ctx context.Context, src source.Source, g layout.Geometry, opts Options) (map[render.Format][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	artifacts := make(map[render.Format][]byte, len(opts.formats))
	for _, f := range opts.formats {
		data, err := RenderFormat(ctx, src, g, f, opts)
		if err != nil {
			return nil, err
		}
		artifacts[f] = data
	}
	return artifacts, nil
}

// RenderFormat assembles src into a single format.
func RenderFormat(ctx context.Context, src source.Source, g layout.Geometry, format render.Format, opts Options) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r, err := sink.New(format, src, sinkOptions(opts)...)
	if err != nil {
		return nil, err
	}

	var aopts []assemble.Option
	aopts = append(aopts, assemble.WithLabeler(opts.Labeler()))
	if opts.Progress != nil {
		aopts = append(aopts, assemble.WithProgress(opts.Progress))
	}

	doc, err := assemble.Assemble(ctx, src, g, opts.anchor, r, aopts...)
	if err != nil {
		return nil, err
	}
	data, err := sink.Bytes(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", format, err)
	}
	return data, nil
}

func sinkOptions(opts Options) []sink.Option {
	return []sink.Option{
		sink.WithLabelStyle(opts.style),
		sink.WithTitle(opts.Title),
		sink.WithScale(opts.Scale),
		sink.WithPlanMeta(sink.PlanMeta{
			Input:  opts.InputName(),
			Rows:   opts.Rows,
			Cols:   opts.Cols,
			Anchor: opts.anchor,
		}),
	}
}
