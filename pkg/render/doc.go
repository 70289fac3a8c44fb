// Package render holds the output-side vocabulary shared by all renderers.
//
// # Overview
//
// Renderers turn N-up placements into an output document. This package
// defines what every renderer agrees on:
//
//   - [Format]: the output format (PDF, PNG preview, JSON plan)
//   - [LabelStyle]: font, size and color of page-number labels
//   - [ParseColor]: "#rrggbb" label colors
//
// The renderers themselves live in the [sink] subpackage and implement
// [assemble.Renderer].
//
//	style, err := render.DefaultLabelStyle().WithColor("#cc0000")
//	r, err := sink.New(render.FormatPDF, src, sink.WithLabelStyle(style))
//
// [sink]: github.com/matzehuels/pagestack/pkg/render/sink
// [assemble.Renderer]: github.com/matzehuels/pagestack/pkg/assemble.Renderer
package render
