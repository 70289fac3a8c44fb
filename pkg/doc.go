// Package pkg provides the core libraries for Pagestack N-up page compositing.
//
// # Overview
//
// Pagestack lays the pages of a document out on a grid of rows x cols cells
// per output sheet, stamps each page with its number and writes the sheets
// as a PDF, a PNG preview or a JSON placement plan. The pkg directory is
// organized into three areas:
//
//  1. Domain logic: [layout], [assemble], [source], [render]
//  2. Orchestration: [pipeline], [config]
//  3. Infrastructure: [cache], [server], [observability], [errors]
//
// # Architecture
//
// The typical data flow through Pagestack:
//
//	PDF / images / text / office file
//	         ↓
//	    [source] package (detect, convert, open as a page source)
//	         ↓
//	    [layout] package (grid geometry, pack pages, place labels)
//	         ↓
//	    [assemble] package (drive a renderer in page order)
//	         ↓
//	    [render/sink] package (PDF, PNG preview, JSON plan)
//
// # Quick Start
//
// Merge a PDF onto 2x2 sheets:
//
//	src, _ := source.OpenPDF(data, "")
//	g, _ := assemble.GeometryFor(src, 2, 2)
//	r, _ := sink.New(render.FormatPDF, src)
//	doc, _ := assemble.Assemble(ctx, src, g, layout.TopLeft, r,
//	    assemble.WithLabeler(layout.Template("Page {n}")))
//	merged, _ := sink.Bytes(doc)
//
// The same run through the cached pipeline, as the CLI and server do it:
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(cache.DefaultMemoryLimit), nil, logger)
//	res, _ := runner.Execute(ctx, pipeline.Options{
//	    Inputs: []source.Input{{Name: "slides.pptx", Data: data}},
//	    Rows:   3,
//	    Cols:   2,
//	    Label:  "Page {n}",
//	})
//	merged := res.Artifacts[render.FormatPDF]
//
// # Main Packages
//
// [layout] - Grid geometry, the four label anchors and the packer that maps
// page i to sheet i/(rows*cols) in row-major order.
//
// [assemble] - The page source and renderer interfaces and the assembler
// that checks uniform page sizes and feeds placements to a renderer.
//
// [source] - Page sources for PDFs (via pdfcpu), image sets, plain text and
// office documents, which are typeset or converted with LibreOffice.
//
// [render] - Output formats and label styles; [render/sink] holds the
// renderers.
//
// [pipeline] - Open → layout → render with caching of converted inputs and
// rendered outputs. Used by both the CLI and the HTTP server.
//
// [cache] - File, memory, Redis and null cache backends plus key
// construction.
//
// [config] - TOML config file with defaults for every run.
//
// [server] - HTTP upload endpoint returning merged documents.
//
// [observability] - Hooks for conversion, assembly, cache and request
// events.
//
// # Testing
//
// Run tests:
//
//	go test ./...                 # All tests
//	go test ./pkg/layout/...      # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/layout
// [assemble]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/assemble
// [source]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/source
// [render]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/config
// [server]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/pagestack/pkg/errors
package pkg
