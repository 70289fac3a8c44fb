// Package sink provides output format renderers for N-up documents.
//
// # Overview
//
// A "sink" receives placements from [assemble.Assembler] and produces a
// finished document. This package provides renderers for:
//
//   - PDF: each source page embedded as a vector template (PDF-backed
//     sources) or as an image (image-backed sources), plus text labels
//   - PNG: a raster contact-sheet preview of every output sheet
//   - JSON: the placement plan, for inspection and external tools
//
// All renderers implement [assemble.Renderer] and are built with [New]:
//
//	r, err := sink.New(render.FormatPDF, src, sink.WithLabelStyle(style))
//	doc, err := assemble.Assemble(ctx, src, geom, layout.TopLeft, r)
//	doc.WriteTo(w)
//
// # PDF Output
//
// [PDFRenderer] uses fpdf to write the output and its gofpdi importer to
// reuse source pages. Sources are normalized to classic cross-reference
// tables by [source.OpenPDF] because the importer cannot read object
// streams. [Optimize] runs the result through pdfcpu to deduplicate fonts
// and templates.
//
// A PDF cannot have zero pages: an empty source produces a single blank
// page of the sheet size while [assemble.Document.Sheets] still reports 0.
//
// # PNG Output
//
// [PNGRenderer] draws image-backed pages scaled into their cells. There is
// no PDF rasterizer in the stack, so PDF-backed pages are drawn as framed
// placeholders; the preview is meant for checking the grid and the labels.
//
// # JSON Output
//
// [JSONRenderer] writes one entry per placement with its destination
// rectangle and label.
//
// [assemble.Assembler]: github.com/matzehuels/pagestack/pkg/assemble.Assembler
// [assemble.Renderer]: github.com/matzehuels/pagestack/pkg/assemble.Renderer
// [assemble.Document.Sheets]: github.com/matzehuels/pagestack/pkg/assemble.Document
// [source.OpenPDF]: github.com/matzehuels/pagestack/pkg/source.OpenPDF
package sink
