// Package assemble drives N-up placement over a page source and a renderer.
//
// # Overview
//
// The [Assembler] is the glue between a paginated [Source], the packing
// arithmetic in [layout] and a [Renderer] that knows how to draw:
//
//	Source ──► layout.Pack ──► Renderer.DrawPage / DrawLabel ──► Document
//
// The assembler owns no pixels and no PDF objects. Renderers live in
// [render/sink] and wrap a real PDF or image library.
//
// # Lifecycle
//
// An Assembler runs exactly once:
//
//	StateNew ──Run──► StatePlacing ──► StateAssembled
//	                        │
//	                        └──(renderer error)──► StateFailed
//
// Calling [Assembler.Run] a second time returns an INVALID_INPUT error.
//
// # Validation
//
// Before the renderer is touched, [Assembler.Run] checks the geometry and
// anchor and verifies that every source page has the same size
// ([CheckUniform]). A mixed-size document fails with NON_UNIFORM_PAGE_SIZE.
// An empty source is not an error: the renderer is asked for zero sheets.
//
// [render/sink]: github.com/matzehuels/pagestack/pkg/render/sink
package assemble
