// Package source opens input documents as paginated page sources.
//
// # Overview
//
// A [Source] is an ordered, finite sequence of equally sized pages. Every
// supported input format becomes one of two capability-tagged variants:
//
//   - [PDFBacked]: the pages live in a normalized PDF that renderers can
//     embed page by page. PDF input, and every text-like format after
//     conversion, ends up here.
//   - [ImageBacked]: each page is a raster image. Used for PNG, JPEG, GIF,
//     BMP, TIFF and WebP input.
//
// The variant is chosen once, by file extension, in [Open]. Core packages
// never branch on the input format.
//
// # Conversion
//
// Formats that are not already paginated are converted to PDF first:
//
//   - Plain text: decoded (UTF-8, UTF-16 with BOM, Windows-1252) and
//     typeset on A4. A form feed forces a page break.
//   - DOCX, ODT, HTML: text extracted with tabula and typeset on A4.
//   - PPTX: one landscape 16:9 page per slide.
//   - EPUB: one or more pages per chapter.
//   - XLSX: one or more pages per worksheet, in a fixed-width font.
//   - Legacy Office formats (DOC, PPT, XLS, RTF, ODP, ODS): converted by
//     LibreOffice in headless mode, see [LibreOffice].
//
// [Convert] exposes the conversion step on its own so that callers can
// cache the resulting PDF bytes.
//
// # Passwords
//
// Encrypted PDFs are opened with [Options.Password]. A missing or wrong
// password fails with WRONG_PASSWORD.
package source
