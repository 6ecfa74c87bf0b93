// Package model provides the data structures shared by the folio packages.
//
// # Page elements
//
// Content recovered from a PDF page is represented by the closed [Element]
// sum type. Exactly two variants exist:
//
//   - [TextFragment] - a positioned glyph run, or a synthesized paragraph
//   - [ImageElement] - a positioned image, either held in memory or cached on disk
//
// Both embed [Position], which carries the page-space geometry (origin bottom-left)
// and the horizontal [Alignment] assigned during rendering. Code that needs to
// treat the variants differently uses a type switch:
//
//	switch e := elem.(type) {
//	case *model.TextFragment:
//	    fmt.Println(e.Text)
//	case *model.ImageElement:
//	    fmt.Println(e.MimeType)
//	}
//
// # Ebook entities
//
// [Ebook] is the format-independent result of reading a PDF or EPUB file. Its
// [Content] holds the table of contents ([TocEntry]), the reading-order
// [Chapter] list and any [Stylesheet] values.
//
// # Geometry
//
//   - [Point] - 2D point
//   - [Matrix] - 2D affine transformation matrix in PDF row-vector convention
package model
