// Package layout reconstructs reading structure from positioned PDF text.
//
// PDF pages carry no notion of words, lines or paragraphs, only glyph runs
// placed at absolute coordinates. This package infers that structure with
// geometric heuristics:
//
//	grouper := layout.NewGrouper()
//	paragraphs := grouper.Group(fragments)
//	for _, p := range paragraphs {
//	    align := layout.Classify(p.X, p.Width, pageWidth, model.ElementTypeText)
//	    fmt.Println(align, p.Text)
//	}
//
// # Lines
//
// Fragments are clustered into lines by baseline proximity. The tolerance is
// a fraction of the median fragment height
// ([ParagraphConfig].LineToleranceFactor).
// Text inside a line is rebuilt left to right by [BuildLine], which inserts a
// space when a gap is wider than most of a space or wider than a share of the
// previous glyph run.
//
// # Paragraphs
//
// Lines are split into paragraphs on a vertical gap larger than the typical
// line pitch times [ParagraphConfig].GapFactor, or when a short line is
// followed by a longer, differently indented one.
//
// # Alignment
//
// [Classify] maps an element's horizontal extent to a [model.Alignment].
//
// Every function in this package is total: empty input yields empty output,
// never an error.
package layout
