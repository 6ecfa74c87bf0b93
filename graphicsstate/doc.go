// Package graphicsstate tracks the PDF graphics and text state while a page's
// content stream is walked.
//
// The content-stream walker feeds operators into a [GraphicsState] and asks
// it where glyphs and images land in page space:
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Save()                       // q
//	gs.Transform(m)                 // cm
//	gs.BeginText()                  // BT
//	gs.SetFont("F1", 12)            // Tf
//	gs.TranslateText(72, 700)       // Td
//	run := gs.ShowText(glyphs)      // Tj
//	gs.Restore()                    // Q
//
// # Text State
//
// [TextState] holds the font, spacing, scaling, leading, rise and the two
// text matrices. [GraphicsState.RenderingMatrix] combines them with the CTM
// into the text rendering matrix, from which positions, effective font sizes
// and glyph widths are derived.
//
// # Images
//
// An image XObject is painted into the unit square of the current CTM.
// [GraphicsState.ImageBox] returns that square in page space.
package graphicsstate
