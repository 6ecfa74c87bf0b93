package layout

import (
	"math"

	"github.com/tsawler/folio/model"
)

const (
	// fullWidthRatio is the width/page ratio above which text counts as justified.
	fullWidthRatio = 0.85
	// centerTolerance is the allowed margin imbalance, as a share of page width.
	centerTolerance = 0.05
)

// Classify infers the horizontal alignment of an element spanning
// [x, x+width] on a page pageWidth wide.
//
// The checks run in a fixed order:
//  1. text wider than 85% of the page is justified
//  2. margins balanced within 5% of the page width are centered
//  3. a larger right margin means justified text or a left-aligned image
//  4. anything else is right-aligned
func Classify(x, width, pageWidth float64, elementType model.ElementType) model.Alignment {
	if pageWidth <= 0 {
		if elementType == model.ElementTypeText {
			return model.AlignJustify
		}
		return model.AlignLeft
	}

	leftMargin := x
	rightMargin := pageWidth - (x + width)
	tolerance := pageWidth * centerTolerance

	if elementType == model.ElementTypeText && width/pageWidth > fullWidthRatio {
		return model.AlignJustify
	}

	if math.Abs(leftMargin-rightMargin) <= tolerance {
		return model.AlignCenter
	}

	if leftMargin < rightMargin {
		if elementType == model.ElementTypeText {
			return model.AlignJustify
		}
		return model.AlignLeft
	}

	return model.AlignRight
}

// ClassifyElement classifies e and stores the result on the element.
func ClassifyElement(e model.Element, pageWidth float64) model.Alignment {
	pos := e.Pos()
	pos.Alignment = Classify(pos.X, pos.Width, pageWidth, e.Type())
	return pos.Alignment
}
