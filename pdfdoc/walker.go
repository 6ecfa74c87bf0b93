package pdfdoc

import (
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/folio/graphicsstate"
	"github.com/tsawler/folio/model"
)

// maxFormDepth bounds recursion into nested form XObjects.
const maxFormDepth = 16

// eventSink receives the render events of one page.
type eventSink interface {
	renderText(frag *model.TextFragment)
	renderImage(name string, x, y, width, height float64)
	missingWidths(font string)
}

// walker interprets content streams and reports render events.
type walker struct {
	gs    *graphicsstate.GraphicsState
	sink  eventSink
	depth int
}

func newWalker(sink eventSink) *walker {
	return &walker{
		gs:   graphicsstate.NewGraphicsState(),
		sink: sink,
	}
}

// walk interprets content using resources for font and XObject lookup.
func (w *walker) walk(content, resources pdf.Value) {
	if content.IsNull() {
		return
	}

	fonts := map[string]*fontInfo{}
	var font *fontInfo

	pdf.Interpret(content, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "q":
			w.gs.Save()
		case "Q":
			// unbalanced Q is common in the wild and harmless
			_ = w.gs.Restore()
		case "cm":
			if len(args) == 6 {
				w.gs.Transform(matrixFrom(args))
			}

		case "BT":
			w.gs.BeginText()
		case "Tm":
			if len(args) == 6 {
				w.gs.SetTextMatrix(matrixFrom(args))
			}
		case "Td":
			if len(args) == 2 {
				w.gs.TranslateText(args[0].Float64(), args[1].Float64())
			}
		case "TD":
			if len(args) == 2 {
				w.gs.TranslateTextSetLeading(args[0].Float64(), args[1].Float64())
			}
		case "T*":
			w.gs.NextLine()
		case "TL":
			if len(args) == 1 {
				w.gs.SetLeading(args[0].Float64())
			}
		case "Tc":
			if len(args) == 1 {
				w.gs.SetCharSpacing(args[0].Float64())
			}
		case "Tw":
			if len(args) == 1 {
				w.gs.SetWordSpacing(args[0].Float64())
			}
		case "Tz":
			if len(args) == 1 {
				w.gs.SetHorizontalScaling(args[0].Float64())
			}
		case "Ts":
			if len(args) == 1 {
				w.gs.SetTextRise(args[0].Float64())
			}
		case "Tf":
			if len(args) == 2 {
				name := args[0].Name()
				font = fonts[name]
				if font == nil {
					font = newFontInfo(resources.Key("Font").Key(name))
					fonts[name] = font
					if !font.hasWidths {
						w.sink.missingWidths(font.name)
					}
				}
				w.gs.SetFont(name, args[1].Float64())
			}

		case "Tj":
			if len(args) == 1 {
				w.show(font, args[0].RawString())
			}
		case "'":
			if len(args) == 1 {
				w.gs.NextLine()
				w.show(font, args[0].RawString())
			}
		case "\"":
			if len(args) == 3 {
				w.gs.SetWordSpacing(args[0].Float64())
				w.gs.SetCharSpacing(args[1].Float64())
				w.gs.NextLine()
				w.show(font, args[2].RawString())
			}
		case "TJ":
			if len(args) == 1 {
				arr := args[0]
				for i := 0; i < arr.Len(); i++ {
					item := arr.Index(i)
					if item.Kind() == pdf.String {
						w.show(font, item.RawString())
					} else {
						w.gs.Adjust(item.Float64())
					}
				}
			}

		case "Do":
			if len(args) == 1 {
				w.paintXObject(args[0].Name(), resources)
			}
		}
	})
}

// show emits one text fragment for a shown string and advances past it.
func (w *walker) show(font *fontInfo, raw string) {
	if font == nil {
		font = &fontInfo{defaultWidth: defaultGlyphWidth, encoder: rawEncoding{}}
	}

	codes := font.codes(raw)
	glyphs := make([]graphicsstate.Glyph, len(codes))
	for i, c := range codes {
		glyphs[i] = graphicsstate.Glyph{
			Width: font.width(c),
			Space: !font.composite && c == ' ',
		}
	}

	spaceWidth := w.gs.GlyphWidth(font.spaceWidth())
	run := w.gs.ShowText(glyphs)

	text := norm.NFKC.String(font.encoder.Decode(raw))
	if text == "" {
		return
	}

	w.sink.renderText(&model.TextFragment{
		Position: model.Position{
			X:      run.Start.X,
			Y:      run.Start.Y,
			EndX:   run.End.X,
			Width:  run.Width(),
			Height: run.FontSize * font.heightScale(),
		},
		Text:       text,
		FontName:   font.name,
		FontSize:   run.FontSize,
		SpaceWidth: spaceWidth,
		Bold:       font.bold,
		Italic:     font.italic,
	})
}

// paintXObject handles the Do operator: images become render events and
// forms are walked with their own matrix and resources.
func (w *walker) paintXObject(name string, resources pdf.Value) {
	xobj := resources.Key("XObject").Key(name)

	switch xobj.Key("Subtype").Name() {
	case "Image":
		x, y, width, height := w.gs.ImageBox()
		w.sink.renderImage(name, x, y, width, height)

	case "Form":
		if w.depth >= maxFormDepth {
			return
		}
		w.gs.Save()
		if m := xobj.Key("Matrix"); m.Kind() == pdf.Array && m.Len() == 6 {
			args := make([]pdf.Value, 6)
			for i := range args {
				args[i] = m.Index(i)
			}
			w.gs.Transform(matrixFrom(args))
		}
		formResources := xobj.Key("Resources")
		if formResources.IsNull() {
			formResources = resources
		}
		w.depth++
		w.walk(xobj, formResources)
		w.depth--
		_ = w.gs.Restore()
	}
}

func matrixFrom(args []pdf.Value) model.Matrix {
	return model.NewMatrix(
		args[0].Float64(), args[1].Float64(),
		args[2].Float64(), args[3].Float64(),
		args[4].Float64(), args[5].Float64(),
	)
}
