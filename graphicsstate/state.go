package graphicsstate

import (
	"errors"
	"math"

	"github.com/tsawler/folio/model"
)

// ErrStackUnderflow is returned by Restore when no state was saved.
var ErrStackUnderflow = errors.New("graphics state stack underflow")

// GraphicsState represents the PDF graphics state
type GraphicsState struct {
	// Current Transformation Matrix
	CTM model.Matrix

	// Text state
	Text TextState

	// Graphics state stack (for q/Q operators)
	stack []savedState
}

type savedState struct {
	ctm  model.Matrix
	text TextState
}

// TextState represents text-specific state
type TextState struct {
	// Font resource name and size
	FontName string
	FontSize float64

	// Character and word spacing, unscaled text space units
	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling (percentage)
	HorizontalScaling float64

	// Leading (line spacing)
	Leading float64

	// Text rise
	Rise float64

	// Text matrices
	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// Glyph is one shown character code. Width is the font's advance for the
// code in glyph space (thousandths of an em).
type Glyph struct {
	Width float64
	Space bool // single-byte code 32, which receives word spacing
}

// Run is the page-space extent of one shown string.
type Run struct {
	Start    model.Point // baseline start
	End      model.Point // baseline end
	FontSize float64     // effective size after all transformations
}

// Width returns the horizontal distance covered by the run.
func (r Run) Width() float64 {
	return r.End.X - r.Start.X
}

// NewGraphicsState creates a new graphics state with default values
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM: model.Identity(),
		Text: TextState{
			FontSize:          12.0,
			HorizontalScaling: 100.0,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Save pushes the current graphics state onto the stack (q operator)
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, savedState{ctm: gs.CTM, text: gs.Text})
}

// Restore pops a graphics state from the stack (Q operator)
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return ErrStackUnderflow
	}

	saved := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]

	gs.CTM = saved.ctm
	gs.Text = saved.text
	return nil
}

// Transform concatenates m onto the CTM (cm operator).
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetFont sets the current font (Tf operator)
func (gs *GraphicsState) SetFont(name string, size float64) {
	gs.Text.FontName = name
	gs.Text.FontSize = size
}

// SetCharSpacing sets character spacing (Tc operator)
func (gs *GraphicsState) SetCharSpacing(spacing float64) {
	gs.Text.CharSpacing = spacing
}

// SetWordSpacing sets word spacing (Tw operator)
func (gs *GraphicsState) SetWordSpacing(spacing float64) {
	gs.Text.WordSpacing = spacing
}

// SetHorizontalScaling sets horizontal scaling in percent (Tz operator)
func (gs *GraphicsState) SetHorizontalScaling(scale float64) {
	gs.Text.HorizontalScaling = scale
}

// SetLeading sets text leading (TL operator)
func (gs *GraphicsState) SetLeading(leading float64) {
	gs.Text.Leading = leading
}

// SetTextRise sets text rise (Ts operator)
func (gs *GraphicsState) SetTextRise(rise float64) {
	gs.Text.Rise = rise
}

// BeginText resets both text matrices (BT operator)
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets the text matrix (Tm operator)
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText moves to the start of the next line offset by (tx, ty) (Td operator)
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading translates text and sets leading (TD operator)
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.SetLeading(-ty)
	gs.TranslateText(tx, ty)
}

// NextLine moves to next line (T* operator)
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

func (gs *GraphicsState) hScale() float64 {
	return gs.Text.HorizontalScaling / 100.0
}

// RenderingMatrix returns the text rendering matrix: font size, scaling and
// rise applied to the text matrix, then the CTM.
func (gs *GraphicsState) RenderingMatrix() model.Matrix {
	params := model.Matrix{
		gs.Text.FontSize * gs.hScale(), 0,
		0, gs.Text.FontSize,
		0, gs.Text.Rise,
	}
	return params.Multiply(gs.Text.TextMatrix).Multiply(gs.CTM)
}

// TextPosition returns the current baseline origin in page space.
func (gs *GraphicsState) TextPosition() model.Point {
	return gs.RenderingMatrix().Transform(model.Point{})
}

// EffectiveFontSize returns the font size accounting for text matrix and CTM
// scaling. The text matrix can scale the font even when Tf uses size 1.
func (gs *GraphicsState) EffectiveFontSize() float64 {
	return gs.RenderingMatrix().ScaleY()
}

// GlyphWidth converts a glyph-space advance into a page-space width at the
// current position.
func (gs *GraphicsState) GlyphWidth(w0 float64) float64 {
	return w0 / 1000 * gs.RenderingMatrix().ScaleX()
}

// Advance moves the text matrix past one glyph.
func (gs *GraphicsState) Advance(g Glyph) {
	tx := g.Width/1000*gs.Text.FontSize + gs.Text.CharSpacing
	if g.Space {
		tx += gs.Text.WordSpacing
	}
	tx *= gs.hScale()
	gs.Text.TextMatrix = model.Translate(tx, 0).Multiply(gs.Text.TextMatrix)
}

// Adjust applies a TJ array number, given in thousandths of an em.
func (gs *GraphicsState) Adjust(n float64) {
	tx := -n / 1000 * gs.Text.FontSize * gs.hScale()
	gs.Text.TextMatrix = model.Translate(tx, 0).Multiply(gs.Text.TextMatrix)
}

// ShowText advances past glyphs (Tj operator) and reports where they landed.
func (gs *GraphicsState) ShowText(glyphs []Glyph) Run {
	run := Run{
		Start:    gs.TextPosition(),
		FontSize: gs.EffectiveFontSize(),
	}
	for _, g := range glyphs {
		gs.Advance(g)
	}
	run.End = gs.TextPosition()
	return run
}

// ImageBox returns the page-space rectangle an image XObject occupies: the
// unit square mapped through the CTM.
func (gs *GraphicsState) ImageBox() (x, y, width, height float64) {
	corners := []model.Point{
		gs.CTM.Transform(model.Point{X: 0, Y: 0}),
		gs.CTM.Transform(model.Point{X: 1, Y: 0}),
		gs.CTM.Transform(model.Point{X: 0, Y: 1}),
		gs.CTM.Transform(model.Point{X: 1, Y: 1}),
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	return minX, minY, maxX - minX, maxY - minY
}
