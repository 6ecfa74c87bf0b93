package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/folio/model"
)

// ParagraphConfig holds the tunable multipliers of the paragraph grouper.
type ParagraphConfig struct {
	// LineToleranceFactor scales the median fragment height into the
	// baseline distance within which fragments share a line.
	LineToleranceFactor float64

	// GapFactor scales the typical line pitch into the vertical gap that
	// starts a new paragraph.
	GapFactor float64

	// LongerLineRatio is how much longer (in runes) an indented next line
	// must be than the current one to start a new paragraph.
	LongerLineRatio float64

	// TypicalGapFactor scales the median height into a line pitch when a
	// page has a single line.
	TypicalGapFactor float64

	// DefaultHeight is used when no fragment has a positive height.
	DefaultHeight float64

	Line LineConfig
}

// DefaultParagraphConfig returns the standard grouping parameters.
func DefaultParagraphConfig() ParagraphConfig {
	return ParagraphConfig{
		LineToleranceFactor: 0.6,
		GapFactor:           1.6,
		LongerLineRatio:     1.2,
		TypicalGapFactor:    1.2,
		DefaultHeight:       10,
		Line:                DefaultLineConfig(),
	}
}

// Grouper turns the text fragments of one page into paragraph records.
// A Grouper holds no per-page state and may be shared between goroutines.
type Grouper struct {
	config ParagraphConfig
}

// NewGrouper creates a grouper with the default configuration.
func NewGrouper() *Grouper {
	return &Grouper{config: DefaultParagraphConfig()}
}

// NewGrouperWithConfig creates a grouper with a custom configuration.
func NewGrouperWithConfig(config ParagraphConfig) *Grouper {
	return &Grouper{config: config}
}

// line is a built line of text with its geometry.
type line struct {
	text     string
	x, y     float64
	width    float64
	height   float64
	fontSize float64
}

// MedianHeight returns the median of the positive fragment heights, or the
// configured default when there are none.
func (g *Grouper) MedianHeight(fragments []*model.TextFragment) float64 {
	heights := make([]float64, 0, len(fragments))
	for _, f := range fragments {
		heights = append(heights, f.Height)
	}
	heights = positive(heights)
	if len(heights) == 0 {
		return g.config.DefaultHeight
	}
	return Median(heights)
}

// Lines clusters fragments into lines and returns them top to bottom.
func (g *Grouper) Lines(fragments []*model.TextFragment) []*Line {
	if len(fragments) == 0 {
		return nil
	}

	tolerance := g.MedianHeight(fragments) * g.config.LineToleranceFactor
	lines := groupLines(fragments, tolerance)
	sortLinesTopDown(lines)
	return lines
}

// Group returns the paragraphs of a page in top-to-bottom order. Each record
// carries the geometry of the last line of its paragraph. When all text is
// inset from the left edge, positions are shifted so the leftmost paragraph
// starts at zero and widths grow by twice the inset.
func (g *Grouper) Group(fragments []*model.TextFragment) []*model.TextFragment {
	if len(fragments) == 0 {
		return nil
	}

	clustered := g.Lines(fragments)
	lines := make([]line, len(clustered))
	for i, l := range clustered {
		lines[i] = line{
			text:     BuildLine(l.Fragments, g.config.Line),
			x:        l.X(),
			y:        l.Y,
			width:    l.Width(),
			height:   l.Height(),
			fontSize: l.FontSize(),
		}
	}

	threshold := g.typicalGap(lines, g.MedianHeight(fragments)) * g.config.GapFactor

	var paragraphs []*model.TextFragment
	current := []string{strings.TrimSpace(lines[0].text)}
	for i := 0; i < len(lines)-1; i++ {
		cur, next := lines[i], lines[i+1]
		gap := math.Abs(cur.y - next.y)
		nextText := strings.TrimSpace(next.text)

		shortThenIndented := cur.x < next.x &&
			float64(runeLen(nextText)) > float64(runeLen(cur.text))*g.config.LongerLineRatio

		if gap > threshold || shortThenIndented {
			paragraphs = append(paragraphs, newParagraph(current, cur))
			current = []string{nextText}
		} else {
			current = append(current, nextText)
		}
	}
	paragraphs = append(paragraphs, newParagraph(current, lines[len(lines)-1]))

	normalize(paragraphs)
	return paragraphs
}

func (g *Grouper) typicalGap(lines []line, medianHeight float64) float64 {
	if len(lines) < 2 {
		return medianHeight * g.config.TypicalGapFactor
	}
	gaps := make([]float64, 0, len(lines)-1)
	for i := 0; i < len(lines)-1; i++ {
		gaps = append(gaps, math.Abs(lines[i].y-lines[i+1].y))
	}
	return Median(gaps)
}

func newParagraph(texts []string, last line) *model.TextFragment {
	text := strings.Join(texts, " ")
	text = strings.ReplaceAll(text, "  ", " ")
	text = strings.TrimSpace(text)

	return &model.TextFragment{
		Position: model.Position{
			X:      last.x,
			Y:      last.y,
			EndX:   last.x + last.width,
			Width:  last.width,
			Height: last.height,
		},
		Text:     text,
		FontSize: last.fontSize,
	}
}

// normalize shifts paragraphs left by the page inset.
func normalize(paragraphs []*model.TextFragment) {
	if len(paragraphs) == 0 {
		return
	}
	minX := paragraphs[0].X
	for _, p := range paragraphs[1:] {
		minX = math.Min(minX, p.X)
	}
	if minX <= 0 {
		return
	}
	for _, p := range paragraphs {
		p.X -= minX
		p.Width += 2 * minX
		p.EndX = p.X + p.Width
	}
}

func sortLinesTopDown(lines []*Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Y > lines[j].Y
	})
}
