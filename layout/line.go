package layout

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/folio/model"
)

// LineConfig holds the word-gap thresholds used when rebuilding a line's text.
type LineConfig struct {
	// SpaceGapRatio is the share of the previous run's space width a gap
	// must exceed to count as a word break.
	SpaceGapRatio float64

	// TrackingGapRatio is the share of the previous run's width a gap must
	// exceed to count as a word break. Catches letter-spaced text.
	TrackingGapRatio float64

	// FallbackSpaceRatio estimates a space as this share of the run height
	// when the font reported no space width.
	FallbackSpaceRatio float64
}

// DefaultLineConfig returns the standard word-gap thresholds.
func DefaultLineConfig() LineConfig {
	return LineConfig{
		SpaceGapRatio:      0.9,
		TrackingGapRatio:   0.3,
		FallbackSpaceRatio: 0.5,
	}
}

// Line is a set of fragments sharing a baseline.
type Line struct {
	Fragments []*model.TextFragment

	// Y is the running mean baseline of the members.
	Y    float64
	sumY float64
}

func newLine(f *model.TextFragment) *Line {
	return &Line{
		Fragments: []*model.TextFragment{f},
		Y:         f.Y,
		sumY:      f.Y,
	}
}

func (l *Line) add(f *model.TextFragment) {
	l.Fragments = append(l.Fragments, f)
	l.sumY += f.Y
	l.Y = l.sumY / float64(len(l.Fragments))
}

// X returns the leftmost start of the line.
func (l *Line) X() float64 {
	minX := math.Inf(1)
	for _, f := range l.Fragments {
		minX = math.Min(minX, f.X)
	}
	return minX
}

// Width returns the distance from the leftmost start to the rightmost end.
func (l *Line) Width() float64 {
	maxEnd := math.Inf(-1)
	for _, f := range l.Fragments {
		maxEnd = math.Max(maxEnd, f.EndX)
	}
	return maxEnd - l.X()
}

// FontSize returns the smallest font size on the line.
func (l *Line) FontSize() float64 {
	size := math.Inf(1)
	for _, f := range l.Fragments {
		size = math.Min(size, f.FontSize)
	}
	return size
}

// Height returns the tallest fragment height on the line.
func (l *Line) Height() float64 {
	h := 0.0
	for _, f := range l.Fragments {
		h = math.Max(h, f.Height)
	}
	return h
}

// groupLines clusters fragments into lines. Fragments are visited top to
// bottom and each joins the first line whose mean baseline is within
// tolerance. Lines are returned in creation order.
func groupLines(fragments []*model.TextFragment, tolerance float64) []*Line {
	sorted := make([]*model.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines []*Line
	for _, f := range sorted {
		var target *Line
		for _, l := range lines {
			if math.Abs(l.Y-f.Y) <= tolerance {
				target = l
				break
			}
		}
		if target != nil {
			target.add(f)
		} else {
			lines = append(lines, newLine(f))
		}
	}
	return lines
}

// BuildLine rebuilds the text of one line from its fragments, ordered left
// to right. A space is inserted between two fragments when the gap after the
// previous run exceeds cfg.SpaceGapRatio of its space width, or
// cfg.TrackingGapRatio of its width. A fragment that is itself a single
// space contributes exactly one space.
func BuildLine(fragments []*model.TextFragment, cfg LineConfig) string {
	sorted := make([]*model.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var sb strings.Builder
	var prev *model.TextFragment
	for _, f := range sorted {
		if f.Text == " " {
			if !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
			prev = f
			continue
		}

		if prev != nil && needsSpace(prev, f, cfg) && !strings.HasSuffix(sb.String(), " ") {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.Text)
		prev = f
	}
	return sb.String()
}

func needsSpace(prev, cur *model.TextFragment, cfg LineConfig) bool {
	gap := cur.X - (prev.X + prev.Width)

	spaceWidth := prev.SpaceWidth
	if spaceWidth <= 0 {
		spaceWidth = prev.Height * cfg.FallbackSpaceRatio
	}
	letterWidth := prev.Width
	if letterWidth <= 0 {
		letterWidth = spaceWidth
	}

	return gap > spaceWidth*cfg.SpaceGapRatio || gap > letterWidth*cfg.TrackingGapRatio
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
