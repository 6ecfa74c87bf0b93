package htmlrender

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
)

// imageStyle keeps images within the text column and centred in it.
const imageStyle = "max-width:100%;display:block;margin-inline:auto;"

// Page is the reconstructed content of one PDF page.
type Page struct {
	Width      float64
	Paragraphs []*model.TextFragment
	Images     []*model.ImageElement
}

// Empty reports whether the page produced no elements.
func (p Page) Empty() bool {
	return len(p.Paragraphs) == 0 && len(p.Images) == 0
}

// Renderer writes pages as HTML. Cached image paths under CacheRoot are
// published under PublicPrefix.
type Renderer struct {
	CacheRoot    string
	PublicPrefix string
}

// NewRenderer creates a renderer for the given cache layout.
func NewRenderer(cacheRoot, publicPrefix string) *Renderer {
	return &Renderer{CacheRoot: cacheRoot, PublicPrefix: publicPrefix}
}

// Render returns the HTML for one page, or "" when the page is empty.
// Text is inserted verbatim; paragraphs are expected to be HTML-safe already.
func (r *Renderer) Render(page Page) string {
	if page.Empty() {
		return ""
	}

	elements := make([]model.Element, 0, len(page.Paragraphs)+len(page.Images))
	for _, p := range page.Paragraphs {
		elements = append(elements, p)
	}
	for _, img := range page.Images {
		elements = append(elements, img)
	}

	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Pos().Y > elements[j].Pos().Y
	})

	var sb strings.Builder
	for _, e := range elements {
		align := layout.ClassifyElement(e, page.Width)
		switch v := e.(type) {
		case *model.TextFragment:
			writeParagraph(&sb, v.Text, align)
		case *model.ImageElement:
			r.writeImage(&sb, v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func writeParagraph(sb *strings.Builder, text string, align model.Alignment) {
	sb.WriteString(`<p style="text-align: `)
	sb.WriteString(align.String())
	sb.WriteString(`;">`)
	sb.WriteString(text)
	sb.WriteString(`</p>`)
}

func (r *Renderer) writeImage(sb *strings.Builder, img *model.ImageElement) {
	sb.WriteString(`<img class='zoomable' width='`)
	sb.WriteString(formatDimension(img.Width))
	sb.WriteString(`' height='`)
	sb.WriteString(formatDimension(img.Height))
	sb.WriteString(`' src='`)
	sb.WriteString(img.HTMLSource(r.CacheRoot, r.PublicPrefix))
	sb.WriteString(`' style='`)
	sb.WriteString(imageStyle)
	sb.WriteString(`' />`)
}

// formatDimension prints a page-space length with at most two decimals.
func formatDimension(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
