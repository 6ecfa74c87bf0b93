package model

import (
	"encoding/base64"
	"path/filepath"
	"strings"
)

// ElementType identifies the variant of a page element.
type ElementType int

const (
	ElementTypeText ElementType = iota
	ElementTypeImage
)

func (et ElementType) String() string {
	switch et {
	case ElementTypeText:
		return "Text"
	case ElementTypeImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// Alignment is the horizontal alignment of an element on its page.
type Alignment int

const (
	// AlignJustify is the zero value, so unclassified elements default to justified.
	AlignJustify Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// String returns the lower-case CSS keyword for the alignment.
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "justify"
	}
}

// Position holds the geometry common to every page element, in PDF page space.
type Position struct {
	X      float64 // baseline start
	Y      float64 // baseline
	EndX   float64 // baseline end
	Width  float64
	Height float64

	Alignment Alignment
}

// Element is a positioned item recovered from a page. The set of
// implementations is closed: *TextFragment and *ImageElement.
type Element interface {
	Type() ElementType
	Pos() *Position
	element()
}

// TextFragment is a positioned glyph run. The paragraph grouper also uses it
// for synthesized paragraph records.
type TextFragment struct {
	Position

	Text       string
	FontName   string
	FontSize   float64
	SpaceWidth float64 // estimated width of one space in this run's font and size
	Bold       bool
	Italic     bool
}

func (t *TextFragment) Type() ElementType { return ElementTypeText }
func (t *TextFragment) Pos() *Position    { return &t.Position }
func (t *TextFragment) element()          {}

// ImageElement is a positioned image. Exactly one of Data and CachedPath is set.
type ImageElement struct {
	Position

	Name       string // XObject resource name
	MimeType   string
	Data       []byte // owned image bytes when not cached
	CachedPath string // file path inside the cache root
}

func (i *ImageElement) Type() ElementType { return ElementTypeImage }
func (i *ImageElement) Pos() *Position    { return &i.Position }
func (i *ImageElement) element()          {}

// HTMLSource returns the value for the image's src attribute. In-memory images
// become a base64 data URI. Cached images become a URL in which cacheRoot is
// replaced by publicPrefix.
func (i *ImageElement) HTMLSource(cacheRoot, publicPrefix string) string {
	if i.Data != nil {
		mime := i.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
	}
	if i.CachedPath == "" {
		return ""
	}

	p := filepath.ToSlash(i.CachedPath)
	if cacheRoot != "" {
		root := strings.TrimSuffix(filepath.ToSlash(cacheRoot), "/")
		if strings.HasPrefix(p, root) {
			return strings.TrimSuffix(publicPrefix, "/") + p[len(root):]
		}
	}
	return p
}

// IsCached reports whether the image bytes live in the disk cache.
func (i *ImageElement) IsCached() bool {
	return i.Data == nil && i.CachedPath != ""
}
