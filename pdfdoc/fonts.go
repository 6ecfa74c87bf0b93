package pdfdoc

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// defaultGlyphWidth approximates an average glyph for fonts without widths.
	defaultGlyphWidth = 500.0
	// defaultSpaceWidth approximates a space for fonts without widths.
	defaultSpaceWidth = 250.0
	// defaultCIDWidth is the PDF default for composite fonts without DW.
	defaultCIDWidth = 1000.0
)

// fontInfo caches what the walker needs from a font dictionary.
type fontInfo struct {
	name      string // base font, subset prefix removed
	bold      bool
	italic    bool
	composite bool // two-byte codes
	hasWidths bool

	encoder pdf.TextEncoding

	first, last  int
	widths       []float64
	cidWidths    map[int]float64
	defaultWidth float64

	ascent, descent float64
}

func newFontInfo(v pdf.Value) *fontInfo {
	f := pdf.Font{V: v}
	fi := &fontInfo{
		name:         stripSubset(f.BaseFont()),
		defaultWidth: defaultGlyphWidth,
	}

	lower := strings.ToLower(fi.name)
	fi.bold = strings.Contains(lower, "bold")
	fi.italic = strings.Contains(lower, "italic")

	fi.encoder = decoderFor(f)

	descriptor := v.Key("FontDescriptor")
	if v.Key("Subtype").Name() == "Type0" {
		fi.composite = true
		descendant := v.Key("DescendantFonts").Index(0)
		descriptor = descendant.Key("FontDescriptor")
		fi.defaultWidth = defaultCIDWidth
		if dw := descendant.Key("DW"); dw.Kind() == pdf.Integer || dw.Kind() == pdf.Real {
			fi.defaultWidth = dw.Float64()
		}
		fi.cidWidths = parseCIDWidths(descendant.Key("W"))
		fi.hasWidths = len(fi.cidWidths) > 0 || !descendant.Key("DW").IsNull()
	} else {
		fi.first = f.FirstChar()
		fi.last = f.LastChar()
		fi.widths = f.Widths()
		fi.hasWidths = len(fi.widths) > 0
		if mw := descriptor.Key("MissingWidth"); mw.Kind() == pdf.Integer || mw.Kind() == pdf.Real {
			fi.defaultWidth = mw.Float64()
		}
	}

	fi.ascent = descriptor.Key("Ascent").Float64()
	fi.descent = descriptor.Key("Descent").Float64()
	return fi
}

// decoderFor returns the font's text encoding. The library panics on some
// malformed ToUnicode maps; those fonts fall back to raw bytes.
func decoderFor(f pdf.Font) (enc pdf.TextEncoding) {
	defer func() {
		if recover() != nil {
			enc = rawEncoding{}
		}
	}()
	if enc = f.Encoder(); enc == nil {
		enc = rawEncoding{}
	}
	return enc
}

type rawEncoding struct{}

func (rawEncoding) Decode(raw string) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		sb.WriteRune(rune(raw[i]))
	}
	return sb.String()
}

// stripSubset removes a subset tag such as "ABCDEF+" from a font name.
func stripSubset(name string) string {
	if i := strings.Index(name, "+"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// parseCIDWidths reads a composite font's W array, which mixes
// "c [w1 w2 ...]" and "cFirst cLast w" entries.
func parseCIDWidths(w pdf.Value) map[int]float64 {
	widths := map[int]float64{}
	for i := 0; i < w.Len(); {
		start := int(w.Index(i).Int64())
		next := w.Index(i + 1)
		if next.Kind() == pdf.Array {
			for j := 0; j < next.Len(); j++ {
				widths[start+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			break
		}
		end := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for c := start; c <= end && c-start < 65536; c++ {
			widths[c] = width
		}
		i += 3
	}
	return widths
}

// codes splits a shown string into character codes.
func (fi *fontInfo) codes(raw string) []int {
	if fi.composite {
		out := make([]int, 0, len(raw)/2)
		for i := 0; i+1 < len(raw); i += 2 {
			out = append(out, int(raw[i])<<8|int(raw[i+1]))
		}
		return out
	}
	out := make([]int, len(raw))
	for i := 0; i < len(raw); i++ {
		out[i] = int(raw[i])
	}
	return out
}

// width returns the glyph-space advance of code.
func (fi *fontInfo) width(code int) float64 {
	if fi.composite {
		if w, ok := fi.cidWidths[code]; ok {
			return w
		}
		return fi.defaultWidth
	}
	if !fi.hasWidths {
		if code == ' ' {
			return defaultSpaceWidth
		}
		return defaultGlyphWidth
	}
	if code < fi.first || code > fi.last || code-fi.first >= len(fi.widths) {
		return fi.defaultWidth
	}
	return fi.widths[code-fi.first]
}

// spaceWidth returns the glyph-space width of a space, or 0 if the font
// has no space glyph.
func (fi *fontInfo) spaceWidth() float64 {
	if fi.composite {
		return 0
	}
	return fi.width(' ')
}

// heightScale returns the glyph box height per unit of font size.
func (fi *fontInfo) heightScale() float64 {
	if h := (fi.ascent - fi.descent) / 1000; h > 0 {
		return h
	}
	return 1
}
