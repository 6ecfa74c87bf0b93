package epubdoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tsawler/folio/model"
)

// minParagraphClassCount is how often a class must occur, exclusive, to be
// taken as the paragraph class.
const minParagraphClassCount = 4

var (
	tagRe           = regexp.MustCompile(`(?s)<.*?>`)
	numericEntityRe = regexp.MustCompile(`&#([0-9]+);`)
	classAttrRe     = regexp.MustCompile(`(?i)class\s*=\s*["']([^"']+)["']`)
	cssImportRe     = regexp.MustCompile(`@import\s*[^;]+;`)
	fontFaceRe      = regexp.MustCompile(`@font-face\s*{[^}]+}`)
)

// stylesheets loads every CSS item of the manifest, drops @import and
// @font-face rules and applies the CSS rewrite.
func (r *Reader) stylesheets(warnings []model.Warning) ([]model.Stylesheet, []model.Warning) {
	var sheets []model.Stylesheet
	for _, item := range r.pkg.Manifest {
		if item.MediaType != cssMediaType {
			continue
		}
		css, err := r.LoadFileContent(item.Href)
		if err != nil {
			warnings = r.missing(warnings, item.Href, err)
			continue
		}
		css = cssImportRe.ReplaceAllString(css, "")
		css = fontFaceRe.ReplaceAllString(css, "")
		sheets = append(sheets, model.Stylesheet{
			Identifier: item.Href,
			Content:    RewriteCSS(css),
		})
	}
	return sheets, warnings
}

// chapters turns the spine into chapters in reading order.
func (r *Reader) chapters(warnings []model.Warning) ([]model.Chapter, []model.Warning) {
	chapters := make([]model.Chapter, 0, len(r.pkg.Spine.ItemRefs))
	for _, ref := range r.pkg.Spine.ItemRefs {
		item := r.pkg.item(ref.IDRef)
		if item == nil {
			warnings = r.missing(warnings, ref.IDRef, fmt.Errorf("%w: spine item %s not in manifest", ErrMissingContent, ref.IDRef))
			continue
		}
		content, err := r.LoadFileContent(item.Href)
		if err != nil {
			warnings = r.missing(warnings, item.Href, err)
			continue
		}
		chapters = append(chapters, newChapter(item.ID, content))
	}
	return chapters, warnings
}

// SpineChapter returns the chapter of the spine item at position n, 1-based.
func (r *Reader) SpineChapter(n int) (model.Chapter, error) {
	refs := r.pkg.Spine.ItemRefs
	if n < 1 || n > len(refs) {
		return model.Chapter{}, fmt.Errorf("%w: %d of %d", ErrSpineOutOfRange, n, len(refs))
	}
	item := r.pkg.item(refs[n-1].IDRef)
	if item == nil {
		return model.Chapter{}, fmt.Errorf("%w: spine item %s not in manifest", ErrMissingContent, refs[n-1].IDRef)
	}
	content, err := r.LoadFileContent(item.Href)
	if err != nil {
		return model.Chapter{}, err
	}
	return newChapter(item.ID, content), nil
}

func (r *Reader) missing(warnings []model.Warning, what string, err error) []model.Warning {
	r.logger.Warn("epub content unavailable", "doc", r.Identifier, "entry", what, "err", err)
	return append(warnings, model.Warning{
		Code:    model.WarnMissingContent,
		Message: fmt.Sprintf("%s: %v", what, err),
	})
}

// newChapter builds the chapter record of one content document.
func newChapter(id, content string) model.Chapter {
	ch := model.Chapter{
		Identifier:         id,
		Content:            content,
		Weight:             WordCount(content),
		ParagraphClassName: ParagraphClass(content),
	}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		ch.Title = decodeNumericEntities(doc.Find("title").First().Text())
		doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			ch.Stylesheets = append(ch.Stylesheets, href)
		})
	}
	return ch
}

// WordCount counts whitespace-separated words after removing tags. Tags are
// removed without a separator, so "a</p><p>b" is one word.
func WordCount(content string) int {
	return len(strings.Fields(tagRe.ReplaceAllString(content, "")))
}

// ParagraphClass returns the most frequent class name in content if it
// occurs more than four times, else "". Ties go to the class seen first.
func ParagraphClass(content string) string {
	counts := map[string]int{}
	var order []string
	for _, m := range classAttrRe.FindAllStringSubmatch(content, -1) {
		for _, name := range strings.Fields(m[1]) {
			if counts[name] == 0 {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	best, bestCount := "", 0
	for _, name := range order {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	if bestCount > minParagraphClassCount {
		return best
	}
	return ""
}

// decodeNumericEntities decodes "&#NNN;" references left in s.
func decodeNumericEntities(s string) string {
	return numericEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || n <= 0 || n > 0x10FFFF {
			return m
		}
		return string(rune(n))
	})
}
