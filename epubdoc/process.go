package epubdoc

import (
	"encoding/base64"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/tsawler/folio/imagecache"
	"github.com/tsawler/folio/model"
)

const (
	loneImageStyle = "margin: 0 auto;text-align:center;"
	dropCapClass   = "drop-cap"
	zoomableClass  = "zoomable"
)

var xmlDeclRe = regexp.MustCompile(`^\s*<\?xml[^>]*\?>\s*`)

// ApplyHTMLProcessing prepares a chapter document for the reader:
//   - stylesheet links are removed
//   - a div holding a single image is centred
//   - the first paragraph opening with a one-letter span gets a drop cap
//   - images are moved to the disk cache or inlined as data URIs and made
//     zoomable
//   - the CSS rewrite is applied to the result
//
// Images that cannot be found in the archive are left untouched and
// reported as warnings.
func (r *Reader) ApplyHTMLProcessing(content string) (string, []model.Warning, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(xmlDeclRe.ReplaceAllString(content, "")))
	if err != nil {
		return "", nil, fmt.Errorf("epub: parse chapter: %w", err)
	}

	doc.Find("link[rel='stylesheet']").Remove()

	doc.Find("div > img:first-child:last-child").Each(func(_ int, img *goquery.Selection) {
		img.Parent().SetAttr("style", loneImageStyle)
	})

	applyDropCap(doc)

	var warnings []model.Warning
	doc.Find("img, image").Each(func(_ int, img *goquery.Selection) {
		attrName := "src"
		if goquery.NodeName(img) == "image" {
			attrName = "href"
		}
		src, ok := img.Attr(attrName)
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return
		}

		url, cacheErr, err := r.imageSource(src)
		if cacheErr != nil {
			warnings = append(warnings, model.Warning{
				Code:    model.WarnCacheWrite,
				Message: fmt.Sprintf("image %s embedded, cache write failed: %v", src, cacheErr),
			})
		}
		if err != nil {
			r.logger.Warn("epub image unavailable", "doc", r.Identifier, "src", src, "err", err)
			warnings = append(warnings, model.Warning{
				Code:    model.WarnImageUnresolved,
				Message: fmt.Sprintf("image %s: %v", src, err),
			})
			return
		}
		img.SetAttr(attrName, url)
		img.AddClass(zoomableClass)
	})

	out, err := doc.Html()
	if err != nil {
		return "", warnings, fmt.Errorf("epub: render chapter: %w", err)
	}
	return RewriteCSS(out), warnings, nil
}

// applyDropCap moves the letter of the first one-character leading span into
// its paragraph as plain text and marks the paragraph.
func applyDropCap(doc *goquery.Document) {
	doc.Find("p span:first-child").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		letter := span.Text()
		if utf8.RuneCountInString(letter) != 1 {
			return true
		}
		p := span.Closest("p")
		if p.Length() == 0 {
			return true
		}

		top := span
		for parent := top.Parent(); parent.Length() > 0 && !parent.Is("p"); parent = parent.Parent() {
			top = parent
		}
		top.Remove()

		p.AddClass(dropCapClass)
		p.PrependHtml(html.EscapeString(letter))
		return false
	})
}

// imageSource stores the image referenced by src and returns the URL to use
// in its place. cacheErr reports a failed cache write that fell back to
// inlining.
func (r *Reader) imageSource(src string) (url string, cacheErr, err error) {
	data, err := r.loadImage(src)
	if err != nil {
		return "", nil, err
	}

	cached, embedded, cacheErr := r.cache.PutOrEmbed(r.Identifier, data, "")
	if cached != "" {
		return r.cache.PublicURL(cached), nil, nil
	}
	return "data:" + imagecache.MimeType(embedded) + ";base64," + base64.StdEncoding.EncodeToString(embedded), cacheErr, nil
}

// loadImage finds an image referenced from a content document. Such
// references are relative to the document, which is not known here, so
// parent segments are dropped and the path is taken from the package
// directory, falling back to the path relative to the package document.
func (r *Reader) loadImage(src string) ([]byte, error) {
	src = stripFragment(src)
	candidates := []string{
		path.Join(r.baseDir, strings.ReplaceAll(src, "../", "")),
		r.entryPath(src),
	}
	var lastErr error
	for _, name := range candidates {
		if name == "" || !isSafePath(name) {
			continue
		}
		data, err := readEntry(r.zr, name)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: %s", ErrMissingContent, src)
	}
	return nil, lastErr
}
