package pdfdoc

import (
	"context"
	"fmt"
	"sync"

	"github.com/tsawler/folio/htmlrender"
	"github.com/tsawler/folio/model"
)

// PageContent is the reconstructed content of one page.
type PageContent struct {
	Number int

	// Fragments are the raw text runs in content-stream order.
	Fragments []*model.TextFragment

	htmlrender.Page
}

// ExtractPage walks page n and returns its fragments, paragraphs and images.
func (d *DocumentContext) ExtractPage(n int) (*PageContent, []model.Warning, error) {
	if err := d.checkPage("extract", n); err != nil {
		return nil, nil, err
	}

	payloads, err := d.pageImages(n)
	if err != nil {
		return nil, nil, &Error{Op: "images", Path: d.Path, Page: n, Err: err}
	}

	listener := newPageListener(n, d.Identifier, payloads, d.cache, d.logger)
	if err := d.walkPage(n, listener); err != nil {
		return nil, listener.warnings, err
	}

	content := &PageContent{
		Number:    n,
		Fragments: listener.fragments,
		Page: htmlrender.Page{
			Width:      d.PageWidth(n),
			Paragraphs: d.grouper.Group(listener.fragments),
			Images:     listener.images,
		},
	}
	return content, listener.warnings, nil
}

// walkPage runs the content-stream walker over page n, converting library
// panics into errors.
func (d *DocumentContext) walkPage(n int, sink eventSink) (err error) {
	defer recoverPanic(&err, "walk", d.Path, n)

	page := d.reader.Page(n)
	if page.V.IsNull() {
		return &Error{Op: "walk", Path: d.Path, Page: n, Err: ErrPageOutOfRange}
	}
	newWalker(sink).walk(page.V.Key("Contents"), page.Resources())
	return nil
}

// PageHTML converts page n to an HTML fragment. A page without text or
// images yields "".
func (d *DocumentContext) PageHTML(n int) (string, []model.Warning, error) {
	content, warnings, err := d.ExtractPage(n)
	if err != nil {
		return "", warnings, err
	}
	return d.renderer.Render(content.Page), warnings, nil
}

type pageResult struct {
	html     string
	warnings []model.Warning
	err      error
}

// ConvertPageRangeToHTML converts pages start through end, inclusive and
// 1-based, and stitches them into one fragment. The range is clamped to the
// document; an empty range yields "". Pages are converted concurrently and
// joined in page order. Cancelling ctx stops pages that have not started.
func (d *DocumentContext) ConvertPageRangeToHTML(ctx context.Context, start, end int) (string, []model.Warning, error) {
	if d.Closed() {
		return "", nil, &Error{Op: "convert", Path: d.Path, Err: ErrClosed}
	}

	if start < 1 {
		start = 1
	}
	if count := d.PageCount(); end > count {
		end = count
	}
	if start > end {
		return "", nil, nil
	}

	results := make([]pageResult, end-start+1)
	var wg sync.WaitGroup
	for n := start; n <= end; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r := &results[n-start]
			if err := ctx.Err(); err != nil {
				r.err = err
				return
			}
			r.html, r.warnings, r.err = d.PageHTML(n)
		}(n)
	}
	wg.Wait()

	var warnings []model.Warning
	pages := make([]string, 0, len(results))
	for i, r := range results {
		warnings = append(warnings, r.warnings...)
		if r.err != nil {
			return "", warnings, fmt.Errorf("convert page %d: %w", start+i, r.err)
		}
		pages = append(pages, r.html)
	}

	d.logger.Debug("pages converted", "doc", d.Identifier, "start", start, "end", end)
	return htmlrender.Stitch(pages), warnings, nil
}
