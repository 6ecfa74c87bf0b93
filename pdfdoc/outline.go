package pdfdoc

import (
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/tsawler/folio/model"
)

// coverTitle is the title of the synthesized first table of contents entry.
const coverTitle = "Cover"

// TableOfContents returns the document outline. Each entry's ID is its
// destination page number; entries whose destination cannot be resolved
// have an empty ID. A document without an outline yields an empty slice.
func (d *DocumentContext) TableOfContents() ([]model.TocEntry, error) {
	d.mu.Lock()
	bookmarks, err := pdfcpu.Bookmarks(d.ctx)
	d.mu.Unlock()
	if err != nil {
		return nil, &Error{Op: "outline", Path: d.Path, Err: err}
	}
	return bookmarksToToc(bookmarks), nil
}

func bookmarksToToc(bookmarks []pdfcpu.Bookmark) []model.TocEntry {
	entries := make([]model.TocEntry, 0, len(bookmarks))
	for _, bm := range bookmarks {
		entry := model.TocEntry{Title: bm.Title}
		if bm.PageFrom > 0 {
			entry.ID = strconv.Itoa(bm.PageFrom)
		}
		if len(bm.Kids) > 0 {
			entry.Entries = bookmarksToToc(bm.Kids)
		}
		entries = append(entries, entry)
	}
	return entries
}

// withCoverEntry prepends a cover entry for page 1 unless a top-level entry
// already points there. An empty table of contents is returned unchanged.
func withCoverEntry(toc []model.TocEntry) []model.TocEntry {
	if len(toc) == 0 {
		return toc
	}
	for _, e := range toc {
		if e.ID == "1" {
			return toc
		}
	}
	return append([]model.TocEntry{{ID: "1", Title: coverTitle}}, toc...)
}
