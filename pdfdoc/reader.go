package pdfdoc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/imagecache"
	"github.com/tsawler/folio/model"
)

// unknownAuthor is reported when the info dictionary names no author.
const unknownAuthor = "Unknown"

// ReadMetadata opens path and returns its metadata without content.
func ReadMetadata(path string, opts Options) (*model.Ebook, []model.Warning, error) {
	d, err := Open(path, opts)
	if err != nil {
		return nil, nil, err
	}
	defer d.Close()
	return d.Metadata()
}

// ReadAll opens path and returns its metadata, table of contents and
// chapters.
func ReadAll(ctx context.Context, path string, opts Options) (*model.Ebook, []model.Warning, error) {
	d, err := Open(path, opts)
	if err != nil {
		return nil, nil, err
	}
	defer d.Close()
	return d.ReadAll(ctx)
}

// Metadata returns title, author, synopsis, page count and cover. Title
// falls back to the document identifier and author to "Unknown". The cover
// is the first image painted on page 1, if any.
func (d *DocumentContext) Metadata() (*model.Ebook, []model.Warning, error) {
	if d.Closed() {
		return nil, nil, &Error{Op: "metadata", Path: d.Path, Err: ErrClosed}
	}

	d.mu.Lock()
	title, author, subject := d.ctx.Title, d.ctx.Author, d.ctx.Subject
	d.mu.Unlock()

	ebook := &model.Ebook{
		Format:   format.PDF,
		FilePath: d.Path,
		Title:    strings.TrimSpace(title),
		Author:   strings.TrimSpace(author),
		Synopsis: strings.TrimSpace(subject),
		Pages:    d.PageCount(),
	}
	if ebook.Title == "" {
		ebook.Title = d.Identifier
	}
	if ebook.Author == "" {
		ebook.Author = unknownAuthor
	}

	cover, warnings, err := d.Cover()
	if err != nil {
		return nil, warnings, err
	}
	if cover == nil {
		warnings = append(warnings, model.Warning{
			Code:    model.WarnMissingCover,
			Page:    1,
			Message: "no image on the first page",
		})
	}
	ebook.Cover = cover
	return ebook, warnings, nil
}

// Cover returns the bytes of the first image painted on page 1, or nil.
func (d *DocumentContext) Cover() ([]byte, []model.Warning, error) {
	if d.PageCount() < 1 {
		return nil, nil, nil
	}

	payloads, err := d.pageImages(1)
	if err != nil {
		return nil, nil, &Error{Op: "cover", Path: d.Path, Page: 1, Err: err}
	}

	listener := newPageListener(1, d.Identifier, payloads, imagecache.New("", "", d.logger), d.logger)
	if err := d.walkPage(1, listener); err != nil {
		return nil, listener.warnings, err
	}
	if len(listener.images) == 0 {
		return nil, listener.warnings, nil
	}
	return listener.images[0].Data, listener.warnings, nil
}

// ReadAll returns the metadata together with the table of contents and
// chapters. With an outline, page 1 is chapter "1" and every later entry
// covers the pages up to the next entry. Without one, a single chapter
// holds the whole document.
func (d *DocumentContext) ReadAll(ctx context.Context) (*model.Ebook, []model.Warning, error) {
	ebook, warnings, err := d.Metadata()
	if err != nil {
		return nil, warnings, err
	}

	toc, err := d.TableOfContents()
	if err != nil {
		return nil, warnings, err
	}
	toc = withCoverEntry(toc)
	ebook.Content.TableOfContents = toc

	chapters, chapterWarnings, err := d.Chapters(ctx, toc)
	warnings = append(warnings, chapterWarnings...)
	if err != nil {
		return nil, warnings, err
	}
	ebook.Content.Chapters = chapters
	return ebook, warnings, nil
}

// Chapters splits the document into chapters along toc.
func (d *DocumentContext) Chapters(ctx context.Context, toc []model.TocEntry) ([]model.Chapter, []model.Warning, error) {
	pages := d.PageCount()
	flat := model.Flatten(toc)

	if len(flat) == 0 {
		html, warnings, err := d.ConvertPageRangeToHTML(ctx, 1, pages)
		if err != nil {
			return nil, warnings, err
		}
		return []model.Chapter{{
			Identifier:       "1",
			Content:          html,
			Weight:           pages - 1,
			ContentProcessed: true,
		}}, warnings, nil
	}

	cover, warnings, err := d.ConvertPageRangeToHTML(ctx, 1, 1)
	if err != nil {
		return nil, warnings, err
	}
	chapters := []model.Chapter{{
		Identifier:       "1",
		Content:          cover,
		Weight:           1,
		ContentProcessed: true,
	}}

	for _, span := range chapterSpans(flat, pages) {
		if span.skipped {
			warnings = append(warnings, model.Warning{
				Code:    model.WarnTocEntrySkipped,
				Message: fmt.Sprintf("table of contents entry %q has no page destination", span.entry.Title),
			})
			continue
		}

		html, pageWarnings, err := d.ConvertPageRangeToHTML(ctx, span.start, span.end)
		warnings = append(warnings, pageWarnings...)
		if err != nil {
			return nil, warnings, err
		}
		chapters = append(chapters, model.Chapter{
			Identifier:       span.entry.ID,
			Title:            span.entry.Title,
			Content:          html,
			Weight:           span.weight,
			ContentProcessed: true,
		})
	}
	return chapters, warnings, nil
}

// chapterSpan is the page range of one table of contents entry.
type chapterSpan struct {
	entry      model.TocEntry
	start, end int
	weight     int
	skipped    bool
}

// chapterSpans computes the page range of every flattened entry after the
// first. An entry ends the page before the next resolvable entry, or at the
// last page. Weight is the page count minus one, at least 1.
func chapterSpans(flat []model.TocEntry, pages int) []chapterSpan {
	var spans []chapterSpan
	for i := 1; i < len(flat); i++ {
		start, ok := pageNumber(flat[i].ID)
		if !ok {
			spans = append(spans, chapterSpan{entry: flat[i], skipped: true})
			continue
		}

		next := pages + 1
		for j := i + 1; j < len(flat); j++ {
			if p, ok := pageNumber(flat[j].ID); ok {
				next = p
				break
			}
		}

		weight := next - start - 1
		if weight <= 0 {
			weight = 1
		}
		spans = append(spans, chapterSpan{
			entry:  flat[i],
			start:  start,
			end:    next - 1,
			weight: weight,
		})
	}
	return spans
}

func pageNumber(id string) (int, bool) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ApplyHTMLProcessing is an EPUB operation; PDF chapters are already
// processed HTML.
func ApplyHTMLProcessing(string) (string, []model.Warning, error) {
	return "", nil, ErrNotSupported
}
