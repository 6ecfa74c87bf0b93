package folio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/tsawler/folio/epubdoc"
	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/pdfdoc"
)

// ErrPageOutOfRange is returned when a selected page is outside the book.
var ErrPageOutOfRange = errors.New("folio: page out of range")

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Extractor provides a fluent interface for reading PDF and EPUB files.
// Each configuration method returns a new Extractor instance, so a
// configured Extractor can be reused as a template.
type Extractor struct {
	// Source
	filename string
	format   format.Format

	// Readers (only one is used, based on format)
	pdf  *pdfdoc.DocumentContext
	epub *epubdoc.Reader

	// Lifecycle
	ownsReader   bool // true if we opened the reader and should close it
	readerOpened bool

	options ExtractOptions

	// Accumulated error (fail-fast)
	err error

	warnings []Warning
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename:     e.filename,
		format:       e.format,
		pdf:          e.pdf,
		epub:         e.epub,
		ownsReader:   e.ownsReader,
		readerOpened: e.readerOpened,
		options:      e.options.clone(),
		err:          e.err,
		warnings:     append([]Warning(nil), e.warnings...),
	}
}

// ensureReader opens the reader if not already open.
func (e *Extractor) ensureReader() error {
	if e.readerOpened {
		return nil
	}
	if e.filename == "" {
		return fmt.Errorf("no filename specified")
	}
	if e.format == format.Unknown {
		e.format = detectFile(e.filename)
	}

	switch e.format {
	case format.PDF:
		d, err := pdfdoc.Open(e.filename, e.options.pdfOptions())
		if err != nil {
			return fmt.Errorf("failed to open PDF: %w", err)
		}
		e.pdf = d

	case format.EPUB:
		r, err := epubdoc.Open(e.filename, e.options.epubOptions())
		if err != nil {
			return fmt.Errorf("failed to open EPUB: %w", err)
		}
		e.epub = r

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, e.filename)
	}

	e.ownsReader = true
	e.readerOpened = true
	return nil
}

// detectFile identifies a file by extension, falling back to its content.
func detectFile(path string) format.Format {
	if f := format.Detect(path); f != format.Unknown {
		return f
	}
	file, err := os.Open(path)
	if err != nil {
		return format.Unknown
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return format.Unknown
	}
	f, _ := format.DetectFromReader(file, info.Size())
	return f
}

// Close releases resources associated with the Extractor.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if !e.ownsReader {
		return nil
	}
	e.ownsReader = false
	e.readerOpened = false

	var err error
	if e.pdf != nil {
		err = e.pdf.Close()
		e.pdf = nil
	}
	if e.epub != nil {
		err = e.epub.Close()
		e.epub = nil
	}
	return err
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Pages specifies which pages to extract, 1-indexed. For EPUB files the
// numbers are spine positions. Multiple calls are cumulative.
//
// Example:
//
//	html, _, err := folio.Open("book.pdf").Pages(1, 3, 5).HTML()
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// PageRange specifies a range of pages to extract (1-indexed, inclusive).
//
// Example:
//
//	html, _, err := folio.Open("book.pdf").PageRange(5, 10).HTML()
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// WithCache stores extracted images under root and links them from the
// HTML instead of embedding them. It has no effect on an Extractor created
// with FromPDF or FromEPUB.
func (e *Extractor) WithCache(root string) *Extractor {
	newExt := e.clone()
	newExt.options.cacheRoot = root
	return newExt
}

// WithPublicPrefix sets the URL path the cache root is served under.
// The default is "/cache".
func (e *Extractor) WithPublicPrefix(prefix string) *Extractor {
	newExt := e.clone()
	newExt.options.publicPrefix = prefix
	return newExt
}

// EmbedImages embeds every image as a data URI, ignoring any cache root.
func (e *Extractor) EmbedImages() *Extractor {
	newExt := e.clone()
	newExt.options.embedImages = true
	return newExt
}

// WithLayout tunes PDF paragraph reconstruction.
//
// Example:
//
//	cfg := layout.DefaultParagraphConfig()
//	cfg.GapFactor = 2
//	html, _, err := folio.Open("book.pdf").WithLayout(cfg).HTML()
func (e *Extractor) WithLayout(cfg layout.ParagraphConfig) *Extractor {
	newExt := e.clone()
	newExt.options.layout = &cfg
	return newExt
}

// WithLogger routes degraded-mode events to logger.
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	newExt := e.clone()
	newExt.options.logger = logger
	return newExt
}

// WithContext bounds PDF page conversion by ctx.
func (e *Extractor) WithContext(ctx context.Context) *Extractor {
	newExt := e.clone()
	if ctx == nil {
		newExt.err = fmt.Errorf("folio: nil context")
		return newExt
	}
	newExt.options.ctx = ctx
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Format returns the detected format of the source file.
// It does not close the underlying reader.
func (e *Extractor) Format() (format.Format, error) {
	if e.err != nil {
		return format.Unknown, e.err
	}
	if err := e.ensureReader(); err != nil {
		return format.Unknown, err
	}
	return e.format, nil
}

// PageCount returns the number of pages of a PDF or spine items of an EPUB.
// It does not close the underlying reader.
//
// Example:
//
//	ext := folio.Open("book.pdf")
//	defer ext.Close()
//	count, err := ext.PageCount()
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if err := e.ensureReader(); err != nil {
		return 0, err
	}

	if e.format == format.EPUB {
		return e.epub.SpineCount(), nil
	}
	return e.pdf.PageCount(), nil
}

// Metadata returns the descriptive metadata and cover of the book.
// This is a terminal operation that closes the underlying reader.
func (e *Extractor) Metadata() (*model.Ebook, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	var (
		book     *model.Ebook
		warnings []Warning
		err      error
	)
	if e.format == format.EPUB {
		book, warnings, err = e.epub.Metadata()
	} else {
		book, warnings, err = e.pdf.Metadata()
	}
	return book, append(e.warnings, warnings...), err
}

// Ebook reads metadata, table of contents, chapters and stylesheets.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	book, _, err := folio.Open("book.epub").Ebook()
//	for _, ch := range book.Content.Chapters {
//	    fmt.Println(ch.Identifier, ch.Weight)
//	}
func (e *Extractor) Ebook() (*model.Ebook, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	var (
		book     *model.Ebook
		warnings []Warning
		err      error
	)
	if e.format == format.EPUB {
		book, warnings, err = e.epub.ReadAll()
	} else {
		book, warnings, err = e.pdf.ReadAll(e.options.ctx)
	}
	return book, append(e.warnings, warnings...), err
}

// TableOfContents returns the book's navigation tree: the outline of a PDF
// or the NAV/NCX document of an EPUB.
// This is a terminal operation that closes the underlying reader.
func (e *Extractor) TableOfContents() ([]model.TocEntry, error) {
	if e.err != nil {
		return nil, e.err
	}
	if err := e.ensureReader(); err != nil {
		return nil, err
	}
	defer e.Close()

	if e.format == format.EPUB {
		return e.epub.TableOfContents()
	}
	return e.pdf.TableOfContents()
}

// HTML returns the content of the selected pages as HTML. PDF pages are
// converted and stitched; runs of consecutive pages are stitched together.
// EPUB spine documents are processed for display and joined by newlines.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	html, warnings, err := folio.Open("book.pdf").PageRange(1, 20).HTML()
func (e *Extractor) HTML() (string, []Warning, error) {
	if e.err != nil {
		return "", nil, e.err
	}
	if err := e.ensureReader(); err != nil {
		return "", nil, err
	}
	defer e.Close()

	if e.format == format.EPUB {
		return e.epubHTML()
	}
	return e.pdfHTML()
}

// Markdown returns the HTML of the selected pages converted to Markdown.
// This is a terminal operation that closes the underlying reader.
func (e *Extractor) Markdown() (string, []Warning, error) {
	html, warnings, err := e.HTML()
	if err != nil {
		return "", warnings, err
	}
	md, err := mdConverter.ConvertString(html)
	if err != nil {
		return "", warnings, fmt.Errorf("markdown: %w", err)
	}
	return md, warnings, nil
}

// ============================================================================
// Internal helpers
// ============================================================================

func (e *Extractor) pdfHTML() (string, []Warning, error) {
	pages, err := e.resolvePages(e.pdf.PageCount())
	if err != nil {
		return "", nil, err
	}

	warnings := e.warnings
	parts := make([]string, 0, 1)
	for _, run := range pageRuns(pages) {
		html, w, err := e.pdf.ConvertPageRangeToHTML(e.options.ctx, run[0], run[1])
		warnings = append(warnings, w...)
		if err != nil {
			return "", warnings, err
		}
		parts = append(parts, html)
	}
	return strings.Join(parts, "\n"), warnings, nil
}

func (e *Extractor) epubHTML() (string, []Warning, error) {
	positions, err := e.resolvePages(e.epub.SpineCount())
	if err != nil {
		return "", nil, err
	}

	warnings := e.warnings
	parts := make([]string, 0, len(positions))
	for _, n := range positions {
		ch, err := e.epub.SpineChapter(n)
		if errors.Is(err, epubdoc.ErrMissingContent) {
			warnings = append(warnings, Warning{
				Code:    model.WarnMissingContent,
				Page:    n,
				Message: err.Error(),
			})
			continue
		}
		if err != nil {
			return "", warnings, err
		}

		html, w, err := e.epub.ApplyHTMLProcessing(ch.Content)
		warnings = append(warnings, w...)
		if err != nil {
			return "", warnings, fmt.Errorf("spine item %d: %w", n, err)
		}
		parts = append(parts, html)
	}
	return strings.Join(parts, "\n"), warnings, nil
}

// resolvePages validates the selected pages against count and returns them
// sorted without duplicates. No selection means every page.
func (e *Extractor) resolvePages(count int) ([]int, error) {
	if len(e.options.pages) == 0 {
		pages := make([]int, count)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	seen := make(map[int]bool)
	var pages []int
	for _, p := range e.options.pages {
		if p < 1 || p > count {
			return nil, fmt.Errorf("%w: page %d (1-%d)", ErrPageOutOfRange, p, count)
		}
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages, nil
}

// pageRuns splits sorted page numbers into inclusive runs of consecutive pages.
func pageRuns(pages []int) [][2]int {
	var runs [][2]int
	for _, p := range pages {
		if n := len(runs); n > 0 && runs[n-1][1] == p-1 {
			runs[n-1][1] = p
			continue
		}
		runs = append(runs, [2]int{p, p})
	}
	return runs
}
