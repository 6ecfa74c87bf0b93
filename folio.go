// Package folio reads PDF and EPUB ebooks and turns their content into HTML.
//
// PDF pages carry only positioned glyph runs, so folio rebuilds lines and
// paragraphs from geometry, infers alignment and stitches paragraphs split
// across page breaks. EPUB chapters are already HTML and are cleaned up for
// display instead.
//
// Basic usage:
//
//	html, warnings, err := folio.Open("book.pdf").HTML()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", folio.FormatWarnings(warnings))
//	}
//
// With options:
//
//	md, _, err := folio.Open("book.epub").
//	    Pages(2, 3).
//	    WithCache("/var/cache/folio").
//	    Markdown()
//
// The pdfdoc and epubdoc packages expose the lower-level readers.
package folio

import (
	"errors"
	"fmt"

	"github.com/tsawler/folio/epubdoc"
	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/pdfdoc"
)

// ErrUnsupportedFormat is returned for files that are neither PDF nor EPUB.
var ErrUnsupportedFormat = errors.New("folio: unsupported file format")

// Open returns an Extractor for the ebook at filename. Nothing is read until
// a terminal operation runs.
//
// Example:
//
//	meta, _, err := folio.Open("book.epub").Metadata()
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromPDF creates an Extractor over an already opened PDF document.
// The caller keeps ownership and must close it.
func FromPDF(d *pdfdoc.DocumentContext) *Extractor {
	return &Extractor{
		filename:     d.Path,
		format:       format.PDF,
		pdf:          d,
		readerOpened: true,
		options:      defaultOptions(),
	}
}

// FromEPUB creates an Extractor over an already opened EPUB reader.
// The caller keeps ownership and must close it.
func FromEPUB(r *epubdoc.Reader) *Extractor {
	return &Extractor{
		filename:     r.Path,
		format:       format.EPUB,
		epub:         r,
		readerOpened: true,
		options:      defaultOptions(),
	}
}

// ReplaceMetadata writes title, author and the other descriptive fields of
// meta into the ebook at path.
func ReplaceMetadata(path string, meta *model.Ebook) error {
	switch detectFile(path) {
	case format.PDF:
		return pdfdoc.ReplaceMetadata(path, meta)
	case format.EPUB:
		return epubdoc.ReplaceMetadata(path, meta)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReplaceCover replaces the cover of the ebook at path with image.
func ReplaceCover(path string, image []byte) error {
	switch detectFile(path) {
	case format.PDF:
		return pdfdoc.ReplaceCover(path, image)
	case format.EPUB:
		return epubdoc.ReplaceCover(path, image)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil.
//
// Example:
//
//	count := folio.Must(folio.Open("book.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustText is like Must for terminal operations that also return warnings,
// which it discards.
//
// Example:
//
//	html := folio.MustText(folio.Open("book.pdf").HTML())
func MustText[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
