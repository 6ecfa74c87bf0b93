package epubdoc

import "errors"

var (
	// ErrInvalidArchive is returned when the file is not a readable ZIP archive.
	ErrInvalidArchive = errors.New("epub: invalid or corrupted archive")

	// ErrMissingContent is returned when a referenced entry is not in the archive.
	ErrMissingContent = errors.New("epub: referenced content file not found")

	// ErrNoTableOfContents is returned when the book has neither a NAV nor an
	// NCX document.
	ErrNoTableOfContents = errors.New("epub: no table of contents found")

	// ErrNoCover is returned by the writer when the book declares no cover image.
	ErrNoCover = errors.New("epub: no cover image declared")

	// ErrSpineOutOfRange is returned for a spine position outside the book.
	ErrSpineOutOfRange = errors.New("epub: spine position out of range")

	// ErrClosed is returned when a closed reader is used.
	ErrClosed = errors.New("epub: reader closed")
)
