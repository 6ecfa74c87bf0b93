package pdfdoc

import (
	"errors"
	"fmt"
)

var (
	// ErrPageOutOfRange is returned when a page number is outside the document.
	ErrPageOutOfRange = errors.New("pdf: page out of range")

	// ErrCorruptContent is returned when a page's content stream cannot be walked.
	ErrCorruptContent = errors.New("pdf: corrupt content stream")

	// ErrNotSupported is returned for operations that only apply to other formats.
	ErrNotSupported = errors.New("pdf: operation not supported")

	// ErrClosed is returned when a closed document is used.
	ErrClosed = errors.New("pdf: document closed")
)

// Error records a failed PDF operation with the file and page it concerned.
type Error struct {
	Op   string // operation, e.g. "open" or "walk"
	Path string
	Page int // 1-based page, 0 when not page specific
	Err  error
}

func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("pdf: %s %s page %d: %v", e.Op, e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("pdf: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// recoverPanic converts a panic raised by the PDF library into an *Error
// wrapping ErrCorruptContent. Use as: defer recoverPanic(&err, op, path, page).
func recoverPanic(err *error, op, path string, page int) {
	r := recover()
	if r == nil {
		return
	}
	*err = &Error{
		Op:   op,
		Path: path,
		Page: page,
		Err:  fmt.Errorf("%w: %v", ErrCorruptContent, r),
	}
}
