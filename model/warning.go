package model

import (
	"fmt"
	"strings"
)

// WarningCode classifies a non-fatal condition met during extraction.
type WarningCode int

const (
	WarnGeneric WarningCode = iota
	// WarnCacheWrite means an image could not be written to the disk cache and
	// was embedded instead.
	WarnCacheWrite
	// WarnImageUnresolved means an image was drawn but its bytes could not be decoded.
	WarnImageUnresolved
	// WarnMissingCover means the book declares no usable cover image.
	WarnMissingCover
	// WarnTocEntrySkipped means a table of contents entry has no usable destination.
	WarnTocEntrySkipped
	// WarnMissingContent means a referenced document could not be read.
	WarnMissingContent
)

func (c WarningCode) String() string {
	switch c {
	case WarnCacheWrite:
		return "cache-write"
	case WarnImageUnresolved:
		return "image-unresolved"
	case WarnMissingCover:
		return "missing-cover"
	case WarnTocEntrySkipped:
		return "toc-entry-skipped"
	case WarnMissingContent:
		return "missing-content"
	default:
		return "warning"
	}
}

// Warning is a non-fatal issue. Extraction succeeded but the result may be degraded.
type Warning struct {
	Code    WarningCode
	Page    int // 1-based page, 0 when not page specific
	Message string
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", w.Code, w.Page, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// FormatWarnings renders warnings one per line.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
