// Package format provides ebook format detection for the folio library.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a supported ebook format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// EPUB indicates an EPUB (OCF ZIP container) ebook.
	EPUB
	// PDF indicates a PDF document.
	PDF
)

// epubMimetype is the content of the mimetype entry of every EPUB container.
const epubMimetype = "application/epub+zip"

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case EPUB:
		return "EPUB"
	case PDF:
		return "PDF"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case EPUB:
		return ".epub"
	case PDF:
		return ".pdf"
	default:
		return ""
	}
}

// Parse maps a format name or extension ("pdf", ".EPUB") to a Format.
func Parse(s string) Format {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "epub":
		return EPUB
	case "pdf":
		return PDF
	default:
		return Unknown
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	return Parse(filepath.Ext(filename))
}

// DetectFromMagic checks file magic bytes to determine format.
// ZIP archives return Unknown; use DetectFromReader to look inside them.
func DetectFromMagic(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}

	// PDF magic: %PDF
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return PDF
	}

	// An EPUB stores its mimetype uncompressed as the first entry, so the
	// string shows up at a fixed offset right after the local file header.
	if isZIPMagic(data) && len(data) >= 58 && string(data[30:38]) == "mimetype" &&
		string(data[38:58]) == epubMimetype {
		return EPUB
	}

	return Unknown
}

func isZIPMagic(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04
}

// DetectFromReader inspects the content to determine format.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 64)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if f := DetectFromMagic(magic); f != Unknown {
		return f, nil
	}

	if isZIPMagic(magic) {
		return detectZIPFormat(r, size)
	}

	return Unknown, nil
}

// detectZIPFormat inspects a ZIP archive's mimetype entry.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		if f.Name != "mimetype" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Unknown, nil
		}
		data := make([]byte, 64)
		n, _ := io.ReadFull(rc, data)
		rc.Close()
		if strings.TrimSpace(string(data[:n])) == epubMimetype {
			return EPUB, nil
		}
		return Unknown, nil
	}

	// Some EPUBs omit the mimetype entry but still carry the OCF container.
	for _, f := range zr.File {
		if f.Name == "META-INF/container.xml" {
			return EPUB, nil
		}
	}

	return Unknown, nil
}

// DetectFile detects a file's format, preferring content over the extension.
func DetectFile(path string, r io.ReaderAt, size int64) Format {
	if r != nil {
		if f, err := DetectFromReader(r, size); err == nil && f != Unknown {
			return f
		}
	}
	return Detect(path)
}
