// Package imagecache stores extracted images on disk, addressed by content.
//
// Files live at <root>/<docID>/<sha256-hex><ext>. The same bytes always map
// to the same file, a file is never rewritten once present, and concurrent
// writers of the same image race harmlessly. Each file is written to a
// temporary name and moved into place, so readers never see partial data.
package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultPublicPrefix is the URL path under which the cache root is served.
const DefaultPublicPrefix = "/cache"

// ErrNoRoot is returned by Put on a store without a root directory.
var ErrNoRoot = errors.New("imagecache: no cache root configured")

// Store is a content-addressed image cache rooted at a directory.
// The zero value is a disabled store.
type Store struct {
	root   string
	prefix string
	logger *slog.Logger
}

// New creates a store rooted at root. An empty root disables caching. A nil
// logger means slog.Default().
func New(root, publicPrefix string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if publicPrefix == "" {
		publicPrefix = DefaultPublicPrefix
	}
	return &Store{root: root, prefix: publicPrefix, logger: logger}
}

// Enabled reports whether the store writes to disk.
func (s *Store) Enabled() bool {
	return s != nil && s.root != ""
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// PublicPrefix returns the URL prefix that replaces the root in public URLs.
func (s *Store) PublicPrefix() string {
	if s == nil || s.prefix == "" {
		return DefaultPublicPrefix
	}
	return s.prefix
}

// Hash returns the lowercase hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Path returns where data would be cached for docID with extension ext.
func (s *Store) Path(docID string, data []byte, ext string) string {
	return filepath.Join(s.root, docID, Hash(data)+normalizeExt(ext))
}

// Put writes data for docID unless an identical file already exists and
// returns the file path. An empty ext is sniffed from the content.
func (s *Store) Put(docID string, data []byte, ext string) (string, error) {
	if !s.Enabled() {
		return "", ErrNoRoot
	}
	if ext == "" {
		ext = mimetype.Detect(data).Extension()
	}

	target := s.Path(docID, data, ext)
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("imagecache: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("imagecache: create tmp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("imagecache: write tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("imagecache: close tmp: %w", err)
	}

	// Link fails if another writer got there first, leaving its file intact.
	if err := os.Link(tmpName, target); err != nil {
		if _, statErr := os.Stat(target); statErr == nil {
			return target, nil
		}
		if err := os.Rename(tmpName, target); err != nil {
			return "", fmt.Errorf("imagecache: rename: %w", err)
		}
	}

	s.logger.Debug("image cached", "doc", docID, "path", target, "bytes", len(data))
	return target, nil
}

// PutOrEmbed caches data and returns the cached path. When caching is
// disabled or fails it returns the original bytes instead, along with the
// write error, if any, for the caller to report as a warning.
func (s *Store) PutOrEmbed(docID string, data []byte, ext string) (path string, embedded []byte, err error) {
	if !s.Enabled() {
		return "", data, nil
	}
	path, err = s.Put(docID, data, ext)
	if err != nil {
		s.logger.Warn("image cache write failed, embedding bytes", "doc", docID, "err", err)
		return "", data, err
	}
	return path, nil, nil
}

// PublicURL maps a cached file path to its URL under the public prefix.
func (s *Store) PublicURL(path string) string {
	p := filepath.ToSlash(path)
	root := strings.TrimSuffix(filepath.ToSlash(s.Root()), "/")
	prefix := strings.TrimSuffix(s.PublicPrefix(), "/")
	if root != "" && strings.HasPrefix(p, root+"/") {
		return prefix + p[len(root):]
	}
	return p
}

// MimeType sniffs the MIME type of data.
func MimeType(data []byte) string {
	return mimetype.Detect(data).String()
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
