package epubdoc

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/imagecache"
	"github.com/tsawler/folio/model"
)

const (
	unknownAuthor = "Unknown"
	coverTitle    = "Cover"
)

// Reader provides access to an EPUB archive. A Reader is safe for
// concurrent use.
type Reader struct {
	// Path is the file the book was opened from, empty for OpenReader.
	Path string

	// Identifier namespaces the book's image cache entries.
	Identifier string

	closer  io.Closer
	zr      *zip.Reader
	pkg     *opfPackage
	opfPath string
	baseDir string

	logger *slog.Logger
	cache  *imagecache.Store

	mu       sync.Mutex
	contents map[string]string
	closed   bool
}

// Open opens the EPUB at path.
func Open(path string, opts Options) (*Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	r, err := newReader(&rc.Reader, rc, identifier(path), opts)
	if err != nil {
		rc.Close()
		return nil, err
	}
	r.Path = path
	return r, nil
}

// OpenReader opens an EPUB from ra. id namespaces cached images; an empty id
// means "book".
func OpenReader(ra io.ReaderAt, size int64, id string, opts Options) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if id == "" {
		id = "book"
	}
	return newReader(zr, nil, id, opts)
}

func newReader(zr *zip.Reader, closer io.Closer, id string, opts Options) (*Reader, error) {
	if err := checkDRM(zr); err != nil {
		return nil, err
	}

	opfPath, err := packagePath(zr)
	if err != nil {
		return nil, err
	}
	data, err := readEntry(zr, opfPath)
	if err != nil {
		return nil, err
	}
	pkg, err := parsePackage(data)
	if err != nil {
		return nil, err
	}

	logger := opts.logger()
	return &Reader{
		Identifier: id,
		closer:     closer,
		zr:         zr,
		pkg:        pkg,
		opfPath:    opfPath,
		baseDir:    opfDir(opfPath),
		logger:     logger,
		cache:      imagecache.New(opts.CacheRoot, opts.publicPrefix(), logger),
		contents:   map[string]string{},
	}, nil
}

func identifier(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Close releases the archive. Calling Close more than once is safe.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.contents = nil
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Version returns the major EPUB version, 2 or 3.
func (r *Reader) Version() int {
	return r.pkg.majorVersion()
}

// SpineCount returns the number of spine items.
func (r *Reader) SpineCount() int {
	return len(r.pkg.Spine.ItemRefs)
}

// entryPath maps an href relative to the package document to an archive path.
func (r *Reader) entryPath(href string) string {
	return resolvePath(r.opfPath, stripFragment(href))
}

// LoadFileContent returns the text of the entry at href, relative to the
// package document. Results are memoised.
func (r *Reader) LoadFileContent(href string) (string, error) {
	name := r.entryPath(href)
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingContent, href)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrClosed
	}
	if s, ok := r.contents[name]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	data, err := readEntry(r.zr, name)
	if err != nil {
		return "", err
	}
	content := string(data)

	r.mu.Lock()
	if r.contents != nil {
		r.contents[name] = content
	}
	r.mu.Unlock()
	return content, nil
}

// Metadata returns the book's descriptive metadata and cover.
func (r *Reader) Metadata() (*model.Ebook, []model.Warning, error) {
	m := &r.pkg.Metadata

	ebook := &model.Ebook{
		Format:      format.EPUB,
		FilePath:    r.Path,
		Title:       firstNonEmpty(m.Titles),
		Language:    firstNonEmpty(m.Languages),
		Publisher:   firstNonEmpty(m.Publishers),
		PublishDate: firstNonEmpty(m.Dates),
		Synopsis:    firstNonEmpty(m.Descriptions),
		Series:      m.metaValue("calibre:series"),
		Pages:       r.SpineCount(),
	}
	if ebook.Title == "" {
		ebook.Title = r.Identifier
	}

	ebook.Author = unknownAuthor
	for _, c := range m.Creators {
		if name := strings.TrimSpace(c.Name); name != "" {
			ebook.Author = name
			break
		}
	}

	for _, id := range m.Identifiers {
		if v := strings.TrimSpace(id.Value); v != "" {
			ebook.Identifiers = append(ebook.Identifiers, model.Identifier{Scheme: id.Scheme, Value: v})
		}
	}

	if idx, err := strconv.ParseFloat(m.metaValue("calibre:series_index"), 64); err == nil {
		ebook.SeriesIndex = &idx
	}

	var warnings []model.Warning
	cover, err := r.Cover()
	if err != nil {
		warnings = append(warnings, model.Warning{Code: model.WarnMissingCover, Message: err.Error()})
		r.logger.Warn("epub cover unavailable", "doc", r.Identifier, "err", err)
	}
	ebook.Cover = cover
	return ebook, warnings, nil
}

// Cover returns the bytes of the cover image.
func (r *Reader) Cover() ([]byte, error) {
	item := r.pkg.coverItem()
	if item == nil {
		return nil, ErrNoCover
	}
	data, err := readEntry(r.zr, r.entryPath(item.Href))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ReadAll returns the metadata together with stylesheets, chapters and the
// table of contents.
func (r *Reader) ReadAll() (*model.Ebook, []model.Warning, error) {
	ebook, warnings, err := r.Metadata()
	if err != nil {
		return nil, warnings, err
	}

	ebook.Content.Stylesheets, warnings = r.stylesheets(warnings)
	ebook.Content.Chapters, warnings = r.chapters(warnings)

	toc, err := r.TableOfContents()
	if err != nil {
		return nil, warnings, err
	}
	ebook.Content.TableOfContents = toc
	return ebook, warnings, nil
}

// ReadMetadata opens path and returns its metadata.
func ReadMetadata(path string, opts Options) (*model.Ebook, []model.Warning, error) {
	r, err := Open(path, opts)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()
	return r.Metadata()
}

// ReadAll opens path and returns its metadata and content.
func ReadAll(path string, opts Options) (*model.Ebook, []model.Warning, error) {
	r, err := Open(path, opts)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()
	return r.ReadAll()
}
