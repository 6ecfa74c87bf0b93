package pdfdoc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tsawler/folio/htmlrender"
	"github.com/tsawler/folio/imagecache"
	"github.com/tsawler/folio/layout"
)

// defaultPageWidth is US Letter, used when a page has no usable MediaBox.
const defaultPageWidth = 612.0

// DocumentContext is an open PDF document plus the configuration used to
// convert it. It is safe for concurrent page conversions.
type DocumentContext struct {
	// Path is the file the document was opened from.
	Path string

	// Identifier is the file name without extension. It namespaces the
	// document's image cache entries.
	Identifier string

	file   *os.File
	reader *pdf.Reader

	// pdfcpu decodes streams in place, so its context is used under mu.
	mu  sync.Mutex
	ctx *pdfmodel.Context

	opts     Options
	logger   *slog.Logger
	cache    *imagecache.Store
	grouper  *layout.Grouper
	renderer *htmlrender.Renderer
}

// Open opens the PDF at path.
func Open(path string, opts Options) (*DocumentContext, error) {
	file, reader, err := openReader(path)
	if err != nil {
		return nil, err
	}

	ctx, err := readContext(path)
	if err != nil {
		file.Close()
		return nil, err
	}

	logger := opts.logger()
	return &DocumentContext{
		Path:       path,
		Identifier: Identifier(path),
		file:       file,
		reader:     reader,
		ctx:        ctx,
		opts:       opts,
		logger:     logger,
		cache:      imagecache.New(opts.CacheRoot, opts.publicPrefix(), logger),
		grouper:    opts.grouper(),
		renderer:   htmlrender.NewRenderer(opts.CacheRoot, opts.publicPrefix()),
	}, nil
}

// openReader opens path with the content-stream library, which panics on
// some malformed files.
func openReader(path string) (file *os.File, reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			if file != nil {
				file.Close()
			}
			file, reader = nil, nil
			err = &Error{Op: "open", Path: path, Err: fmt.Errorf("%w: %v", ErrCorruptContent, r)}
		}
	}()

	file, reader, err = pdf.Open(path)
	if err != nil {
		return nil, nil, &Error{Op: "open", Path: path, Err: err}
	}
	return file, reader, nil
}

// readContext loads the pdfcpu model used for images, page boxes, the
// outline and the info dictionary.
func readContext(path string) (*pdfmodel.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	ctx, err := readContextFrom(f)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}
	return ctx, nil
}

func readContextFrom(rs io.ReadSeeker) (*pdfmodel.Context, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.Cmd = pdfmodel.EXTRACTIMAGES
	return api.ReadValidateAndOptimize(rs, conf)
}

// Identifier returns the document identifier for path: its base name
// without extension.
func Identifier(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Close releases the underlying file. Calling Close more than once is safe.
func (d *DocumentContext) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Closed reports whether Close was called.
func (d *DocumentContext) Closed() bool {
	return d.file == nil
}

// PageCount returns the number of pages.
func (d *DocumentContext) PageCount() int {
	return d.reader.NumPage()
}

// PageWidth returns the width of page n in points.
func (d *DocumentContext) PageWidth(n int) float64 {
	d.mu.Lock()
	_, _, attrs, err := d.ctx.PageDict(n, false)
	d.mu.Unlock()
	if err == nil && attrs != nil && attrs.MediaBox != nil && attrs.MediaBox.Width() > 0 {
		return attrs.MediaBox.Width()
	}

	// MediaBox is inheritable from the page tree.
	for v := d.reader.Page(n).V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() != pdf.Array || box.Len() != 4 {
			continue
		}
		if w := box.Index(2).Float64() - box.Index(0).Float64(); w > 0 {
			return w
		}
		break
	}
	return defaultPageWidth
}

func (d *DocumentContext) checkPage(op string, n int) error {
	if d.Closed() {
		return &Error{Op: op, Path: d.Path, Page: n, Err: ErrClosed}
	}
	if n < 1 || n > d.PageCount() {
		return &Error{Op: op, Path: d.Path, Page: n, Err: ErrPageOutOfRange}
	}
	return nil
}
