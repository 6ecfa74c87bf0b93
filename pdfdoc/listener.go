package pdfdoc

import (
	"fmt"
	"log/slog"

	"github.com/tsawler/folio/imagecache"
	"github.com/tsawler/folio/model"
)

// cacheExt is the extension of every PDF image in the disk cache.
const cacheExt = ".png"

// pageListener collects the elements of one page. A listener must not be
// reused across pages.
type pageListener struct {
	page     int
	docID    string
	payloads map[string]imagePayload
	cache    *imagecache.Store
	logger   *slog.Logger

	fragments []*model.TextFragment
	images    []*model.ImageElement
	warnings  []model.Warning
	warned    map[string]bool
}

func newPageListener(page int, docID string, payloads map[string]imagePayload, cache *imagecache.Store, logger *slog.Logger) *pageListener {
	return &pageListener{
		page:     page,
		docID:    docID,
		payloads: payloads,
		cache:    cache,
		logger:   logger,
		warned:   map[string]bool{},
	}
}

func (l *pageListener) renderText(frag *model.TextFragment) {
	l.fragments = append(l.fragments, frag)
}

func (l *pageListener) renderImage(name string, x, y, width, height float64) {
	payload, ok := l.payloads[name]
	if !ok {
		l.warn(model.WarnImageUnresolved, "image:"+name,
			fmt.Sprintf("no decodable data for image %s", name), nil)
		return
	}

	img := &model.ImageElement{
		Position: model.Position{
			X:      x,
			Y:      y,
			EndX:   x + width,
			Width:  width,
			Height: height,
		},
		Name:     name,
		MimeType: payload.mimeType,
	}

	path, data, err := l.cache.PutOrEmbed(l.docID, payload.data, cacheExt)
	if err != nil {
		l.warn(model.WarnCacheWrite, "cache:"+name,
			fmt.Sprintf("image %s embedded, cache write failed: %v", name, err), err)
	}
	img.CachedPath = path
	img.Data = data

	l.images = append(l.images, img)
}

func (l *pageListener) missingWidths(font string) {
	l.warn(model.WarnGeneric, "font:"+font,
		fmt.Sprintf("font %q has no glyph widths, spacing is estimated", font), nil)
}

// warn records a warning once per key.
func (l *pageListener) warn(code model.WarningCode, key, msg string, err error) {
	if l.warned[key] {
		return
	}
	l.warned[key] = true
	l.warnings = append(l.warnings, model.Warning{Code: code, Page: l.page, Message: msg})

	attrs := []any{"doc", l.docID, "page", l.page}
	if err != nil {
		attrs = append(attrs, "err", err)
	}
	l.logger.Warn(msg, attrs...)
}
