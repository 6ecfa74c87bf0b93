package epubdoc

import (
	"log/slog"

	"github.com/tsawler/folio/imagecache"
)

// Options configures a Reader.
type Options struct {
	// CacheRoot enables the image disk cache used by ApplyHTMLProcessing.
	// Images are inlined as data URIs when it is empty.
	CacheRoot string

	// PublicPrefix replaces CacheRoot in image URLs. Defaults to "/cache".
	PublicPrefix string

	// Logger receives degraded-mode events. Nil means slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) publicPrefix() string {
	if o.PublicPrefix == "" {
		return imagecache.DefaultPublicPrefix
	}
	return o.PublicPrefix
}
