package pdfdoc

import (
	"log/slog"

	"github.com/tsawler/folio/imagecache"
	"github.com/tsawler/folio/layout"
)

// Options configures a DocumentContext.
type Options struct {
	// CacheRoot enables the image disk cache when non-empty. Images are
	// embedded as data URIs otherwise.
	CacheRoot string

	// PublicPrefix replaces CacheRoot in image URLs. Defaults to "/cache".
	PublicPrefix string

	// Layout tunes paragraph reconstruction. Nil means
	// layout.DefaultParagraphConfig().
	Layout *layout.ParagraphConfig

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

func (o Options) grouper() *layout.Grouper {
	if o.Layout == nil {
		return layout.NewGrouper()
	}
	return layout.NewGrouperWithConfig(*o.Layout)
}
