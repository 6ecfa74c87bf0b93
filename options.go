package folio

import (
	"context"
	"log/slog"

	"github.com/tsawler/folio/epubdoc"
	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/pdfdoc"
)

// ExtractOptions holds configuration for extraction.
type ExtractOptions struct {
	// Page selection, 1-indexed. Spine positions for EPUB.
	pages []int

	cacheRoot    string
	publicPrefix string
	embedImages  bool

	layout *layout.ParagraphConfig
	logger *slog.Logger
	ctx    context.Context
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		pages: nil, // nil means all pages
		ctx:   context.Background(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := o
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}
	if o.layout != nil {
		cfg := *o.layout
		newOpts.layout = &cfg
	}
	return newOpts
}

func (o ExtractOptions) cache() string {
	if o.embedImages {
		return ""
	}
	return o.cacheRoot
}

func (o ExtractOptions) pdfOptions() pdfdoc.Options {
	return pdfdoc.Options{
		CacheRoot:    o.cache(),
		PublicPrefix: o.publicPrefix,
		Layout:       o.layout,
		Logger:       o.logger,
	}
}

func (o ExtractOptions) epubOptions() epubdoc.Options {
	return epubdoc.Options{
		CacheRoot:    o.cache(),
		PublicPrefix: o.publicPrefix,
		Logger:       o.logger,
	}
}
