// Package epubdoc reads and edits EPUB 2 and EPUB 3 books.
//
// A [Reader] exposes the package metadata, the cover, the stylesheets, one
// chapter per spine item and the table of contents:
//
//	r, err := epubdoc.Open("book.epub", epubdoc.Options{CacheRoot: "/var/cache/folio"})
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	book, warnings, err := r.ReadAll()
//	for _, ch := range book.Content.Chapters {
//	    html, _, err := r.ApplyHTMLProcessing(ch.Content)
//	    ...
//	}
//
// Books with encrypted content documents are rejected with [ErrDRMProtected];
// obfuscated fonts are accepted.
//
// [ReplaceMetadata] and [ReplaceCover] rewrite a book on disk. The archive is
// rebuilt in a temporary file and renamed over the original, with the
// mimetype entry first and uncompressed.
package epubdoc
