// Package pdfdoc reconstructs PDF documents as flowing HTML.
//
// A [DocumentContext] owns an open PDF for the duration of one read. Pages
// are walked with github.com/ledongthuc/pdf: every shown string becomes a
// positioned text fragment and every painted image XObject a positioned
// image whose bytes come from pdfcpu. Fragments are grouped into paragraphs
// by the layout package and rendered by htmlrender.
//
//	doc, err := pdfdoc.Open("book.pdf", pdfdoc.Options{CacheRoot: "/var/cache/folio"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	html, warnings, err := doc.ConvertPageRangeToHTML(ctx, 1, doc.PageCount())
//
// Pages of a range are converted concurrently, one goroutine per page, and
// stitched in order so paragraphs cut by a page break are rejoined.
//
// The package also reads document metadata and the outline ([ReadMetadata],
// [ReadAll]) and rewrites the info dictionary or the cover page
// ([ReplaceMetadata], [ReplaceCover]).
package pdfdoc
