package folio_test

import (
	"fmt"
	"log"

	"github.com/tsawler/folio"
	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
)

func Example() {
	html, warnings, err := folio.Open("book.pdf").HTML()
	if err != nil {
		log.Fatal(err)
	}
	if len(warnings) > 0 {
		log.Println("Warnings:", folio.FormatWarnings(warnings))
	}
	fmt.Println(len(html))
}

func ExampleExtractor_HTML() {
	// Images go to the cache and are linked under /cache/book/.
	html, _, err := folio.Open("book.pdf").
		PageRange(1, 20).
		WithCache("/var/cache/folio").
		HTML()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(html)
}

func ExampleExtractor_WithLayout() {
	cfg := layout.DefaultParagraphConfig()
	cfg.GapFactor = 2

	md, _, err := folio.Open("book.pdf").WithLayout(cfg).Markdown()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(md)
}

func ExampleExtractor_Ebook() {
	book, _, err := folio.Open("book.epub").Ebook()
	if err != nil {
		log.Fatal(err)
	}
	for _, ch := range book.Content.Chapters {
		fmt.Println(ch.Identifier, ch.Title, ch.Weight)
	}
}

func ExampleReplaceMetadata() {
	index := 2.0
	err := folio.ReplaceMetadata("book.epub", &model.Ebook{
		Title:       "The Two Towers",
		Author:      "John Ronald Reuel Tolkien",
		Series:      "The Lord of the Rings",
		SeriesIndex: &index,
	})
	if err != nil {
		log.Fatal(err)
	}
}
