package model

import "github.com/tsawler/folio/format"

// Ebook is the format-independent result of reading an ebook file.
type Ebook struct {
	Format      format.Format
	FilePath    string
	Title       string
	Synopsis    string
	Author      string
	Language    string
	Series      string
	SeriesIndex *float64
	Publisher   string
	PublishDate string
	Identifiers []Identifier
	Cover       []byte
	Pages       int
	Content     Content
}

// Identifier is a book identifier such as an ISBN or UUID.
type Identifier struct {
	Scheme string
	Value  string
}

// Content holds the navigable body of an ebook.
type Content struct {
	TableOfContents []TocEntry
	Chapters        []Chapter
	Stylesheets     []Stylesheet
}

// ChapterFromTableOfContents searches the table of contents recursively for
// the entry with the given id. It returns nil when id is empty or not found.
func (c *Content) ChapterFromTableOfContents(id string) *TocEntry {
	if id == "" {
		return nil
	}
	return findEntry(c.TableOfContents, id)
}

func findEntry(entries []TocEntry, id string) *TocEntry {
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i]
		}
		if found := findEntry(entries[i].Entries, id); found != nil {
			return found
		}
	}
	return nil
}

// TotalWeight sums the weights of the first until chapters. A negative until
// (or one past the end) sums every chapter.
func (c *Content) TotalWeight(until int) int {
	if until < 0 || until > len(c.Chapters) {
		until = len(c.Chapters)
	}
	total := 0
	for _, ch := range c.Chapters[:until] {
		total += ch.Weight
	}
	return total
}

// TocEntry is a node of the table of contents. For PDF sources ID is the
// decimal page number of the entry's destination; for EPUB sources it is the
// manifest id of the target document.
type TocEntry struct {
	ID      string
	Title   string
	Entries []TocEntry
}

// ContainsEntry reports whether any descendant of e has the given id.
func (e *TocEntry) ContainsEntry(id string) bool {
	return id != "" && findEntry(e.Entries, id) != nil
}

// Flatten returns the entries of a table of contents in depth-first order.
func Flatten(entries []TocEntry) []TocEntry {
	var out []TocEntry
	var walk func([]TocEntry)
	walk = func(es []TocEntry) {
		for _, e := range es {
			out = append(out, e)
			walk(e.Entries)
		}
	}
	walk(entries)
	return out
}

// Chapter is one reading unit: a spine document for EPUB, a page range for PDF.
type Chapter struct {
	Identifier         string
	Title              string
	Content            string
	Weight             int
	Stylesheets        []string
	ParagraphClassName string
	ContentProcessed   bool
}

// WeightPerPage divides the chapter weight by a page count, treating zero pages as one.
func (c *Chapter) WeightPerPage(pages int) int {
	if pages <= 0 {
		pages = 1
	}
	return c.Weight / pages
}

// Stylesheet is a CSS document referenced by the book.
type Stylesheet struct {
	Identifier string
	Content    string
}
