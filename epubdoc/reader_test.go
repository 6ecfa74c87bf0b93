package epubdoc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/model"
)

func TestMetadata_EPUB2(t *testing.T) {
	path := writeEPUB(t, "saga.epub", epub2Entries())

	book, warnings, err := ReadMetadata(path, Options{})
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}

	if book.Format != format.EPUB {
		t.Errorf("Expected EPUB format, got %v", book.Format)
	}
	if book.Title != "The Book" {
		t.Errorf("Expected first non-empty title, got %q", book.Title)
	}
	if book.Author != "Jane Q Doe" {
		t.Errorf("Expected author 'Jane Q Doe', got %q", book.Author)
	}
	if book.Language != "en" || book.Publisher != "Folio Press" || book.PublishDate != "2001-02-03" {
		t.Errorf("Unexpected language/publisher/date: %q %q %q", book.Language, book.Publisher, book.PublishDate)
	}
	if book.Synopsis != "A story." {
		t.Errorf("Expected synopsis, got %q", book.Synopsis)
	}
	if book.Series != "Saga" {
		t.Errorf("Expected series 'Saga', got %q", book.Series)
	}
	if book.SeriesIndex == nil || *book.SeriesIndex != 2 {
		t.Errorf("Expected series index 2, got %v", book.SeriesIndex)
	}
	if len(book.Identifiers) != 1 || book.Identifiers[0].Scheme != "ISBN" || book.Identifiers[0].Value != "9780000000001" {
		t.Errorf("Unexpected identifiers: %+v", book.Identifiers)
	}
	if string(book.Cover) != pngBytes {
		t.Errorf("Expected cover bytes, got %d bytes", len(book.Cover))
	}
	if book.Pages != 3 {
		t.Errorf("Expected 3 spine items, got %d", book.Pages)
	}
}

func TestMetadata_Fallbacks(t *testing.T) {
	opf := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:language>en</dc:language></metadata>
  <manifest><item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"/></manifest>
  <spine><itemref idref="c1"/></spine>
</package>`
	path := writeEPUB(t, "untitled.epub", []zipEntry{
		{"META-INF/container.xml", containerXMLBody},
		{"OEBPS/content.opf", opf},
		{"OEBPS/c1.xhtml", "<html><body><p>x</p></body></html>"},
	})

	book, warnings, err := ReadMetadata(path, Options{})
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if book.Title != "untitled" {
		t.Errorf("Expected title from file name, got %q", book.Title)
	}
	if book.Author != "Unknown" {
		t.Errorf("Expected 'Unknown' author, got %q", book.Author)
	}
	if book.Cover != nil {
		t.Error("Expected no cover")
	}
	if len(warnings) != 1 || warnings[0].Code != model.WarnMissingCover {
		t.Errorf("Expected one missing-cover warning, got %v", warnings)
	}
}

func TestReadAll_EPUB2(t *testing.T) {
	path := writeEPUB(t, "saga.epub", epub2Entries())

	book, _, err := ReadAll(path, Options{})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	chapters := book.Content.Chapters
	if len(chapters) != 3 {
		t.Fatalf("Expected 3 chapters, got %d", len(chapters))
	}

	ch1 := chapters[1]
	if ch1.Identifier != "ch1" || ch1.Title != "Chapter One" {
		t.Errorf("Unexpected chapter: %q %q", ch1.Identifier, ch1.Title)
	}
	if ch1.Weight != 7 {
		t.Errorf("Expected weight 7, got %d", ch1.Weight)
	}
	if ch1.ParagraphClassName != "para" {
		t.Errorf("Expected paragraph class 'para', got %q", ch1.ParagraphClassName)
	}
	if len(ch1.Stylesheets) != 1 || ch1.Stylesheets[0] != "../Styles/main.css" {
		t.Errorf("Unexpected stylesheets: %v", ch1.Stylesheets)
	}
	if ch1.ContentProcessed {
		t.Error("Expected raw chapter content")
	}

	ch2 := chapters[2]
	if ch2.Title != "Café" {
		t.Errorf("Expected decoded title 'Café', got %q", ch2.Title)
	}
	if ch2.ParagraphClassName != "" {
		t.Errorf("Expected no paragraph class, got %q", ch2.ParagraphClassName)
	}

	sheets := book.Content.Stylesheets
	if len(sheets) != 1 {
		t.Fatalf("Expected 1 stylesheet, got %d", len(sheets))
	}
	css := sheets[0].Content
	if strings.Contains(css, "@import") || strings.Contains(css, "@font-face") || strings.Contains(css, "font-family") {
		t.Errorf("Expected imports, font faces and font families removed: %q", css)
	}
	if !strings.Contains(css, "text-indent: calc(var(--text-indent) * 1em);") {
		t.Errorf("Expected text-indent rewritten: %q", css)
	}

	toc := book.Content.TableOfContents
	if len(toc) != 3 {
		t.Fatalf("Expected 3 root entries, got %d: %+v", len(toc), toc)
	}
	if toc[0].ID != "cover" || toc[0].Title != "Cover" {
		t.Errorf("Expected cover entry first, got %+v", toc[0])
	}
	if toc[1].ID != "ch1" || len(toc[1].Entries) != 1 || toc[1].Entries[0].ID != "ch2" {
		t.Errorf("Unexpected chapter entry: %+v", toc[1])
	}
	if toc[2].ID != "" || toc[2].Title != "Missing" {
		t.Errorf("Expected unresolved entry with empty id, got %+v", toc[2])
	}

	if book.Content.ChapterFromTableOfContents("ch2") == nil {
		t.Error("Expected nested entry to be found")
	}
}

func TestReadAll_EPUB3SingleRoot(t *testing.T) {
	path := writeEPUB(t, "modern.epub", epub3Entries())

	r, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if r.Version() != 3 {
		t.Errorf("Expected version 3, got %d", r.Version())
	}

	book, _, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(book.Cover) != pngBytes {
		t.Error("Expected cover from cover-image property")
	}

	toc := book.Content.TableOfContents
	if len(toc) != 1 {
		t.Fatalf("Expected a single root, got %+v", toc)
	}
	root := toc[0]
	if root.ID != "ch1" || root.Title != "Whole Book" {
		t.Errorf("Unexpected root: %+v", root)
	}
	if len(root.Entries) != 2 {
		t.Fatalf("Expected cover inside root, got %+v", root.Entries)
	}
	if root.Entries[0].ID != "cover" || root.Entries[1].ID != "ch2" {
		t.Errorf("Unexpected root children: %+v", root.Entries)
	}
}

func TestReadAll_NoTableOfContents(t *testing.T) {
	opf := strings.Replace(epub2OPF, `<spine toc="ncx">`, `<spine>`, 1)
	opf = strings.Replace(opf, `<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>`, "", 1)

	entries := epub2Entries()
	entries[1].body = opf
	path := writeEPUB(t, "notoc.epub", entries)

	_, _, err := ReadAll(path, Options{})
	if !errors.Is(err, ErrNoTableOfContents) {
		t.Errorf("Expected ErrNoTableOfContents, got %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	notZip := filepath.Join(dir, "plain.epub")
	if err := os.WriteFile(notZip, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(notZip, Options{}); !errors.Is(err, ErrInvalidArchive) {
		t.Errorf("Expected ErrInvalidArchive, got %v", err)
	}

	noContainer := writeEPUB(t, "bare.epub", nil)
	if _, err := Open(noContainer, Options{}); !errors.Is(err, ErrNoContainer) {
		t.Errorf("Expected ErrNoContainer, got %v", err)
	}
}

func TestOpen_DRM(t *testing.T) {
	tests := []struct {
		name    string
		extra   zipEntry
		wantErr bool
	}{
		{
			name:    "adobe rights",
			extra:   zipEntry{"META-INF/rights.xml", "<rights/>"},
			wantErr: true,
		},
		{
			name: "encrypted chapter",
			extra: zipEntry{"META-INF/encryption.xml", `<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<EncryptedData><EncryptionMethod Algorithm="http://www.w3.org/2001/04/xmlenc#aes128-cbc"/>
<CipherData><CipherReference URI="OEBPS/Text/ch1.xhtml"/></CipherData></EncryptedData></encryption>`},
			wantErr: true,
		},
		{
			name: "obfuscated font",
			extra: zipEntry{"META-INF/encryption.xml", `<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<EncryptedData><EncryptionMethod Algorithm="http://www.idpf.org/2008/embedding"/>
<CipherData><CipherReference URI="OEBPS/Fonts/a.otf"/></CipherData></EncryptedData></encryption>`},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeEPUB(t, "drm.epub", append(epub2Entries(), tt.extra))
			r, err := Open(path, Options{})
			if tt.wantErr {
				if !errors.Is(err, ErrDRMProtected) {
					t.Errorf("Expected ErrDRMProtected, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			r.Close()
		})
	}
}

func TestLoadFileContent(t *testing.T) {
	path := writeEPUB(t, "saga.epub", epub2Entries())
	r, err := Open(path, Options{})
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.LoadFileContent("Styles/main.css")
	if err != nil {
		t.Fatalf("LoadFileContent failed: %v", err)
	}
	if got != mainCSS {
		t.Errorf("Unexpected content: %q", got)
	}
	again, _ := r.LoadFileContent("Styles/main.css#frag")
	if again != got {
		t.Error("Expected fragment to be ignored")
	}

	if _, err := r.LoadFileContent("nothing.css"); !errors.Is(err, ErrMissingContent) {
		t.Errorf("Expected ErrMissingContent, got %v", err)
	}

	r.Close()
	if _, err := r.LoadFileContent("Styles/main.css"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Expected second Close to succeed, got %v", err)
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"<p>one two</p>", 2},
		// adjacent block tags are removed without a separator
		{"<p>one</p><p>two\tthree\nfour</p>", 3},
		{"<p>one</p>\n<p>two\tthree\nfour</p>", 4},
		{"<br/>", 0},
	}
	for _, tt := range tests {
		if got := WordCount(tt.in); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParagraphClass(t *testing.T) {
	five := strings.Repeat(`<p class="body">x</p>`, 5)
	four := strings.Repeat(`<p class="body">x</p>`, 4)

	if got := ParagraphClass(five); got != "body" {
		t.Errorf("Expected 'body', got %q", got)
	}
	if got := ParagraphClass(four); got != "" {
		t.Errorf("Expected no class at four occurrences, got %q", got)
	}

	mixed := strings.Repeat(`<p class='a b'>x</p>`, 6) + strings.Repeat(`<p CLASS="b">x</p>`, 2)
	if got := ParagraphClass(mixed); got != "b" {
		t.Errorf("Expected most frequent class 'b', got %q", got)
	}
}

func TestDecodeNumericEntities(t *testing.T) {
	if got := decodeNumericEntities("Caf&#233; &#8212; x&#0;"); got != "Café — x&#0;" {
		t.Errorf("Unexpected decoding: %q", got)
	}
}

func TestSpineChapter(t *testing.T) {
	r, err := Open(writeEPUB(t, "saga.epub", epub2Entries()), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ch, err := r.SpineChapter(3)
	if err != nil {
		t.Fatalf("SpineChapter(3) failed: %v", err)
	}
	if ch.Identifier != "ch2" || ch.Title != "Café" {
		t.Errorf("Expected ch2 titled Café, got %s %q", ch.Identifier, ch.Title)
	}

	for _, n := range []int{0, 4} {
		if _, err := r.SpineChapter(n); !errors.Is(err, ErrSpineOutOfRange) {
			t.Errorf("SpineChapter(%d): expected ErrSpineOutOfRange, got %v", n, err)
		}
	}
}
