package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// writeTestPDF writes a US Letter PDF with one page per content stream and
// returns its path. An empty stream gives a page without Contents. Every page
// can use /F1, an unembedded Helvetica without widths. The MediaBox lives on
// the page tree and is inherited by the pages.
func writeTestPDF(t *testing.T, pages ...string) string {
	t.Helper()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in once the kids are known
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	kids := make([]string, 0, len(pages))
	for _, content := range pages {
		page := "<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >>"
		if content != "" {
			objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
			page += fmt.Sprintf(" /Contents %d 0 R", len(objects))
		}
		objects = append(objects, page+" >>")
		kids = append(kids, fmt.Sprintf("%d 0 R", len(objects)))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "fixture.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func textAt(x, y int, text string) string {
	return fmt.Sprintf("BT /F1 12 Tf %d %d Td (%s) Tj ET", x, y, text)
}

func openTestPDF(t *testing.T, pages ...string) *DocumentContext {
	t.Helper()
	doc, err := Open(writeTestPDF(t, pages...), Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("Failed to open fixture: %v", err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestExtractPage_FragmentGeometry(t *testing.T) {
	// glyphs default to 500 units and spaces to 250, so at 12pt each glyph
	// is 6 wide and the TJ adjustment of -1000 moves right by 12
	doc := openTestPDF(t, "BT /F1 12 Tf 72 700 Td [(Hello) -1000 (world)] TJ ET")

	content, warnings, err := doc.ExtractPage(1)
	if err != nil {
		t.Fatalf("ExtractPage failed: %v", err)
	}

	tests := []struct {
		text  string
		x     float64
		width float64
	}{
		{"Hello", 72, 30},
		{"world", 114, 30},
	}
	if len(content.Fragments) != len(tests) {
		t.Fatalf("Expected %d fragments, got %d", len(tests), len(content.Fragments))
	}
	for i, tt := range tests {
		f := content.Fragments[i]
		if f.Text != tt.text {
			t.Errorf("fragment %d: Expected text %q, got %q", i, tt.text, f.Text)
		}
		if !closeTo(f.X, tt.x) || !closeTo(f.Width, tt.width) {
			t.Errorf("fragment %d: Expected x=%v width=%v, got x=%v width=%v", i, tt.x, tt.width, f.X, f.Width)
		}
		if !closeTo(f.Y, 700) || !closeTo(f.Height, 12) || !closeTo(f.FontSize, 12) {
			t.Errorf("fragment %d: Expected y=700 height=12 size=12, got y=%v height=%v size=%v", i, f.Y, f.Height, f.FontSize)
		}
		if !closeTo(f.SpaceWidth, 3) {
			t.Errorf("fragment %d: Expected space width 3, got %v", i, f.SpaceWidth)
		}
		if f.FontName != "Helvetica" {
			t.Errorf("fragment %d: Expected font Helvetica, got %q", i, f.FontName)
		}
	}

	if len(content.Paragraphs) != 1 || content.Paragraphs[0].Text != "Hello world" {
		t.Errorf("Expected one paragraph 'Hello world', got %v", content.Paragraphs)
	}
	if content.Width != 612 {
		t.Errorf("Expected page width 612, got %v", content.Width)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "Helvetica") {
		t.Errorf("Expected one missing-widths warning, got %v", warnings)
	}
}

func TestPageWidth_InheritedMediaBox(t *testing.T) {
	doc := openTestPDF(t, textAt(72, 700, "One."), "")

	for n := 1; n <= 2; n++ {
		if got := doc.PageWidth(n); got != 612 {
			t.Errorf("page %d: Expected width 612, got %v", n, got)
		}
	}
}

func TestPageHTML_EmptyPage(t *testing.T) {
	doc := openTestPDF(t, "")

	html, _, err := doc.PageHTML(1)
	if err != nil {
		t.Fatalf("PageHTML failed: %v", err)
	}
	if html != "" {
		t.Errorf("Expected empty HTML, got %q", html)
	}
}

func TestConvertPageRangeToHTML(t *testing.T) {
	doc := openTestPDF(t,
		textAt(72, 700, "The cat sat on the"),
		textAt(72, 700, "mat and slept."),
		"",
		textAt(72, 700, "Last page."),
	)
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{
			name:  "unterminated paragraph continues on next page",
			start: 1, end: 2,
			want: `<p style="text-align: justify;">The cat sat on the mat and slept.</p>`,
		},
		{
			name:  "empty page contributes nothing",
			start: 2, end: 4,
			want: `<p style="text-align: justify;">mat and slept.</p>` + "\n" +
				`<p style="text-align: justify;">Last page.</p>`,
		},
		{"only the empty page", 3, 3, ""},
		{"range past the end", 9, 12, ""},
		{"start clamped to first page", -5, 1, `<p style="text-align: justify;">The cat sat on the</p>`},
		{"reversed range", 3, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := doc.ConvertPageRangeToHTML(ctx, tt.start, tt.end)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestConvertPageRangeToHTML_Closed(t *testing.T) {
	doc := openTestPDF(t, textAt(72, 700, "One."))
	doc.Close()

	if _, _, err := doc.ConvertPageRangeToHTML(context.Background(), 1, 1); err == nil {
		t.Error("Expected error on a closed document")
	}
}

func TestReplaceCover_KeepsFirstPageSize(t *testing.T) {
	path := writeTestPDF(t, textAt(72, 700, "Cover text."), textAt(72, 700, "mat and slept."))

	img := image.NewNRGBA(image.Rect(0, 0, 20, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	var cover bytes.Buffer
	if err := png.Encode(&cover, img); err != nil {
		t.Fatalf("Failed to encode cover: %v", err)
	}

	if err := ReplaceCover(path, cover.Bytes()); err != nil {
		t.Fatalf("ReplaceCover failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	dims, err := api.PageDims(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("PageDims failed: %v", err)
	}
	if len(dims) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(dims))
	}
	if !closeTo(dims[0].Width, 612) || !closeTo(dims[0].Height, 792) {
		t.Errorf("Expected cover page 612x792, got %vx%v", dims[0].Width, dims[0].Height)
	}

	doc, err := Open(path, Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer doc.Close()

	html, _, err := doc.PageHTML(2)
	if err != nil {
		t.Fatalf("PageHTML failed: %v", err)
	}
	if !strings.Contains(html, "mat and slept.") {
		t.Errorf("Expected second page text to survive, got %q", html)
	}
}
