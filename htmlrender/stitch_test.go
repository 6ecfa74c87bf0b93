package htmlrender

import "testing"

const leftP = `<p style="text-align: left;">`

func TestStitch_Empty(t *testing.T) {
	if got := Stitch(nil); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestStitch_SinglePageIsTrimmed(t *testing.T) {
	got := Stitch([]string{"  " + leftP + "Hello</p>\n\n"})
	if got != leftP+"Hello</p>" {
		t.Errorf("Expected trimmed page, got %q", got)
	}
}

func TestStitch_Idempotent(t *testing.T) {
	once := Stitch([]string{
		leftP + "The cat sat on the</p>\n",
		leftP + "mat and slept.</p>\n",
	})
	twice := Stitch([]string{once})
	if once != twice {
		t.Errorf("Expected stitching a stitched document to be a no-op:\n%q\n%q", once, twice)
	}
}

func TestStitch_MergesUnterminatedParagraph(t *testing.T) {
	pageA := leftP + "The cat sat on the</p>\n"
	pageB := leftP + "mat and slept.</p>\n" + leftP + "Next.</p>\n"

	got := Stitch([]string{pageA, pageB})
	want := leftP + "The cat sat on the mat and slept.</p>\n" + leftP + "Next.</p>"
	if got != want {
		t.Errorf("Expected:\n%q\ngot:\n%q", want, got)
	}
}

func TestStitch_KeepsTerminatedParagraph(t *testing.T) {
	tests := []struct {
		name string
		last string
	}{
		{"period", "It ended."},
		{"question", "Did it end?"},
		{"exclamation", "It ended!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pageA := leftP + tt.last + "</p>"
			pageB := leftP + "a new start</p>"
			got := Stitch([]string{pageA, pageB})
			want := pageA + "\n" + pageB
			if got != want {
				t.Errorf("Expected %q, got %q", want, got)
			}
		})
	}
}

func TestStitch_PunctuationMustBeAtTheEnd(t *testing.T) {
	got := Stitch([]string{"<p>Wait. And then</p>", "<p>it rained.</p>"})
	if got != "<p>Wait. And then it rained.</p>" {
		t.Errorf("Expected merge when the period is not final, got %q", got)
	}
}

func TestStitch_ChainAcrossPages(t *testing.T) {
	got := Stitch([]string{"<p>One two</p>", "<p>three four</p>", "<p>five.</p>"})
	if got != "<p>One two three four five.</p>" {
		t.Errorf("Expected a single merged paragraph, got %q", got)
	}
}

func TestStitch_CaseInsensitiveTags(t *testing.T) {
	got := Stitch([]string{"<P>split across</P>", "<P class='x'>two pages.</P>"})
	if got != "<P>split across two pages.</p>" {
		t.Errorf("Expected merge with upper-case tags, got %q", got)
	}
}

func TestStitch_NoParagraphFallsBackToConcatenation(t *testing.T) {
	img := "<img class='zoomable' src='a' />"
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"no paragraph so far", []string{img, "<p>text</p>"}, img + "\n<p>text</p>"},
		{"no paragraph on next page", []string{"<p>cut</p>", img}, "<p>cut</p>\n" + img},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stitch(tt.pages); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStitch_SkipsEmptyPages(t *testing.T) {
	got := Stitch([]string{"<p>First.</p>", "   ", "", "<p>Second.</p>"})
	if got != "<p>First.</p>\n<p>Second.</p>" {
		t.Errorf("Expected empty pages skipped, got %q", got)
	}
}

func TestStitch_MergedParagraphMovesPastTrailingImage(t *testing.T) {
	img := "<img src='x' />"
	got := Stitch([]string{"<p>cut</p>\n" + img, "<p>off.</p>\n<p>After.</p>"})
	want := img + "\n<p>cut off.</p>\n<p>After.</p>"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
