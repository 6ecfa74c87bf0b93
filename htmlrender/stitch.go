package htmlrender

import (
	"regexp"
	"strings"
)

var openParagraphRe = regexp.MustCompile(`(?i)<p\b[^>]*>`)

const closeParagraph = "</p>"

// sentenceEnd lists the characters that terminate a paragraph.
const sentenceEnd = ".!?"

// Stitch joins per-page fragments in order. When the last paragraph
// accumulated so far does not end a sentence, the first paragraph of the
// next page is merged into it and the rest of that page follows. Pages
// without a usable paragraph boundary are concatenated with a newline.
func Stitch(pages []string) string {
	switch len(pages) {
	case 0:
		return ""
	case 1:
		return strings.TrimSpace(pages[0])
	}

	var buf strings.Builder
	buf.WriteString(strings.TrimSpace(pages[0]))
	buf.WriteByte('\n')

	for _, raw := range pages[1:] {
		page := strings.TrimSpace(raw)
		if page == "" {
			continue
		}

		if merged, rest, ok := mergeBoundary(buf.String(), page); ok {
			buf.Reset()
			buf.WriteString(merged)
			if rest == "" {
				continue
			}
			page = rest
		}

		buf.WriteString(page)
		buf.WriteByte('\n')
	}

	return strings.TrimSpace(buf.String())
}

// mergeBoundary joins the last paragraph of acc with the first paragraph of
// page when the former is unterminated. It returns the new accumulated text,
// ending in a newline, and what is left of page.
func mergeBoundary(acc, page string) (string, string, bool) {
	lastEnd := lastIndexFold(acc, closeParagraph)
	if lastEnd == -1 {
		return "", "", false
	}
	lastStart := lastIndexFold(acc[:lastEnd], "<p")
	if lastStart == -1 {
		return "", "", false
	}

	lastPara := acc[lastStart : lastEnd+len(closeParagraph)]
	if terminated(lastPara) {
		return "", "", false
	}

	open := openParagraphRe.FindStringIndex(page)
	firstEnd := indexFold(page, closeParagraph)
	if open == nil || firstEnd == -1 || open[0] >= firstEnd {
		return "", "", false
	}

	content := page[open[1]:firstEnd]
	merged := lastPara[:len(lastPara)-len(closeParagraph)] + " " + content + closeParagraph

	// drop the old paragraph and the newline written after it
	tail := acc[lastEnd+len(closeParagraph):]
	tail = strings.TrimPrefix(tail, "\n")

	var sb strings.Builder
	sb.WriteString(acc[:lastStart])
	sb.WriteString(tail)
	sb.WriteString(merged)
	sb.WriteByte('\n')

	rest := strings.TrimSpace(page[firstEnd+len(closeParagraph):])
	return sb.String(), rest, true
}

// terminated reports whether a paragraph block ends a sentence: one of
// sentenceEnd must appear among its last five characters, which include
// the closing tag.
func terminated(block string) bool {
	i := strings.LastIndexAny(block, sentenceEnd)
	return i != -1 && i >= len(block)-5
}

// indexFold is strings.Index with ASCII case folding.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// lastIndexFold is strings.LastIndex with ASCII case folding.
func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
