package epubdoc

import (
	"regexp"
	"strconv"
	"strings"
)

type cssMode int

const (
	cssReplace cssMode = iota
	cssAdd
	cssMax
	cssRemove
	cssRenameProperty
)

// cssRule rewrites one property so the reader's CSS variables take effect.
type cssRule struct {
	property    string
	newProperty string
	variable    string
	unit        string
	mode        cssMode
	re          *regexp.Regexp
}

var cssRules = compileCSSRules([]cssRule{
	{property: "line-height", variable: "var(--line-height)", unit: "em", mode: cssAdd},
	{property: "text-indent", variable: "var(--text-indent)", unit: "em", mode: cssReplace},
	{property: "margin-top", variable: "var(--paragraph-spacing)", unit: "pt", mode: cssMax},
	{property: "margin-bottom", variable: "var(--paragraph-spacing)", unit: "pt", mode: cssMax},
	{property: "margin", variable: "var(--paragraph-spacing)", unit: "pt", mode: cssMax},
	{property: "font-size", variable: "1", unit: "em", mode: cssMax},
	{property: "font-family", mode: cssRemove},
	{property: "widows", mode: cssRemove},
	{property: "orphans", mode: cssRemove},
	{property: "padding-top", newProperty: "margin-top", mode: cssRenameProperty},
	{property: "padding-bottom", newProperty: "margin-bottom", mode: cssRenameProperty},
})

var (
	cssNumberRe  = regexp.MustCompile(`-?\d+\.?\d*`)
	cssHasUnitRe = regexp.MustCompile(`[a-zA-Z%]+$`)
)

func compileCSSRules(rules []cssRule) []cssRule {
	for i := range rules {
		rules[i].re = regexp.MustCompile(regexp.QuoteMeta(rules[i].property) + `:\s*([^;}]+?)(;|})`)
	}
	return rules
}

// RewriteCSS rewrites spacing and font declarations in css (a stylesheet or
// an HTML document with inline styles) in terms of the reader's CSS
// variables. Positive values of line-height, text-indent, margins and
// font-size are combined with the variables; font-family, widows and orphans
// are removed; vertical padding becomes margin.
func RewriteCSS(css string) string {
	for _, rule := range cssRules {
		css = rule.apply(css)
	}
	return css
}

func (rule cssRule) apply(css string) string {
	matches := rule.re.FindAllStringSubmatchIndex(css, -1)
	if len(matches) == 0 {
		return css
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		// "margin" must not match inside "-webkit-margin" or "top-margin".
		if m[0] > 0 && isIdentByte(css[m[0]-1]) {
			continue
		}
		sb.WriteString(css[last:m[0]])
		sb.WriteString(rule.rewrite(css[m[0]:m[1]], css[m[2]:m[3]], css[m[4]:m[5]]))
		last = m[1]
	}
	sb.WriteString(css[last:])
	return sb.String()
}

func isIdentByte(c byte) bool {
	return c == '-' || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (rule cssRule) rewrite(match, value, delim string) string {
	switch rule.mode {
	case cssRemove:
		if delim == "}" {
			return delim
		}
		return ""
	case cssRenameProperty:
		return rule.newProperty + match[len(rule.property):]
	}

	tokens := strings.Fields(value)
	for i, tok := range tokens {
		if !isPositive(tok) {
			continue
		}
		scaled := "calc(" + rule.variable + " * 1" + rule.unit + ")"
		switch rule.mode {
		case cssReplace:
			tokens[i] = scaled
		case cssAdd:
			tokens[i] = "calc(" + ensureUnit(tok, rule.unit) + " + (" + rule.variable + " * 1" + rule.unit + "))"
		case cssMax:
			tokens[i] = "max(" + tok + ", " + scaled + ")"
		}
	}
	return rule.property + ": " + strings.Join(tokens, " ") + delim
}

// isPositive reports whether the first number in a CSS value is above zero.
func isPositive(value string) bool {
	m := cssNumberRe.FindString(value)
	if m == "" {
		return false
	}
	n, err := strconv.ParseFloat(m, 64)
	return err == nil && n > 0
}

func ensureUnit(value, unit string) string {
	if cssHasUnitRe.MatchString(value) {
		return value
	}
	return value + unit
}
