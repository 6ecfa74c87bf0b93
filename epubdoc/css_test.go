package epubdoc

import "testing"

func TestRewriteCSS(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "line-height unitless",
			in:   "p { line-height: 1.5; }",
			want: "p { line-height: calc(1.5em + (var(--line-height) * 1em)); }",
		},
		{
			name: "line-height with unit",
			in:   "p{line-height:120%}",
			want: "p{line-height: calc(120% + (var(--line-height) * 1em))}",
		},
		{
			name: "text-indent replaced",
			in:   "p { text-indent: 2em; }",
			want: "p { text-indent: calc(var(--text-indent) * 1em); }",
		},
		{
			name: "zero left alone",
			in:   "p { text-indent: 0; }",
			want: "p { text-indent: 0; }",
		},
		{
			name: "negative left alone",
			in:   "p { text-indent: -1em; }",
			want: "p { text-indent: -1em; }",
		},
		{
			name: "margin shorthand per token",
			in:   "div { margin: 0 auto 1em; }",
			want: "div { margin: 0 auto max(1em, calc(var(--paragraph-spacing) * 1pt)); }",
		},
		{
			name: "margin-top",
			in:   "h1 { margin-top: 2em; }",
			want: "h1 { margin-top: max(2em, calc(var(--paragraph-spacing) * 1pt)); }",
		},
		{
			name: "font-size",
			in:   "small { font-size: 0.8em; }",
			want: "small { font-size: max(0.8em, calc(1 * 1em)); }",
		},
		{
			name: "font-family removed",
			in:   "body { font-family: serif; color: red; }",
			want: "body {  color: red; }",
		},
		{
			name: "removal keeps closing brace",
			in:   "p{widows:2}",
			want: "p{}",
		},
		{
			name: "padding renamed",
			in:   "p { padding-top: 0; padding-bottom: 0; }",
			want: "p { margin-top: 0; margin-bottom: 0; }",
		},
		{
			name: "prefixed property untouched",
			in:   "p { -webkit-margin-before: 1em; }",
			want: "p { -webkit-margin-before: 1em; }",
		},
		{
			name: "repeated declarations",
			in:   "p{orphans:1;widows:1;orphans:2}",
			want: "p{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteCSS(tt.in); got != tt.want {
				t.Errorf("RewriteCSS(%q)\n got  %q\n want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsPositive(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1em", true},
		{"0.5", true},
		{"0", false},
		{"-2px", false},
		{"auto", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isPositive(tt.in); got != tt.want {
			t.Errorf("isPositive(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
