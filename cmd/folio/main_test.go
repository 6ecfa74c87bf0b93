package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/tsawler/folio/config"
	"github.com/tsawler/folio/model"
)

func TestParsePages(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"3", []int{3}, false},
		{"1-3, 7", []int{1, 2, 3, 7}, false},
		{"5,,6", []int{5, 6}, false},
		{"4-2", nil, true},
		{"x", nil, true},
		{"1-y", nil, true},
	}

	for _, tt := range tests {
		got, err := parsePages(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePages(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parsePages(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parsePages(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestRun_Usage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()

	for _, args := range [][]string{nil, {"html"}, {"frobnicate", "x.pdf"}, {"set-cover", "x.epub"}} {
		err := run(context.Background(), cfg, logger, io.Discard, "", args)
		if !errors.Is(err, errUsage) {
			t.Errorf("run(%v): expected usage error, got %v", args, err)
		}
	}
}

func TestPrintToc(t *testing.T) {
	var buf bytes.Buffer
	printToc(&buf, []model.TocEntry{
		{ID: "1", Title: "Cover"},
		{ID: "3", Title: "Part One", Entries: []model.TocEntry{{ID: "4", Title: "Chapter 1"}}},
	}, 0)

	want := "Cover [1]\nPart One [3]\n  Chapter 1 [4]\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestPrintMetadata(t *testing.T) {
	idx := 2.5
	var buf bytes.Buffer
	printMetadata(&buf, &model.Ebook{Title: "T", Author: "A", Series: "S", SeriesIndex: &idx, Pages: 9})

	out := buf.String()
	for _, want := range []string{"Title:     T", "Series:    S", "Index:     2.5", "Pages:     9"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Publisher") {
		t.Error("Expected empty fields omitted")
	}
}
