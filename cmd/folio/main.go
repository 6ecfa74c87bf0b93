// Command folio inspects, converts and edits PDF and EPUB ebooks.
//
// Usage:
//
//	folio [flags] meta <file>                  # print metadata
//	folio [flags] toc <file>                   # print the table of contents
//	folio [flags] html <file>                  # convert to HTML
//	folio [flags] markdown <file>              # convert to Markdown
//	folio set-meta [-title t] [-author a] ... <file>
//	folio set-cover <file> <image>
//	folio [flags] serve                        # run the HTTP server
//
// Flags:
//
//	-config folio.yaml   YAML configuration
//	-cache dir           image cache root (overrides the config)
//	-pages 1-3,7         page or spine selection
//	-o file              write output to file instead of stdout
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/tsawler/folio"
	"github.com/tsawler/folio/config"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/server"
)

var errUsage = errors.New("usage: folio [-config file] [-cache dir] [-pages list] [-o file] meta|toc|html|markdown|set-meta|set-cover|serve ...")

func main() {
	configPath := flag.String("config", "", "path to folio.yaml config file")
	cacheRoot := flag.String("cache", "", "image cache directory (empty embeds images)")
	pages := flag.String("pages", "", "pages or spine positions, e.g. 1-3,7")
	output := flag.String("o", "", "output file (default stdout)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "folio:", err)
		os.Exit(1)
	}
	if *cacheRoot != "" {
		cfg.CacheRoot = *cacheRoot
	}
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Error("folio: fatal", "err", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := run(ctx, cfg, logger, out, *pages, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logger.Error("folio: fatal", "err", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, pageList string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	if cmd == "serve" {
		return server.New(cfg, logger).ListenAndServe(ctx)
	}
	if cmd == "set-meta" {
		return setMeta(args)
	}
	if cmd == "set-cover" {
		if len(args) != 2 {
			return errUsage
		}
		image, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return folio.ReplaceCover(args[0], image)
	}

	if len(args) != 1 {
		return errUsage
	}
	selection, err := parsePages(pageList)
	if err != nil {
		return err
	}
	ext := folio.Open(args[0]).
		WithContext(ctx).
		WithLogger(logger).
		WithLayout(cfg.ParagraphConfig()).
		Pages(selection...)
	if cfg.CacheRoot != "" {
		ext = ext.WithCache(cfg.CacheRoot).WithPublicPrefix(cfg.PublicCachePrefix)
	}

	var warnings []folio.Warning
	switch cmd {
	case "meta":
		book, w, err := ext.Metadata()
		if err != nil {
			return err
		}
		warnings = w
		printMetadata(out, book)
	case "toc":
		toc, err := ext.TableOfContents()
		if err != nil {
			return err
		}
		printToc(out, toc, 0)
	case "html", "markdown":
		convert := ext.HTML
		if cmd == "markdown" {
			convert = ext.Markdown
		}
		text, w, err := convert()
		if err != nil {
			return err
		}
		warnings = w
		if _, err := io.WriteString(out, text); err != nil {
			return err
		}
	default:
		return errUsage
	}

	for _, w := range warnings {
		logger.Warn("folio: warning", "code", w.Code.String(), "page", w.Page, "msg", w.Message)
	}
	return nil
}

func setMeta(args []string) error {
	fs := flag.NewFlagSet("set-meta", flag.ContinueOnError)
	title := fs.String("title", "", "title")
	author := fs.String("author", "", "author")
	synopsis := fs.String("synopsis", "", "synopsis or subject")
	language := fs.String("language", "", "language code")
	publisher := fs.String("publisher", "", "publisher")
	date := fs.String("date", "", "publication date")
	series := fs.String("series", "", "series name")
	seriesIndex := fs.String("series-index", "", "position in the series")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	meta := &model.Ebook{
		Title:       *title,
		Author:      *author,
		Synopsis:    *synopsis,
		Language:    *language,
		Publisher:   *publisher,
		PublishDate: *date,
		Series:      *series,
	}
	if *seriesIndex != "" {
		idx, err := strconv.ParseFloat(*seriesIndex, 64)
		if err != nil {
			return fmt.Errorf("invalid series index %q: %w", *seriesIndex, err)
		}
		meta.SeriesIndex = &idx
	}
	return folio.ReplaceMetadata(fs.Arg(0), meta)
}

// parsePages parses a comma separated list of pages and inclusive ranges.
func parsePages(s string) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || end < start {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func printMetadata(w io.Writer, book *model.Ebook) {
	fmt.Fprintf(w, "Format:    %s\n", book.Format)
	fmt.Fprintf(w, "Title:     %s\n", book.Title)
	fmt.Fprintf(w, "Author:    %s\n", book.Author)
	fields := []struct{ label, value string }{
		{"Synopsis", book.Synopsis},
		{"Language", book.Language},
		{"Publisher", book.Publisher},
		{"Date", book.PublishDate},
		{"Series", book.Series},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(w, "%-10s %s\n", f.label+":", f.value)
		}
	}
	if book.SeriesIndex != nil {
		fmt.Fprintf(w, "Index:     %s\n", strconv.FormatFloat(*book.SeriesIndex, 'f', -1, 64))
	}
	for _, id := range book.Identifiers {
		fmt.Fprintf(w, "ID:        %s %s\n", id.Scheme, id.Value)
	}
	fmt.Fprintf(w, "Pages:     %d\n", book.Pages)
	fmt.Fprintf(w, "Cover:     %d bytes\n", len(book.Cover))
}

func printToc(w io.Writer, entries []model.TocEntry, depth int) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s%s [%s]\n", strings.Repeat("  ", depth), e.Title, e.ID)
		printToc(w, e.Entries, depth+1)
	}
}
