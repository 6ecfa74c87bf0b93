package epubdoc

import (
	"bytes"
	"encoding/xml"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/folio/model"
)

// navEntry is a table of contents node before ids are resolved.
type navEntry struct {
	title    string
	href     string // archive path, fragment removed
	children []navEntry
}

type ncxDocument struct {
	XMLName xml.Name      `xml:"ncx"`
	Points  []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxNavPoint struct {
	Label    string        `xml:"navLabel>text"`
	Src      ncxContent    `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// TableOfContents returns the navigation tree. The EPUB 3 NAV document is
// preferred over the EPUB 2 NCX. Entry ids are manifest ids. A "Cover" entry
// pointing at the first spine item is inserted at the front, inside the root
// entry when there is exactly one.
func (r *Reader) TableOfContents() ([]model.TocEntry, error) {
	entries, err := r.navigation()
	if err != nil {
		return nil, err
	}

	toc := r.resolveEntries(entries)

	first := r.pkg.Spine.ItemRefs[0].IDRef
	if r.pkg.item(first) == nil {
		return toc, nil
	}
	cover := model.TocEntry{ID: first, Title: coverTitle}
	if len(toc) == 1 {
		toc[0].Entries = append([]model.TocEntry{cover}, toc[0].Entries...)
		return toc, nil
	}
	return append([]model.TocEntry{cover}, toc...), nil
}

func (r *Reader) navigation() ([]navEntry, error) {
	if item := r.pkg.navItem(); item != nil {
		navPath := r.entryPath(item.Href)
		if content, err := r.LoadFileContent(item.Href); err == nil {
			if entries, ok := parseNav([]byte(content), navPath); ok {
				return entries, nil
			}
		}
	}

	if item := r.pkg.ncxItem(); item != nil {
		ncxPath := r.entryPath(item.Href)
		if content, err := r.LoadFileContent(item.Href); err == nil {
			if entries, err := parseNCX([]byte(content), ncxPath, r.coverPath()); err == nil {
				return entries, nil
			}
		}
	}

	return nil, ErrNoTableOfContents
}

// coverPath is the archive path of the first spine document.
func (r *Reader) coverPath() string {
	item := r.pkg.item(r.pkg.Spine.ItemRefs[0].IDRef)
	if item == nil {
		return ""
	}
	return r.entryPath(item.Href)
}

// resolveEntries maps hrefs to manifest ids. Unknown targets get an empty id.
func (r *Reader) resolveEntries(entries []navEntry) []model.TocEntry {
	byPath := make(map[string]string, len(r.pkg.Manifest))
	for _, item := range r.pkg.Manifest {
		byPath[r.entryPath(item.Href)] = item.ID
	}

	var convert func([]navEntry) []model.TocEntry
	convert = func(es []navEntry) []model.TocEntry {
		out := make([]model.TocEntry, 0, len(es))
		for _, e := range es {
			entry := model.TocEntry{ID: byPath[e.href], Title: e.title}
			if len(e.children) > 0 {
				entry.Entries = convert(e.children)
			}
			out = append(out, entry)
		}
		return out
	}
	return convert(entries)
}

// parseNav reads the <nav epub:type="toc"> list of an EPUB 3 navigation
// document, or the first <nav> when none is typed.
func parseNav(content []byte, navPath string) ([]navEntry, bool) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, false
	}

	var navs []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "nav" {
			navs = append(navs, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(doc)
	if len(navs) == 0 {
		return nil, false
	}

	nav := navs[0]
	for _, n := range navs {
		if isTocNav(n) {
			nav = n
			break
		}
	}

	ol := findElement(nav, "ol")
	if ol == nil {
		return nil, true
	}
	return parseList(ol, navPath), true
}

func isTocNav(n *html.Node) bool {
	for _, a := range n.Attr {
		if (a.Key == "epub:type" || a.Key == "type") && strings.Contains(a.Val, "toc") {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func parseList(ol *html.Node, navPath string) []navEntry {
	var entries []navEntry
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		var entry navEntry
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "a":
				entry.title = nodeText(c)
				entry.href = resolvePath(navPath, stripFragment(attr(c, "href")))
			case "span":
				if entry.title == "" {
					entry.title = nodeText(c)
				}
			case "ol":
				entry.children = parseList(c, navPath)
			}
		}
		if entry.title != "" || entry.href != "" || len(entry.children) > 0 {
			entries = append(entries, entry)
		}
	}
	return entries
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// parseNCX reads an EPUB 2 NCX. Points targeting coverPath are dropped along
// with their children.
func parseNCX(content []byte, ncxPath, coverPath string) ([]navEntry, error) {
	var ncx ncxDocument
	if err := xml.Unmarshal(content, &ncx); err != nil {
		return nil, err
	}

	var convert func([]ncxNavPoint) []navEntry
	convert = func(points []ncxNavPoint) []navEntry {
		out := make([]navEntry, 0, len(points))
		for _, p := range points {
			href := resolvePath(ncxPath, stripFragment(p.Src.Src))
			if coverPath != "" && href == coverPath {
				continue
			}
			out = append(out, navEntry{
				title:    strings.TrimSpace(p.Label),
				href:     href,
				children: convert(p.Children),
			})
		}
		return out
	}
	return convert(ncx.Points), nil
}
