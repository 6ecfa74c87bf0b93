package epubdoc

import (
	"encoding/xml"
	"errors"
	"path"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrInvalidOPF = errors.New("epub: invalid package document")
	ErrEmptySpine = errors.New("epub: no content in spine")
)

const (
	ncxMediaType = "application/x-dtbncx+xml"
	cssMediaType = "text/css"
)

// opfPackage is the OPF package document.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest []opfItem   `xml:"manifest>item"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Titles       []string        `xml:"title"`
	Creators     []opfCreator    `xml:"creator"`
	Languages    []string        `xml:"language"`
	Identifiers  []opfIdentifier `xml:"identifier"`
	Publishers   []string        `xml:"publisher"`
	Dates        []string        `xml:"date"`
	Descriptions []string        `xml:"description"`
	Meta         []opfMeta       `xml:"meta"`
}

type opfCreator struct {
	ID     string `xml:"id,attr"`
	FileAs string `xml:"file-as,attr"`
	Name   string `xml:",chardata"`
}

type opfIdentifier struct {
	ID     string `xml:"id,attr"`
	Scheme string `xml:"scheme,attr"`
	Value  string `xml:",chardata"`
}

// opfMeta covers both the EPUB 2 name/content form and the EPUB 3
// property form.
type opfMeta struct {
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"`
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`
	Value    string `xml:",chardata"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc      string `xml:"toc,attr"`
	ItemRefs []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"itemref"`
}

func parsePackage(data []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, ErrInvalidOPF
	}
	if len(pkg.Spine.ItemRefs) == 0 {
		return nil, ErrEmptySpine
	}
	return &pkg, nil
}

// majorVersion returns 3 for EPUB 3 packages and 2 otherwise.
func (p *opfPackage) majorVersion() int {
	v, err := strconv.ParseFloat(strings.TrimSpace(p.Version), 64)
	if err == nil && v >= 3 {
		return 3
	}
	return 2
}

func (p *opfPackage) item(id string) *opfItem {
	if id == "" {
		return nil
	}
	for i := range p.Manifest {
		if p.Manifest[i].ID == id {
			return &p.Manifest[i]
		}
	}
	return nil
}

func (p *opfPackage) itemWithProperty(property string) *opfItem {
	for i := range p.Manifest {
		if slices.Contains(strings.Fields(p.Manifest[i].Properties), property) {
			return &p.Manifest[i]
		}
	}
	return nil
}

// metaValue returns the content of <meta name="name">, else the text of
// <meta property="name">.
func (m *opfMetadata) metaValue(name string) string {
	for _, meta := range m.Meta {
		if meta.Name == name {
			return strings.TrimSpace(meta.Content)
		}
	}
	for _, meta := range m.Meta {
		if meta.Property == name && meta.Refines == "" {
			return strings.TrimSpace(meta.Value)
		}
	}
	return ""
}

// coverItem returns the manifest item of the cover image: the item named by
// <meta name="cover">, else the item with the cover-image property.
func (p *opfPackage) coverItem() *opfItem {
	if item := p.item(p.Metadata.metaValue("cover")); item != nil {
		return item
	}
	return p.itemWithProperty("cover-image")
}

// navItem returns the EPUB 3 navigation document.
func (p *opfPackage) navItem() *opfItem {
	return p.itemWithProperty("nav")
}

// ncxItem returns the NCX named by the spine, else any NCX in the manifest.
func (p *opfPackage) ncxItem() *opfItem {
	if item := p.item(p.Spine.Toc); item != nil {
		return item
	}
	for i := range p.Manifest {
		if p.Manifest[i].MediaType == ncxMediaType {
			return &p.Manifest[i]
		}
	}
	return nil
}

// firstNonEmpty returns the first value that is not blank, trimmed.
func firstNonEmpty(values []string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// opfDir returns the directory of the package document, "" at the root.
func opfDir(opfPath string) string {
	dir := path.Dir(opfPath)
	if dir == "." {
		return ""
	}
	return dir
}
