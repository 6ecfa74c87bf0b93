package epubdoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var errNoMetadata = errors.New("epub: package document has no metadata element")

// metadataEditor rewrites children of the OPF <metadata> element in place.
// Elements it does not touch keep their original bytes.
type metadataEditor struct {
	src        []byte
	start, end int // inner content of <metadata>
	children   []*metaElement
	added      []*metaElement
}

type metaElement struct {
	prefix, local string
	attrs         []xml.Attr
	start, end    int
	inner         []byte

	text    *string
	changed bool
}

func newMetadataEditor(src []byte) (*metadataEditor, error) {
	e := &metadataEditor{src: src, start: -1}

	d := xml.NewDecoder(bytes.NewReader(src))
	d.Strict = false

	depth, metaDepth := 0, 0
	var cur *metaElement
	for {
		before := int(d.InputOffset())
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ErrInvalidOPF
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case metaDepth == 0 && t.Name.Local == "metadata":
				metaDepth = depth
				e.start = int(d.InputOffset())
			case metaDepth > 0 && depth == metaDepth+1:
				cur = &metaElement{
					prefix: t.Name.Space,
					local:  t.Name.Local,
					attrs:  append([]xml.Attr(nil), t.Attr...),
					start:  before,
				}
			}
		case xml.EndElement:
			switch {
			case metaDepth > 0 && depth == metaDepth+1 && cur != nil:
				cur.end = int(d.InputOffset())
				cur.inner = innerContent(src, cur.start, before)
				e.children = append(e.children, cur)
				cur = nil
			case metaDepth > 0 && depth == metaDepth:
				e.end = before
				return e, nil
			}
			depth--
		}
	}
	return nil, errNoMetadata
}

// find returns the first child called local whose attributes satisfy match.
func (e *metadataEditor) find(local string, match func(*metaElement) bool) *metaElement {
	for _, group := range [][]*metaElement{e.children, e.added} {
		for _, c := range group {
			if c.local == local && (match == nil || match(c)) {
				return c
			}
		}
	}
	return nil
}

// setDC sets the text of the first dc:local element, adding one if needed.
// Empty values leave the document unchanged.
func (e *metadataEditor) setDC(local, value string) *metaElement {
	if value == "" {
		return nil
	}
	el := e.find(local, nil)
	if el == nil {
		el = &metaElement{prefix: "dc", local: local}
		e.added = append(e.added, el)
	}
	el.setText(value)
	return el
}

// setMeta sets a named meta entry: <meta name content/> for EPUB 2,
// <meta property>value</meta> for EPUB 3. refines, if set, targets another
// element by id (EPUB 3 only).
func (e *metadataEditor) setMeta(version int, name, value, refines string) {
	if value == "" {
		return
	}
	if version >= 3 {
		el := e.find("meta", func(m *metaElement) bool {
			return m.attr("property") == name && m.attr("refines") == refines
		})
		if el == nil {
			el = &metaElement{local: "meta"}
			if refines != "" {
				el.setAttr("", "refines", refines)
			}
			el.setAttr("", "property", name)
			e.added = append(e.added, el)
		}
		el.setText(value)
		return
	}

	el := e.find("meta", func(m *metaElement) bool { return m.attr("name") == name })
	if el == nil {
		el = &metaElement{local: "meta"}
		el.setAttr("", "name", name)
		e.added = append(e.added, el)
	}
	el.setAttr("", "content", value)
}

// bytes renders the edited document.
func (e *metadataEditor) bytes() []byte {
	var buf bytes.Buffer
	buf.Write(e.src[:e.start])

	pos := e.start
	for _, c := range e.children {
		buf.Write(e.src[pos:c.start])
		if c.changed {
			c.render(&buf)
		} else {
			buf.Write(e.src[c.start:c.end])
		}
		pos = c.end
	}

	inner := e.src[pos:e.end]
	trimmed := bytes.TrimRight(inner, " \t\r\n")
	buf.Write(trimmed)
	for _, c := range e.added {
		buf.WriteString("\n    ")
		c.render(&buf)
	}
	buf.Write(inner[len(trimmed):])

	buf.Write(e.src[e.end:])
	return buf.Bytes()
}

func (m *metaElement) attr(local string) string {
	for _, a := range m.attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (m *metaElement) setAttr(prefix, local, value string) {
	m.changed = true
	for i, a := range m.attrs {
		if a.Name.Local == local && a.Name.Space == prefix {
			m.attrs[i].Value = value
			return
		}
	}
	m.attrs = append(m.attrs, xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value})
}

func (m *metaElement) setText(value string) {
	m.changed = true
	m.text = &value
}

// innerContent returns the bytes between the end of the start tag opening at
// start and end, or nil for a self-closing element.
func innerContent(src []byte, start, end int) []byte {
	gt := bytes.IndexByte(src[start:end], '>')
	if gt < 0 || start+gt+1 >= end {
		return nil
	}
	return src[start+gt+1 : end]
}

// render writes the element. Without new text the original content is kept.
func (m *metaElement) render(buf *bytes.Buffer) {
	name := qualified(m.prefix, m.local)
	buf.WriteString("<" + name)
	for _, a := range m.attrs {
		buf.WriteString(" " + qualified(a.Name.Space, a.Name.Local) + `="`)
		xml.EscapeText(buf, []byte(a.Value))
		buf.WriteString(`"`)
	}
	if m.text == nil {
		if len(m.inner) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteString(">")
		buf.Write(m.inner)
		buf.WriteString("</" + name + ">")
		return
	}
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(*m.text))
	buf.WriteString("</" + name + ">")
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// fileAs returns the sort form of a personal name: "Last, First Middle".
func fileAs(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return strings.TrimSpace(name)
	}
	return parts[len(parts)-1] + ", " + strings.Join(parts[:len(parts)-1], " ")
}
