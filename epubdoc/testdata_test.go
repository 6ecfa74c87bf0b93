package epubdoc

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

type zipEntry struct {
	name string
	body string
}

var pngBytes = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake-image-data"

// writeEPUB writes an EPUB with a stored mimetype entry followed by entries.
func writeEPUB(t *testing.T, name string, entries []zipEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatal(err)
	}
	mw.Write([]byte("application/epub+zip"))

	for _, e := range entries {
		ew, err := w.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		ew.Write([]byte(e.body))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

const containerXMLBody = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const epub2OPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title></dc:title>
    <dc:title>The Book</dc:title>
    <dc:creator opf:role="aut">Jane Q Doe</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid" opf:scheme="ISBN">9780000000001</dc:identifier>
    <dc:publisher>Folio Press</dc:publisher>
    <dc:date>2001-02-03</dc:date>
    <dc:description>A story.</dc:description>
    <meta name="cover" content="cover-img"/>
    <meta name="calibre:series" content="Saga"/>
    <meta name="calibre:series_index" content="2"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="cover" href="Text/cover.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch1" href="Text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="Text/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="Styles/main.css" media-type="text/css"/>
    <item id="cover-img" href="Images/cover.png" media-type="image/png"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="cover"/>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

const epub2NCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="n0"><navLabel><text>Cover</text></navLabel><content src="Text/cover.xhtml"/></navPoint>
    <navPoint id="n1"><navLabel><text>Chapter One</text></navLabel><content src="Text/ch1.xhtml#start"/>
      <navPoint id="n2"><navLabel><text>Part A</text></navLabel><content src="Text/ch2.xhtml"/></navPoint>
    </navPoint>
    <navPoint id="n3"><navLabel><text>Missing</text></navLabel><content src="Text/nothing.xhtml"/></navPoint>
  </navMap>
</ncx>`

const coverXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Cover</title></head>
<body><div><img src="../Images/cover.png" alt="cover"/></div></body></html>`

const chapterOneXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter One</title><link rel="stylesheet" type="text/css" href="../Styles/main.css"/></head>
<body>
<p class="para">alpha</p>
<p class="para">beta</p>
<p class="para">gamma</p>
<p class="para">delta</p>
<p class="para">epsilon</p>
</body>
</html>`

const chapterTwoXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Caf&amp;#233;</title></head>
<body><p>Short.</p></body>
</html>`

const mainCSS = `@import url(fonts.css);
@font-face { font-family: Fancy; src: url(fancy.ttf) }
p { text-indent: 1.5em; font-family: serif; margin: 0; }`

func epub2Entries() []zipEntry {
	return []zipEntry{
		{"META-INF/container.xml", containerXMLBody},
		{"OEBPS/content.opf", epub2OPF},
		{"OEBPS/toc.ncx", epub2NCX},
		{"OEBPS/Text/cover.xhtml", coverXHTML},
		{"OEBPS/Text/ch1.xhtml", chapterOneXHTML},
		{"OEBPS/Text/ch2.xhtml", chapterTwoXHTML},
		{"OEBPS/Styles/main.css", mainCSS},
		{"OEBPS/Images/cover.png", pngBytes},
	}
}

const epub3OPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:uuid:1234</dc:identifier>
    <dc:title>Modern Book</dc:title>
    <dc:creator>Jane Doe</dc:creator>
    <dc:language>fr</dc:language>
    <meta property="dcterms:modified">2020-01-01T00:00:00Z</meta>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="cover" href="text/cover.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="img" href="images/cover.png" media-type="image/png" properties="cover-image"/>
  </manifest>
  <spine>
    <itemref idref="cover"/>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

const epub3Nav = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Contents</title></head>
<body>
<nav epub:type="landmarks"><ol><li><a href="text/cover.xhtml">Cover</a></li></ol></nav>
<nav epub:type="toc">
  <h1>Contents</h1>
  <ol>
    <li><a href="text/ch1.xhtml">Whole Book</a>
      <ol><li><a href="text/ch2.xhtml#part">Part Two</a></li></ol>
    </li>
  </ol>
</nav>
</body>
</html>`

func epub3Entries() []zipEntry {
	return []zipEntry{
		{"META-INF/container.xml", containerXMLBody},
		{"OEBPS/content.opf", epub3OPF},
		{"OEBPS/nav.xhtml", epub3Nav},
		{"OEBPS/text/cover.xhtml", coverXHTML},
		{"OEBPS/text/ch1.xhtml", chapterOneXHTML},
		{"OEBPS/text/ch2.xhtml", chapterTwoXHTML},
		{"OEBPS/images/cover.png", pngBytes},
	}
}
