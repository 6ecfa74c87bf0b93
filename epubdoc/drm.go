package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"path"
	"strings"
)

// ErrDRMProtected is returned for books whose content is encrypted.
var ErrDRMProtected = errors.New("epub: DRM-protected content cannot be processed")

type encryptionXML struct {
	XMLName       xml.Name `xml:"encryption"`
	EncryptedData []struct {
		Method struct {
			Algorithm string `xml:"Algorithm,attr"`
		} `xml:"EncryptionMethod"`
		Reference struct {
			URI string `xml:"URI,attr"`
		} `xml:"CipherData>CipherReference"`
	} `xml:"EncryptedData"`
}

// checkDRM rejects archives carrying Adobe rights or encrypted content
// documents. Obfuscated fonts are allowed.
func checkDRM(zr *zip.Reader) error {
	if findFile(zr, "META-INF/rights.xml") != nil {
		return ErrDRMProtected
	}

	f := findFile(zr, "META-INF/encryption.xml")
	if f == nil {
		return nil
	}
	data, err := readZipFile(f, maxEntrySize)
	if err != nil {
		return ErrDRMProtected
	}

	var enc encryptionXML
	if err := xml.Unmarshal(data, &enc); err != nil {
		return ErrDRMProtected
	}
	for _, ed := range enc.EncryptedData {
		if isFontObfuscation(ed.Method.Algorithm) {
			continue
		}
		if isContentDocument(ed.Reference.URI) {
			return ErrDRMProtected
		}
	}
	return nil
}

// Font obfuscation algorithms defined by IDPF and Adobe.
const (
	idpfObfuscation  = "http://www.idpf.org/2008/embedding"
	adobeObfuscation = "http://ns.adobe.com/pdf/enc#rc"
)

func isFontObfuscation(algorithm string) bool {
	a := strings.ToLower(strings.TrimSpace(algorithm))
	return a == idpfObfuscation || a == adobeObfuscation || strings.Contains(a, "obfuscation")
}

func isContentDocument(uri string) bool {
	switch strings.ToLower(path.Ext(uri)) {
	case ".xhtml", ".html", ".htm", ".xml", ".css", ".opf", ".ncx":
		return true
	}
	return false
}
