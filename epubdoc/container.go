package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"strings"
)

var (
	ErrNoContainer      = errors.New("epub: missing META-INF/container.xml")
	ErrInvalidContainer = errors.New("epub: invalid container.xml")
	ErrNoRootfile       = errors.New("epub: no rootfile found in container.xml")
)

const (
	containerPath = "META-INF/container.xml"
	opfMediaType  = "application/oebps-package+xml"
)

type containerXML struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// packagePath returns the archive path of the OPF package document.
func packagePath(zr *zip.Reader) (string, error) {
	f := findFile(zr, containerPath)
	if f == nil {
		return "", ErrNoContainer
	}
	data, err := readZipFile(f, maxEntrySize)
	if err != nil {
		return "", err
	}

	var container containerXML
	if err := xml.Unmarshal(data, &container); err != nil {
		return "", ErrInvalidContainer
	}

	for _, rf := range container.Rootfiles {
		if rf.FullPath != "" && (rf.MediaType == opfMediaType || rf.MediaType == "") {
			return strings.TrimPrefix(rf.FullPath, "/"), nil
		}
	}
	if len(container.Rootfiles) > 0 && container.Rootfiles[0].FullPath != "" {
		return strings.TrimPrefix(container.Rootfiles[0].FullPath, "/"), nil
	}
	return "", ErrNoRootfile
}
