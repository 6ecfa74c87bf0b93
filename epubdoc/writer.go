package epubdoc

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsawler/folio/model"
)

// creatorID is assigned to a creator that needs refining but has no id.
const creatorID = "creator"

// ReplaceMetadata writes title, author, description, language, publisher,
// date and series from meta into the package document of the EPUB at path.
// Empty fields are left as they are. The archive is rebuilt next to path
// and renamed over it.
func ReplaceMetadata(path string, meta *model.Ebook) error {
	opfPath, raw, pkg, err := loadPackage(path)
	if err != nil {
		return err
	}

	ed, err := newMetadataEditor(raw)
	if err != nil {
		return err
	}
	version := pkg.majorVersion()

	ed.setDC("title", meta.Title)
	ed.setDC("description", meta.Synopsis)
	ed.setDC("language", meta.Language)
	ed.setDC("publisher", meta.Publisher)
	ed.setDC("date", meta.PublishDate)

	if creator := ed.setDC("creator", meta.Author); creator != nil {
		sortName := fileAs(meta.Author)
		if version >= 3 {
			id := creator.attr("id")
			if id == "" {
				id = creatorID
				creator.setAttr("", "id", id)
			}
			ed.setMeta(version, "file-as", sortName, "#"+id)
		} else {
			creator.setAttr("opf", "file-as", sortName)
		}
	}

	if strings.TrimSpace(meta.Series) != "" {
		ed.setMeta(version, "calibre:series", meta.Series, "")
		if meta.SeriesIndex != nil {
			ed.setMeta(version, "calibre:series_index", strconv.FormatFloat(*meta.SeriesIndex, 'f', -1, 64), "")
		}
	}

	return rewriteArchive(path, map[string][]byte{opfPath: ed.bytes()})
}

// ReplaceCover replaces the bytes of the cover image of the EPUB at path.
// EPUB 3 books use the cover-image manifest item, EPUB 2 books the item named
// by <meta name="cover">.
func ReplaceCover(path string, image []byte) error {
	if len(image) == 0 {
		return ErrNoCover
	}

	opfPath, _, pkg, err := loadPackage(path)
	if err != nil {
		return err
	}

	item := pkg.item(pkg.Metadata.metaValue("cover"))
	if pkg.majorVersion() >= 3 || item == nil {
		if prop := pkg.itemWithProperty("cover-image"); prop != nil {
			item = prop
		}
	}
	if item == nil {
		return ErrNoCover
	}

	name := resolvePath(opfPath, item.Href)
	if name == "" {
		return ErrNoCover
	}
	return rewriteArchive(path, map[string][]byte{name: image})
}

func loadPackage(path string) (opfPath string, raw []byte, pkg *opfPackage, err error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer rc.Close()

	if opfPath, err = packagePath(&rc.Reader); err != nil {
		return "", nil, nil, err
	}
	if raw, err = readEntry(&rc.Reader, opfPath); err != nil {
		return "", nil, nil, err
	}
	if pkg, err = parsePackage(raw); err != nil {
		return "", nil, nil, err
	}
	return opfPath, raw, pkg, nil
}

// rewriteArchive copies the archive at path with the entries in replace
// swapped for new content. mimetype is written first and stored.
func rewriteArchive(path string, replace map[string][]byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".folio-*.epub")
	if err != nil {
		rc.Close()
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	err = copyArchive(tmp, &rc.Reader, replace)
	rc.Close()
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func copyArchive(w io.Writer, zr *zip.Reader, replace map[string][]byte) error {
	zw := zip.NewWriter(w)

	if f := findFile(zr, "mimetype"); f != nil {
		data, err := readZipFile(f, maxEntrySize)
		if err != nil {
			return err
		}
		mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			return err
		}
		if _, err := mw.Write(data); err != nil {
			return err
		}
	}

	for _, f := range zr.File {
		if f.Name == "mimetype" {
			continue
		}
		data, ok := replace[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("epub: copy %s: %w", f.Name, err)
			}
			continue
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("epub: write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}
