package pdfdoc

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/folio/model"
)

// ErrNoCover is returned by ReplaceCover when no image bytes are given.
var ErrNoCover = errors.New("pdf: empty cover image")

// ReplaceMetadata rewrites the info dictionary of the PDF at path with the
// title and author of meta. The subject is replaced only when meta carries a
// synopsis. The file is replaced atomically.
func ReplaceMetadata(path string, meta *model.Ebook) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return &Error{Op: "replace metadata", Path: path, Err: err}
	}

	props := map[string]string{
		"Title":  meta.Title,
		"Author": meta.Author,
	}
	if strings.TrimSpace(meta.Synopsis) != "" {
		props["Subject"] = meta.Synopsis
	}

	var out bytes.Buffer
	if err := api.AddProperties(bytes.NewReader(src), &out, props, nil); err != nil {
		return &Error{Op: "replace metadata", Path: path, Err: err}
	}
	if err := replaceFile(path, out.Bytes()); err != nil {
		return &Error{Op: "replace metadata", Path: path, Err: err}
	}
	return nil
}

// ReplaceCover swaps the first page of the PDF at path for a page of the
// same size showing cover, scaled to fit. The file is replaced atomically.
func ReplaceCover(path string, cover []byte) error {
	if len(cover) == 0 {
		return &Error{Op: "replace cover", Path: path, Err: ErrNoCover}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return &Error{Op: "replace cover", Path: path, Err: err}
	}

	out, err := coverReplaced(src, cover)
	if err != nil {
		return &Error{Op: "replace cover", Path: path, Err: err}
	}
	if err := replaceFile(path, out); err != nil {
		return &Error{Op: "replace cover", Path: path, Err: err}
	}
	return nil
}

func coverReplaced(src, cover []byte) ([]byte, error) {
	dims, err := api.PageDims(bytes.NewReader(src), nil)
	if err != nil {
		return nil, err
	}
	if len(dims) == 0 {
		return nil, ErrPageOutOfRange
	}

	// types.Full sizes the page to the image, so anchor at the centre
	// with a relative scale of 1 to keep page 1's dimensions.
	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: dims[0].Width, Height: dims[0].Height}
	imp.PageSize = ""
	imp.UserDim = true
	imp.Pos = types.Center
	imp.Scale = 1
	imp.ScaleAbs = false
	imp.InpUnit = types.POINTS

	var coverPage bytes.Buffer
	if err := api.ImportImages(nil, &coverPage, []io.Reader{bytes.NewReader(cover)}, imp, nil); err != nil {
		return nil, err
	}
	if len(dims) == 1 {
		return coverPage.Bytes(), nil
	}

	var rest bytes.Buffer
	if err := api.RemovePages(bytes.NewReader(src), &rest, []string{"1"}, nil); err != nil {
		return nil, err
	}

	var merged bytes.Buffer
	sources := []io.ReadSeeker{bytes.NewReader(coverPage.Bytes()), bytes.NewReader(rest.Bytes())}
	if err := api.MergeRaw(sources, &merged, false, nil); err != nil {
		return nil, err
	}
	return merged.Bytes(), nil
}

// replaceFile writes data next to path and renames it over path.
func replaceFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".folio-*.pdf")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
