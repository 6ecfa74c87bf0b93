package pdfdoc

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"golang.org/x/image/tiff"

	"github.com/tsawler/folio/imagecache"
)

// imagePayload is the decoded content of an image XObject.
type imagePayload struct {
	data     []byte
	mimeType string
}

// pageImages returns the payloads of the image XObjects used by page n,
// keyed by resource name.
func (d *DocumentContext) pageImages(n int) (map[string]imagePayload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	images, err := pdfcpu.ExtractPageImages(d.ctx, n, false)
	if err != nil {
		return nil, err
	}

	payloads := make(map[string]imagePayload, len(images))
	for _, img := range images {
		if img.Thumb || img.Name == "" || img.Reader == nil {
			continue
		}
		if _, seen := payloads[img.Name]; seen {
			continue
		}
		data, err := io.ReadAll(img)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", img.Name, err)
		}
		if img.FileType == "tif" {
			if converted, err := tiffToPNG(data); err == nil {
				data = converted
			}
		}
		payloads[img.Name] = imagePayload{data: data, mimeType: imagecache.MimeType(data)}
	}
	return payloads, nil
}

// tiffToPNG re-encodes a TIFF so it can be shown in a browser.
func tiffToPNG(data []byte) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
