package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

const defaultDPI = 300

type rasterOptions struct {
	dpi      int
	maxPages int
}

// page is one prepared page image and whether it came from a PDF
type page struct {
	img     image.Image
	fromPDF bool
}

// preparePages rasterizes a PDF or decodes an image, converting every page to
// grayscale for OCR.
func preparePages(data []byte, contentType string, opts rasterOptions) ([]page, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	if mimeType == "application/pdf" {
		imgs, err := pdfToImages(data, opts)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to images: %w", err)
		}
		pages := make([]page, len(imgs))
		for i, img := range imgs {
			pages[i] = page{img: imaging.Grayscale(img), fromPDF: true}
		}
		return pages, nil
	}

	img, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, err
	}
	return []page{{img: imaging.Grayscale(img)}}, nil
}

// pdfToImages renders every page of a PDF
func pdfToImages(pdfData []byte, opts rasterOptions) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	dpi := opts.dpi
	if dpi <= 0 {
		dpi = defaultDPI
	}

	n := doc.NumPage()
	if opts.maxPages > 0 && n > opts.maxPages {
		n = opts.maxPages
	}
	if n == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	imgs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page %d: %w", i+1, err)
		}
		imgs = append(imgs, img)
	}
	return imgs, nil
}

// decodeImage decodes JPEG, PNG, GIF, HEIC and HEIF data
func decodeImage(imageData []byte, mimeType string) (image.Image, error) {
	// Go's standard image package doesn't support HEIC
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnsupportedContentType, mimeType, err)
	}
	return img, nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files carry an ftyp box at offset 4 with a HEIC-related brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
