package scanning

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// minTextLayerRunes is the least non-space text a PDF must embed before its
// text layer is used instead of OCR
const minTextLayerRunes = 16

// TextLayer reads the embedded text of born-digital PDFs and hands images
// and scanned PDFs to an OCR scanner
type TextLayer struct {
	ocr      Scanner
	maxPages int
}

// NewTextLayer wraps ocr. maxPages caps the pages read (0 = all).
func NewTextLayer(ocr Scanner, maxPages int) *TextLayer {
	return &TextLayer{ocr: ocr, maxPages: maxPages}
}

// ScanText returns the PDF text layer when there is one, else the OCR text
func (t *TextLayer) ScanText(ctx context.Context, data []byte, contentType string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(contentType), "application/pdf") {
		pages, err := pdfTextPages(data, t.maxPages)
		switch {
		case err != nil:
			slog.Debug("No readable text layer, falling back to OCR", "error", err)
		case visibleRunes(pages) < minTextLayerRunes:
			slog.Debug("Text layer is empty, falling back to OCR", "pages", len(pages))
		default:
			slog.Debug("Using PDF text layer", "pages", len(pages))
			return joinPages(pages), nil
		}
	}
	return t.ocr.ScanText(ctx, data, contentType)
}

// Close closes the wrapped OCR scanner
func (t *TextLayer) Close() error {
	return t.ocr.Close()
}

// pdfTextPages extracts the plain text of each page
func pdfTextPages(data []byte, maxPages int) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf text: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	n := r.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d text: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func visibleRunes(pages []string) int {
	n := 0
	for _, p := range pages {
		for _, r := range p {
			if !unicode.IsSpace(r) {
				n++
			}
		}
	}
	return n
}
