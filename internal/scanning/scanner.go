package scanning

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedContentType is returned for input that is neither a PDF nor
// a decodable image.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Scanner turns a document into raw OCR text
type Scanner interface {
	// ScanText extracts the text of a PDF or image. Multi-page PDFs are
	// joined with "--- Page N ---" markers.
	ScanText(ctx context.Context, data []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// Config selects and configures an OCR engine
type Config struct {
	Engine string // "tesseract", "gemini" or "ollama"

	Tesseract     string // binary name or path
	TesseractLang string
	TessdataDir   string

	DPI      int // rasterization DPI for PDF pages
	MaxPages int // 0 = all pages

	GeminiKey   string
	GeminiModel string

	OllamaURL   string
	OllamaModel string

	// TextLayer reads the embedded text of digital PDFs before running OCR
	TextLayer bool
}

// New builds the Scanner named by cfg.Engine, wrapped in a TextLayer when
// cfg.TextLayer is set
func New(cfg Config) (Scanner, error) {
	s, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.TextLayer {
		return NewTextLayer(s, cfg.MaxPages), nil
	}
	return s, nil
}

func newEngine(cfg Config) (Scanner, error) {
	switch cfg.Engine {
	case "", "tesseract":
		return NewTesseract(cfg), nil
	case "gemini":
		g, err := NewGemini(cfg.GeminiKey, cfg.GeminiModel, rasterOptions{dpi: cfg.DPI, maxPages: cfg.MaxPages})
		if err != nil {
			return nil, err
		}
		return g, nil
	case "ollama":
		o, err := NewOllama(cfg.OllamaURL, cfg.OllamaModel, rasterOptions{dpi: cfg.DPI, maxPages: cfg.MaxPages})
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown scanner engine %q (want tesseract, gemini or ollama)", cfg.Engine)
	}
}

// pageReader turns one prepared page into text
type pageReader func(ctx context.Context, index int, p page) (string, error)

// scanPages prepares the document and reads each page in order. A lone image
// is returned as-is; PDFs always carry page markers.
func scanPages(ctx context.Context, data []byte, contentType string, opts rasterOptions, read pageReader) (string, error) {
	pages, err := preparePages(data, contentType, opts)
	if err != nil {
		return "", err
	}

	texts := make([]string, len(pages))
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := read(ctx, i, p)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i+1, err)
		}
		texts[i] = text
	}

	if len(pages) == 1 && !pages[0].fromPDF {
		return texts[0], nil
	}
	return joinPages(texts), nil
}

// joinPages concatenates per-page text, prefixing each page with a
// "--- Page N ---" marker.
func joinPages(pages []string) string {
	var b strings.Builder
	for i, text := range pages {
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i+1)
		b.WriteString(text)
	}
	return b.String()
}
