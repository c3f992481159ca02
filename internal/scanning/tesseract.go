package scanning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Tesseract page segmentation modes for rasterized PDF pages and photos
const (
	pdfPSM   = 4
	imagePSM = 6
)

// Tesseract implements the Scanner interface by running the tesseract binary
type Tesseract struct {
	binary      string
	lang        string
	tessdataDir string
	raster      rasterOptions
	runner      Runner
}

// NewTesseract creates a Tesseract scanner from cfg
func NewTesseract(cfg Config) *Tesseract {
	return NewTesseractWithRunner(cfg, execRunner{})
}

// NewTesseractWithRunner creates a Tesseract scanner with a custom Runner for testing
func NewTesseractWithRunner(cfg Config, runner Runner) *Tesseract {
	binary := cfg.Tesseract
	if binary == "" {
		binary = "tesseract"
	}
	lang := cfg.TesseractLang
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{
		binary:      binary,
		lang:        lang,
		tessdataDir: cfg.TessdataDir,
		raster:      rasterOptions{dpi: cfg.DPI, maxPages: cfg.MaxPages},
		runner:      runner,
	}
}

// ScanText OCRs every page of the document
func (t *Tesseract) ScanText(ctx context.Context, data []byte, contentType string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "invoice-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	return scanPages(ctx, data, contentType, t.raster, func(ctx context.Context, i int, p page) (string, error) {
		pngData, err := encodePNG(p.img)
		if err != nil {
			return "", err
		}
		path := filepath.Join(tmpDir, fmt.Sprintf("page-%d.png", i+1))
		if err := os.WriteFile(path, pngData, 0600); err != nil {
			return "", fmt.Errorf("writing page image: %w", err)
		}

		psm := imagePSM
		if p.fromPDF {
			psm = pdfPSM
		}
		return t.ocr(ctx, path, psm)
	})
}

func (t *Tesseract) ocr(ctx context.Context, path string, psm int) (string, error) {
	// tesseract <file> stdout -l <lang> --oem 3 --psm <n>
	args := []string{path, "stdout", "-l", t.lang, "--oem", "3", "--psm", strconv.Itoa(psm)}
	if t.tessdataDir != "" {
		args = append(args, "--tessdata-dir", t.tessdataDir)
	}

	out, errb, err := t.runner.Run(ctx, t.binary, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// Close is a no-op; each scan cleans up its own temp files
func (t *Tesseract) Close() error {
	return nil
}
