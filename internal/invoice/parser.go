package invoice

import (
	"context"
	"fmt"
	"strings"

	"github.com/zombor/invoice-parser/internal/extraction"
	"github.com/zombor/invoice-parser/internal/scanning"
)

// Parser turns document bytes into extracted fields without persisting
// anything. The batch runner uses it directly; Service wraps it.
type Parser struct {
	scanner scanning.Scanner
	engine  *extraction.Engine
}

// NewParser creates a Parser. A nil engine uses extraction defaults.
func NewParser(scanner scanning.Scanner, engine *extraction.Engine) *Parser {
	if engine == nil {
		engine = extraction.NewEngine()
	}
	return &Parser{scanner: scanner, engine: engine}
}

// ParseDocument scans data and runs field extraction over the text
func (p *Parser) ParseDocument(ctx context.Context, filename string, data []byte, contentType string) (*ParseResult, error) {
	text, err := p.scanner.ScanText(ctx, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	return &ParseResult{
		Filename:      filename,
		SizeBytes:     len(data),
		Result:        p.engine.Extract(text),
		ExtractedText: cleanText(text),
	}, nil
}

// cleanText is the form of the OCR text that is returned and stored
func cleanText(text string) string {
	return strings.TrimSpace(extraction.StripPageMarkers(extraction.NormalizeLineEndings(text)))
}
