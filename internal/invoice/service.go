package invoice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zombor/invoice-parser/internal/extraction"
	"github.com/zombor/invoice-parser/internal/report"
	"github.com/zombor/invoice-parser/internal/scanning"
)

// IDGenerator generates unique keys for archived uploads
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates keys using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles invoice operations
type Service struct {
	db          DB
	parser      *Parser
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default extraction settings, ID
// generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, nil, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, engine *extraction.Engine, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		parser:      NewParser(scanner, engine),
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters from the base name and caps
// its length so it can be used in a storage key
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "invoice"
	}

	return base + ext
}

// ParseDocument archives an upload, scans it, extracts fields and saves
// the result. The archived file is removed if any later step fails.
func (s *Service) ParseDocument(ctx context.Context, filename string, data []byte, contentType string) (*ParseResult, error) {
	key := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", key, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	result, err := s.parser.ParseDocument(ctx, filename, data, contentType)
	if err != nil {
		slog.Error("Failed to scan document",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, err
	}

	inv := &Invoice{
		Filename:      filename,
		Vendor:        result.Vendor,
		Date:          result.Date,
		Total:         result.Total,
		ExtractedText: result.ExtractedText,
		StoredFile:    savedPath,
		ContentType:   contentType,
		CreatedAt:     now,
	}

	if err := s.db.SaveInvoice(ctx, inv); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving invoice to database: %w", err)
	}

	slog.Info("Parsed invoice",
		"id", inv.ID,
		"filename", filename,
		"vendor", inv.Vendor,
		"date", inv.Date,
		"total", inv.Total,
	)

	result.ID = inv.ID
	return result, nil
}

// GetInvoice retrieves an invoice by ID
func (s *Service) GetInvoice(ctx context.Context, id uint64) (*Invoice, error) {
	inv, err := s.db.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns all invoices
func (s *Service) ListInvoices(ctx context.Context) ([]*Invoice, error) {
	invoices, err := s.db.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}

// GetInvoiceFile returns the archived upload of an invoice and its content type
func (s *Service) GetInvoiceFile(ctx context.Context, id uint64) ([]byte, string, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, "", err
	}

	data, err := s.storage.Get(inv.StoredFile)
	if err != nil {
		return nil, "", fmt.Errorf("getting file: %w", err)
	}
	return data, inv.ContentType, nil
}

// DeleteInvoice removes an invoice and its archived file
func (s *Service) DeleteInvoice(ctx context.Context, id uint64) error {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	if inv.StoredFile != "" {
		if err := s.storage.Delete(inv.StoredFile); err != nil {
			slog.Warn("Failed to delete archived file", "id", id, "file", inv.StoredFile, "error", err)
		}
	}
	return nil
}

// ExportInvoices writes every stored invoice as a report in format
func (s *Service) ExportInvoices(ctx context.Context, w io.Writer, format report.Format) error {
	invoices, err := s.ListInvoices(ctx)
	if err != nil {
		return err
	}

	rows := make([]report.Row, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, report.Row{
			Filename: inv.Filename,
			Vendor:   inv.Vendor,
			Date:     inv.Date,
			Total:    inv.Total,
		})
	}

	if err := report.Write(w, format, rows); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
