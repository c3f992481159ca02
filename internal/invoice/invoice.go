package invoice

import (
	"errors"
	"time"

	"github.com/zombor/invoice-parser/internal/extraction"
)

// ErrNotFound is returned when no invoice has the requested ID
var ErrNotFound = errors.New("invoice not found")

// Invoice is a parsed document as persisted by a DB
type Invoice struct {
	ID            uint64    `json:"id"`
	Filename      string    `json:"filename"`
	Vendor        string    `json:"vendor"`
	Date          string    `json:"date"`
	Total         string    `json:"total"`
	ExtractedText string    `json:"extracted_text"`
	StoredFile    string    `json:"stored_file,omitempty"` // key of the archived upload
	ContentType   string    `json:"content_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary is the list view of an invoice
type Summary struct {
	ID       uint64 `json:"id"`
	Filename string `json:"filename"`
	Vendor   string `json:"vendor"`
	Date     string `json:"date"`
	Total    string `json:"total"`
}

// Summary returns the list view of inv
func (inv *Invoice) Summary() Summary {
	return Summary{
		ID:       inv.ID,
		Filename: inv.Filename,
		Vendor:   inv.Vendor,
		Date:     inv.Date,
		Total:    inv.Total,
	}
}

// ParseResult is the response for one parsed document
type ParseResult struct {
	ID        uint64 `json:"id,omitempty"`
	Filename  string `json:"filename"`
	SizeBytes int    `json:"size_bytes"`
	extraction.Result
	ExtractedText string `json:"extracted_text"`
}

// Detail is the single-invoice view returned over HTTP
type Detail struct {
	ID            uint64    `json:"id"`
	Filename      string    `json:"filename"`
	Vendor        string    `json:"vendor"`
	Date          string    `json:"date"`
	Total         string    `json:"total"`
	ExtractedText string    `json:"extracted_text"`
	CreatedAt     time.Time `json:"created_at"`
}

// Detail returns the single-invoice view of inv
func (inv *Invoice) Detail() Detail {
	return Detail{
		ID:            inv.ID,
		Filename:      inv.Filename,
		Vendor:        inv.Vendor,
		Date:          inv.Date,
		Total:         inv.Total,
		ExtractedText: inv.ExtractedText,
		CreatedAt:     inv.CreatedAt,
	}
}
