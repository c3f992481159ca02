// Package report renders extraction results as CSV or XLSX tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrorValue fills every field of a row whose document failed to process.
const ErrorValue = "ERROR"

const sheetName = "Invoices"

// Header is the first row of every report
var Header = []string{"Filename", "Vendor", "Date", "Total"}

// Row is one document in a report
type Row struct {
	Filename string
	Vendor   string
	Date     string
	Total    string
}

// ErrorRow marks filename as failed
func ErrorRow(filename string) Row {
	return Row{Filename: filename, Vendor: ErrorValue, Date: ErrorValue, Total: ErrorValue}
}

func (r Row) values() []string {
	return []string{r.Filename, r.Vendor, r.Date, r.Total}
}

// Format is an output encoding
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat maps a user supplied name to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return CSV, nil
	case "xlsx":
		return XLSX, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// FormatForPath picks XLSX for .xlsx files and CSV for everything else
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return XLSX
	}
	return CSV
}

// ContentType is the MIME type of the encoded report
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write encodes rows to w in the given format
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case XLSX:
		return WriteXLSX(w, rows)
	case CSV:
		return WriteCSV(w, rows)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteCSV writes the header and rows as CSV
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.values()); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the header and rows as a single-sheet workbook
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	write := func(rowNum int, values []string) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheetName, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(1, Header); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}
	for i, r := range rows {
		if err := write(i+2, r.values()); err != nil {
			return fmt.Errorf("writing xlsx row %d: %w", i+2, err)
		}
	}

	for _, col := range []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 40}, // filename
		{"B", "B", 32}, // vendor
		{"C", "D", 14}, // date, total
	} {
		if err := f.SetColWidth(sheetName, col.from, col.to, col.width); err != nil {
			slog.Debug("Failed to set xlsx column width", "columns", col.from+":"+col.to, "error", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
