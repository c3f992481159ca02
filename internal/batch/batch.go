// Package batch parses every PDF in a directory and produces one report row
// per document.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/invoice-parser/internal/invoice"
	"github.com/zombor/invoice-parser/internal/report"
)

const pdfContentType = "application/pdf"

// Parser does the per-document work. *invoice.Parser extracts only;
// *invoice.Service also persists.
type Parser interface {
	ParseDocument(ctx context.Context, filename string, data []byte, contentType string) (*invoice.ParseResult, error)
}

// Stats summarizes a run
type Stats struct {
	Documents int
	Failed    int
	Elapsed   time.Duration
}

// Runner parses documents concurrently
type Runner struct {
	parser  Parser
	workers int
}

// NewRunner creates a Runner. workers <= 0 uses one worker per CPU.
func NewRunner(parser Parser, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{parser: parser, workers: workers}
}

// ListDocuments returns the PDF files directly inside dir in name order
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// Run parses each path and returns rows in the order of paths. A document
// that fails becomes an ERROR row; it never stops the rest of the batch.
func (r *Runner) Run(ctx context.Context, paths []string) ([]report.Row, Stats) {
	start := time.Now()
	rows := make([]report.Row, len(paths))
	failed := make([]bool, len(paths))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, path := range paths {
		g.Go(func() error {
			row, err := r.parseFile(ctx, path)
			if err != nil {
				slog.Error("Failed to process document", "file", filepath.Base(path), "error", err)
				row = report.ErrorRow(filepath.Base(path))
				failed[i] = true
			}
			rows[i] = row
			return nil
		})
	}
	g.Wait()

	stats := Stats{Documents: len(paths), Elapsed: time.Since(start)}
	for _, f := range failed {
		if f {
			stats.Failed++
		}
	}
	return rows, stats
}

func (r *Runner) parseFile(ctx context.Context, path string) (report.Row, error) {
	if err := ctx.Err(); err != nil {
		return report.Row{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return report.Row{}, fmt.Errorf("reading file: %w", err)
	}

	name := filepath.Base(path)
	result, err := r.parser.ParseDocument(ctx, name, data, pdfContentType)
	if err != nil {
		return report.Row{}, err
	}

	slog.Debug("Processed document", "file", name, "vendor", result.Vendor, "date", result.Date, "total", result.Total)
	return report.Row{
		Filename: name,
		Vendor:   result.Vendor,
		Date:     result.Date,
		Total:    result.Total,
	}, nil
}

// RunDir processes every PDF in dir and writes the report to out. The
// format follows out's extension.
func (r *Runner) RunDir(ctx context.Context, dir, out string) (Stats, error) {
	paths, err := ListDocuments(dir)
	if err != nil {
		return Stats{}, err
	}
	slog.Info("Starting batch", "dir", dir, "documents", len(paths), "workers", r.workers)

	rows, stats := r.Run(ctx, paths)

	f, err := os.Create(out)
	if err != nil {
		return stats, fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	if err := report.Write(f, report.FormatForPath(out), rows); err != nil {
		return stats, fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return stats, fmt.Errorf("closing output: %w", err)
	}

	slog.Info("Batch complete",
		"output", out,
		"documents", stats.Documents,
		"failed", stats.Failed,
		"elapsed", stats.Elapsed,
	)
	return stats, nil
}
