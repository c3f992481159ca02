package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/invoice-parser/internal/batch"
	"github.com/zombor/invoice-parser/internal/extraction"
	"github.com/zombor/invoice-parser/internal/invoice"
	"github.com/zombor/invoice-parser/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

type options struct {
	dir         string
	out         string
	workers     int
	persist     bool
	dbDriver    string
	dbPath      string
	storagePath string
	scanner     scanning.Config
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoice-batch")
	var (
		dir           = fs.StringLong("dir", "invoices", "Directory of PDF invoices to process")
		out           = fs.StringLong("out", "results.csv", "Output file (.csv or .xlsx)")
		workers       = fs.IntLong("workers", 0, "Concurrent documents (0 = one per CPU)")
		persist       = fs.BoolLong("persist", "Also save each parsed invoice to the database")
		dbPath        = fs.StringLong("db", "invoices.db", "Database file path (with --persist)")
		dbDriver      = fs.StringLong("db-driver", "bolt", "Database driver: 'bolt' or 'sqlite'")
		storagePath   = fs.StringLong("storage", "./uploads", "Directory for archived uploads (with --persist)")
		scannerType   = fs.StringLong("scanner", "tesseract", "Scanner type: 'tesseract', 'gemini' or 'ollama'")
		tesseractPath = fs.StringLong("tesseract", "tesseract", "Tesseract binary name or path")
		tesseractLang = fs.StringLong("tesseract-lang", "eng", "Tesseract language")
		tessdataDir   = fs.StringLong("tessdata-dir", "", "Tesseract tessdata directory (optional)")
		dpi           = fs.IntLong("dpi", 300, "PDF rasterization DPI")
		maxPages      = fs.IntLong("max-pages", 0, "Maximum PDF pages to scan (0 = all)")
		textLayer     = fs.BoolLong("text-layer", "Read the embedded text of digital PDFs before running OCR")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name")
		debug         = fs.BoolLong("debug", "Enable debug logging")
		_             = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_PARSER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	key := *geminiKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}

	opts := options{
		dir:         *dir,
		out:         *out,
		workers:     *workers,
		persist:     *persist,
		dbDriver:    *dbDriver,
		dbPath:      *dbPath,
		storagePath: *storagePath,
		scanner: scanning.Config{
			Engine:        *scannerType,
			Tesseract:     *tesseractPath,
			TesseractLang: *tesseractLang,
			TessdataDir:   *tessdataDir,
			DPI:           *dpi,
			MaxPages:      *maxPages,
			TextLayer:     *textLayer,
			GeminiKey:     key,
			GeminiModel:   *geminiModel,
			OllamaURL:     *ollamaURL,
			OllamaModel:   *ollamaModel,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("Batch failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	scanner, err := scanning.New(opts.scanner)
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	defer scanner.Close()

	var parser batch.Parser = invoice.NewParser(scanner, extraction.NewEngine())
	if opts.persist {
		slog.Info("Persisting parsed invoices", "driver", opts.dbDriver, "db", opts.dbPath)
		db, err := invoice.OpenDB(opts.dbDriver, opts.dbPath)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer db.Close()

		store, err := invoice.NewLocalStorage(opts.storagePath)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		parser = invoice.NewService(db, scanner, store)
	}

	stats, err := batch.NewRunner(parser, opts.workers).RunDir(ctx, opts.dir, opts.out)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d documents (%d failed) in %s; results written to %s\n",
		stats.Documents, stats.Failed, stats.Elapsed.Round(time.Millisecond), opts.out)
	return nil
}
