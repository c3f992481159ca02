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

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/invoice-parser/internal/invoice"
	"github.com/zombor/invoice-parser/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoice-parser")
	var (
		port          = fs.IntLong("port", 8000, "HTTP server port")
		dbPath        = fs.StringLong("db", "invoices.db", "Database file path")
		dbDriver      = fs.StringLong("db-driver", "bolt", "Database driver: 'bolt' or 'sqlite'")
		storagePath   = fs.StringLong("storage", "./uploads", "Directory for archived uploads")
		apiKey        = fs.StringLong("api-key", "", "Shared secret expected in the x-api-key header (empty disables the check)")
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
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_PARSER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*port, *dbDriver, *dbPath, *storagePath, *apiKey, scanning.Config{
		Engine:        *scannerType,
		Tesseract:     *tesseractPath,
		TesseractLang: *tesseractLang,
		TessdataDir:   *tessdataDir,
		DPI:           *dpi,
		MaxPages:      *maxPages,
		TextLayer:     *textLayer,
		GeminiKey:     geminiAPIKey(*geminiKey),
		GeminiModel:   *geminiModel,
		OllamaURL:     *ollamaURL,
		OllamaModel:   *ollamaModel,
	}); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func geminiAPIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("GEMINI_API_KEY")
}

func run(port int, dbDriver, dbPath, storagePath, apiKey string, scannerCfg scanning.Config) error {
	slog.Info("Initializing database...", "driver", dbDriver, "path", dbPath)
	db, err := invoice.OpenDB(dbDriver, dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	slog.Info("Initializing scanner...", "engine", scannerCfg.Engine)
	scanner, err := scanning.New(scannerCfg)
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	defer scanner.Close()

	slog.Info("Initializing storage...", "path", storagePath)
	store, err := invoice.NewLocalStorage(storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	service := invoice.NewService(db, scanner, store)
	server := invoice.NewServer(service, apiKey)

	if apiKey == "" {
		slog.Warn("No API key configured; every endpoint is open")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if err := server.Start(ctx, addr); err != nil {
		return err
	}

	slog.Info("Shutting down...")
	return nil
}
