package invoice

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// APIKeyHeader carries the shared secret on every gated request
const APIKeyHeader = "x-api-key"

const unauthorizedMessage = "Unauthorized – invalid or missing API key"

// Server handles HTTP requests for invoices
type Server struct {
	service *Service
	apiKey  string
	mux     *http.ServeMux
}

// NewServer creates a new Server with default mux. An empty apiKey
// disables the API key check.
func NewServer(service *Service, apiKey string) *Server {
	return NewServerWithMux(service, apiKey, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, apiKey string, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		apiKey:  apiKey,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks the x-api-key header
func (s *Server) authenticate(r *http.Request) bool {
	if s.apiKey == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(r.Header.Get(APIKeyHeader)), []byte(s.apiKey)) == 1
}

// corsMiddleware adds CORS headers to responses and answers preflights
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAPIKey middleware
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			slog.Warn("Rejected request without valid API key", "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, unauthorizedMessage)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /ping", s.handlePing)

	s.mux.HandleFunc("POST /parse", s.requireAPIKey(s.handleParse))

	s.mux.HandleFunc("GET /invoices/export", s.requireAPIKey(s.handleExportInvoices))
	s.mux.HandleFunc("GET /invoices/{id}/file", s.requireAPIKey(s.handleGetInvoiceFile))
	s.mux.HandleFunc("GET /invoices/{id}", s.requireAPIKey(s.handleGetInvoice))
	s.mux.HandleFunc("DELETE /invoices/{id}", s.requireAPIKey(s.handleDeleteInvoice))
	s.mux.HandleFunc("GET /invoices", s.requireAPIKey(s.handleListInvoices))
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
