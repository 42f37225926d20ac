package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"reviewsearch/internal/domain"
	"reviewsearch/internal/service"
)

// Insighter is the subset of the pipeline the API serves.
type Insighter interface {
	Insights(ctx context.Context, query string, filters service.Filters, limit int) (*service.Insight, error)
	Overview(ctx context.Context, limit int, category string) (*service.Insight, error)
}

// Server exposes the query pipeline as a JSON API.
type Server struct {
	pipeline Insighter
	version  string
	timeout  time.Duration
}

// New creates a server. Requests are cancelled after timeout; zero means 60s.
func New(pipeline Insighter, version string, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Server{pipeline: pipeline, version: version, timeout: timeout}
}

// Routes configures HTTP routes.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	// flat routes: a mux subrouter answers a method mismatch with 404 instead of 405
	r.HandleFunc("/api/search", s.searchHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/categories", s.categoriesHandler).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves until ctx is cancelled, then drains for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("[Server] listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("[Server] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, domain.Wrap(domain.ErrValidation, "search", err))
		return
	}
	filters := service.Filters{
		"category":  q.Get("category"),
		"sentiment": q.Get("sentiment"),
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	insight, err := s.pipeline.Insights(ctx, q.Get("q"), filters, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

func (s *Server) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, domain.Wrap(domain.ErrValidation, "categories", err))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	insight, err := s.pipeline.Overview(ctx, limit, q.Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrIndexService):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= 500 {
		slog.Error("[Server] request failed", slog.Int("status", status), slog.String("error", err.Error()))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("[Server] encode response", slog.String("error", err.Error()))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("[Server] request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(start)))
	})
}
