// Package server exposes the scanning pipeline and the card store over
// HTTP: multipart scan endpoints, card CRUD, batch scanning with
// websocket progress, health, and Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/extract"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/pipeline"
	"github.com/cardlens/cardlens/internal/store"
	"github.com/cardlens/cardlens/internal/version"
)

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	RateLimitPerMin int
	ScanOptions     ocr.Options
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	scanner     *pipeline.Scanner
	store       store.Store
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	scanOpts    ocr.Options
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// NewServer creates a server around an assembled scanner. The store may
// be nil, which disables the card CRUD endpoints.
func NewServer(cfg Config, scanner *pipeline.Scanner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *RateLimiter
	if cfg.RateLimitPerMin > 0 {
		limiter = NewRateLimiter(cfg.RateLimitPerMin)
	}
	return &Server{
		scanner:     scanner,
		store:       scanner.Store(),
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeoutSec:  cfg.TimeoutSec,
		scanOpts:    cfg.ScanOptions,
		rateLimiter: limiter,
		logger:      logger,
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("GET /engines", s.corsMiddleware(s.enginesHandler))
	mux.HandleFunc("POST /scan/image", s.corsMiddleware(s.rateLimitMiddleware(s.scanImageHandler)))
	mux.HandleFunc("POST /scan/batch", s.corsMiddleware(s.rateLimitMiddleware(s.scanBatchHandler)))
	mux.HandleFunc("POST /scan/pdf", s.corsMiddleware(s.rateLimitMiddleware(s.scanPDFHandler)))
	mux.HandleFunc("GET /ws/batch", s.batchWebSocketHandler)

	if s.store != nil {
		mux.HandleFunc("GET /cards", s.corsMiddleware(s.listCardsHandler))
		mux.HandleFunc("POST /cards", s.corsMiddleware(s.createCardHandler))
		mux.HandleFunc("GET /cards/{id}", s.corsMiddleware(s.getCardHandler))
		mux.HandleFunc("PUT /cards/{id}", s.corsMiddleware(s.updateCardHandler))
		mux.HandleFunc("DELETE /cards/{id}", s.corsMiddleware(s.deleteCardHandler))
		mux.HandleFunc("GET /history", s.corsMiddleware(s.historyHandler))
	}

	mux.Handle("GET /metrics", promhttp.Handler())
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// EnginesResponse lists available recognition engines.
type EnginesResponse struct {
	Engines   []ocr.EngineDescriptor `json:"engines"`
	Preferred string                 `json:"preferred,omitempty"`
	Count     int                    `json:"count"`
}

// ScanResponse is returned by the single-image scan endpoint.
type ScanResponse struct {
	Success bool               `json:"success"`
	Result  *ocr.Result        `json:"result,omitempty"`
	Card    *card.BusinessCard `json:"card,omitempty"`
	Fields  *extract.Fields    `json:"fields,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// BatchItemResponse is one entry of a batch scan response.
type BatchItemResponse struct {
	Index  int         `json:"index"`
	Source string      `json:"source,omitempty"`
	Result *ocr.Result `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// BatchResponse summarizes a batch scan.
type BatchResponse struct {
	Items       []BatchItemResponse `json:"items"`
	Total       int                 `json:"total"`
	Succeeded   int                 `json:"succeeded"`
	Failed      int                 `json:"failed"`
	SuccessRate float64             `json:"success_rate"`
	DurationMS  int64               `json:"duration_ms"`
}

// CardsResponse lists stored cards.
type CardsResponse struct {
	Cards []card.BusinessCard `json:"cards"`
	Count int                 `json:"count"`
}

// HistoryResponse lists stored recognition results.
type HistoryResponse struct {
	Results []ocr.Result `json:"results"`
	Count   int          `json:"count"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError maps domain errors to HTTP statuses and emits the public
// message, never internal detail.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errx.HTTPStatus(err)
	msg := "internal error"
	var e *errx.Error
	if errors.As(err, &e) {
		msg = e.UserMessage()
	}
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (s *Server) writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) enginesHandler(w http.ResponseWriter, _ *http.Request) {
	reg := s.scanner.Registry()
	resp := EnginesResponse{Engines: reg.Available()}
	if e, err := reg.Preferred(); err == nil {
		resp.Preferred = e.Descriptor().ID
	}
	resp.Count = len(resp.Engines)
	s.writeJSON(w, http.StatusOK, resp)
}
