package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/privalens/privalens/docs"
	"github.com/privalens/privalens/internal/analyzer"
	"github.com/privalens/privalens/internal/browser"
	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/scheduler"
	"github.com/privalens/privalens/internal/service"
	"github.com/privalens/privalens/internal/store"
)

// Server is the HTTP + WebSocket API surface for PrivaLens.
type Server struct {
	cfg      Config
	svc      *service.Service
	sched    *scheduler.Scheduler
	store    *store.Store
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer wires store, orchestrator, scheduler and service, and starts the
// worker pool.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	storagePath, err := expandPath(cfg.StoragePath)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(storagePath, logger)
	if err != nil {
		return nil, err
	}

	browserCfg := browser.DefaultConfig()
	browserCfg.Headless = cfg.Headless

	orch := analyzer.NewOrchestrator(st, nil, browserCfg, logger)
	sched := scheduler.New(orch, cfg.Workers, scheduler.DefaultRetryPolicy(), logger)
	sched.Start()

	s := &Server{
		cfg:    cfg,
		svc:    service.New(st, orch, sched, logger),
		sched:  sched,
		store:  st,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}
	s.routes()
	return s, nil
}

// NewServerWith wires an externally constructed service. Used by tests.
func NewServerWith(cfg Config, svc *service.Service, sched *scheduler.Scheduler, st *store.Store, logger logging.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		sched:  sched,
		store:  st,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/domains/{domainID}/scans", s.optionsHandler("GET, POST"))
	r.Options("/domains/{domainID}/scans/scheduled", s.optionsHandler("POST"))
	r.Options("/domains/{domainID}/trends", s.optionsHandler("GET"))
	r.Options("/scans/compare", s.optionsHandler("GET"))
	r.Options("/scans/{scanID}", s.optionsHandler("DELETE"))
	r.Options("/scans/{scanID}/status", s.optionsHandler("GET"))
	r.Options("/scans/{scanID}/results", s.optionsHandler("GET"))

	r.Post("/domains/{domainID}/scans", s.handleStartScan)
	r.Get("/domains/{domainID}/scans", s.handleListScans)
	r.Post("/domains/{domainID}/scans/scheduled", s.handleScheduledScan)
	r.Get("/domains/{domainID}/trends", s.handleTrends)

	r.Get("/scans/compare", s.handleCompare)
	r.Get("/scans/{scanID}/status", s.handleScanStatus)
	r.Get("/scans/{scanID}/results", s.handleScanResults)
	r.Delete("/scans/{scanID}", s.handleCancelScan)

	r.Get("/ws/scans/{scanID}", s.handleScanWS)

	r.Get("/swagger/*", httpSwagger.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler with request logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close stops the worker pool and the store.
func (s *Server) Close() {
	if s.sched != nil {
		s.sched.Stop()
	}
	if s.store != nil {
		s.store.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrScanNotFound):
		return http.StatusNotFound
	case errors.Is(err, analyzer.ErrDomainBusy),
		errors.Is(err, service.ErrActiveScanExists),
		errors.Is(err, model.ErrTerminalState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func parsePriority(raw string) scheduler.Priority {
	switch raw {
	case "low":
		return scheduler.PriorityLow
	case "high":
		return scheduler.PriorityHigh
	default:
		return scheduler.PriorityNormal
	}
}

// --- HTTP handlers ---

// handleStartScan queues a new scan for a domain.
//
// @Summary  Start a scan
// @Accept   json
// @Produce  json
// @Param    domainID  path  string            true  "Domain ID"
// @Param    request   body  StartScanRequest  true  "Scan parameters"
// @Success  202  {object}  model.Scan
// @Failure  409  {object}  ErrorResponse
// @Router   /domains/{domainID}/scans [post]
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")

	var body StartScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	scan, err := s.svc.StartAnalysis(r.Context(), domainID, body.Domain, body.Config, parsePriority(body.Priority))
	if err != nil {
		s.logger.Warn("starting scan", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("started scan",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "domain", Value: scan.Domain})
	writeJSON(w, http.StatusAccepted, scan)
}

// handleScheduledScan is the unattended entry point: it skips silently when
// the domain already has an active scan.
//
// @Summary  Start a scheduled scan
// @Accept   json
// @Produce  json
// @Param    domainID  path  string                true  "Domain ID"
// @Param    request   body  ScheduledScanRequest  true  "Scan parameters"
// @Success  202  {object}  model.Scan
// @Failure  409  {object}  ErrorResponse
// @Router   /domains/{domainID}/scans/scheduled [post]
func (s *Server) handleScheduledScan(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")

	var body ScheduledScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	scan, err := s.svc.RunScheduled(r.Context(), domainID, body.Domain, body.Config)
	if err != nil {
		if errors.Is(err, service.ErrActiveScanExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Warn("starting scheduled scan", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, scan)
}

// handleListScans returns the most recent scans of a domain.
//
// @Summary  List scans
// @Produce  json
// @Param    domainID  path   string  true   "Domain ID"
// @Param    limit     query  int     false  "Maximum results"
// @Success  200  {array}  model.Scan
// @Router   /domains/{domainID}/scans [get]
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")

	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	scans, err := s.svc.ListScans(r.Context(), domainID, limit)
	if err != nil {
		s.logger.Warn("listing scans", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

// handleScanStatus is the polling endpoint.
//
// @Summary  Scan status
// @Produce  json
// @Param    scanID  path  string  true  "Scan ID"
// @Success  200  {object}  ScanStatusResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /scans/{scanID}/status [get]
func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	status, progress, err := s.svc.GetStatus(r.Context(), scanID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ScanStatusResponse{ID: scanID, Status: status, Progress: progress})
}

// handleScanResults returns the full record.
//
// @Summary  Scan results
// @Produce  json
// @Param    scanID  path  string  true  "Scan ID"
// @Success  200  {object}  model.Scan
// @Failure  404  {object}  ErrorResponse
// @Router   /scans/{scanID}/results [get]
func (s *Server) handleScanResults(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	scan, err := s.svc.GetResults(r.Context(), scanID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

// handleCancelScan cancels a pending or running scan.
//
// @Summary  Cancel a scan
// @Param    scanID  path  string  true  "Scan ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /scans/{scanID} [delete]
func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	if err := s.svc.Cancel(r.Context(), scanID); err != nil {
		s.logger.Warn("cancelling scan",
			logging.Field{Key: "scan_id", Value: scanID},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("cancelled scan", logging.Field{Key: "scan_id", Value: scanID})
	writeJSON(w, http.StatusNoContent, nil)
}

// handleCompare diffs two scans.
//
// @Summary  Compare two scans
// @Produce  json
// @Param    base  query  string  true  "Baseline scan ID"
// @Param    head  query  string  true  "Newer scan ID"
// @Success  200  {object}  model.Changes
// @Failure  404  {object}  ErrorResponse
// @Router   /scans/compare [get]
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	baseID := r.URL.Query().Get("base")
	headID := r.URL.Query().Get("head")
	if baseID == "" || headID == "" {
		writeError(w, http.StatusBadRequest, "base and head query parameters are required")
		return
	}

	changes, err := s.svc.Compare(r.Context(), baseID, headID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

// handleTrends returns the per-domain compliance time series.
//
// @Summary  Compliance trends
// @Produce  json
// @Param    domainID  path   string  true   "Domain ID"
// @Param    days      query  int     false  "Window in days (default 30)"
// @Success  200  {array}  model.TrendPoint
// @Router   /domains/{domainID}/trends [get]
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")

	days := 0
	if ds := r.URL.Query().Get("days"); ds != "" {
		if v, err := strconv.Atoi(ds); err == nil && v > 0 {
			days = v
		}
	}

	points, err := s.svc.Trends(r.Context(), domainID, days)
	if err != nil {
		s.logger.Warn("loading trends", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// --- WebSockets ---

// handleScanWS streams progress snapshots of a running scan until it reaches
// a terminal state. For scans that are not running, the current status is
// sent once and the socket closes.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	status, progress, err := s.svc.GetStatus(r.Context(), scanID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(ScanStatusResponse{ID: scanID, Status: status, Progress: progress})

	events := s.svc.Events(scanID)
	if events == nil {
		return
	}
	for p := range events {
		if err := conn.WriteJSON(p); err != nil {
			return
		}
	}

	// Run ended; send the terminal snapshot.
	if status, progress, err := s.svc.GetStatus(r.Context(), scanID); err == nil {
		_ = conn.WriteJSON(ScanStatusResponse{ID: scanID, Status: status, Progress: progress})
	}
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
