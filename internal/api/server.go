// Package api exposes the run controller over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Dst88/kaspi-parser/internal/monitoring"
	"github.com/Dst88/kaspi-parser/internal/output"
	"github.com/Dst88/kaspi-parser/internal/runner"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

// maxBodyBytes bounds request bodies of the run endpoints.
const maxBodyBytes = 64 << 10

// Options configures the HTTP server
type Options struct {
	Controller *runner.Controller
	Metrics    *monitoring.MetricsManager
	Health     *monitoring.HealthManager
	Limiter    *utils.RateLimiter
	Logger     utils.Logger
	// DefaultFormat is used when a start request names no format.
	DefaultFormat string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server routes API requests to the controller
type Server struct {
	opts   Options
	logger utils.Logger
	router *mux.Router
}

// StartRequest is the body of POST /api/v1/runs
type StartRequest struct {
	URL    string `json:"url"`
	Format string `json:"format,omitempty"`
}

// StartResponse is returned for an accepted run
type StartResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// FormatInfo describes one output format
type FormatInfo struct {
	Format    string `json:"format"`
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
}

// FormatsResponse is the body of GET /api/v1/formats
type FormatsResponse struct {
	Formats []FormatInfo `json:"formats"`
	Default string       `json:"default"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewServer builds the router
func NewServer(opts Options) (*Server, error) {
	if opts.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.Health == nil {
		opts.Health = monitoring.NewHealthManager(0)
	}
	if opts.DefaultFormat == "" {
		opts.DefaultFormat = string(output.FormatXLSX)
	}

	s := &Server{opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.Handle("/health", s.opts.Health.HealthHandler()).Methods(http.MethodGet)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics.MetricsHandler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.rateLimit)
	api.HandleFunc("/formats", s.handleFormats).Methods(http.MethodGet)
	api.HandleFunc("/runs", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/runs/current", s.handleCurrent).Methods(http.MethodGet)
	api.HandleFunc("/runs/current", s.handleStop).Methods(http.MethodDelete)
	api.HandleFunc("/runs/last", s.handleLast).Methods(http.MethodGet)

	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}
	if req.Format == "" {
		req.Format = s.opts.DefaultFormat
	}

	id, err := s.opts.Controller.Start(req.URL, req.Format)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, StartResponse{ID: id, Status: "started"})
	case errors.Is(err, runner.ErrRunActive):
		writeError(w, http.StatusConflict, utils.ErrCodeValidation, err.Error())
	case errors.Is(err, runner.ErrInvalidURL), errors.Is(err, runner.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, utils.ErrCodeInternal, err.Error())
	}
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Controller.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !s.opts.Controller.Stop() {
		writeError(w, http.StatusConflict, utils.ErrCodeValidation, "no run in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stop requested"})
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	last := s.opts.Controller.Status().Last
	if last == nil {
		writeError(w, http.StatusNotFound, utils.ErrCodeValidation, runner.ErrNoRun.Error())
		return
	}
	writeJSON(w, http.StatusOK, last)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	resp := FormatsResponse{Default: s.opts.DefaultFormat}
	if f, err := output.ParseFormat(s.opts.DefaultFormat); err == nil {
		resp.Default = string(f)
	}
	for _, f := range output.ValidFormats() {
		resp.Formats = append(resp.Formats, FormatInfo{
			Format:    string(f),
			Extension: f.Extension(),
			MimeType:  f.MimeType(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// instrument logs every request and counts it by route template and status
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.opts.Metrics.RecordRequest(route, rec.status)
		s.logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"route":    route,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("request served")
	})
}

// rateLimit rejects requests above the configured token bucket rate
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Limiter != nil && !s.opts.Limiter.Allow() {
			s.opts.Metrics.RecordRateLimitHit()
			w.Header().Set("Retry-After", strconv.Itoa(1))
			writeError(w, http.StatusTooManyRequests, utils.ErrCodeValidation, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code utils.ErrorCode, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: string(code)})
}
