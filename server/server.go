// Package server exposes the search agent over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m4xw311/searchagent/agent"
	"github.com/m4xw311/searchagent/errors"
)

const (
	DefaultRequestTimeout = 120 * time.Second
	requestIDHeader       = "X-Request-Id"
)

// Asker runs one query through the agent pipeline. *agent.Service implements it.
type Asker interface {
	Ask(ctx context.Context, query string) (agent.Answer, error)
}

// RequestRecorder receives per-request measurements.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, status int, d time.Duration)
}

type Options struct {
	// RequestTimeout bounds a whole run, gate wait included.
	RequestTimeout time.Duration
	// Metrics and Health are mounted at /metrics and /healthz when set.
	Metrics  http.Handler
	Health   http.Handler
	Recorder RequestRecorder
}

type Server struct {
	asker   Asker
	opts    Options
	handler http.Handler
}

type searchResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(asker Asker, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	s := &Server{asker: asker, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/ws", s.handleWS)
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	if opts.Health != nil {
		mux.Handle("/healthz", opts.Health)
	}
	s.handler = withRequestID(withCORS(mux))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	start := time.Now()
	query := r.URL.Query().Get("query")
	log := requestLogger(r.Context())

	answer, err := s.ask(r.Context(), query)
	status := http.StatusOK
	if err != nil {
		status = StatusFor(err)
		log.Error("search.failed", "query", query, "status", status, "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
	} else {
		log.Info("search.answered", "query", answer.Query, "steps", answer.Steps, "duration", time.Since(start))
		writeJSON(w, status, searchResponse{Result: answer.Text})
	}
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordRequest(r.Context(), status, time.Since(start))
	}
}

// ask detaches the run from the caller so a disconnect does not abandon a
// half-finished run, while keeping the request timeout.
func (s *Server) ask(parent context.Context, query string) (agent.Answer, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.opts.RequestTimeout)
	defer cancel()
	return s.asker.Ask(ctx, query)
}

// StatusFor maps a pipeline error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errors.ErrGateClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// withCORS allows every origin, method and header with credentials. The
// origin is echoed since "*" is rejected by browsers alongside credentials.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if origin := r.Header.Get("Origin"); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		} else {
			h.Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

// withRequestID tags each request with an id, echoed in X-Request-Id and
// attached to the request logger.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		log := slog.Default().With("request_id", id)
		log.Debug("http.request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, log)))
	})
}

func requestLogger(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}
