// Package api serves the recorded analysis runs as JSON.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/can-delay/internal/db"
	"github.com/banshee-data/can-delay/internal/httputil"
	"github.com/banshee-data/can-delay/internal/monitoring"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const (
	defaultRunLimit = 20
	maxRunLimit     = 500
)

// RunStore is the read side of the run database. *db.DB satisfies it.
type RunStore interface {
	ListRuns(limit int) ([]db.AnalysisRun, error)
	GetRun(runID string) (*db.AnalysisRun, error)
	TriggerMatches(runID string) ([]db.TriggerMatch, error)
	DelaySamples(runID string) ([]db.DelaySample, error)
	DeleteRun(runID string) error
}

// Server answers run queries from a RunStore.
type Server struct {
	store RunStore
}

// NewServer returns a Server backed by store.
func NewServer(store RunStore) *Server {
	return &Server{store: store}
}

// RunDetail is a run together with its child rows.
type RunDetail struct {
	db.AnalysisRun
	Matches []db.TriggerMatch `json:"matches"`
	Delay   []db.DelaySample  `json:"delay"`
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// Register mounts the run routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.showRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.deleteRun)
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", defaultRunLimit, maxRunLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.AnalysisRun{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.store.GetRun(id)
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to get run: %v", err))
		return
	}

	detail := RunDetail{AnalysisRun: *run}
	if detail.Matches, err = s.store.TriggerMatches(id); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to get matches: %v", err))
		return
	}
	if r.URL.Query().Get("delay") != "false" {
		if detail.Delay, err = s.store.DelaySamples(id); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("Failed to get delay samples: %v", err))
			return
		}
	}
	httputil.WriteJSONOK(w, detail)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.store.DeleteRun(id)
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to delete run: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
