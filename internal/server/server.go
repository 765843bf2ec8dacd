package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sync"
	"time"

	"github.com/jcristia/CGA/internal/logging"
	"github.com/jcristia/CGA/internal/metrics"
	"github.com/jcristia/CGA/pkg/pipeline"
)

// RunFunc executes one analysis.
type RunFunc func(ctx context.Context) (*pipeline.Result, error)

// Options configures a Server.
type Options struct {
	ProjectPath string
	Port        int
	Run         RunFunc
	Metrics     *metrics.Metrics
	Logger      logging.Logger
}

// Server is the local server that exposes the latest run's tables and
// diagnostics.
type Server struct {
	opts Options
	log  logging.Logger

	// runMu serialises runs; mu guards the fields below.
	runMu   sync.Mutex
	mu      sync.RWMutex
	last    *pipeline.Result
	lastErr error
}

// New creates a server. Run is required.
func New(opts Options) *Server {
	return &Server{opts: opts, log: logging.OrNop(opts.Logger).Named("server")}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tables", s.handleTables)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("POST /api/run", s.handleRun)
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics.Handler())
	}
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return mux
}

// Run executes one analysis and keeps its result for the API.
func (s *Server) Run(ctx context.Context) (*pipeline.Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	res, err := s.opts.Run(ctx)
	if s.opts.Metrics != nil {
		s.opts.Metrics.RunFinished(err, time.Since(start))
	}

	s.mu.Lock()
	s.last, s.lastErr = res, err
	s.mu.Unlock()
	return res, err
}

// Start runs the analysis once, then serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if _, err := s.Run(ctx); err != nil {
		s.log.Error("initial run failed", logging.Err(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	s.log.Info("server starting",
		logging.String("addr", "http://localhost"+srv.Addr),
		logging.String("project", s.opts.ProjectPath))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) latest() (*pipeline.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastErr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	res, err := s.latest()
	status := "no run yet"
	switch {
	case err != nil:
		status = "last run failed: " + err.Error()
	case res != nil && res.Report != nil:
		status = fmt.Sprintf("run %s: %s", res.RunID, res.Report.Summary)
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html><head><title>CGA</title></head>
<body style="margin:0;background:#0b1d2a;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>Conservation Gap Analysis</h1>
<p>%s</p>
<p><a style="color:#7fd" href="/api/tables">tables</a> · <a style="color:#7fd" href="/api/validation">validation</a></p>
</div>
</body></html>`, html.EscapeString(status))
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	res, err := s.latest()
	if res == nil || res.Tables == nil {
		writeJSON(w, http.StatusNotFound, errorBody(err, "no tables; POST /api/run first"))
		return
	}
	writeJSON(w, http.StatusOK, res.Tables)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	res, err := s.latest()
	if res == nil || res.Report == nil {
		writeJSON(w, http.StatusNotFound, errorBody(err, "no run yet"))
		return
	}
	q := r.URL.Query()
	if layer, mpa := q.Get("layer"), q.Get("mpa"); layer != "" || mpa != "" {
		writeJSON(w, http.StatusOK, res.Report.Filter(layer, mpa))
		return
	}
	writeJSON(w, http.StatusOK, res.Report)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.Run(r.Context())
	if err != nil {
		body := errorBody(err, "")
		if res != nil {
			body["validation"] = res.Report
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":      res.RunID,
		"took":        res.Finished.Sub(res.Started).String(),
		"summary":     res.Report.Summary,
		"table1_rows": len(res.Tables.Table1),
	})
}

func errorBody(err error, fallback string) map[string]any {
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return map[string]any{"error": fallback}
}
