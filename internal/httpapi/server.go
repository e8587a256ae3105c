// Package httpapi exposes the analysis pipeline as a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/julianshen/unityctx/internal/artifact"
	"github.com/julianshen/unityctx/internal/logging"
	"github.com/julianshen/unityctx/internal/metrics"
	"github.com/julianshen/unityctx/internal/pipeline"
)

// DefaultMaxBodyBytes caps JSON request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Server routes HTTP requests to a pipeline.
type Server struct {
	svc     *pipeline.Service
	metrics *metrics.Metrics
	limiter *rate.Limiter
	maxBody int64
	tempDir string
	logger  *slog.Logger
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves m on /metrics and counts rate-limited requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit limits analyze requests to r per second with the given
// burst. A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(s *Server) {
		if r <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithMaxBodyBytes caps JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithTempDir sets where download archives are staged. Empty means
// os.TempDir().
func WithTempDir(dir string) Option {
	return func(s *Server) { s.tempDir = dir }
}

// NewServer creates a Server over svc.
func NewServer(svc *pipeline.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		maxBody: DefaultMaxBodyBytes,
		logger:  logging.New("httpapi"),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/analyze", s.limited(s.handleAnalyze))
	s.mux.HandleFunc("POST /api/llm_context", s.handleLLMContext)
	s.mux.HandleFunc("GET /api/download_results", s.handleDownload)
	s.mux.HandleFunc("GET /api/unity_patterns", s.handlePatterns)
	s.mux.HandleFunc("GET /api/runs", s.handleRuns)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.metrics.RateLimited()
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many analysis requests, retry later"})
			return
		}
		next(w, r)
	}
}

type analyzeRequest struct {
	Code              string `json:"code"`
	Filename          string `json:"filename"`
	FilePath          string `json:"file_path"`
	DirectoryPath     string `json:"directory_path"`
	IncludeAIAnalysis bool   `json:"include_ai_analysis"`
	AnalysisType      string `json:"analysis_type"`
}

// toRequest maps the body onto exactly one request variant.
func (b analyzeRequest) toRequest() (analysis.Request, error) {
	var set []string
	if b.Code != "" {
		set = append(set, "code")
	}
	if strings.TrimSpace(b.FilePath) != "" {
		set = append(set, "file_path")
	}
	if strings.TrimSpace(b.DirectoryPath) != "" {
		set = append(set, "directory_path")
	}
	switch len(set) {
	case 0:
		return nil, analysis.Errorf(analysis.InvalidRequest, "provide code, file_path or directory_path")
	case 1:
	default:
		return nil, analysis.Errorf(analysis.InvalidRequest, "provide only one of code, file_path or directory_path (got %s)", strings.Join(set, ", "))
	}
	if b.AnalysisType != "" && set[0] != "file_path" {
		return nil, analysis.Errorf(analysis.InvalidRequest, "analysis_type only applies to file_path")
	}

	switch set[0] {
	case "code":
		return analysis.InlineSnippet{Code: b.Code, Filename: b.Filename}, nil
	case "file_path":
		mode, err := analysis.ParseMode(b.AnalysisType)
		if err != nil {
			return nil, err
		}
		return analysis.SingleFile{Path: b.FilePath, Mode: mode}, nil
	default:
		return analysis.Project{Dir: b.DirectoryPath, IncludeExternalAnalysis: b.IncludeAIAnalysis}, nil
	}
}

type analyzeResponse struct {
	Success       bool             `json:"success"`
	RunID         string           `json:"run_id"`
	Analysis      *artifact.Bundle `json:"analysis"`
	ClaudeContext string           `json:"claude_context"`
	Stdout        string           `json:"stdout"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Stdout  string `json:"stdout,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if !s.decode(w, r, &body) {
		return
	}
	req, err := body.toRequest()
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.Analyze(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:       true,
		RunID:         res.RunID,
		Analysis:      res.Bundle,
		ClaudeContext: res.Context,
		Stdout:        res.Stdout,
	})
}

type llmContextRequest struct {
	AnalysisResultPath string `json:"analysis_result_path"`
}

func (s *Server) handleLLMContext(w http.ResponseWriter, r *http.Request) {
	var body llmContextRequest
	if !s.decode(w, r, &body) {
		return
	}
	text, err := s.svc.RenderStored(body.AnalysisResultPath)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "context": text})
}

// handleDownload stages the archive in a temp file, streams it, and removes
// the file before returning.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, err := s.svc.WriteArchive(r.URL.Query().Get("run_id"), s.tempDir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("removing archive", "path", path, "error", err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		s.writeError(w, analysis.Wrap(analysis.Internal, err, "opening archive"))
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.ArchiveName))
	if info, err := f.Stat(); err == nil {
		h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("streaming archive", "error", err)
	}
}

func (s *Server) handlePatterns(w http.ResponseWriter, _ *http.Request) {
	c, err := s.svc.Patterns()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Map())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, analysis.Errorf(analysis.InvalidRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	runs, err := s.svc.Runs(r.Context(), limit)
	if err != nil {
		s.writeError(w, analysis.Wrap(analysis.Internal, err, "listing runs"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "runs": runs})
}

// decode reads a JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return false
		}
		s.writeError(w, analysis.Errorf(analysis.InvalidRequest, "invalid JSON body: %v", err))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := errorBody{Error: err.Error()}

	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		body.Error = aerr.Msg
		if aerr.Kind == analysis.AnalyzerExit {
			if d := strings.TrimSpace(aerr.Detail); d != "" {
				body.Error = d
			}
			body.Stdout = aerr.Stdout
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

// StatusFor maps a pipeline error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest), errors.Is(err, analysis.ErrAnalyzerExit):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrPathNotFound), errors.Is(err, analysis.ErrNoArtifacts):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrTimedOut):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response", "error", err)
	}
}
