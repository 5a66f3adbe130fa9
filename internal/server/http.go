package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"textpilot/internal/core"
	"textpilot/internal/session"
	"textpilot/internal/settings"
)

//go:embed web/index.html
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

// maxRequestBytes caps JSON request bodies
const maxRequestBytes = 1 << 20

// DefaultWriteTimeout is used when Options.WriteTimeout is unset
const DefaultWriteTimeout = 120 * time.Second

// Options configures an HTTPServer
type Options struct {
	Coordinator *session.Coordinator
	Store       settings.Store
	Logger      *zap.Logger
	// MetricsHandler is mounted at MetricsPath when non-nil
	MetricsHandler http.Handler
	MetricsPath    string
	WriteTimeout   time.Duration
}

// HTTPServer serves the form page and the JSON API in front of the coordinator
type HTTPServer struct {
	*Server
	coordinator  *session.Coordinator
	store        settings.Store
	log          *zap.Logger
	metrics      http.Handler
	metricsPath  string
	writeTimeout time.Duration
}

// NewHTTPServer creates the HTTP server
func NewHTTPServer(addr string, opts Options) *HTTPServer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("server")

	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	return &HTTPServer{
		Server:       New(addr, log),
		coordinator:  opts.Coordinator,
		store:        opts.Store,
		log:          log,
		metrics:      opts.MetricsHandler,
		metricsPath:  metricsPath,
		writeTimeout: writeTimeout,
	}
}

// Start serves until SIGINT/SIGTERM, then cancels the in-flight call and shuts down
func (s *HTTPServer) Start() error {
	return s.Run(context.Background())
}

// Run serves until ctx is done or a termination signal arrives.
// The in-flight call is cancelled before open requests are drained.
func (s *HTTPServer) Run(ctx context.Context) error {
	defer s.coordinator.Close()
	return s.serve(ctx, s.Handler(), s.writeTimeout, s.coordinator.Cancel)
}

// Handler returns the routed handler wrapped in the access log middleware
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("POST /api/actions/{action}", s.handleAction)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/cancel", s.handleCancel)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)

	if s.metrics != nil {
		mux.Handle("GET "+s.metricsPath, s.metrics)
	}

	return withRequestLog(s.log, mux)
}

type indexData struct {
	Actions         []core.Action
	Languages       []string
	DefaultLanguage string
}

func (s *HTTPServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{
		Actions:         core.Actions,
		Languages:       core.Languages,
		DefaultLanguage: core.DefaultLanguage,
	}
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.Error("failed to render index", zap.Error(err))
	}
}

func (s *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": core.Languages,
		"default":   core.DefaultLanguage,
	})
}

// ActionRequest is the body of POST /api/actions/{action}
type ActionRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// ActionResponse is the body answered by the action endpoint
type ActionResponse struct {
	Status     string `json:"status"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorType  string `json:"error_type,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
}

// handleAction runs one action through the coordinator and waits for its outcome.
// A newer action or POST /api/cancel turns this one into a cancelled response.
func (s *HTTPServer) handleAction(w http.ResponseWriter, r *http.Request) {
	action, err := core.ParseAction(r.PathValue("action"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req ActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, core.NewInvalidInputError("invalid JSON body"))
		return
	}

	prompt, err := core.BuildPrompt(action, req.Text, req.Language)
	if err != nil {
		writeError(w, err)
		return
	}

	current, err := s.store.Load(r.Context())
	if err != nil {
		s.log.Error("failed to load settings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ActionResponse{Status: "error", Error: "failed to load settings"})
		return
	}

	gen, done := s.coordinator.Submit(r.Context(), prompt, current.Endpoint())
	outcome := <-done

	switch outcome.Kind {
	case core.OutcomeSuccess:
		writeJSON(w, http.StatusOK, ActionResponse{Status: "success", Output: outcome.Text, Generation: gen})
	case core.OutcomeCancelled:
		writeJSON(w, http.StatusOK, ActionResponse{Status: "cancelled", Generation: gen})
	default:
		writeError(w, outcome.Err)
	}
}

func (s *HTTPServer) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coordinator.State())
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.coordinator.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.store.Load(r.Context())
	if err != nil {
		s.log.Error("failed to load settings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": "failed to load settings"})
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *HTTPServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var next settings.Settings
	if err := decodeJSON(r, &next); err != nil {
		writeError(w, core.NewInvalidInputError("invalid JSON body"))
		return
	}
	if err := s.store.Save(r.Context(), next); err != nil {
		s.log.Error("failed to save settings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": "failed to save settings"})
		return
	}
	saved, err := s.store.Load(r.Context())
	if err != nil {
		s.log.Error("failed to reload settings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": "failed to load settings"})
		return
	}
	s.log.Info("Settings updated", zap.String("backend", string(saved.Endpoint().Kind())))
	writeJSON(w, http.StatusOK, saved)
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError answers with the status and type carried by a *core.Error
func writeError(w http.ResponseWriter, err error) {
	resp := ActionResponse{Status: "error", Error: err.Error()}
	status := http.StatusInternalServerError
	var ce *core.Error
	if errors.As(err, &ce) {
		status = ce.HTTPStatusCode()
		resp.ErrorType = string(ce.Type)
	}
	writeJSON(w, status, resp)
}
