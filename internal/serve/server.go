// Package serve exposes the pipeline over a small admin HTTP API: trigger
// ingestion and brief cycles, fetch stored bundles and slice reports, and
// run hallucination evaluations.
package serve

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"argus/internal/brief"
	"argus/internal/event"
	"argus/internal/halluc"
	"argus/internal/ingest"
	"argus/internal/logging"
	"argus/internal/pipeline"
	"argus/internal/store"
)

// Server is the admin API surface. All handlers are synchronous; a brief
// cycle holds the request open until the bundle is persisted.
type Server struct {
	st       store.Store
	orch     *brief.Orchestrator
	ingestor *ingest.Ingestor
	eval     *halluc.Evaluator
	metrics  *Metrics
	logger   *slog.Logger
	registry *prometheus.Registry
}

// ServerOption configures the server during construction.
type ServerOption func(*Server)

// WithServerLogger configures structured logging.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithIngestor enables the ingestion endpoint.
func WithIngestor(i *ingest.Ingestor) ServerOption {
	return func(s *Server) { s.ingestor = i }
}

// WithEvaluator enables the evaluation endpoint.
func WithEvaluator(e *halluc.Evaluator) ServerOption {
	return func(s *Server) { s.eval = e }
}

// NewServer wires the API over a repository and an orchestrator.
func NewServer(st store.Store, orch *brief.Orchestrator, opts ...ServerOption) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		st:       st,
		orch:     orch,
		metrics:  NewMetrics(reg),
		logger:   logging.Discard(),
		registry: reg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the routed handler with recovery and request logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/ingest", s.handleIngest).Methods(http.MethodPost)
	api.HandleFunc("/briefs", s.handleBriefs).Methods(http.MethodPost)
	api.HandleFunc("/bundles/{country}/{year:[0-9]+}/{month:[0-9]+}", s.handleBundle).Methods(http.MethodGet)
	api.HandleFunc("/report/{country}/{year:[0-9]+}/{month:[0-9]+}", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/evaluate", s.handleEvaluate).Methods(http.MethodPost)

	r.Use(s.observe)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(r)
}

// observe records latency per route and emits one access log line.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)

		route := req.URL.Path
		if cur := mux.CurrentRoute(req); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		s.metrics.RequestDuration.WithLabelValues(route, req.Method).Observe(elapsed.Seconds())
		s.logger.Info("request", "method", req.Method, "route", route, "elapsed", elapsed)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps the pipeline error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, pipeline.ErrDataUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, pipeline.ErrProvider):
		status = http.StatusBadGateway
	case errors.Is(err, pipeline.ErrGenerationFormat):
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func sliceVars(req *http.Request) (string, int, int, error) {
	vars := mux.Vars(req)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		return "", 0, 0, err
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil {
		return "", 0, 0, err
	}
	return vars["country"], year, month, nil
}

type ingestRequest struct {
	Country string `json:"country"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
}

func (s *Server) handleIngest(w http.ResponseWriter, req *http.Request) {
	if s.ingestor == nil {
		s.writeJSON(w, http.StatusNotImplemented, errorBody{Error: "ingestion is not configured"})
		return
	}
	var body ingestRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	n, err := s.ingestor.IngestMonth(req.Context(), body.Country, body.Year, body.Month)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.EventsIngested.Add(float64(n))
	s.writeJSON(w, http.StatusOK, map[string]any{"ingested": n})
}

type briefsRequest struct {
	Country        string  `json:"country"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	IncludeContext bool    `json:"include_context"`
	CheckCitations bool    `json:"check_citations"`
	Temperature    float64 `json:"temperature"`
	Concurrency    int     `json:"concurrency"`
}

func (s *Server) handleBriefs(w http.ResponseWriter, req *http.Request) {
	var body briefsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	bundle, err := s.orch.MonthlyBriefs(req.Context(), brief.MasterRequest{
		Country:        body.Country,
		Year:           body.Year,
		Month:          body.Month,
		IncludeContext: body.IncludeContext,
		CheckCitations: body.CheckCitations,
		Temperature:    body.Temperature,
		Concurrency:    body.Concurrency,
	})
	if err != nil {
		s.metrics.BriefRuns.WithLabelValues("error").Inc()
		s.writeError(w, err)
		return
	}
	if err := s.st.SaveBundle(req.Context(), bundle); err != nil {
		s.metrics.BriefRuns.WithLabelValues("error").Inc()
		s.writeError(w, err)
		return
	}
	s.metrics.BriefRuns.WithLabelValues("ok").Inc()
	s.writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleBundle(w http.ResponseWriter, req *http.Request) {
	country, year, month, err := sliceVars(req)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid slice path"})
		return
	}
	bundle, err := s.st.LatestBundle(req.Context(), country, year, month)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if bundle == nil {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "no bundle for slice"})
		return
	}
	s.writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleReport(w http.ResponseWriter, req *http.Request) {
	country, year, month, err := sliceVars(req)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid slice path"})
		return
	}
	sl := event.Slice{
		Country: country,
		Year:    year,
		Month:   month,
		Type:    req.URL.Query().Get("type"),
		State:   req.URL.Query().Get("state"),
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	report, err := s.orch.Report(req.Context(), sl, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

type evaluateRequest struct {
	Summary     string `json:"summary"`
	Corpus      string `json:"corpus"`
	Questions   int    `json:"questions"`
	Iterations  int    `json:"iterations"`
	Concurrency int    `json:"concurrency"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, req *http.Request) {
	if s.eval == nil {
		s.writeJSON(w, http.StatusNotImplemented, errorBody{Error: "evaluation is not configured"})
		return
	}
	var body evaluateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	res, err := s.eval.Evaluate(req.Context(), halluc.Request{
		Summary:     body.Summary,
		Corpus:      body.Corpus,
		Questions:   body.Questions,
		Iterations:  body.Iterations,
		Concurrency: body.Concurrency,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.EvalRuns.Inc()
	s.writeJSON(w, http.StatusOK, res)
}
