package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liamcoop/easyrules/internal/logger"
	"github.com/liamcoop/easyrules/rules"
)

type Server struct {
	registry *rules.Registry
	facts    *rules.Facts
	defaults rules.Defaults
	metrics  *Metrics
	router   *chi.Mux
}

// NewServer serves the given registry. Rules created through the API are
// built with defaults and read from facts.
func NewServer(registry *rules.Registry, facts *rules.Facts, defaults rules.Defaults, requestTimeout time.Duration) *Server {
	s := &Server{
		registry: registry,
		facts:    facts,
		defaults: defaults,
		metrics:  NewMetrics(registry),
	}

	s.setupRoutes(requestTimeout)

	return s
}

func (s *Server) setupRoutes(requestTimeout time.Duration) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/api/v1/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Condition evaluation (actions are never performed)
	r.Post("/api/v1/evaluate", s.handleEvaluate)

	r.Route("/api/v1/facts", func(r chi.Router) {
		r.Get("/", s.handleGetFacts)
		r.Put("/", s.handlePutFacts)
	})

	r.Route("/api/v1/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)
		r.Get("/conflicts", s.handleConflicts)
		r.Get("/{name}", s.handleGetRule)
		r.Delete("/{name}", s.handleDeleteRule)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:          "healthy",
		RulesRegistered: s.registry.Len(),
	})
}

// List rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	registrations := s.registry.Registrations()

	resp := RulesListResponse{Rules: make([]RuleResponse, 0, len(registrations))}
	for _, registration := range registrations {
		resp.Rules = append(resp.Rules, newRuleResponse(registration))
	}

	respondJSON(w, http.StatusOK, resp)
}

// Create rule handler
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var def rules.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule, err := def.Build(s.defaults, s.facts)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule definition", err)
		return
	}

	registration, err := s.registry.Register(rule)
	if errors.Is(err, rules.ErrRuleExists) {
		respondError(w, http.StatusConflict, "rule already exists", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to register rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, newRuleResponse(*registration))
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	registration, err := s.registry.Lookup(name)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, newRuleResponse(*registration))
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.registry.Unregister(name); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Priority conflicts handler
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	resp := ConflictsResponse{Conflicts: [][]string{}}
	for _, group := range s.registry.Conflicts() {
		names := make([]string, len(group))
		for i, rule := range group {
			names[i] = rule.Name()
		}
		resp.Conflicts = append(resp.Conflicts, names)
	}

	respondJSON(w, http.StatusOK, resp)
}

// Get facts handler
func (s *Server) handleGetFacts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, FactsResponse{Facts: s.facts.Snapshot()})
}

// Put facts handler: merges the body into the current facts
func (s *Server) handlePutFacts(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := decodeJSON(r.Body, &values); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if values == nil {
		respondError(w, http.StatusBadRequest, "facts must be a JSON object", nil)
		return
	}

	s.facts.Merge(normalizeNumbers(values).(map[string]any))

	respondJSON(w, http.StatusOK, FactsResponse{Facts: s.facts.Snapshot()})
}

// Evaluation handler
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	selected := s.registry.List()
	if len(req.Rules) > 0 {
		selected = make([]rules.Rule, 0, len(req.Rules))
		for _, name := range req.Rules {
			rule, err := s.registry.Get(name)
			if err != nil {
				respondError(w, http.StatusNotFound, "rule not found", err)
				return
			}
			selected = append(selected, rule)
		}
		rules.Sort(selected)
	}

	startTime := time.Now()
	results := rules.EvaluateConditions(selected)
	evaluationTime := time.Since(startTime)

	s.metrics.ObserveResults(results)

	resp := EvaluateResponse{
		Results:        make([]EvaluationResultResponse, 0, len(results)),
		EvaluationTime: evaluationTime.String(),
	}
	for _, result := range results {
		if result.Error != nil {
			logger.WarnConditionError("rule condition error", "rule", result.RuleName, "error", result.Error)
		}
		resp.Results = append(resp.Results, newEvaluationResultResponse(result))
	}

	respondJSON(w, http.StatusOK, resp)
}

// decodeJSON decodes numbers as json.Number so integers survive as integers
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

// normalizeNumbers converts json.Number values to int64 or float64
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.Error(message, "status", status, "error", fmt.Sprint(err))
	}
	respondJSON(w, status, response)
}
