package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/entrhq/verity/pkg/llm"
	"github.com/entrhq/verity/pkg/runner"
)

// HealthResponse is the health check body.
type HealthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
}

// Health reports liveness and the supported LLM providers.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Providers: llm.Providers(),
	})
}

// SuiteRequest carries a YAML suite definition plus execution overrides.
type SuiteRequest struct {
	SuiteYAML            string `json:"suite_yaml"`
	Headless             *bool  `json:"headless,omitempty"`
	MaxParallel          int    `json:"max_parallel,omitempty"`
	RespectPrerequisites *bool  `json:"respect_prerequisites,omitempty"`
}

// ValidationResponse summarizes a successfully parsed suite.
type ValidationResponse struct {
	Valid     bool     `json:"valid"`
	SuiteName string   `json:"suite_name"`
	Scenarios []string `json:"scenarios"`
}

// ValidateSuite parses the submitted YAML and reports structural problems
// without executing anything.
func (s *Server) ValidateSuite(w http.ResponseWriter, r *http.Request) {
	var req SuiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SuiteYAML == "" {
		respondError(w, http.StatusBadRequest, "suite_yaml is required")
		return
	}

	parsed, err := s.parser.Parse([]byte(req.SuiteYAML))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	names := make([]string, 0, len(parsed.Scenarios))
	for _, sc := range parsed.Scenarios {
		names = append(names, sc.Name)
	}
	respondJSON(w, http.StatusOK, ValidationResponse{Valid: true, SuiteName: parsed.Name, Scenarios: names})
}

// ExecuteSuite parses and runs the submitted suite synchronously, returning
// the aggregated report. Scenario failures surface inside the report, not as
// an HTTP error; only resource-level failures produce a 500.
func (s *Server) ExecuteSuite(w http.ResponseWriter, r *http.Request) {
	var req SuiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SuiteYAML == "" {
		respondError(w, http.StatusBadRequest, "suite_yaml is required")
		return
	}

	parsed, err := s.parser.Parse([]byte(req.SuiteYAML))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	opts := runner.RunOptions{
		Headless:             parsed.RunHeadless(),
		MaxParallel:          req.MaxParallel,
		RespectPrerequisites: true,
	}
	if req.Headless != nil {
		opts.Headless = *req.Headless
	}
	if req.RespectPrerequisites != nil {
		opts.RespectPrerequisites = *req.RespectPrerequisites
	}

	s.broadcast(Event{Type: "suite_started", Suite: parsed.Name, Data: map[string]interface{}{
		"scenarios": len(parsed.Scenarios),
	}})

	rep, err := s.runner.RunSuite(r.Context(), parsed, opts)
	if err != nil {
		s.logger.Error("suite execution failed", map[string]interface{}{
			"suite": parsed.Name,
			"error": err.Error(),
		})
		s.broadcast(Event{Type: "suite_error", Suite: parsed.Name, Data: err.Error()})
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.broadcast(Event{Type: "suite_completed", Suite: parsed.Name, Data: map[string]interface{}{
		"total":        rep.Total,
		"passed":       rep.Passed,
		"failed":       rep.Failed,
		"success_rate": rep.SuccessRate,
	}})

	respondJSON(w, http.StatusOK, rep)
}

// GetPoolStats reports session-pool occupancy.
func (s *Server) GetPoolStats(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		respondError(w, http.StatusServiceUnavailable, "session pool not available")
		return
	}
	respondJSON(w, http.StatusOK, s.pool.Stats())
}

// ListScreenshots lists the stored artifacts for one execution.
func (s *Server) ListScreenshots(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	infos, err := s.store.List(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"execution_id": id,
		"screenshots":  infos,
		"count":        len(infos),
	})
}

// GetScreenshot serves a single stored screenshot.
func (s *Server) GetScreenshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	path, err := s.store.Resolve(vars["id"], vars["filename"])
	if err != nil {
		respondError(w, http.StatusNotFound, "screenshot not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (s *Server) broadcast(event Event) {
	if s.hub != nil {
		s.hub.Broadcast(event)
	}
}
