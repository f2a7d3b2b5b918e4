package api

import (
	"context"

	"github.com/gorilla/mux"

	"github.com/entrhq/verity/pkg/browser"
	"github.com/entrhq/verity/pkg/logging"
	"github.com/entrhq/verity/pkg/report"
	"github.com/entrhq/verity/pkg/runner"
	"github.com/entrhq/verity/pkg/screenshot"
	"github.com/entrhq/verity/pkg/suite"
)

// SuiteRunner is the execution dependency of the HTTP layer.
type SuiteRunner interface {
	RunSuite(ctx context.Context, s *suite.Suite, opts runner.RunOptions) (report.Report, error)
}

// PoolStats exposes session-pool occupancy.
type PoolStats interface {
	Stats() browser.Stats
}

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	runner SuiteRunner
	parser *suite.Parser
	store  *screenshot.Store
	pool   PoolStats
	hub    *Hub
	logger logging.Logger
}

// NewServer creates the API server. The hub may be nil to disable the
// websocket feed, and the store may be nil to disable screenshot routes.
func NewServer(r SuiteRunner, parser *suite.Parser, store *screenshot.Store, pool PoolStats, hub *Hub, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		runner: r,
		parser: parser,
		store:  store,
		pool:   pool,
		hub:    hub,
		logger: logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.Health).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/suites/validate", s.ValidateSuite).Methods("POST")
	api.HandleFunc("/suites/execute", s.ExecuteSuite).Methods("POST")
	api.HandleFunc("/pool/stats", s.GetPoolStats).Methods("GET")

	if s.store != nil {
		api.HandleFunc("/executions/{id}/screenshots", s.ListScreenshots).Methods("GET")
		api.HandleFunc("/executions/{id}/screenshots/{filename}", s.GetScreenshot).Methods("GET")
	}

	if s.hub != nil {
		router.HandleFunc("/ws", s.hub.Handle)
	}

	return router
}
