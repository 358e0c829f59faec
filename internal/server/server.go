package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meltforce/madcow/internal/metrics"
	"github.com/meltforce/madcow/internal/session"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	state    *session.State
	metrics  *metrics.Manager
	gatherer prometheus.Gatherer
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured. gatherer serves
// /metrics and may be nil to leave it out.
func New(state *session.State, m *metrics.Manager, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	s := &Server{
		state:    state,
		metrics:  m,
		gatherer: gatherer,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches an extra handler, such as the MCP endpoint.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(Instrument(s.metrics))

		r.Get("/status", s.handleStatus)
		r.Get("/lifters", s.handleLifters)
		r.Get("/records", s.handleRecords)
		r.Put("/records/{lifter}/{lift}", s.handlePutRecord)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Post("/save", s.handleSave)
		r.Post("/reload", s.handleReload)
		r.Get("/plan", s.handlePlan)
		r.Get("/max", s.handleMax)
		r.Get("/plates", s.handlePlates)
	})

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}
