package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/sensorhub/internal/fault"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Set before Route so the subrouter inherits them.
	r.NotFound(s.handleRouteNotFound)
	r.MethodNotAllowed(s.handleRouteNotFound)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		if s.metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}

		r.Get("/sensors", s.handleListSensors)
		r.Post("/sensors", s.handleCreateSensor)
		r.Get("/sensors/{id}", s.handleGetSensor)
		r.Put("/sensors/{id}", s.handleUpdateSensor)
		r.Delete("/sensors/{id}", s.handleDeleteSensor)
		r.Get("/sensors/{id}/readings", s.handleListSensorReadings)
		r.Post("/sensors/{id}/readings", s.handleCreateReading)

		r.Get("/readings", s.handleListReadings)

		r.Get("/debug/error", s.handleDebugError)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleRouteNotFound reports unknown paths and unsupported methods alike.
func (s *Server) handleRouteNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, fault.RouteNotFound(r.Method, r.URL.Path))
}
