package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/sensorhub/internal/fault"
	"github.com/nerrad567/sensorhub/internal/sensor"
)

// sensorID parses the {id} path segment. A segment that is not a decimal
// integer cannot name any sensor and is reported as not found verbatim.
func sensorID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, ok := sensor.ParseID(raw)
	if !ok {
		return 0, fault.NotFound(sensor.EntitySensor, raw)
	}
	return id, nil
}

// handleListSensors returns all sensors.
//
// Query parameters:
//   - status: filter by status (active, inactive), case-insensitive
func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.ListSensors(r.URL.Query().Get("status")))
}

// handleCreateSensor creates a new sensor.
func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sn, err := s.registry.CreateSensor(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sn)
}

// handleGetSensor returns a single sensor by ID.
func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	id, err := sensorID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sn, err := s.registry.GetSensor(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// handleUpdateSensor replaces every field of a sensor.
func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	id, err := sensorID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	raw, err := decodeObject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sn, err := s.registry.UpdateSensor(id, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// handleDeleteSensor removes a sensor and returns the removed record.
func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	id, err := sensorID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sn, err := s.registry.DeleteSensor(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}
