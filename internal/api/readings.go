package api

import (
	"net/http"
)

// handleListSensorReadings returns every reading of one sensor in
// insertion order.
func (s *Server) handleListSensorReadings(w http.ResponseWriter, r *http.Request) {
	id, err := sensorID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	readings, err := s.registry.ListReadingsForSensor(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// handleCreateReading records a reading for a sensor.
// The body is validated before the sensor is looked up.
func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
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

	rd, err := s.registry.CreateReading(id, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rd)
}

// handleListReadings runs the filtered, paginated reading query.
//
// Query parameters (all optional, validated in this order):
//   - page: integer >= 1, default 1
//   - limit: integer in [1, 100], default 10
//   - type: temperature, humidity or moisture (joins through the sensor)
//   - minValue, maxValue: inclusive value bounds
//   - from, to: inclusive timestamp bounds
func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	page, err := s.registry.ListReadings(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
