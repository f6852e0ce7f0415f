package sensor

import (
	"net/url"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry exposes the sensor and reading operations over raw decoded
// input. Each operation validates, applies the change to the Store and then
// notifies event sinks once the store lock has been released.
//
// All public methods are thread-safe.
type Registry struct {
	store  *Store
	logger Logger
	now    func() time.Time

	sinksMu sync.RWMutex
	sinks   []EventSink
}

// NewRegistry creates a registry over store.
func NewRegistry(store *Store) *Registry {
	return &Registry{
		store:  store,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddSink registers a sink for all subsequent events.
func (r *Registry) AddSink(sink EventSink) {
	r.sinksMu.Lock()
	defer r.sinksMu.Unlock()
	r.sinks = append(r.sinks, sink)
}

// Store returns the underlying store.
func (r *Registry) Store() *Store {
	return r.store
}

// CreateSensor validates raw and stores a new sensor.
func (r *Registry) CreateSensor(raw map[string]any) (Sensor, error) {
	in, err := ValidateSensorPayload(raw)
	if err != nil {
		return Sensor{}, err
	}
	sn := r.store.CreateSensor(in)
	r.logger.Info("sensor created", "sensor_id", sn.ID, "type", sn.Type, "location", sn.Location)
	r.emit(Event{Type: EventSensorCreated, Sensor: &sn})
	return sn, nil
}

// UpdateSensor validates raw and replaces the sensor's fields.
// Validation runs before the existence check.
func (r *Registry) UpdateSensor(id int, raw map[string]any) (Sensor, error) {
	in, err := ValidateSensorPayload(raw)
	if err != nil {
		return Sensor{}, err
	}
	sn, err := r.store.UpdateSensor(id, in)
	if err != nil {
		return Sensor{}, err
	}
	r.logger.Info("sensor updated", "sensor_id", sn.ID)
	r.emit(Event{Type: EventSensorUpdated, Sensor: &sn})
	return sn, nil
}

// DeleteSensor removes the sensor and returns the removed record.
func (r *Registry) DeleteSensor(id int) (Sensor, error) {
	sn, cascaded, err := r.store.DeleteSensor(id)
	if err != nil {
		return Sensor{}, err
	}
	r.logger.Info("sensor deleted", "sensor_id", sn.ID, "readings_removed", cascaded)
	r.emit(Event{Type: EventSensorDeleted, Sensor: &sn})
	return sn, nil
}

// GetSensor returns the sensor with the given id.
func (r *Registry) GetSensor(id int) (Sensor, error) {
	return r.store.GetSensor(id)
}

// ListSensors returns sensors, optionally filtered by status.
func (r *Registry) ListSensors(status string) []Sensor {
	return r.store.ListSensors(status)
}

// CreateReading validates raw and stores a reading for sensorID.
// Validation runs before the existence check.
func (r *Registry) CreateReading(sensorID int, raw map[string]any) (Reading, error) {
	in, err := ValidateReadingPayload(raw)
	if err != nil {
		return Reading{}, err
	}
	rd, sn, err := r.store.CreateReading(sensorID, in)
	if err != nil {
		return Reading{}, err
	}
	r.logger.Info("reading created", "reading_id", rd.ID, "sensor_id", sn.ID, "value", rd.Value)
	r.emit(Event{Type: EventReadingCreated, Sensor: &sn, Reading: &rd})
	return rd, nil
}

// ListReadingsForSensor returns every reading of the sensor.
func (r *Registry) ListReadingsForSensor(sensorID int) ([]Reading, error) {
	return r.store.ListReadingsForSensor(sensorID)
}

// ListReadings runs the filtered, paginated reading query over a snapshot.
func (r *Registry) ListReadings(params url.Values) (Page[Reading], error) {
	sensors, readings := r.store.Snapshot()
	return ListReadings(params, sensors, readings)
}

// Stats is a point-in-time summary of the registry contents.
type Stats struct {
	TotalSensors  int            `json:"total_sensors"`
	TotalReadings int            `json:"total_readings"`
	ByType        map[Type]int   `json:"by_type"`
	ByStatus      map[Status]int `json:"by_status"`
}

// Stats returns current registry statistics.
func (r *Registry) Stats() Stats {
	sensors, readings := r.store.Snapshot()

	stats := Stats{
		TotalSensors:  len(sensors),
		TotalReadings: len(readings),
		ByType:        make(map[Type]int),
		ByStatus:      make(map[Status]int),
	}
	for _, sn := range sensors {
		stats.ByType[sn.Type]++
		stats.ByStatus[sn.Status]++
	}
	return stats
}

func (r *Registry) emit(e Event) {
	e.At = r.now().UTC()

	r.sinksMu.RLock()
	sinks := r.sinks
	r.sinksMu.RUnlock()

	for _, s := range sinks {
		s.HandleEvent(e)
	}
}
