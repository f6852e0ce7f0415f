package sensor

import (
	"slices"
	"strings"
	"sync"

	"github.com/nerrad567/sensorhub/internal/fault"
)

// EntitySensor is the entity name used in sensor NotFound messages.
const EntitySensor = "Sensor"

// StoreOptions configures a Store.
type StoreOptions struct {
	// CascadeDeletes removes a sensor's readings together with the sensor.
	// When false the readings are kept and keep referencing the deleted id.
	CascadeDeletes bool
}

// Store holds sensors and readings in insertion order.
//
// One RWMutex guards both collections, so a reader never observes a
// partially applied mutation. No I/O happens under the lock.
//
// Values returned by Store are copies; callers can safely modify them.
type Store struct {
	mu       sync.RWMutex
	sensors  []Sensor
	readings []Reading
	opts     StoreOptions
}

// NewStore creates an empty store.
func NewStore(opts StoreOptions) *Store {
	return &Store{opts: opts}
}

// ListSensors returns all sensors, or those whose status matches
// status case-insensitively when status is non-empty.
func (s *Store) ListSensors(status string) []Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sensor, 0, len(s.sensors))
	for _, sn := range s.sensors {
		if status == "" || strings.EqualFold(string(sn.Status), status) {
			out = append(out, sn)
		}
	}
	return out
}

// GetSensor returns the sensor with the given id.
func (s *Store) GetSensor(id int) (Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.sensorIndex(id)
	if i < 0 {
		return Sensor{}, fault.NotFound(EntitySensor, id)
	}
	return s.sensors[i], nil
}

// CreateSensor appends a sensor with id one greater than the current
// maximum, or 1 when the store has no sensors.
func (s *Store) CreateSensor(in SensorInput) Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn := Sensor{
		ID:       nextID(s.sensors, func(sn Sensor) int { return sn.ID }),
		Location: in.Location,
		Type:     in.Type,
		Status:   in.Status,
	}
	s.sensors = append(s.sensors, sn)
	return sn
}

// UpdateSensor replaces every mutable field of the sensor in place.
func (s *Store) UpdateSensor(id int, in SensorInput) (Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sensorIndex(id)
	if i < 0 {
		return Sensor{}, fault.NotFound(EntitySensor, id)
	}
	s.sensors[i] = Sensor{ID: id, Location: in.Location, Type: in.Type, Status: in.Status}
	return s.sensors[i], nil
}

// DeleteSensor removes the sensor and returns it along with the number of
// readings removed with it. The count is always 0 unless CascadeDeletes is set.
func (s *Store) DeleteSensor(id int) (Sensor, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sensorIndex(id)
	if i < 0 {
		return Sensor{}, 0, fault.NotFound(EntitySensor, id)
	}
	removed := s.sensors[i]
	s.sensors = slices.Delete(s.sensors, i, i+1)

	cascaded := 0
	if s.opts.CascadeDeletes {
		before := len(s.readings)
		s.readings = slices.DeleteFunc(s.readings, func(r Reading) bool { return r.SensorID == id })
		cascaded = before - len(s.readings)
	}
	return removed, cascaded, nil
}

// ListReadingsForSensor returns the sensor's readings in insertion order.
func (s *Store) ListReadingsForSensor(id int) ([]Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sensorIndex(id) < 0 {
		return nil, fault.NotFound(EntitySensor, id)
	}
	out := make([]Reading, 0)
	for _, r := range s.readings {
		if r.SensorID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateReading appends a reading for an existing sensor and returns it
// together with its parent sensor. Reading ids are sequential across all
// sensors.
func (s *Store) CreateReading(sensorID int, in ReadingInput) (Reading, Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sensorIndex(sensorID)
	if i < 0 {
		return Reading{}, Sensor{}, fault.NotFound(EntitySensor, sensorID)
	}
	r := Reading{
		ID:        nextID(s.readings, func(r Reading) int { return r.ID }),
		SensorID:  sensorID,
		Timestamp: in.Timestamp,
		Value:     in.Value,
		at:        in.At,
	}
	s.readings = append(s.readings, r)
	return r, s.sensors[i], nil
}

// Snapshot returns copies of both collections taken under one read lock.
func (s *Store) Snapshot() ([]Sensor, []Reading) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.sensors), slices.Clone(s.readings)
}

// Counts returns the number of sensors and readings.
func (s *Store) Counts() (sensors, readings int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sensors), len(s.readings)
}

// sensorIndex returns the position of id in s.sensors or -1.
// Caller must hold s.mu.
func (s *Store) sensorIndex(id int) int {
	return slices.IndexFunc(s.sensors, func(sn Sensor) bool { return sn.ID == id })
}

func nextID[T any](items []T, id func(T) int) int {
	highest := 0
	for _, it := range items {
		highest = max(highest, id(it))
	}
	return highest + 1
}
