package sensor

import (
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sensorhub/internal/fault"
)

// recordingSink collects events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) HandleEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestRegistry() (*Registry, *recordingSink) {
	reg := NewRegistry(NewStore(StoreOptions{}))
	reg.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	sink := &recordingSink{}
	reg.AddSink(sink)
	return reg, sink
}

func TestRegistry_CreateSensor(t *testing.T) {
	reg, sink := newTestRegistry()

	raw := map[string]any{"location": "greenhouse", "type": "humidity", "status": "active"}
	sn, err := reg.CreateSensor(raw)
	if err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}

	want := Sensor{ID: 1, Location: "greenhouse", Type: TypeHumidity, Status: StatusActive}
	if sn != want {
		t.Errorf("CreateSensor() = %+v, want %+v", sn, want)
	}

	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	e := sink.events[0]
	if e.Type != EventSensorCreated || e.Sensor == nil || *e.Sensor != want {
		t.Errorf("event = %+v", e)
	}
	if !e.At.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("event At = %v", e.At)
	}
}

func TestRegistry_ValidationFailureHasNoSideEffects(t *testing.T) {
	reg, sink := newTestRegistry()

	_, err := reg.CreateSensor(map[string]any{"location": "x"})
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if n, _ := reg.Store().Counts(); n != 0 {
		t.Errorf("store has %d sensors after failed create", n)
	}
	if len(sink.events) != 0 {
		t.Errorf("events emitted for failed create: %v", sink.types())
	}
}

func TestRegistry_UpdateSensor(t *testing.T) {
	reg, sink := newTestRegistry()
	reg.CreateSensor(map[string]any{"location": "greenhouse", "type": "humidity", "status": "active"})

	sn, err := reg.UpdateSensor(1, map[string]any{"location": "shed", "type": "moisture", "status": "inactive"})
	if err != nil {
		t.Fatalf("UpdateSensor() error = %v", err)
	}
	if sn.Location != "shed" || sn.Type != TypeMoisture || sn.Status != StatusInactive {
		t.Errorf("UpdateSensor() = %+v", sn)
	}

	_, err = reg.UpdateSensor(42, map[string]any{"location": "shed", "type": "moisture", "status": "inactive"})
	if !errors.Is(err, fault.ErrNotFound) || err.Error() != "Sensor with ID 42 not found" {
		t.Errorf("update missing: error = %v", err)
	}

	// Invalid payload is reported before the missing sensor.
	_, err = reg.UpdateSensor(42, map[string]any{})
	if !errors.Is(err, fault.ErrValidation) {
		t.Errorf("update invalid+missing: error = %v, want validation", err)
	}

	got := sink.types()
	if len(got) != 2 || got[1] != EventSensorUpdated {
		t.Errorf("events = %v", got)
	}
}

func TestRegistry_DeleteSensor(t *testing.T) {
	reg, sink := newTestRegistry()
	reg.CreateSensor(map[string]any{"location": "greenhouse", "type": "humidity", "status": "active"})

	removed, err := reg.DeleteSensor(1)
	if err != nil {
		t.Fatalf("DeleteSensor() error = %v", err)
	}
	if removed.ID != 1 {
		t.Errorf("removed.ID = %d", removed.ID)
	}
	if _, err := reg.GetSensor(1); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("GetSensor() after delete error = %v", err)
	}
	if _, err := reg.DeleteSensor(1); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("second DeleteSensor() error = %v", err)
	}

	got := sink.types()
	if len(got) != 2 || got[1] != EventSensorDeleted {
		t.Errorf("events = %v", got)
	}
}

func TestRegistry_CreateReading(t *testing.T) {
	reg, sink := newTestRegistry()
	reg.CreateSensor(map[string]any{"location": "greenhouse", "type": "temperature", "status": "active"})

	rd, err := reg.CreateReading(1, map[string]any{"timestamp": "2024-06-01T10:00:00Z", "value": 19.5})
	if err != nil {
		t.Fatalf("CreateReading() error = %v", err)
	}
	if rd.ID != 1 || rd.SensorID != 1 || rd.Value != 19.5 || rd.Timestamp != "2024-06-01T10:00:00Z" {
		t.Errorf("CreateReading() = %+v", rd)
	}

	e := sink.events[len(sink.events)-1]
	if e.Type != EventReadingCreated || e.Reading == nil || e.Sensor == nil || e.Sensor.Type != TypeTemperature {
		t.Errorf("reading event = %+v", e)
	}

	_, err = reg.CreateReading(999, map[string]any{"timestamp": "2024-06-01T10:00:00Z", "value": 1.0})
	if !errors.Is(err, fault.ErrNotFound) || err.Error() != "Sensor with ID 999 not found" {
		t.Errorf("reading for missing sensor: error = %v", err)
	}

	_, err = reg.CreateReading(1, map[string]any{"timestamp": "2024-06-01T10:00:00Z", "value": "19.5"})
	if !errors.Is(err, fault.ErrValidation) {
		t.Errorf("string value: error = %v, want validation", err)
	}
}

func TestRegistry_ListReadings(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.CreateSensor(map[string]any{"location": "greenhouse", "type": "temperature", "status": "active"})
	reg.CreateSensor(map[string]any{"location": "cellar", "type": "humidity", "status": "active"})
	for i := 0; i < 4; i++ {
		reg.CreateReading(1+i%2, map[string]any{"timestamp": "2024-06-01", "value": float64(i)})
	}

	page, err := reg.ListReadings(url.Values{"type": {"humidity"}})
	if err != nil {
		t.Fatalf("ListReadings() error = %v", err)
	}
	if page.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", page.TotalItems)
	}

	if _, err := reg.ListReadings(url.Values{"minValue": {"50"}, "maxValue": {"10"}}); err == nil ||
		err.Error() != "minValue cannot exceed maxValue" {
		t.Errorf("inverted range: error = %v", err)
	}
}

func TestRegistry_Stats(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.CreateSensor(map[string]any{"location": "greenhouse", "type": "temperature", "status": "active"})
	reg.CreateSensor(map[string]any{"location": "cellar", "type": "temperature", "status": "inactive"})
	reg.CreateReading(1, map[string]any{"timestamp": "2024-06-01", "value": 1.0})

	stats := reg.Stats()
	if stats.TotalSensors != 2 || stats.TotalReadings != 1 {
		t.Errorf("totals = %d sensors, %d readings", stats.TotalSensors, stats.TotalReadings)
	}
	if stats.ByType[TypeTemperature] != 2 {
		t.Errorf("ByType[temperature] = %d, want 2", stats.ByType[TypeTemperature])
	}
	if stats.ByStatus[StatusInactive] != 1 {
		t.Errorf("ByStatus[inactive] = %d, want 1", stats.ByStatus[StatusInactive])
	}
}

func TestEventSinkFunc(t *testing.T) {
	reg := NewRegistry(NewStore(StoreOptions{}))
	var got EventType
	reg.AddSink(EventSinkFunc(func(e Event) { got = e.Type }))

	reg.CreateSensor(map[string]any{"location": "greenhouse", "type": "temperature", "status": "active"})
	if got != EventSensorCreated {
		t.Errorf("sink saw %q, want %q", got, EventSensorCreated)
	}
}
