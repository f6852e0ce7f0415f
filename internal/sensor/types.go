package sensor

import "time"

// Type is the kind of quantity a sensor measures.
type Type string

// Sensor types.
const (
	TypeTemperature Type = "temperature"
	TypeHumidity    Type = "humidity"
	TypeMoisture    Type = "moisture"
)

// AllTypes returns every valid sensor type in declaration order.
func AllTypes() []Type {
	return []Type{TypeTemperature, TypeHumidity, TypeMoisture}
}

// Status is the operational state of a sensor.
type Status string

// Sensor statuses.
const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// AllStatuses returns every valid sensor status in declaration order.
func AllStatuses() []Status {
	return []Status{StatusActive, StatusInactive}
}

// Sensor is a simulated IoT device record.
type Sensor struct {
	ID       int    `json:"id"`
	Location string `json:"location"`
	Type     Type   `json:"type"`
	Status   Status `json:"status"`
}

// Reading is one timestamped measurement attributed to a sensor.
//
// Timestamp keeps the text the reading was submitted with. SensorID is a
// weak reference: the sensor may since have been deleted.
type Reading struct {
	ID        int     `json:"id"`
	SensorID  int     `json:"sensorId"`
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`

	at time.Time
}

// Time returns the instant of the reading's timestamp. Readings built by
// the Store carry it already; others have Timestamp parsed on demand, and
// the boolean is false when that text is not a valid timestamp.
func (r Reading) Time() (time.Time, bool) {
	if !r.at.IsZero() {
		return r.at, true
	}
	t, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SensorInput is a validated sensor payload.
type SensorInput struct {
	Location string
	Type     Type
	Status   Status
}

// ReadingInput is a validated reading payload.
type ReadingInput struct {
	Timestamp string
	At        time.Time
	Value     float64
}

// EventType names a registry mutation.
type EventType string

// Event types emitted by the Registry.
const (
	EventSensorCreated  EventType = "sensor.created"
	EventSensorUpdated  EventType = "sensor.updated"
	EventSensorDeleted  EventType = "sensor.deleted"
	EventReadingCreated EventType = "reading.created"
)

// AllEventTypes returns every event type the Registry emits.
func AllEventTypes() []EventType {
	return []EventType{EventSensorCreated, EventSensorUpdated, EventSensorDeleted, EventReadingCreated}
}

// Event describes a completed mutation. Sensor is always set; for
// reading.created it is the reading's parent sensor.
type Event struct {
	Type    EventType `json:"type"`
	Sensor  *Sensor   `json:"sensor,omitempty"`
	Reading *Reading  `json:"reading,omitempty"`
	At      time.Time `json:"at"`
}

// EventSink receives registry events. HandleEvent runs synchronously after
// the mutation is committed. It must not block or modify the event.
type EventSink interface {
	HandleEvent(Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(Event)

// HandleEvent calls f(e).
func (f EventSinkFunc) HandleEvent(e Event) {
	f(e)
}
