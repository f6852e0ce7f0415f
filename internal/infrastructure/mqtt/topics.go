package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when Topics.Prefix is empty.
const DefaultTopicPrefix = "sensorhub"

// Topics builds the hub's MQTT topic names under a configurable prefix.
//
// Topic hierarchy:
//
//	{prefix}/system/status                       online/offline (retained, LWT)
//	{prefix}/ingest/sensors/{id}/readings        devices submit readings
//	{prefix}/events/sensors/{id}                 sensor created/updated/deleted
//	{prefix}/events/sensors/{id}/readings        reading created
//
// Example:
//
//	topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}
//	topics.ReadingEvents(3) // "sensorhub/events/sensors/3/readings"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// SystemStatus returns the retained status topic used for LWT.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// IngestReadings returns the topic a device publishes readings to.
func (t Topics) IngestReadings(sensorID int) string {
	return fmt.Sprintf("%s/ingest/sensors/%d/readings", t.prefix(), sensorID)
}

// AllIngestReadings returns the wildcard subscription for reading ingest.
func (t Topics) AllIngestReadings() string {
	return t.prefix() + "/ingest/sensors/+/readings"
}

// SensorEvents returns the topic sensor lifecycle events are published to.
func (t Topics) SensorEvents(sensorID int) string {
	return fmt.Sprintf("%s/events/sensors/%d", t.prefix(), sensorID)
}

// ReadingEvents returns the topic new readings of a sensor are published to.
func (t Topics) ReadingEvents(sensorID int) string {
	return fmt.Sprintf("%s/events/sensors/%d/readings", t.prefix(), sensorID)
}

// AllEvents returns the wildcard subscription for every published event.
func (t Topics) AllEvents() string {
	return t.prefix() + "/events/#"
}

// ParseIngestTopic extracts the sensor id segment from an ingest topic.
// The segment is returned verbatim; callers decide whether it is a valid id.
func (t Topics) ParseIngestTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.prefix()+"/ingest/sensors/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/readings")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
