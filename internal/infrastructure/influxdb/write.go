package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementReadings is the measurement sensor readings are written to.
const MeasurementReadings = "sensor_readings"

// ReadingPoint is one sensor reading to export.
type ReadingPoint struct {
	SensorID int
	Type     string
	Location string
	Value    float64
	At       time.Time
}

// newReadingPoint builds the line-protocol point for r: tags sensor_id,
// type and location, field value, timestamped at the reading's instant.
func newReadingPoint(r ReadingPoint) *write.Point {
	return write.NewPoint(
		MeasurementReadings,
		map[string]string{
			"sensor_id": strconv.Itoa(r.SensorID),
			"type":      r.Type,
			"location":  r.Location,
		},
		map[string]interface{}{
			"value": r.Value,
		},
		r.At,
	)
}

// WriteReading queues a reading for export.
//
// The write is non-blocking: points are batched and flushed by the write
// API, and failures are reported through SetOnError. Readings written
// after Close are dropped.
//
// Parameters:
//   - r: Reading to export as one sensor_readings point
func (c *Client) WriteReading(r ReadingPoint) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(newReadingPoint(r))
}
