// Package influxdb exports sensor readings to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. Each reading becomes
// a point in the sensor_readings measurement tagged with sensor_id, type
// and location, carrying a single value field at the reading's timestamp.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteReading(influxdb.ReadingPoint{
//	    SensorID: 3, Type: "temperature", Location: "greenhouse",
//	    Value: 21.5, At: at,
//	})
//
// Writes are batched according to influxdb.batch_size and
// influxdb.flush_interval. Write failures are delivered asynchronously to
// the SetOnError callback.
package influxdb
