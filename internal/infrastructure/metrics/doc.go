// Package metrics exposes the hub's Prometheus metrics.
//
// Metrics:
//
//	sensorhub_http_requests_total{method,route,status}
//	sensorhub_http_request_duration_seconds{method,route}
//	sensorhub_sensors
//	sensorhub_readings
//	sensorhub_events_total{type}
//	sensorhub_ingest_messages_total{result}
//
// Go runtime and process collectors are registered as well. The route label
// is the chi route pattern, never the raw path, to keep cardinality bounded.
package metrics
