// Package api implements the HTTP REST API and WebSocket server for the
// sensor hub.
//
// This package provides:
//   - REST endpoints for sensor CRUD, per-sensor readings and the paginated
//     reading query
//   - WebSocket hub broadcasting registry events to subscribed clients
//   - Middleware stack (request ID, logging and metrics, recovery, CORS, body limit)
//   - Health, stats and Prometheus endpoints
//
// # Errors
//
// Every failure is rendered by one envelope builder:
//
//	{"timestamp": "...", "requestId": "...", "path": "/api/v1/sensors/9",
//	 "method": "GET", "status": 404,
//	 "message": "Sensor with ID 9 not found", "error": "Sensor with ID 9 not found"}
//
// The status comes from the fault kind. A stack field is added only when
// api.verbose_errors is enabled.
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	registry.AddSink(server.Hub())
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
