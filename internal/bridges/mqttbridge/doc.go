// Package mqttbridge connects the sensor registry to MQTT.
//
// Ingest: messages on <prefix>/ingest/sensors/<id>/readings carrying
// {"timestamp": ..., "value": ...} are stored as readings of sensor <id>
// with the same validation as the HTTP API.
//
// Events: the bridge is a sensor.EventSink. Sensor events are published to
// <prefix>/events/sensors/<id> and reading events to
// <prefix>/events/sensors/<id>/readings, non-retained. Publishing happens on
// a worker goroutine behind a bounded queue so registry operations never
// wait on the broker.
//
//	bridge, err := mqttbridge.New(mqttbridge.Options{
//	    Client:   mqttClient,
//	    Readings: registry,
//	    Topics:   mqttClient.Topics(),
//	    QoS:      mqttClient.QoS(),
//	    Ingest:   cfg.MQTT.Ingest,
//	})
//	if err := bridge.Start(ctx); err != nil { ... }
//	registry.AddSink(bridge)
//	defer bridge.Stop()
package mqttbridge
