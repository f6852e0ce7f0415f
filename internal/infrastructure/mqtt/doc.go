// Package mqtt provides MQTT connectivity for the sensor hub.
//
// The hub uses the broker in two directions: devices publish readings to
// ingest topics, and the hub publishes sensor and reading events for
// downstream consumers. See Topics for the hierarchy.
//
// This package manages:
//   - Connection with auto-reconnect and subscription restore
//   - Publishing with QoS validation and a 1MB payload cap
//   - Wildcard subscriptions with panic-safe handler dispatch
//   - Last Will and Testament on {prefix}/system/status
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllIngestReadings(), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
//
// Use TLS (mqtt.broker.tls) for any broker reachable beyond localhost.
package mqtt
