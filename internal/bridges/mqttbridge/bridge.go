package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/sensorhub/internal/fault"
	"github.com/nerrad567/sensorhub/internal/infrastructure/metrics"
	"github.com/nerrad567/sensorhub/internal/infrastructure/mqtt"
	"github.com/nerrad567/sensorhub/internal/sensor"
)

// defaultQueueSize is the number of events buffered for publishing.
const defaultQueueSize = 256

// ErrInvalidMessage is returned for ingest messages that cannot be decoded.
var ErrInvalidMessage = errors.New("invalid ingest message")

// MQTTClient is the subset of *mqtt.Client used by the bridge.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// ReadingCreator stores readings submitted over MQTT.
// Satisfied by *sensor.Registry.
type ReadingCreator interface {
	CreateReading(sensorID int, raw map[string]any) (sensor.Reading, error)
}

// IngestRecorder counts ingest results. Satisfied by *metrics.Registry.
type IngestRecorder interface {
	RecordIngest(result string)
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopRecorder struct{}

func (noopRecorder) RecordIngest(string) {}

// Options configures a Bridge.
type Options struct {
	// Client is the connected MQTT client. Required.
	Client MQTTClient

	// Readings receives ingested readings. Required when Ingest is true.
	Readings ReadingCreator

	// Topics names the ingest and event topics.
	Topics mqtt.Topics

	// QoS is used for both the ingest subscription and event publishing.
	QoS byte

	// Ingest enables the reading ingest subscription.
	Ingest bool

	// QueueSize bounds the publish queue. Defaults to 256.
	QueueSize int

	// Metrics is optional.
	Metrics IngestRecorder

	// Logger is optional.
	Logger Logger
}

// Stats is a snapshot of bridge counters.
type Stats struct {
	Received      uint64 `json:"received"`
	Accepted      uint64 `json:"accepted"`
	Rejected      uint64 `json:"rejected"`
	Published     uint64 `json:"published"`
	PublishErrors uint64 `json:"publish_errors"`
	Dropped       uint64 `json:"dropped"`
}

// Bridge connects the registry to MQTT in both directions: it turns ingest
// messages into readings and publishes registry events.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	client   MQTTClient
	readings ReadingCreator
	topics   mqtt.Topics
	qos      byte
	ingest   bool
	metrics  IngestRecorder
	logger   Logger

	queue    chan sensor.Event
	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}

	received, accepted, rejected    atomic.Uint64
	published, publishErrs, dropped atomic.Uint64
}

// New creates a bridge. Call Start to subscribe and begin publishing.
//
// Parameters:
//   - opts: Client, topics and QoS; Readings is required when Ingest is set
//
// Returns:
//   - *Bridge: Bridge ready to Start
//   - error: If a required dependency is missing
func New(opts Options) (*Bridge, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Ingest && opts.Readings == nil {
		return nil, fmt.Errorf("reading creator is required when ingest is enabled")
	}

	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	b := &Bridge{
		client:   opts.Client,
		readings: opts.Readings,
		topics:   opts.Topics,
		qos:      opts.QoS,
		ingest:   opts.Ingest,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		queue:    make(chan sensor.Event, queueSize),
		done:     make(chan struct{}),
	}
	if b.metrics == nil {
		b.metrics = noopRecorder{}
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}
	return b, nil
}

// Start subscribes to the ingest topic (when enabled) and starts the
// publish worker, which runs until ctx is cancelled or Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	if b.ingest {
		topic := b.topics.AllIngestReadings()
		if err := b.client.Subscribe(topic, b.qos, b.handleIngest); err != nil {
			return fmt.Errorf("subscribe to ingest: %w", err)
		}
		b.logger.Info("subscribed to reading ingest", "topic", topic)
	}

	b.wg.Add(1)
	go b.publishLoop(ctx)

	b.logger.Info("MQTT bridge started", "ingest", b.ingest, "events", b.topics.AllEvents())
	return nil
}

// Stop drains queued events and stops the publish worker.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		b.logger.Info("MQTT bridge stopped")
	})
}

// HandleEvent queues e for publishing. Events are dropped when the queue
// is full or the bridge has stopped.
func (b *Bridge) HandleEvent(e sensor.Event) {
	select {
	case <-b.done:
		b.dropped.Add(1)
		return
	default:
	}

	select {
	case b.queue <- e:
	default:
		b.dropped.Add(1)
		b.logger.Warn("MQTT event queue full, dropping event", "type", e.Type)
	}
}

// Stats returns current counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Received:      b.received.Load(),
		Accepted:      b.accepted.Load(),
		Rejected:      b.rejected.Load(),
		Published:     b.published.Load(),
		PublishErrors: b.publishErrs.Load(),
		Dropped:       b.dropped.Load(),
	}
}

func (b *Bridge) publishLoop(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case e := <-b.queue:
			b.publish(e)
		case <-ctx.Done():
			return
		case <-b.done:
			for {
				select {
				case e := <-b.queue:
					b.publish(e)
				default:
					return
				}
			}
		}
	}
}

func (b *Bridge) publish(e sensor.Event) {
	topic, ok := b.eventTopic(e)
	if !ok {
		return
	}

	payload, err := json.Marshal(e)
	if err != nil {
		b.publishErrs.Add(1)
		b.logger.Error("failed to encode event", "type", e.Type, "error", err)
		return
	}

	if err := b.client.Publish(topic, payload, b.qos, false); err != nil {
		b.publishErrs.Add(1)
		b.logger.Warn("failed to publish event", "topic", topic, "error", err)
		return
	}
	b.published.Add(1)
}

// eventTopic maps e to its topic: reading events go to the sensor's
// readings topic, sensor events to the sensor topic.
func (b *Bridge) eventTopic(e sensor.Event) (string, bool) {
	switch {
	case e.Type == sensor.EventReadingCreated && e.Reading != nil:
		return b.topics.ReadingEvents(e.Reading.SensorID), true
	case e.Sensor != nil:
		return b.topics.SensorEvents(e.Sensor.ID), true
	default:
		return "", false
	}
}

// handleIngest turns one ingest message into a reading.
func (b *Bridge) handleIngest(topic string, payload []byte) error {
	b.received.Add(1)

	rawID, ok := b.topics.ParseIngestTopic(topic)
	if !ok {
		return b.reject(metrics.IngestInvalid, fmt.Errorf("%w: unexpected topic %q", ErrInvalidMessage, topic))
	}
	sensorID, ok := sensor.ParseID(rawID)
	if !ok {
		return b.reject(metrics.IngestInvalid, fmt.Errorf("%w: %s", ErrInvalidMessage, fault.NotFound(sensor.EntitySensor, rawID).Message))
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil || raw == nil {
		return b.reject(metrics.IngestInvalid, fmt.Errorf("%w: payload is not a JSON object", ErrInvalidMessage))
	}

	rd, err := b.readings.CreateReading(sensorID, raw)
	if err != nil {
		return b.reject(metrics.IngestRejected, err)
	}

	b.accepted.Add(1)
	b.metrics.RecordIngest(metrics.IngestAccepted)
	b.logger.Debug("reading ingested", "reading_id", rd.ID, "sensor_id", rd.SensorID)
	return nil
}

func (b *Bridge) reject(result string, err error) error {
	b.rejected.Add(1)
	b.metrics.RecordIngest(result)
	return err
}
