package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sensorhub/internal/infrastructure/config"
)

// These tests run without a broker. Connection behaviour is exercised by
// the bridge tests through a fake client.

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "sensorhub-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "lab",
	}
}

// disconnectedClient returns a Client that never dialled a broker.
func disconnectedClient() *Client {
	return &Client{
		cfg:           testConfig(),
		topics:        Topics{Prefix: "lab"},
		subscriptions: make(map[string]subscription),
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{Prefix: "lab"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"SystemStatus", topics.SystemStatus(), "lab/system/status"},
		{"IngestReadings", topics.IngestReadings(7), "lab/ingest/sensors/7/readings"},
		{"AllIngestReadings", topics.AllIngestReadings(), "lab/ingest/sensors/+/readings"},
		{"SensorEvents", topics.SensorEvents(7), "lab/events/sensors/7"},
		{"ReadingEvents", topics.ReadingEvents(7), "lab/events/sensors/7/readings"},
		{"AllEvents", topics.AllEvents(), "lab/events/#"},
		{"DefaultPrefix", Topics{}.SystemStatus(), "sensorhub/system/status"},
		{"TrailingSlash", Topics{Prefix: "lab/"}.SensorEvents(1), "lab/events/sensors/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestParseIngestTopic(t *testing.T) {
	topics := Topics{Prefix: "lab"}

	tests := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"lab/ingest/sensors/12/readings", "12", true},
		{"lab/ingest/sensors/abc/readings", "abc", true},
		{"lab/ingest/sensors//readings", "", false},
		{"lab/ingest/sensors/1/2/readings", "", false},
		{"lab/ingest/sensors/12", "", false},
		{"other/ingest/sensors/12/readings", "", false},
		{"lab/events/sensors/12/readings", "", false},
	}

	for _, tt := range tests {
		id, ok := topics.ParseIngestTopic(tt.topic)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ParseIngestTopic(%q) = %q, %v; want %q, %v", tt.topic, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "hub", Password: "secret"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "sensorhub-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "hub" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Errorf("AutoReconnect = %v CleanSession = %v, want both true", opts.AutoReconnect, opts.CleanSession)
	}
	if opts.MaxReconnectInterval != 5*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 5s", opts.MaxReconnectInterval)
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Error("TLS configured for a plain tcp broker")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers[0] = %v, want ssl://127.0.0.1:8883", opts.Servers[0])
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion == 0 {
		t.Error("expected TLS config with a minimum version")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, Topics{Prefix: "lab"}, "sensorhub-test")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Errorf("WillEnabled = %v WillRetained = %v", opts.WillEnabled, opts.WillRetained)
	}
	if opts.WillTopic != "lab/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var p statusPayload
	if err := json.Unmarshal(opts.WillPayload, &p); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if p.Status != "offline" || p.Reason != "unexpected_disconnect" || p.ClientID != "sensorhub-test" {
		t.Errorf("will payload = %+v", p)
	}
}

func TestBuildStatusPayload(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got := string(buildStatusPayload("online", "hub", "", now))
	want := `{"status":"online","client_id":"hub","timestamp":"2024-06-01T12:00:00Z"}`
	if got != want {
		t.Errorf("payload = %s, want %s", got, want)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		qos     byte
		payload []byte
		want    error
	}{
		{"empty topic", "", 1, nil, ErrInvalidTopic},
		{"invalid qos", "lab/x", 3, nil, ErrInvalidQoS},
		{"oversized", "lab/x", 1, make([]byte, maxPayloadSize+1), ErrPublishFailed},
		{"disconnected", "lab/x", 1, []byte("{}"), ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := disconnectedClient()
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		want    error
	}{
		{"empty topic", "", 1, noop, ErrInvalidTopic},
		{"invalid qos", "lab/#", 5, noop, ErrInvalidQoS},
		{"nil handler", "lab/#", 1, nil, ErrSubscribeFailed},
		{"disconnected", "lab/#", 1, noop, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.want) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.want)
			}
		})
	}

	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes", c.SubscriptionCount())
	}
}

func TestHealthCheck(t *testing.T) {
	c := disconnectedClient()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	if err := disconnectedClient().Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDispatch_HandlerError(t *testing.T) {
	c := disconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	var gotTopic string
	c.dispatch("lab/ingest/sensors/1/readings", []byte("{}"), func(topic string, _ []byte) error {
		gotTopic = topic
		return errors.New("rejected")
	})

	if gotTopic != "lab/ingest/sensors/1/readings" {
		t.Errorf("handler topic = %q", gotTopic)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one entry", logger.warns)
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	c := disconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	c.dispatch("lab/x", nil, func(string, []byte) error {
		panic("boom")
	})

	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one panic entry", logger.errors)
	}
}

func TestDispatch_NoLogger(t *testing.T) {
	c := disconnectedClient()
	// Must not panic without a logger.
	c.dispatch("lab/x", nil, func(string, []byte) error { panic("boom") })
	c.dispatch("lab/x", nil, func(string, []byte) error { return errors.New("x") })
}

func TestCallbacks(t *testing.T) {
	c := disconnectedClient()
	var lost error
	c.SetOnDisconnect(func(err error) { lost = err })

	cause := errors.New("network down")
	c.handleDisconnect(cause)

	if !errors.Is(lost, cause) {
		t.Errorf("disconnect callback got %v, want %v", lost, cause)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}
