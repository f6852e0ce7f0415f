package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/sensorhub/internal/infrastructure/config"
)

// fakeInflux answers /ping and records line-protocol write bodies.
type fakeInflux struct {
	mu     sync.Mutex
	writes []string
	query  string
	srv    *httptest.Server
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()
	f := &fakeInflux{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ping"):
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/write"):
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.writes = append(f.writes, string(body))
			f.query = r.URL.RawQuery
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.writes, "\n")
}

func (f *fakeInflux) config() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           f.srv.URL,
		Token:         "test-token",
		Org:           "lab",
		Bucket:        "readings",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: url, Org: "lab", Bucket: "readings"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_AndHealthCheck(t *testing.T) {
	f := newFakeInflux(t)

	client, err := Connect(f.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteReading(t *testing.T) {
	f := newFakeInflux(t)

	client, err := Connect(f.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	client.WriteReading(ReadingPoint{
		SensorID: 3,
		Type:     "temperature",
		Location: "greenhouse",
		Value:    21.5,
		At:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.body() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	body := f.body()
	for _, want := range []string{"sensor_readings,", "sensor_id=3", "type=temperature", "location=greenhouse", "value=21.5", "1709294400000000000"} {
		if !strings.Contains(body, want) {
			t.Errorf("write body %q missing %q", body, want)
		}
	}
	if !strings.Contains(f.query, "bucket=readings") || !strings.Contains(f.query, "org=lab") {
		t.Errorf("write query = %q", f.query)
	}
}

func TestWriteReading_AfterClose(t *testing.T) {
	f := newFakeInflux(t)

	client, err := Connect(f.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	// Must not panic or block.
	client.WriteReading(ReadingPoint{SensorID: 1, Type: "humidity", Location: "cellar", Value: 1, At: time.Now()})
	client.Flush()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestNewReadingPoint(t *testing.T) {
	p := newReadingPoint(ReadingPoint{
		SensorID: 12,
		Type:     "moisture",
		Location: "north bed",
		Value:    40,
		At:       time.Unix(1700000000, 0),
	})

	got := strings.TrimSpace(write.PointToLineProtocol(p, time.Second))
	want := `sensor_readings,location=north\ bed,sensor_id=12,type=moisture value=40 1700000000`
	if got != want {
		t.Errorf("line protocol = %q, want %q", got, want)
	}
}
