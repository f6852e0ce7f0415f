// Sensor Hub - IoT sensor registry and reading query service
//
// This is the main entry point for the sensor hub. It serves the REST and
// WebSocket API over an in-memory sensor registry and optionally:
//   - ingests readings and publishes registry events over MQTT
//   - exports readings to InfluxDB
//   - exposes Prometheus metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nerrad567/sensorhub/internal/api"
	"github.com/nerrad567/sensorhub/internal/bridges/mqttbridge"
	"github.com/nerrad567/sensorhub/internal/infrastructure/config"
	"github.com/nerrad567/sensorhub/internal/infrastructure/influxdb"
	"github.com/nerrad567/sensorhub/internal/infrastructure/logging"
	"github.com/nerrad567/sensorhub/internal/infrastructure/metrics"
	"github.com/nerrad567/sensorhub/internal/infrastructure/mqtt"
	"github.com/nerrad567/sensorhub/internal/sensor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when SENSORHUB_CONFIG is unset and the file exists.
	defaultConfigPath = "configs/config.yaml"

	// defaultEnvPath is loaded when SENSORHUB_ENV_FILE is unset and the file exists.
	defaultEnvPath = ".env"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting sensor hub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	envPath, err := loadEnvFile()
	if err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	if envPath != "" {
		log.Info("environment loaded", "path", envPath)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath == "" {
		log.Info("no configuration file, using defaults")
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	store := sensor.NewStore(sensor.StoreOptions{CascadeDeletes: cfg.Store.CascadeDeletes})
	registry := sensor.NewRegistry(store)
	registry.SetLogger(log.With("component", "registry"))
	log.Info("sensor registry initialised", "cascade_deletes", cfg.Store.CascadeDeletes)

	var metricsRegistry *metrics.Registry
	if cfg.Metrics.Enabled {
		metricsRegistry = metrics.New()
		if err := metricsRegistry.RegisterStoreGauges(store.Counts); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		registry.AddSink(metricsSink{metrics: metricsRegistry})
		log.Info("metrics enabled")
	} else {
		log.Info("metrics disabled")
	}

	checks := make(map[string]api.HealthChecker)

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		checks["mqtt"] = mqttClient

		bridge, err := startMQTTBridge(ctx, cfg.MQTT, mqttClient, registry, metricsRegistry, log)
		if err != nil {
			return fmt.Errorf("starting MQTT bridge: %w", err)
		}
		defer bridge.Stop()
		registry.AddSink(bridge)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		registry.AddSink(influxSink{writer: influxClient})
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.With("component", "api"),
		Registry: registry,
		Metrics:  metricsRegistry,
		Checks:   checks,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	registry.AddSink(server.Hub())

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT bridge, then MQTT client (if enabled)

	log.Info("sensor hub stopped")
	return nil
}

// loadEnvFile loads SENSORHUB_ENV_FILE, or ./.env when present, into the
// process environment without overriding variables that are already set.
// It returns the loaded path, or "" when there was nothing to load.
func loadEnvFile() (string, error) {
	if path := os.Getenv("SENSORHUB_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return "", err
		}
		return path, nil
	}

	if _, err := os.Stat(defaultEnvPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if err := godotenv.Load(defaultEnvPath); err != nil {
		return "", err
	}
	return defaultEnvPath, nil
}

// getConfigPath returns the configuration file path.
// Uses SENSORHUB_CONFIG if set, otherwise the default path when it exists,
// otherwise "" (defaults and environment only).
func getConfigPath() string {
	if path := os.Getenv("SENSORHUB_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// startMQTTBridge creates and starts the MQTT bridge.
func startMQTTBridge(ctx context.Context, cfg config.MQTTConfig, client *mqtt.Client, registry *sensor.Registry, m *metrics.Registry, log *logging.Logger) (*mqttbridge.Bridge, error) {
	opts := mqttbridge.Options{
		Client:   client,
		Readings: registry,
		Topics:   client.Topics(),
		QoS:      client.QoS(),
		Ingest:   cfg.Ingest,
		Logger:   log.With("component", "mqttbridge"),
	}
	// A nil *metrics.Registry must not become a non-nil interface.
	if m != nil {
		opts.Metrics = m
	}

	bridge, err := mqttbridge.New(opts)
	if err != nil {
		return nil, fmt.Errorf("creating MQTT bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return nil, err
	}
	return bridge, nil
}

// readingWriter is the part of *influxdb.Client used by influxSink.
type readingWriter interface {
	WriteReading(influxdb.ReadingPoint)
}

// influxSink exports created readings to InfluxDB. Other events are ignored.
type influxSink struct {
	writer readingWriter
}

// HandleEvent implements sensor.EventSink.
func (s influxSink) HandleEvent(e sensor.Event) {
	if e.Type != sensor.EventReadingCreated || e.Reading == nil || e.Sensor == nil {
		return
	}
	at, ok := e.Reading.Time()
	if !ok {
		return
	}
	s.writer.WriteReading(influxdb.ReadingPoint{
		SensorID: e.Sensor.ID,
		Type:     string(e.Sensor.Type),
		Location: e.Sensor.Location,
		Value:    e.Reading.Value,
		At:       at,
	})
}

// metricsSink counts registry events.
type metricsSink struct {
	metrics *metrics.Registry
}

// HandleEvent implements sensor.EventSink.
func (s metricsSink) HandleEvent(e sensor.Event) {
	s.metrics.RecordEvent(string(e.Type))
}
