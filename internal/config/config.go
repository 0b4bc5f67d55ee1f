// Package config loads the service's process configuration from the
// environment, per §6's enumerated variable list. No example repo in the
// pack carries an env-struct library (envconfig, viper) specialized enough
// to warrant a dependency for ~20 scalar fields; this is a deliberate
// stdlib-only component (see DESIGN.md).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store holds the document store connection settings.
type Store struct {
	Host       string
	Port       int
	DB         string
	User       string
	Pass       string
	AuthSource string
}

// Broker holds the pub/sub connection settings.
type Broker struct {
	Endpoint   string
	PubSubName string
	AppID      string
}

// Identity holds the service's self-description, used in logs and traces.
type Identity struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// Observability holds logging and tracing toggles.
type Observability struct {
	EnableTracing        bool
	OTELExporterEndpoint string
	LogLevel             string
	LogFormat            string
}

// Config is the fully resolved process configuration, built once at
// startup and passed explicitly into every component's constructor (§9's
// "re-architect global singletons as explicit dependencies").
type Config struct {
	Store         Store
	Broker        Broker
	Identity      Identity
	Observability Observability

	BulkImportBatchSize   int
	OutboundHTTPTimeoutMS int
}

// Load reads every variable in §6's configuration table from the
// environment, applying the documented defaults where a variable is unset.
func Load() (*Config, error) {
	cfg := &Config{
		Store: Store{
			Host:       getenv("STORE_HOST", "localhost"),
			Port:       0,
			DB:         getenv("STORE_DB", "productcatalog"),
			User:       os.Getenv("STORE_USER"),
			Pass:       os.Getenv("STORE_PASS"),
			AuthSource: os.Getenv("STORE_AUTH_SOURCE"),
		},
		Broker: Broker{
			Endpoint:   getenv("BROKER_ENDPOINT", "localhost:6379"),
			PubSubName: getenv("BROKER_PUBSUB_NAME", "product-events"),
			AppID:      getenv("BROKER_APP_ID", "product-catalog-core"),
		},
		Identity: Identity{
			ServiceName:    getenv("SERVICE_NAME", "product-catalog-core"),
			ServiceVersion: getenv("SERVICE_VERSION", "dev"),
			Environment:    getenv("ENVIRONMENT", "development"),
		},
		Observability: Observability{
			LogLevel:             getenv("LOG_LEVEL", "info"),
			LogFormat:            getenv("LOG_FORMAT", "json"),
			OTELExporterEndpoint: os.Getenv("OTEL_EXPORTER_ENDPOINT"),
		},
		BulkImportBatchSize:   100,
		OutboundHTTPTimeoutMS: 5000,
	}

	port, err := getenvInt("STORE_PORT", 5432)
	if err != nil {
		return nil, err
	}
	cfg.Store.Port = port

	tracing, err := getenvBool("ENABLE_TRACING", false)
	if err != nil {
		return nil, err
	}
	cfg.Observability.EnableTracing = tracing

	if v := os.Getenv("BULK_IMPORT_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BULK_IMPORT_BATCH_SIZE: %w", err)
		}
		cfg.BulkImportBatchSize = n
	}
	if v := os.Getenv("OUTBOUND_HTTP_TIMEOUT_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("OUTBOUND_HTTP_TIMEOUT_MS: %w", err)
		}
		cfg.OutboundHTTPTimeoutMS = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Identity.ServiceName) == "" {
		return fmt.Errorf("SERVICE_NAME must not be empty")
	}
	switch c.Observability.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be one of console, json, got %q", c.Observability.LogFormat)
	}
	if c.BulkImportBatchSize <= 0 {
		return fmt.Errorf("BULK_IMPORT_BATCH_SIZE must be > 0")
	}
	if c.OutboundHTTPTimeoutMS <= 0 {
		return fmt.Errorf("OUTBOUND_HTTP_TIMEOUT_MS must be > 0")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
