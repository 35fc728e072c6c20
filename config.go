package routineload

import (
	"time"

	"github.com/calyxdb/routineload/config"
	"github.com/calyxdb/routineload/kafka"
	"github.com/calyxdb/routineload/logger"
	rlotel "github.com/calyxdb/routineload/otel"
)

// ClientFactory creates the source-stream client one reader runs on.
// Overridable so tests can supply in-memory clients.
type ClientFactory func(id string) (kafka.PartitionClient, error)

type Config struct {
	BootstrapServers []string
	ClientID         string

	// Readers is the maximum number of concurrent partition readers per
	// task; the effective count never exceeds the task's partition count.
	Readers       int
	QueueCapacity int

	PollTimeout    time.Duration
	MaxPollRecords int
	FetchMaxBytes  int32

	// Task defaults, used when a load task leaves its budgets unset.
	DefaultTimeBudget time.Duration
	DefaultByteBudget int64

	Logger    logger.Logger
	Telemetry *rlotel.Telemetry

	Clients ClientFactory
}

func defaultConfig() Config {
	return Config{
		BootstrapServers:  []string{"localhost:9092"},
		ClientID:          "routineload",
		Readers:           3,
		QueueCapacity:     500,
		PollTimeout:       time.Second,
		MaxPollRecords:    500,
		FetchMaxBytes:     16 << 20,
		DefaultTimeBudget: 10 * time.Second,
		DefaultByteBudget: 100 << 20,
		Logger:            logger.NewNoopLogger(),
		Telemetry:         rlotel.NewNoopTelemetry(),
	}
}

// FromConfig maps a loaded deployment config onto a pipeline Config.
func FromConfig(fc config.Config) Config {
	cfg := defaultConfig()
	cfg.BootstrapServers = fc.Brokers
	cfg.ClientID = fc.ClientID
	cfg.Readers = fc.Readers
	cfg.QueueCapacity = fc.QueueCapacity
	cfg.PollTimeout = fc.PollTimeout
	cfg.MaxPollRecords = fc.MaxPollRecords
	cfg.FetchMaxBytes = fc.FetchMaxBytes
	cfg.DefaultTimeBudget = fc.MaxBatchInterval
	cfg.DefaultByteBudget = fc.MaxBatchBytes
	return cfg
}

type ConfigOption func(*Config)

func WithBootstrapServers(servers []string) ConfigOption {
	return func(c *Config) {
		c.BootstrapServers = servers
	}
}

func WithReaderCount(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.Readers = n
		}
	}
}

func WithQueueCapacity(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.QueueCapacity = n
		}
	}
}

func WithLogger(l logger.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = l
	}
}

func WithTelemetry(t *rlotel.Telemetry) ConfigOption {
	return func(c *Config) {
		if t != nil {
			c.Telemetry = t
		}
	}
}

// WithClientFactory overrides how reader clients are built.
func WithClientFactory(f ClientFactory) ConfigOption {
	return func(c *Config) {
		c.Clients = f
	}
}
