package group

import (
	"github.com/calyxdb/routineload/logger"
	rlotel "github.com/calyxdb/routineload/otel"
)

type Config struct {
	Logger        logger.Logger
	Telemetry     *rlotel.Telemetry
	QueueCapacity int
}

func defaultConfig() Config {
	return Config{
		Logger:        logger.NewNoopLogger(),
		Telemetry:     rlotel.NewNoopTelemetry(),
		QueueCapacity: 500,
	}
}

type Option func(*Config)

func WithLogger(l logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func WithTelemetry(t *rlotel.Telemetry) Option {
	return func(c *Config) {
		if t != nil {
			c.Telemetry = t
		}
	}
}

// WithQueueCapacity sets the shared record queue's capacity.
func WithQueueCapacity(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.QueueCapacity = n
		}
	}
}
