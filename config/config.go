// Package config loads deployment configuration for the routine-load
// pipeline from YAML merged with environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// SupportedSchema is the only accepted schema_version value.
	SupportedSchema = "v1"

	envPrefix    = "ROUTINELOAD__"
	envDelimiter = "__"
)

type Config struct {
	Brokers       []string `koanf:"brokers"`
	ClientID      string   `koanf:"client_id"`
	Readers       int      `koanf:"readers"`
	QueueCapacity int      `koanf:"queue_capacity"`

	PollTimeout    time.Duration `koanf:"poll_timeout"`
	MaxPollRecords int           `koanf:"max_poll_records"`
	FetchMaxBytes  int32         `koanf:"fetch_max_bytes"`

	// Task defaults, applied when the frontend does not override them.
	MaxBatchInterval time.Duration `koanf:"max_batch_interval"`
	MaxBatchBytes    int64         `koanf:"max_batch_bytes"`
}

// Load merges YAML (if present) with env vars (prefix `ROUTINELOAD__`,
// delimiter `__`) and applies defaults.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	// schema version check (only when YAML is present)
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return Config{}, fmt.Errorf("config schema_version %q not supported (want %q)", sv, SupportedSchema)
	}

	_ = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), envDelimiter, ".")
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(c *Config) {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.ClientID == "" {
		c.ClientID = "routineload"
	}
	if c.Readers == 0 {
		c.Readers = 3
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 500
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = time.Second
	}
	if c.MaxPollRecords == 0 {
		c.MaxPollRecords = 500
	}
	if c.FetchMaxBytes == 0 {
		c.FetchMaxBytes = 16 << 20
	}
	if c.MaxBatchInterval == 0 {
		c.MaxBatchInterval = 10 * time.Second
	}
	if c.MaxBatchBytes == 0 {
		c.MaxBatchBytes = 100 << 20
	}
}
