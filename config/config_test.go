//go:build unit

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routineload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, "routineload", cfg.ClientID)
	assert.Equal(t, 3, cfg.Readers)
	assert.Equal(t, 500, cfg.QueueCapacity)
	assert.Equal(t, time.Second, cfg.PollTimeout)
	assert.Equal(t, 500, cfg.MaxPollRecords)
	assert.Equal(t, int32(16<<20), cfg.FetchMaxBytes)
	assert.Equal(t, 10*time.Second, cfg.MaxBatchInterval)
	assert.Equal(t, int64(100<<20), cfg.MaxBatchBytes)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
schema_version: v1
brokers:
  - kafka-1:9092
  - kafka-2:9092
client_id: calyx-node-3
readers: 8
max_batch_interval: 30s
max_batch_bytes: 1048576
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, "calyx-node-3", cfg.ClientID)
	assert.Equal(t, 8, cfg.Readers)
	assert.Equal(t, 30*time.Second, cfg.MaxBatchInterval)
	assert.Equal(t, int64(1<<20), cfg.MaxBatchBytes)

	// Unset keys still fall back.
	assert.Equal(t, 500, cfg.QueueCapacity)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "routineload", cfg.ClientID)
}

func TestLoad_UnsupportedSchemaVersion(t *testing.T) {
	path := writeConfig(t, "schema_version: v2\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "schema_version")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
schema_version: v1
client_id: from-file
readers: 2
`)

	t.Setenv("ROUTINELOAD__CLIENT_ID", "from-env")
	t.Setenv("ROUTINELOAD__QUEUE_CAPACITY", "64")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.ClientID)
	assert.Equal(t, 64, cfg.QueueCapacity)
	assert.Equal(t, 2, cfg.Readers, "file value survives when env does not override")
}
