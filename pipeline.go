// Package routineload implements the streaming-ingestion half of a CalyxDB
// node: it continuously pulls records from partitions of an external message
// stream and turns them into time- and size-bounded batches for the storage
// write path, with a resumable per-partition checkpoint.
package routineload

import (
	"context"
	"fmt"
	"time"

	"github.com/calyxdb/routineload/group"
	"github.com/calyxdb/routineload/kafka"
	"github.com/calyxdb/routineload/load"
	"github.com/calyxdb/routineload/logger"
	"github.com/calyxdb/routineload/reader"
	"github.com/calyxdb/routineload/sink"
)

// Pipeline executes load tasks. Each Run builds a fresh set of readers and a
// reader group, so no state leaks between tasks.
type Pipeline struct {
	config Config
	logger logger.Logger
}

func NewPipeline(opts ...ConfigOption) *Pipeline {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return NewPipelineWithConfig(cfg)
}

func NewPipelineWithConfig(cfg Config) *Pipeline {
	return &Pipeline{
		config: cfg,
		logger: cfg.Logger.With("component", "pipeline"),
	}
}

// Run executes one load task to completion: assign partitions to readers,
// drain into the sink under the task's budgets, seal or discard the batch.
// See group.ReaderGroup.Run for the outcome contract.
func (p *Pipeline) Run(ctx context.Context, task *load.Context, s sink.Sink) error {
	if task.TimeBudget == 0 {
		task.TimeBudget = p.config.DefaultTimeBudget
	}
	if task.ByteBudget == 0 {
		task.ByteBudget = p.config.DefaultByteBudget
	}
	if err := task.Validate(); err != nil {
		return err
	}

	groupID := task.Label
	if groupID == "" {
		groupID = fmt.Sprintf("group-%d", time.Now().UnixNano())
	}

	readerCount := p.config.Readers
	if partitions := len(task.StartOffsets); readerCount > partitions {
		readerCount = partitions
	}
	if readerCount < 1 {
		readerCount = 1
	}

	newClient := p.config.Clients
	if newClient == nil {
		newClient = p.kgoClientFactory()
	}

	clients := make([]kafka.PartitionClient, 0, readerCount)
	defer func() {
		for _, client := range clients {
			client.Close()
		}
	}()

	readers := make([]reader.Reader, 0, readerCount)
	for i := 0; i < readerCount; i++ {
		id := fmt.Sprintf("%s-reader-%d", groupID, i)

		client, err := newClient(id)
		if err != nil {
			return fmt.Errorf("create client for %s: %w", id, err)
		}
		clients = append(clients, client)

		readers = append(readers, reader.NewKafkaReader(id, client, reader.WithLogger(p.config.Logger)))
	}

	g, err := group.New(
		groupID, readers,
		group.WithLogger(p.config.Logger),
		group.WithTelemetry(p.config.Telemetry),
		group.WithQueueCapacity(p.config.QueueCapacity),
	)
	if err != nil {
		return err
	}

	if err := g.Assign(task); err != nil {
		return err
	}

	p.logStartLag(ctx, clients[0], task)

	return g.Run(ctx, task, s)
}

// kgoClientFactory builds one franz-go client per reader, with the reader's
// id as the client id so broker-side logs can tell the readers apart.
func (p *Pipeline) kgoClientFactory() ClientFactory {
	return func(id string) (kafka.PartitionClient, error) {
		return kafka.NewKgoClient(
			kafka.WithBootstrapServers(p.config.BootstrapServers),
			kafka.WithClientID(fmt.Sprintf("%s-%s", p.config.ClientID, id)),
			kafka.WithPollTimeout(p.config.PollTimeout),
			kafka.WithMaxPollRecords(p.config.MaxPollRecords),
			kafka.WithFetchMaxBytes(p.config.FetchMaxBytes),
			kafka.WithLogger(p.config.Logger),
		)
	}
}

// logStartLag reports the distance between the task's start offsets and the
// source's high watermarks, so operators can see how far behind a routine
// load is running.
func (p *Pipeline) logStartLag(ctx context.Context, client kafka.PartitionClient, task *load.Context) {
	offsetsCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ends, err := client.EndOffsets(offsetsCtx, task.Topic, task.StartOffsets.Partitions())
	if err != nil {
		p.logger.Warn("Failed to fetch high watermarks", "topic", task.Topic, "error", err)
		return
	}

	var lag int64
	for partition, end := range ends {
		if start, ok := task.StartOffsets[partition]; ok && start >= 0 && end > start {
			lag += end - start
		}
	}

	p.logger.Info(
		"Load task starting",
		"label", task.Label,
		"topic", task.Topic,
		"partitions", len(task.StartOffsets),
		"lag", lag,
	)
}
