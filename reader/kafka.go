package reader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hugolhafner/dskit/backoff"

	"github.com/calyxdb/routineload/kafka"
	"github.com/calyxdb/routineload/logger"
	"github.com/calyxdb/routineload/queue"
)

var _ Reader = (*KafkaReader)(nil)

type KafkaReaderConfig struct {
	Logger logger.Logger

	// PollErrorBackoff paces re-polls after a transient fetch error.
	PollErrorBackoff backoff.Backoff

	// MaxPollErrors bounds consecutive poll failures before the reader gives
	// up and surfaces the error to the group.
	MaxPollErrors uint
}

func defaultKafkaReaderConfig() KafkaReaderConfig {
	return KafkaReaderConfig{
		Logger:           logger.NewNoopLogger(),
		PollErrorBackoff: backoff.NewFixed(250 * time.Millisecond),
		MaxPollErrors:    3,
	}
}

type KafkaReaderOption func(*KafkaReaderConfig)

func WithLogger(l logger.Logger) KafkaReaderOption {
	return func(cfg *KafkaReaderConfig) {
		cfg.Logger = l
	}
}

func WithPollErrorBackoff(b backoff.Backoff) KafkaReaderOption {
	return func(cfg *KafkaReaderConfig) {
		if b != nil {
			cfg.PollErrorBackoff = b
		}
	}
}

func WithMaxPollErrors(n uint) KafkaReaderOption {
	return func(cfg *KafkaReaderConfig) {
		cfg.MaxPollErrors = n
	}
}

// KafkaReader reads its assigned partitions through a kafka.PartitionClient.
// Cancellation is cooperative: Cancel cuts the run context, and the poll
// timeout bounds how long a running poll can outlive it.
type KafkaReader struct {
	id     string
	client kafka.PartitionClient
	config KafkaReaderConfig
	logger logger.Logger

	mu        sync.Mutex
	assigned  bool
	running   bool
	cancelled bool
	cancelRun context.CancelFunc

	topic      string
	assignment kafka.Assignment
}

func NewKafkaReader(id string, client kafka.PartitionClient, opts ...KafkaReaderOption) *KafkaReader {
	cfg := defaultKafkaReaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &KafkaReader{
		id:     id,
		client: client,
		config: cfg,
		logger: cfg.Logger.With("component", "reader", "reader", id),
	}
}

func (r *KafkaReader) ID() string {
	return r.id
}

func (r *KafkaReader) Assign(topic string, assignment kafka.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.assigned {
		return fmt.Errorf("reader %s: already assigned", r.id)
	}

	if err := r.client.AssignPartitions(topic, assignment); err != nil {
		return fmt.Errorf("reader %s: assign partitions: %w", r.id, err)
	}

	r.assigned = true
	r.topic = topic
	r.assignment = assignment.Clone()

	r.logger.Info("Assigned partitions", "topic", topic, "partitions", assignment.Partitions())

	return nil
}

func (r *KafkaReader) Run(ctx context.Context, q *queue.Timed[*kafka.Record], budget time.Duration) error {
	r.mu.Lock()
	if !r.assigned {
		r.mu.Unlock()
		return fmt.Errorf("reader %s: run before assign", r.id)
	}
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reader %s: already running", r.id)
	}
	if r.cancelled {
		r.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithTimeout(ctx, budget)
	r.running = true
	r.cancelRun = cancel
	r.mu.Unlock()

	defer cancel()

	r.logger.Debug("Reader started", "budget", budget)

	var pushed int64
	var pollErrs uint
	for {
		select {
		case <-runCtx.Done():
			r.logger.Debug("Reader done", "reason", runCtx.Err(), "records", pushed)
			return nil
		default:
		}

		records, err := r.client.Poll(runCtx)
		if err != nil {
			if runCtx.Err() != nil {
				return nil
			}

			pollErrs++
			if pollErrs > r.config.MaxPollErrors {
				return fmt.Errorf("reader %s: poll: %w", r.id, err)
			}

			r.logger.Warn("Transient poll error", "error", err, "attempt", pollErrs)
			select {
			case <-runCtx.Done():
				return nil
			case <-time.After(r.config.PollErrorBackoff.Next(pollErrs - 1)):
			}
			continue
		}
		pollErrs = 0

		for _, record := range records {
			if !q.Put(record) {
				// The group sealed the batch; remaining records belong to the
				// next task.
				r.logger.Debug("Shared queue shut down, stopping", "records", pushed)
				return nil
			}
			pushed++
		}
	}
}

func (r *KafkaReader) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelled = true
	if r.cancelRun != nil {
		r.cancelRun()
	}
}
