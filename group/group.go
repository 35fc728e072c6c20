// Package group orchestrates one routine-load invocation: it divides the
// task's partitions across a set of readers, runs them concurrently against
// a shared bounded queue, drains the queue into the intake sink under the
// task's time and byte budgets, and converts what the readers reported into
// the task's final outcome.
package group

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/calyxdb/routineload/kafka"
	"github.com/calyxdb/routineload/load"
	"github.com/calyxdb/routineload/logger"
	rlotel "github.com/calyxdb/routineload/otel"
	"github.com/calyxdb/routineload/queue"
	"github.com/calyxdb/routineload/reader"
	"github.com/calyxdb/routineload/sink"
)

// ErrNoData is the outcome of a task that received zero bytes: the batch is
// cancelled rather than sealed empty, and the checkpoint is left untouched.
var ErrNoData = errors.New("group: no data consumed")

// ReaderGroup owns a set of partition readers for the duration of load
// tasks. All drain state is created fresh per Run; only the readers and
// configuration persist on the struct.
type ReaderGroup struct {
	id      string
	readers []reader.Reader
	config  Config
	logger  logger.Logger

	// active holds the readers that received a non-empty partition subset,
	// set by Assign.
	active []reader.Reader
}

func New(id string, readers []reader.Reader, opts ...Option) (*ReaderGroup, error) {
	if len(readers) == 0 {
		return nil, errors.New("group: at least one reader is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &ReaderGroup{
		id:      id,
		readers: readers,
		config:  cfg,
		logger:  cfg.Logger.With("component", "reader-group", "group", id),
	}, nil
}

// Assign divides the task's partitions across the group's readers round
// robin and commits each reader to its subset. If any reader rejects its
// assignment the whole operation fails and no reading starts.
func (g *ReaderGroup) Assign(task *load.Context) error {
	if err := task.Validate(); err != nil {
		return err
	}

	subsets := divideAssignment(task.StartOffsets, len(g.readers))

	active := make([]reader.Reader, 0, len(g.readers))
	for i, r := range g.readers {
		if len(subsets[i]) == 0 {
			continue
		}
		if err := r.Assign(task.Topic, subsets[i]); err != nil {
			return fmt.Errorf("group %s: %w", g.id, err)
		}
		active = append(active, r)
	}

	g.active = active

	return nil
}

// Run executes the drain loop on the calling goroutine until the task's
// budgets are exhausted or all readers finished, then finalizes the batch.
//
// Outcomes: nil with the task's checkpoint and byte count updated and the
// sink finished; ErrNoData with the sink cancelled; or the first reader or
// append error, with the batch discarded and the sink left to the caller.
func (g *ReaderGroup) Run(ctx context.Context, task *load.Context, s sink.Sink) error {
	if g.active == nil {
		return fmt.Errorf("group %s: run before assign", g.id)
	}

	tel := g.config.Telemetry
	groupAttrs := metric.WithAttributes(rlotel.AttrGroupID.String(g.id))

	ctx, span := tel.Tracer.Start(
		ctx, "load.drain",
		trace.WithAttributes(rlotel.AttrGroupID.String(g.id)),
	)
	defer span.End()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.New[*kafka.Record](g.config.QueueCapacity)

	// The completion counter and first-error latch are the only state the
	// workers mutate; everything below them belongs to this goroutine.
	var mu sync.Mutex
	var firstErr error
	remaining := len(g.active)

	finish := func(readerID string, status error) {
		mu.Lock()
		defer mu.Unlock()

		remaining--
		g.logger.Debug("Reader finished", "reader", readerID, "status", status, "remaining", remaining)
		if remaining == 0 {
			q.Shutdown()
			g.logger.Info("All readers finished, queue shut down")
		}
		if status != nil && firstErr == nil {
			firstErr = status
		}
	}

	tel.ReadersActive.Add(ctx, int64(len(g.active)), groupAttrs)

	var wg sync.WaitGroup
	for _, r := range g.active {
		wg.Add(1)
		go func(r reader.Reader) {
			defer wg.Done()
			finish(r.ID(), r.Run(runCtx, q, task.TimeBudget))
		}(r)
	}

	g.logger.Info(
		"Group started",
		"label", task.Label,
		"readers", len(g.active),
		"time_budget", task.TimeBudget,
		"byte_budget", task.ByteBudget,
		"framing", task.Framing.String(),
	)

	start := time.Now()
	leftBytes := task.ByteBudget
	var receivedRecords int64
	var appendErr error
	eos := false
	delimiter := task.RecordDelimiter()

	committed := make(map[int32]int64, len(task.CommittedOffsets))
	for partition, offset := range task.CommittedOffsets {
		committed[partition] = offset
	}

	for {
		// Terminal check at loop top only: a record already fetched below is
		// still appended even if the budget expired mid-iteration.
		if eos || time.Since(start) >= task.TimeBudget || leftBytes <= 0 {
			break
		}

		record, ok := q.Get()
		if !ok {
			// Queue shut down and drained: no further records will arrive.
			eos = true
			continue
		}

		if err := sink.AppendFramed(s, record.Payload, task.Framing, delimiter); err != nil {
			g.logger.Warn(
				"Failed to append record, stopping intake",
				"error", err,
				"partition", record.Partition,
				"offset", record.Offset,
			)
			appendErr = err
			eos = true
			continue
		}

		receivedRecords++
		leftBytes -= int64(record.Len())
		committed[record.Partition] = record.Offset

		tel.RecordsConsumed.Add(ctx, 1, groupAttrs)
		tel.BytesConsumed.Add(ctx, int64(record.Len()), groupAttrs)
	}

	receivedBytes := task.ByteBudget - leftBytes
	elapsed := time.Since(start)

	// Finalize: stop producers first so no reader stays blocked in Put, then
	// cancel and join them.
	q.Shutdown()
	for _, r := range g.active {
		r.Cancel()
	}
	wg.Wait()

	tel.ReadersActive.Add(ctx, -int64(len(g.active)), groupAttrs)

	// Records still buffered after the cut-off belong to the next task.
	discarded := 0
	for {
		if _, ok := q.Get(); !ok {
			break
		}
		discarded++
	}

	g.logger.Info(
		"Group done",
		"label", task.Label,
		"consume_time", elapsed,
		"received_records", receivedRecords,
		"received_bytes", receivedBytes,
		"eos", eos,
		"discarded", discarded,
		"blocking_get_wait", q.TotalGetWait(),
		"blocking_put_wait", q.TotalPutWait(),
	)

	tel.DrainDuration.Record(ctx, elapsed.Seconds(), groupAttrs)
	tel.QueuePutWait.Record(ctx, q.TotalPutWait().Seconds(), groupAttrs)
	tel.QueueGetWait.Record(ctx, q.TotalGetWait().Seconds(), groupAttrs)

	mu.Lock()
	readerErr := firstErr
	mu.Unlock()

	recordOutcome := func(outcome string) {
		tel.Batches.Add(
			ctx, 1, metric.WithAttributes(
				rlotel.AttrGroupID.String(g.id),
				rlotel.AttrBatchOutcome.String(outcome),
			),
		)
	}

	if readerErr != nil {
		// Batch discarded; the caller owns failing the task and discarding
		// the sink.
		recordOutcome(rlotel.OutcomeFailed)
		span.RecordError(readerErr)
		span.SetStatus(codes.Error, readerErr.Error())
		return readerErr
	}

	if appendErr != nil {
		recordOutcome(rlotel.OutcomeFailed)
		span.RecordError(appendErr)
		span.SetStatus(codes.Error, appendErr.Error())
		return fmt.Errorf("group %s: append to sink: %w", g.id, appendErr)
	}

	if receivedBytes == 0 {
		// A batch is never sealed empty.
		s.Cancel(ErrNoData)
		recordOutcome(rlotel.OutcomeCancelled)
		return ErrNoData
	}

	if err := s.Finish(); err != nil {
		recordOutcome(rlotel.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("group %s: finish sink: %w", g.id, err)
	}

	task.CommittedOffsets = committed
	task.ReceivedBytes = receivedBytes
	task.ReceivedRecords = receivedRecords

	recordOutcome(rlotel.OutcomeFinished)
	return nil
}
