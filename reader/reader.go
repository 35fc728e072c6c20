// Package reader implements the partition-reading capability of a load
// task: each reader owns a subset of the source partitions and pushes every
// fetched record onto the group's shared queue until its time budget runs
// out, it is cancelled, or the queue shuts down.
package reader

import (
	"context"
	"time"

	"github.com/calyxdb/routineload/kafka"
	"github.com/calyxdb/routineload/queue"
)

type Reader interface {
	// ID identifies the reader in logs.
	ID() string

	// Assign commits the reader to tracking exactly the given partitions of
	// topic, each from its start offset. Called once, before Run.
	Assign(topic string, assignment kafka.Assignment) error

	// Run fetches records into q until the budget elapses, Cancel is called,
	// or q is shut down; all of those end the run cleanly with a nil status.
	// A non-nil status means the source failed. Invoked once per task.
	Run(ctx context.Context, q *queue.Timed[*kafka.Record], budget time.Duration) error

	// Cancel asks a running reader to stop promptly, even mid-partition.
	Cancel()
}
