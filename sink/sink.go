// Package sink defines the intake side of the storage write path: the place
// a reader group streams framed records into and finally seals or discards.
package sink

import (
	"errors"

	"github.com/calyxdb/routineload/load"
)

// ErrSealed is returned by Append once the sink has been finished or
// cancelled.
var ErrSealed = errors.New("sink: batch already sealed")

// Sink receives the framed byte stream of one batch. Implementations are
// only ever called from a single goroutine (the group's control loop).
type Sink interface {
	// Append writes raw bytes to the batch.
	Append(data []byte) error

	// Finish seals the batch and hands it to the storage write path. A batch
	// is never sealed empty; the group guarantees at least one byte was
	// appended.
	Finish() error

	// Cancel discards the batch with a reason. Idempotent.
	Cancel(reason error)
}

// AppendFramed writes one record payload using the task's framing mode.
func AppendFramed(s Sink, payload []byte, framing load.Framing, delimiter byte) error {
	if err := s.Append(payload); err != nil {
		return err
	}
	if framing == load.FramingDelimited {
		return s.Append([]byte{delimiter})
	}
	return nil
}
