// Package load carries the per-task state of one routine-load invocation:
// what to read, how long and how much, how records are framed, and where the
// task left off last time.
package load

import (
	"errors"
	"fmt"
	"time"

	"github.com/calyxdb/routineload/kafka"
)

// Framing selects how individual records are delimited in the byte stream
// handed to the intake sink. It is fixed for the whole task.
type Framing int

const (
	// FramingDelimited terminates every record with the task's delimiter
	// byte.
	FramingDelimited Framing = iota
	// FramingStructured appends records as-is; the payload carries its own
	// boundaries (e.g. one JSON document per record).
	FramingStructured
)

func (f Framing) String() string {
	switch f {
	case FramingDelimited:
		return "delimited"
	case FramingStructured:
		return "structured"
	default:
		return fmt.Sprintf("framing(%d)", int(f))
	}
}

// DefaultDelimiter is used for delimited framing when the task does not
// configure one.
const DefaultDelimiter byte = '\n'

// Context is the state of a single load task. StartOffsets and the budgets
// are inputs from the frontend; CommittedOffsets starts as the previous
// checkpoint and is replaced with the new one only when the task produced a
// non-empty batch. None of the fields are touched concurrently: the group's
// control loop owns the context for the duration of Run.
type Context struct {
	// Label identifies the task in logs and telemetry.
	Label string

	// Topic is the source stream identifier.
	Topic string

	// StartOffsets maps each partition this task reads to the offset the
	// reading starts at.
	StartOffsets kafka.Assignment

	// TimeBudget bounds the wall time of the whole invocation.
	TimeBudget time.Duration

	// ByteBudget bounds the batch size. Slight overshoot by up to one record
	// is tolerated.
	ByteBudget int64

	Framing   Framing
	Delimiter byte

	// CommittedOffsets is the per-partition resume checkpoint: last offset
	// whose record was successfully appended. Input: the previous task's
	// checkpoint. Output: updated only when the batch was sealed.
	CommittedOffsets map[int32]int64

	// ReceivedBytes and ReceivedRecords are set on success.
	ReceivedBytes   int64
	ReceivedRecords int64
}

// Validate checks the fields a reader group depends on.
func (c *Context) Validate() error {
	if c.Topic == "" {
		return errors.New("load: topic is required")
	}
	if len(c.StartOffsets) == 0 {
		return errors.New("load: at least one partition with a start offset is required")
	}
	if c.TimeBudget <= 0 {
		return errors.New("load: time budget must be positive")
	}
	if c.ByteBudget <= 0 {
		return errors.New("load: byte budget must be positive")
	}
	switch c.Framing {
	case FramingDelimited, FramingStructured:
	default:
		return fmt.Errorf("load: unknown framing %d", int(c.Framing))
	}
	return nil
}

// RecordDelimiter returns the delimiter byte for delimited framing, falling
// back to DefaultDelimiter.
func (c *Context) RecordDelimiter() byte {
	if c.Delimiter == 0 {
		return DefaultDelimiter
	}
	return c.Delimiter
}
