// Package mockkafka provides an in-memory PartitionClient for tests.
package mockkafka

import (
	"context"
	"sync"
	"time"

	"github.com/calyxdb/routineload/kafka"
)

var _ kafka.PartitionClient = (*Client)(nil)

// Client serves scripted records for explicitly assigned partitions. Records
// are seeded per partition with sequential offsets; Poll honours the start
// offsets given at assignment and preserves per-partition order.
type Client struct {
	mu sync.Mutex

	topic      string
	seeded     map[int32][]*kafka.Record
	next       map[int32]int64
	assigned   bool
	assignment kafka.Assignment

	assignErr error
	pollErr   error

	batch        int
	pollInterval time.Duration

	closed bool
}

type Option func(*Client)

// WithPollBatch caps the records returned by one Poll call.
func WithPollBatch(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batch = n
		}
	}
}

// WithPollInterval sets how long an empty Poll blocks before returning an
// empty batch.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithAssignError makes AssignPartitions fail.
func WithAssignError(err error) Option {
	return func(c *Client) {
		c.assignErr = err
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		seeded:       make(map[int32][]*kafka.Record),
		next:         make(map[int32]int64),
		batch:        100,
		pollInterval: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddRecords seeds payloads onto a partition, continuing the partition's
// offset sequence. Safe to call while Poll is running.
func (c *Client) AddRecords(topic string, partition int32, payloads ...[]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.topic = topic
	base := int64(len(c.seeded[partition]))
	for i, payload := range payloads {
		c.seeded[partition] = append(c.seeded[partition], &kafka.Record{
			Payload:   payload,
			Topic:     topic,
			Partition: partition,
			Offset:    base + int64(i),
			Timestamp: time.Now(),
		})
	}
}

// FailPollWith makes every subsequent Poll return err.
func (c *Client) FailPollWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollErr = err
}

func (c *Client) AssignPartitions(topic string, assignment kafka.Assignment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.assignErr != nil {
		return c.assignErr
	}

	c.topic = topic
	c.assigned = true
	c.assignment = assignment.Clone()
	for partition, offset := range assignment {
		switch offset {
		case kafka.OffsetStart:
			c.next[partition] = 0
		case kafka.OffsetEnd:
			c.next[partition] = int64(len(c.seeded[partition]))
		default:
			c.next[partition] = offset
		}
	}

	return nil
}

func (c *Client) Poll(ctx context.Context) ([]*kafka.Record, error) {
	c.mu.Lock()
	if c.pollErr != nil {
		err := c.pollErr
		c.mu.Unlock()
		return nil, err
	}

	var out []*kafka.Record
	for _, partition := range c.assignment.Partitions() {
		for _, record := range c.seeded[partition] {
			if len(out) >= c.batch {
				break
			}
			if record.Offset >= c.next[partition] {
				out = append(out, record)
				c.next[partition] = record.Offset + 1
			}
		}
	}
	interval := c.pollInterval
	c.mu.Unlock()

	if len(out) > 0 {
		return out, nil
	}

	select {
	case <-ctx.Done():
	case <-time.After(interval):
	}
	return nil, nil
}

func (c *Client) EndOffsets(ctx context.Context, topic string, partitions []int32) (map[int32]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[int32]int64, len(partitions))
	for _, partition := range partitions {
		out[partition] = int64(len(c.seeded[partition]))
	}
	return out, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Assignment returns the assignment the client was committed to.
func (c *Client) Assignment() (string, kafka.Assignment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topic, c.assignment.Clone(), c.assigned
}
