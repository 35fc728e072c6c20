package kafka

import (
	"sort"
	"strconv"
	"time"
)

// Record is a single raw record fetched from one partition of the source
// stream. The payload stays opaque bytes all the way to the intake sink.
type Record struct {
	Payload   []byte
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// Len returns the payload length in bytes.
func (r *Record) Len() int {
	return len(r.Payload)
}

func (r *Record) TopicPartition() TopicPartition {
	return TopicPartition{
		Topic:     r.Topic,
		Partition: r.Partition,
	}
}

type TopicPartition struct {
	Topic     string
	Partition int32
}

func (tp TopicPartition) String() string {
	return tp.Topic + "-" + strconv.FormatInt(int64(tp.Partition), 10)
}

// Assignment maps a partition id to the offset the next fetch should start
// at. Offsets are absolute; use OffsetStart / OffsetEnd for the sentinels.
type Assignment map[int32]int64

const (
	// OffsetStart resolves to the oldest available offset of the partition.
	OffsetStart int64 = -2
	// OffsetEnd resolves to the next offset to be produced.
	OffsetEnd int64 = -1
)

// Partitions returns the assigned partition ids in ascending order.
func (a Assignment) Partitions() []int32 {
	parts := make([]int32, 0, len(a))
	for p := range a {
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	return parts
}

// Clone returns a copy that can be mutated independently.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for p, off := range a {
		out[p] = off
	}
	return out
}
