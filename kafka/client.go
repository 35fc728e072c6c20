// Package kafka abstracts the source-stream client a partition reader runs
// on. Unlike a consumer group subscription, partitions are assigned
// explicitly with start offsets: the frontend that schedules load tasks owns
// partition coordination, the reader only fetches what it was told to.
package kafka

import (
	"context"
)

type PartitionClient interface {
	// AssignPartitions commits the client to fetching exactly the given
	// partitions of topic, each from its start offset. Must be called once
	// before Poll.
	AssignPartitions(topic string, assignment Assignment) error

	// Poll fetches the next batch of records, blocking up to the configured
	// poll timeout. An empty batch with a nil error means nothing arrived in
	// time.
	Poll(ctx context.Context) ([]*Record, error)

	// EndOffsets reports the current high watermark per assigned partition.
	EndOffsets(ctx context.Context, topic string, partitions []int32) (map[int32]int64, error)

	Close()
}
