package mockkafka

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertAssigned verifies the client was committed to exactly the given
// partitions of topic.
func (c *Client) AssertAssigned(tb testing.TB, topic string, partitions ...int32) {
	tb.Helper()

	gotTopic, assignment, ok := c.Assignment()
	require.True(tb, ok, "client was never assigned")
	require.Equal(tb, topic, gotTopic)

	got := assignment.Partitions()
	require.ElementsMatch(tb, partitions, got, "assigned partitions mismatch")
}

// AssertStartOffset verifies the start offset the client was given for a
// partition.
func (c *Client) AssertStartOffset(tb testing.TB, partition int32, offset int64) {
	tb.Helper()

	_, assignment, ok := c.Assignment()
	require.True(tb, ok, "client was never assigned")

	got, exists := assignment[partition]
	require.True(tb, exists, "partition %d not assigned", partition)
	require.Equal(tb, offset, got)
}
