//go:build unit

package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyxdb/routineload/kafka"
)

func TestDivideAssignment_RoundRobin(t *testing.T) {
	a := kafka.Assignment{0: 100, 1: 200, 2: 300, 3: 400}

	subsets := divideAssignment(a, 2)
	require.Len(t, subsets, 2)

	assert.Equal(t, kafka.Assignment{0: 100, 2: 300}, subsets[0])
	assert.Equal(t, kafka.Assignment{1: 200, 3: 400}, subsets[1])
}

func TestDivideAssignment_EveryPartitionExactlyOnce(t *testing.T) {
	a := kafka.Assignment{}
	for p := int32(0); p < 17; p++ {
		a[p] = int64(p) * 10
	}

	subsets := divideAssignment(a, 5)

	seen := map[int32]int{}
	for _, subset := range subsets {
		for partition, offset := range subset {
			seen[partition]++
			assert.Equal(t, a[partition], offset)
		}
	}

	require.Len(t, seen, len(a), "union of subsets must equal the input set")
	for partition, count := range seen {
		assert.Equal(t, 1, count, "partition %d assigned %d times", partition, count)
	}
}

func TestDivideAssignment_MoreReadersThanPartitions(t *testing.T) {
	a := kafka.Assignment{7: 42}

	subsets := divideAssignment(a, 3)
	require.Len(t, subsets, 3)

	assert.Equal(t, kafka.Assignment{7: 42}, subsets[0])
	assert.Empty(t, subsets[1])
	assert.Empty(t, subsets[2])
}
