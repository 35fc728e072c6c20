package group

import (
	"github.com/calyxdb/routineload/kafka"
)

// divideAssignment splits the task's partitions across n readers: the i-th
// partition in ascending partition order goes to reader i mod n. Every
// partition lands in exactly one subset; readers beyond the partition count
// get an empty one.
func divideAssignment(a kafka.Assignment, n int) []kafka.Assignment {
	out := make([]kafka.Assignment, n)
	for i := range out {
		out[i] = make(kafka.Assignment)
	}
	for i, partition := range a.Partitions() {
		out[i%n][partition] = a[partition]
	}
	return out
}
