//go:build unit

package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimed_PutGet(t *testing.T) {
	q := New[int](4)

	require.True(t, q.Put(1))
	require.True(t, q.Put(2))
	assert.Equal(t, 2, q.Len())

	v, ok := q.Get()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Get()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTimed_PutBlocksAtCapacity(t *testing.T) {
	q := New[int](1)
	require.True(t, q.Put(1))

	unblocked := make(chan bool, 1)
	go func() {
		unblocked <- q.Put(2)
	}()

	select {
	case <-unblocked:
		t.Fatal("Put should block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	v, ok := q.Get()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	select {
	case ok := <-unblocked:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Put should unblock after a Get frees capacity")
	}
}

func TestTimed_NeverExceedsCapacity(t *testing.T) {
	q := New[int](3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			q.Put(v)
		}(i)
	}

	deadline := time.After(time.Second)
	for received := 0; received < 8; received++ {
		assert.LessOrEqual(t, q.Len(), 3)
		select {
		case <-deadline:
			t.Fatal("timeout draining queue")
		default:
		}
		_, ok := q.Get()
		require.True(t, ok)
	}
	wg.Wait()
}

func TestTimed_ShutdownFailsPut(t *testing.T) {
	q := New[int](2)
	q.Shutdown()
	assert.False(t, q.Put(1))
}

func TestTimed_ShutdownDrainsThenCloses(t *testing.T) {
	q := New[int](4)
	require.True(t, q.Put(1))
	require.True(t, q.Put(2))

	q.Shutdown()
	q.Shutdown() // idempotent

	v, ok := q.Get()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Get()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Get()
	assert.False(t, ok, "Get must report closed once shut down and drained")
}

func TestTimed_ShutdownWakesBlockedCallers(t *testing.T) {
	q := New[int](1)
	require.True(t, q.Put(1))

	results := make(chan bool, 2)
	go func() { results <- q.Put(2) }() // blocked: full
	go func() { results <- q.Put(3) }() // blocked: full

	time.Sleep(20 * time.Millisecond)
	q.Shutdown()

	for i := 0; i < 2; i++ {
		select {
		case ok := <-results:
			assert.False(t, ok, "blocked Put must fail after shutdown")
		case <-time.After(time.Second):
			t.Fatal("blocked Put not woken by shutdown")
		}
	}
}

func TestTimed_ShutdownWakesBlockedGet(t *testing.T) {
	q := New[int](1)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Get()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Shutdown()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("blocked Get not woken by shutdown")
	}
}

func TestTimed_GetBlocksUntilPut(t *testing.T) {
	q := New[string](1)

	got := make(chan string, 1)
	go func() {
		v, ok := q.Get()
		require.True(t, ok)
		got <- v
	}()

	select {
	case <-got:
		t.Fatal("Get should block while the queue is empty")
	case <-time.After(50 * time.Millisecond):
	}

	require.True(t, q.Put("a"))

	select {
	case v := <-got:
		assert.Equal(t, "a", v)
	case <-time.After(time.Second):
		t.Fatal("Get should return once an item is available")
	}
}

func TestTimed_WaitTimeAccounting(t *testing.T) {
	q := New[int](1)

	go func() {
		time.Sleep(60 * time.Millisecond)
		q.Put(1)
	}()

	_, ok := q.Get()
	require.True(t, ok)

	assert.GreaterOrEqual(t, q.TotalGetWait(), 40*time.Millisecond)
	assert.Equal(t, time.Duration(0), q.TotalPutWait())
}
