package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelStack_LocalIsLIFO(t *testing.T) {
	s := NewParallelStack[int](context.Background(), 1, 4)
	w, err := s.Worker()
	require.NoError(t, err)

	s.Seed(0)
	v, ok := w.Pop()
	require.True(t, ok)
	assert.Equal(t, 0, v)

	w.Push(1)
	w.Push(2)
	v, _ = w.Pop()
	assert.Equal(t, 2, v)
	v, _ = w.Pop()
	assert.Equal(t, 1, v)

	_, ok = w.Pop()
	assert.False(t, ok, "a lone idle worker finishes the stack")
	select {
	case <-s.Done():
	default:
		t.Fatal("stack should be done")
	}
}

func TestParallelStack_SpillsToShared(t *testing.T) {
	s := NewParallelStack[int](context.Background(), 1, 1)
	w, err := s.Worker()
	require.NoError(t, err)

	w.Push(1)
	w.Push(2)

	v, ok := w.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = w.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = w.Pop()
	assert.False(t, ok)
}

func TestParallelStack_TooManyWorkers(t *testing.T) {
	s := NewParallelStack[int](context.Background(), 2, 1)
	_, err := s.Worker()
	require.NoError(t, err)
	_, err = s.Worker()
	require.NoError(t, err)
	_, err = s.Worker()
	assert.ErrorIs(t, err, errTooManyWorkers)
}

func TestParallelStack_ProcessesTree(t *testing.T) {
	const (
		workers = 4
		depth   = 12
	)
	s := NewParallelStack[int](context.Background(), workers, 2)
	s.Seed(0)

	var processed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		w, err := s.Worker()
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				level, ok := w.Pop()
				if !ok {
					return
				}
				processed.Add(1)
				if level < depth {
					w.Push(level + 1)
					w.Push(level + 1)
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("workers did not finish")
	}
	assert.Equal(t, int64(1<<(depth+1)-1), processed.Load())
}

func TestParallelStack_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewParallelStack[int](ctx, 2, 1)
	w, err := s.Worker()
	require.NoError(t, err)

	result := make(chan bool)
	go func() {
		_, ok := w.Pop()
		result <- ok
	}()

	cancel()
	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("Pop did not return after cancel")
	}
}
