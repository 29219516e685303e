package search

import (
	"context"
	"errors"
	"sync"
)

var errTooManyWorkers = errors.New("parallel stack: all workers already assigned")

// ParallelStack distributes work items among a fixed set of workers. Each
// worker keeps a bounded LIFO stack of its own; items pushed beyond that
// bound, or while another worker is idle, go to a shared FIFO queue.
//
// The stack finishes itself: when every worker is blocked on an empty shared
// queue no worker can produce more items, so the stack's context is
// cancelled and all pending Pop calls return false.
type ParallelStack[T any] struct {
	mu       sync.Mutex
	shared   []T
	waiting  int
	workers  int
	assigned int
	capacity int

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewParallelStack returns a stack for workers workers, each holding at most
// capacity local items. Cancelling ctx releases every worker.
func NewParallelStack[T any](ctx context.Context, workers, capacity int) *ParallelStack[T] {
	if workers < 1 {
		workers = 1
	}
	if capacity < 0 {
		capacity = 0
	}
	ctx, cancel := context.WithCancel(ctx)
	return &ParallelStack[T]{
		workers:  workers,
		capacity: capacity,
		wake:     make(chan struct{}, workers),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Seed queues an initial item on the shared queue.
func (s *ParallelStack[T]) Seed(v T) {
	s.pushShared(v)
}

// Worker assigns the next worker slot.
func (s *ParallelStack[T]) Worker() (*StackWorker[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assigned >= s.workers {
		return nil, errTooManyWorkers
	}
	s.assigned++
	return &StackWorker[T]{stack: s, local: make([]T, 0, s.capacity)}, nil
}

// Done is closed once traversal is finished or the parent context is done.
func (s *ParallelStack[T]) Done() <-chan struct{} { return s.ctx.Done() }

// Close releases all workers.
func (s *ParallelStack[T]) Close() { s.cancel() }

func (s *ParallelStack[T]) pushShared(v T) {
	s.mu.Lock()
	s.shared = append(s.shared, v)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *ParallelStack[T]) hungry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiting > 0
}

// StackWorker is one worker's handle on a ParallelStack. It must only be
// used from a single goroutine.
type StackWorker[T any] struct {
	stack *ParallelStack[T]
	local []T
}

// Push queues v for later processing.
func (w *StackWorker[T]) Push(v T) {
	if len(w.local) < w.stack.capacity && !w.stack.hungry() {
		w.local = append(w.local, v)
		return
	}
	w.stack.pushShared(v)
}

// Pop returns the next item, preferring the worker's own stack. It blocks
// while the shared queue is empty and returns false once traversal is
// complete or cancelled.
func (w *StackWorker[T]) Pop() (T, bool) {
	var zero T
	if n := len(w.local); n > 0 {
		v := w.local[n-1]
		w.local[n-1] = zero
		w.local = w.local[:n-1]
		return v, true
	}

	s := w.stack
	s.mu.Lock()
	for {
		if len(s.shared) > 0 {
			v := s.shared[0]
			s.shared[0] = zero
			s.shared = s.shared[1:]
			s.mu.Unlock()
			return v, true
		}
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			return zero, false
		}
		s.waiting++
		if s.waiting >= s.workers {
			s.waiting--
			s.mu.Unlock()
			s.cancel()
			return zero, false
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.ctx.Done():
		}

		s.mu.Lock()
		s.waiting--
	}
}
