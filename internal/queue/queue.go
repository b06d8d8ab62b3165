// Package queue implements the bounded per-source block queue that sits
// between a capture callback and the mixer.
package queue

import (
	"sync"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
)

// SourceQueue is a fixed-capacity FIFO of frame blocks. When full, Push
// evicts the oldest block so producers never wait.
//
// The queue uses head/tail counters over a circular slice; tail-head is
// the current length and never exceeds the capacity.
type SourceQueue struct {
	mu         sync.Mutex
	buf        []domain.FrameBlock
	head, tail uint64
}

// New creates a queue holding at most capacity blocks. A capacity below 1
// is raised to 1.
func New(capacity int) *SourceQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &SourceQueue{buf: make([]domain.FrameBlock, capacity)}
}

// Push appends b. It reports whether an older block was evicted to make room.
func (q *SourceQueue) Push(b domain.FrameBlock) (evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := uint64(len(q.buf))
	if q.tail-q.head == size {
		q.buf[q.head%size] = nil
		q.head++
		evicted = true
	}
	q.buf[q.tail%size] = b
	q.tail++
	return evicted
}

// Pop removes and returns the oldest block.
func (q *SourceQueue) Pop() (domain.FrameBlock, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *SourceQueue) popLocked() (domain.FrameBlock, bool) {
	if q.head == q.tail {
		return nil, false
	}
	i := q.head % uint64(len(q.buf))
	b := q.buf[i]
	q.buf[i] = nil
	q.head++
	return b, true
}

// Len returns the number of queued blocks.
func (q *SourceQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.tail - q.head)
}

// Cap returns the queue capacity.
func (q *SourceQueue) Cap() int {
	return len(q.buf)
}

// Clear drops every queued block and returns how many were dropped.
func (q *SourceQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for {
		if _, ok := q.popLocked(); !ok {
			return n
		}
		n++
	}
}

// PopPair removes the head of q and other in one step when both are
// non-empty. Otherwise it removes the head of whichever queue has data.
// Locks are always taken in the same order (q, then other).
func (q *SourceQueue) PopPair(other *SourceQueue) (a, b domain.FrameBlock, okA, okB bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()

	a, okA = q.popLocked()
	b, okB = other.popLocked()
	return a, b, okA, okB
}
