package ports

import "time"

// Metrics receives pipeline counters. Labels are plain strings so adapters
// do not depend on application types.
type Metrics interface {
	BlockEnqueued(source string)
	BlockEvicted(source string)
	BlockDiscarded(source string)
	BlockMerged(kind string)
	ChunkSent(bytes int, took time.Duration)
	ChunkSendFailed()
	ChunkSkipped(reason string)
	SessionState(state string)
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) BlockEnqueued(string)         {}
func (NoopMetrics) BlockEvicted(string)          {}
func (NoopMetrics) BlockDiscarded(string)        {}
func (NoopMetrics) BlockMerged(string)           {}
func (NoopMetrics) ChunkSent(int, time.Duration) {}
func (NoopMetrics) ChunkSendFailed()             {}
func (NoopMetrics) ChunkSkipped(string)          {}
func (NoopMetrics) SessionState(string)          {}
