package app

import "time"

// EventEmitter receives session and transport events.
// Calls are made synchronously from pipeline goroutines and must return quickly.
type EventEmitter interface {
	StateEmitter

	// OnChunkSent is called after a chunk was written to the channel.
	OnChunkSent(index, bytes int, took time.Duration)

	// OnChunkError is called when a chunk could not be sent. The audio is
	// dropped and index is reused by the next chunk.
	OnChunkError(err error, index, bytes int)
}

type noopEmitter struct{}

func (noopEmitter) OnStateChange(previous, current State, reason string) {}
func (noopEmitter) OnChunkSent(index, bytes int, took time.Duration)     {}
func (noopEmitter) OnChunkError(err error, index, bytes int)             {}
