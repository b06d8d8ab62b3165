package audioship

import (
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/app"
)

// EventHandler receives notifications about the session.
// Methods are called synchronously from pipeline goroutines and must
// return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnChunkSent(event ChunkSentEvent)
	OnChunkError(event ChunkErrorEvent)
}

// StateChangeEvent describes a session state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ChunkSentEvent describes an audio chunk accepted by the channel.
type ChunkSentEvent struct {
	Index    int
	Bytes    int
	Duration time.Duration
}

// ChunkErrorEvent describes a chunk that could not be sent. Its audio
// is dropped and the index is not consumed.
type ChunkErrorEvent struct {
	Error error
	Index int
	Bytes int
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// handle only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnChunkSent(ChunkSentEvent)     {}
func (BaseEventHandler) OnChunkError(ChunkErrorEvent)   {}

// eventEmitterWrapper adapts EventHandler to app.EventEmitter.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnChunkSent(index, bytes int, took time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnChunkSent(ChunkSentEvent{Index: index, Bytes: bytes, Duration: took})
}

func (e *eventEmitterWrapper) OnChunkError(err error, index, bytes int) {
	if e.handler == nil {
		return
	}
	e.handler.OnChunkError(ChunkErrorEvent{Error: err, Index: index, Bytes: bytes})
}
