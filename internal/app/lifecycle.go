package app

import (
	"context"
	"sync"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
)

// ShutdownTimeout is the maximum time Stop waits for pipeline workers.
const ShutdownTimeout = 5 * time.Second

// State represents the lifecycle state of a capture session.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateStreaming
	StateClosing
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateOpening:
		return "Opening"
	case StateStreaming:
		return "Streaming"
	case StateClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// StateEmitter is called when lifecycle state changes.
type StateEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle manages the session state machine and the pipeline workers
// that live for the duration of one session.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       ports.Logger
	eventEmitter StateEmitter
}

// NewLifecycle creates a lifecycle in StateIdle.
func NewLifecycle(logger ports.Logger, emitter StateEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Returns an error if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	// Validate transition
	switch oldState {
	case StateIdle:
		if newState != StateOpening {
			l.mu.Unlock()
			return domain.ErrNotRunning
		}
	case StateOpening:
		// Idle here is an aborted open: dial, init or capture failed.
		if newState != StateStreaming && newState != StateIdle {
			l.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
	case StateStreaming:
		if newState != StateClosing {
			l.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
	case StateClosing:
		if newState != StateIdle {
			l.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}

// CanStart returns true if a session may be opened.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateIdle
}

// CanStop returns true if there is anything to tear down.
func (l *Lifecycle) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateOpening || l.state == StateStreaming
}

// SetCancel stores the cancel function of the pipeline context.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel stops the pipeline workers.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker increments the worker count.
func (l *Lifecycle) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (l *Lifecycle) WorkerDone() {
	l.wg.Done()
}

// Go runs fn as a tracked pipeline worker.
func (l *Lifecycle) Go(fn func()) {
	l.AddWorker()
	go func() {
		defer l.WorkerDone()
		fn()
	}()
}

// WaitWithTimeout waits for all workers to finish with a timeout.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, abandoning workers",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
