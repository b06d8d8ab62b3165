package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockEmitter tracks events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
	sent   []chunkEvent
	failed []chunkEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

type chunkEvent struct {
	index int
	bytes int
	err   error
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) OnChunkSent(index, bytes int, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, chunkEvent{index: index, bytes: bytes})
}

func (m *mockEmitter) OnChunkError(err error, index, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, chunkEvent{index: index, bytes: bytes, err: err})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func (m *mockEmitter) Sent() []chunkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chunkEvent{}, m.sent...)
}

func (m *mockEmitter) Failed() []chunkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chunkEvent{}, m.failed...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l == nil {
		t.Fatal("NewLifecycle returned nil")
	}
	if l.State() != StateIdle {
		t.Errorf("initial state = %v, want StateIdle", l.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateOpening, "Opening"},
		{StateStreaming, "Streaming"},
		{StateClosing, "Closing"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to opening", StateIdle, StateOpening},
		{"opening to streaming", StateOpening, StateStreaming},
		{"opening aborted", StateOpening, StateIdle},
		{"streaming to closing", StateStreaming, StateClosing},
		{"closing to idle", StateClosing, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Errorf("TransitionTo() error = %v", err)
			}
			if l.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", l.State(), tt.to)
			}
		})
	}
}

func TestLifecycle_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"idle to streaming", StateIdle, StateStreaming, domain.ErrNotRunning},
		{"idle to closing", StateIdle, StateClosing, domain.ErrNotRunning},
		{"opening to closing", StateOpening, StateClosing, domain.ErrAlreadyRunning},
		{"opening to opening", StateOpening, StateOpening, domain.ErrAlreadyRunning},
		{"streaming to idle", StateStreaming, StateIdle, domain.ErrAlreadyRunning},
		{"streaming to opening", StateStreaming, StateOpening, domain.ErrAlreadyRunning},
		{"closing to streaming", StateClosing, StateStreaming, domain.ErrAlreadyRunning},
		{"closing to opening", StateClosing, StateOpening, domain.ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")

			if err != tt.wantErr {
				t.Errorf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}
			// State should not change on invalid transition
			if l.State() != tt.from {
				t.Errorf("state changed to %v on invalid transition, want %v", l.State(), tt.from)
			}
		})
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	_ = l.TransitionTo(StateOpening, "start test")
	_ = l.TransitionTo(StateStreaming, "ack test")

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	if events[0].previous != StateIdle || events[0].current != StateOpening {
		t.Errorf("event 0: got %v->%v, want Idle->Opening", events[0].previous, events[0].current)
	}
	if events[1].previous != StateOpening || events[1].current != StateStreaming {
		t.Errorf("event 1: got %v->%v, want Opening->Streaming", events[1].previous, events[1].current)
	}
	if events[1].reason != "ack test" {
		t.Errorf("event 1 reason = %q", events[1].reason)
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state     State
		wantStart bool
		wantStop  bool
	}{
		{StateIdle, true, false},
		{StateOpening, false, true},
		{StateStreaming, false, true},
		{StateClosing, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.state

			if got := l.CanStart(); got != tt.wantStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.wantStart)
			}
			if got := l.CanStop(); got != tt.wantStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.wantStop)
			}
		})
	}
}

func TestLifecycle_SetCancel_And_Cancel(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)

	select {
	case <-ctx.Done():
		t.Error("context should not be canceled before Cancel()")
	default:
	}

	l.Cancel()

	select {
	case <-ctx.Done():
	default:
		t.Error("context should be canceled after Cancel()")
	}

	// second call is a no-op
	l.Cancel()
}

func TestLifecycle_WaitWithTimeout_Success(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	l.Go(func() { time.Sleep(10 * time.Millisecond) })

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}
}

func TestLifecycle_WaitWithTimeout_Timeout(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	l.AddWorker()
	// Never call WorkerDone

	err := l.WaitWithTimeout(10 * time.Millisecond)
	if err != domain.ErrShutdownTimeout {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}

	// Clean up
	l.WorkerDone()
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.State()
				_ = l.CanStart()
				_ = l.CanStop()
			}
		}()
	}

	// Only one goroutine can win Idle -> Opening.
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TransitionTo(StateOpening, "test") == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	if wins != 1 {
		t.Errorf("%d goroutines opened the session, want 1", wins)
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 35*time.Millisecond)

	for i := 0; i < 3; i++ {
		d := b.next()
		if d <= 0 {
			t.Fatalf("next() = %v, want positive", d)
		}
	}
	if b.Current() != 35*time.Millisecond {
		t.Errorf("Current() = %v, want cap 35ms", b.Current())
	}
	b.Reset()
	if b.Current() != 10*time.Millisecond {
		t.Errorf("Current() after Reset = %v, want 10ms", b.Current())
	}
}

func TestBackoff_WaitHonorsContext(t *testing.T) {
	b := newBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}
}
