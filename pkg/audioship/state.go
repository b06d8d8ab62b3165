package audioship

import "github.com/theved-ai/ved-audio-ingestion-poc-app/internal/app"

// State is the session state of an Audioship instance.
type State int

const (
	// StateIdle: no session. Start may be called.
	StateIdle State = iota
	// StateOpening: init sent, waiting for the acknowledgment.
	StateOpening
	// StateStreaming: capturing and shipping chunks.
	StateStreaming
	// StateClosing: Stop in progress.
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

func convertState(s app.State) State {
	switch s {
	case app.StateOpening:
		return StateOpening
	case app.StateStreaming:
		return StateStreaming
	case app.StateClosing:
		return StateClosing
	default:
		return StateIdle
	}
}
