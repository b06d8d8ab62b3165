package ports

import "context"

// Dialer opens message channels to the ingestion service.
type Dialer interface {
	// Dial connects to the ingestion endpoint. The returned Conn is open
	// and ready for the init message.
	Dial(ctx context.Context) (Conn, error)
}

// Conn is a bidirectional, message-oriented channel.
//
// WriteMessage may be called from multiple goroutines. ReadMessage is
// called from a single reader goroutine only.
type Conn interface {
	// WriteMessage sends one text message. Returns an error wrapping
	// domain.ErrChannelClosed once the channel is closed.
	WriteMessage(ctx context.Context, data []byte) error

	// ReadMessage blocks until the next message arrives or the channel
	// fails. Any error is terminal for the channel.
	ReadMessage() ([]byte, error)

	// Close performs an orderly close. Safe to call more than once.
	Close() error
}
