// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the audio pipeline and the outside world.
// They say what the pipeline needs from capture hardware and the ingestion
// service without saying how those needs are met.
//
// # Port Interfaces
//
//   - [Capturer]: Delivers raw float32 blocks from an audio source
//   - [Prober]: Checks that a source exists before a session is opened
//   - [Dialer] and [Conn]: The message channel to the ingestion service
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with
// PulseAudio, PortAudio, plain readers and gorilla/websocket.
package ports
