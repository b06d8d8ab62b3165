// Package domain contains the core value types of the audio pipeline:
// frame blocks, capture modes, session identifiers and the sentinel errors
// returned across package boundaries.
//
// Nothing in this package performs I/O. Types here are shared by the
// application layer (internal/app), the adapters and the public facade.
package domain
