// Package audioship streams application and microphone audio to an
// ingestion service.
//
// Example usage:
//
//	cfg := audioship.Config{UserID: "7dcb16b8-c05c-4ec4-9524-0003e11acd2a"}
//	if err := audioship.Run(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
package audioship

import (
	"context"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/audioship"
)

// Config holds the configuration of a streaming client.
type Config = audioship.Config

// Option configures optional behavior of Run.
type Option = audioship.Option

// DefaultServiceURL is the default ingestion endpoint.
const DefaultServiceURL = audioship.DefaultServiceURL

// Run opens a session and streams until ctx is cancelled or the session
// fails. A cancelled ctx is a clean shutdown and returns nil; a session
// failure is returned after the session has been torn down.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	a, err := audioship.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-a.Err():
	}

	if err := a.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
