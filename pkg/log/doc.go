// Package log provides the logging abstraction used by audioship components.
//
// Components accept a [Logger] in their constructors and never reach for a
// global logger. Two implementations ship with the package: a zerolog
// adapter for real processes and a no-op logger for embedding and tests.
//
// # Usage
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	logger.Info("session open", log.String("raw_data_id", id))
//
// Child loggers carry a fixed set of fields:
//
//	mixer := logger.With(log.String("component", "mixer"))
//
// Audio is written to stdout by the PCM tap, so every logger built by this
// package writes to stderr unless told otherwise.
package log
