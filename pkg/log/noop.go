package log

// NoopLogger discards everything. Library users that pass no logger get
// this one.
type NoopLogger struct{}

// NewNoopLogger returns a logger that drops all output.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (*NoopLogger) Debug(string, ...Field) {}
func (*NoopLogger) Info(string, ...Field)  {}
func (*NoopLogger) Warn(string, ...Field)  {}
func (*NoopLogger) Error(string, ...Field) {}

// With returns n itself; there is nothing to attach fields to.
func (n *NoopLogger) With(...Field) Logger { return n }

var _ Logger = (*NoopLogger)(nil)
