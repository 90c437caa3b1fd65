package achem

// Logger is the leveled logging interface injected into worlds, managers and
// notifiers.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// NoOpLogger discards everything. It is the default for worlds and managers.
type NoOpLogger struct{}

func (n *NoOpLogger) Debugf(format string, v ...any) {}
func (n *NoOpLogger) Infof(format string, v ...any)  {}
func (n *NoOpLogger) Warnf(format string, v ...any)  {}
func (n *NoOpLogger) Errorf(format string, v ...any) {}

// NewNoOpLogger creates a no-op logger
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

// prefixLogger prepends a fixed tag to every message.
type prefixLogger struct {
	prefix string
	next   Logger
}

// WithPrefix returns a logger that prepends "[prefix] " to every message.
func WithPrefix(logger Logger, prefix string) Logger {
	if logger == nil {
		return NewNoOpLogger()
	}
	return &prefixLogger{prefix: "[" + prefix + "] ", next: logger}
}

func (p *prefixLogger) Debugf(format string, v ...any) { p.next.Debugf(p.prefix+format, v...) }
func (p *prefixLogger) Infof(format string, v ...any)  { p.next.Infof(p.prefix+format, v...) }
func (p *prefixLogger) Warnf(format string, v ...any)  { p.next.Warnf(p.prefix+format, v...) }
func (p *prefixLogger) Errorf(format string, v ...any) { p.next.Errorf(p.prefix+format, v...) }
