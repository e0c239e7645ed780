package cli

import "go.uber.org/zap"

// sessionLogger wraps zap for verbose debug with session context.
type sessionLogger struct {
	sugared *zap.SugaredLogger
}

func newSessionLogger(globals *Globals) *sessionLogger {
	if globals == nil || !globals.Verbose {
		return &sessionLogger{}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	logger, _ := cfg.Build()
	return &sessionLogger{sugared: logger.Sugar()}
}

// Sugared returns the underlying logger, or nil when verbose is off.
func (l *sessionLogger) Sugared() *zap.SugaredLogger { return l.sugared }

func (l *sessionLogger) Debug(format string, args ...interface{}) {
	if l.sugared == nil {
		return
	}
	l.sugared.Debugf(format, args...)
}
