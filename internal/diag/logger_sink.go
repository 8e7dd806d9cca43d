package diag

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerSink writes diagnostic events to a zap logger.
type LoggerSink struct {
	log *zap.SugaredLogger
}

// NewLoggerSink returns a sink logging through l.
func NewLoggerSink(l *zap.SugaredLogger) *LoggerSink {
	return &LoggerSink{log: l}
}

// Report logs the event at a level derived from its kind.
func (s *LoggerSink) Report(event Event) {
	kvs := []any{
		"kind", event.Kind.String(),
		"handle", int(event.Handle),
		"epoch", event.Epoch,
	}
	if event.Detail != "" {
		kvs = append(kvs, "detail", event.Detail)
	}

	switch levelOf(event.Kind) {
	case zapcore.DebugLevel:
		s.log.Debugw("Alarm scheduler event", kvs...)
	case zapcore.WarnLevel:
		s.log.Warnw("Alarm scheduler warning", kvs...)
	case zapcore.ErrorLevel:
		s.log.Errorw("Alarm scheduler error", kvs...)
	default:
		s.log.Infow("Alarm scheduler event", kvs...)
	}
}

// levelOf maps event kinds to log levels.
func levelOf(k Kind) zapcore.Level {
	switch k {
	case KindArmed:
		return zapcore.DebugLevel
	case KindNoPendingAlarm:
		return zapcore.WarnLevel
	case KindDispatchInconsistency, KindCallbackPanic:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Compile-time interface satisfaction check.
var _ Sink = (*LoggerSink)(nil)
