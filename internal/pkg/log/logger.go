package log

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// zapLogger is default implementation of the Logger interface.
// It is wrapped zap.SugaredLogger.
type zapLogger struct {
	*zap.SugaredLogger
}

func loggerFromZap(l *zap.Logger) *zapLogger {
	return &zapLogger{SugaredLogger: l.Sugar()}
}

func (l *zapLogger) Debug(_ context.Context, message string) {
	l.SugaredLogger.Debug(message)
}

func (l *zapLogger) Info(_ context.Context, message string) {
	l.SugaredLogger.Info(message)
}

func (l *zapLogger) Warn(_ context.Context, message string) {
	l.SugaredLogger.Warn(message)
}

func (l *zapLogger) Error(_ context.Context, message string) {
	l.SugaredLogger.Error(message)
}

func (l *zapLogger) Debugf(_ context.Context, template string, args ...any) {
	l.SugaredLogger.Debugf(template, args...)
}

func (l *zapLogger) Infof(_ context.Context, template string, args ...any) {
	l.SugaredLogger.Infof(template, args...)
}

func (l *zapLogger) Warnf(_ context.Context, template string, args ...any) {
	l.SugaredLogger.Warnf(template, args...)
}

func (l *zapLogger) Errorf(_ context.Context, template string, args ...any) {
	l.SugaredLogger.Errorf(template, args...)
}

func (l *zapLogger) With(attrs ...attribute.KeyValue) Logger {
	fields := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		fields = append(fields, zap.Any(string(attr.Key), attr.Value.AsInterface()))
	}
	return &zapLogger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

func (l *zapLogger) WithComponent(component string) Logger {
	return &zapLogger{SugaredLogger: l.SugaredLogger.With(zap.String("component", component))}
}

func (l *zapLogger) Sync() error {
	return l.SugaredLogger.Sync()
}
