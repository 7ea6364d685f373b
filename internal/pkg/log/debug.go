package log

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewDebugLogger creates a logger that records all messages in memory,
// so tests can assert on them.
func NewDebugLogger() DebugLogger {
	rec := &recorder{lock: &sync.Mutex{}}
	return &debugLogger{
		zapLogger: loggerFromZap(zap.New(&recordingCore{recorder: rec})),
		recorder:  rec,
	}
}

type debugLogger struct {
	*zapLogger
	recorder *recorder
}

func (l *debugLogger) Truncate() {
	l.recorder.lock.Lock()
	defer l.recorder.lock.Unlock()
	l.recorder.entries = nil
}

func (l *debugLogger) AllMessages() string {
	return l.messages(func(zapcore.Level) bool { return true })
}

func (l *debugLogger) DebugMessages() string {
	return l.messages(func(level zapcore.Level) bool { return level == DebugLevel })
}

func (l *debugLogger) InfoMessages() string {
	return l.messages(func(level zapcore.Level) bool { return level == InfoLevel })
}

func (l *debugLogger) WarnMessages() string {
	return l.messages(func(level zapcore.Level) bool { return level == WarnLevel })
}

func (l *debugLogger) ErrorMessages() string {
	return l.messages(func(level zapcore.Level) bool { return level == ErrorLevel })
}

func (l *debugLogger) WarnAndErrorMessages() string {
	return l.messages(func(level zapcore.Level) bool { return level >= WarnLevel })
}

func (l *debugLogger) messages(match func(zapcore.Level) bool) string {
	l.recorder.lock.Lock()
	defer l.recorder.lock.Unlock()
	out := strings.Builder{}
	for _, e := range l.recorder.entries {
		if match(e.level) {
			out.WriteString(fmt.Sprintf("%s  %s\n", e.level.CapitalString(), e.message))
		}
	}
	return out.String()
}

type recorder struct {
	lock    *sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	level   zapcore.Level
	message string
}

// recordingCore is a zapcore.Core that appends entries to the recorder.
type recordingCore struct {
	recorder *recorder
}

func (c *recordingCore) Enabled(zapcore.Level) bool {
	return true
}

func (c *recordingCore) With([]zapcore.Field) zapcore.Core {
	return c
}

func (c *recordingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return checked.AddCore(entry, c)
}

func (c *recordingCore) Write(entry zapcore.Entry, _ []zapcore.Field) error {
	c.recorder.lock.Lock()
	defer c.recorder.lock.Unlock()
	c.recorder.entries = append(c.recorder.entries, recordedEntry{level: entry.Level, message: entry.Message})
	return nil
}

func (c *recordingCore) Sync() error {
	return nil
}
