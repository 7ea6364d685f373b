package log

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewCliLogger creates a logger for the CLI.
// Info and above goes to stdout, errors go to stderr.
// The verbose flag enables debug messages.
func NewCliLogger(stdout io.Writer, stderr io.Writer, verbose bool) Logger {
	minLevel := InfoLevel
	if verbose {
		minLevel = DebugLevel
	}

	cores := []zapcore.Core{
		stdoutCore(stdout, minLevel),
		stderrCore(stderr),
	}
	return loggerFromZap(zap.New(zapcore.NewTee(cores...)))
}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() Logger {
	return loggerFromZap(zap.NewNop())
}

func stdoutCore(stdout io.Writer, minLevel zapcore.Level) zapcore.Core {
	return zapcore.NewCore(
		consoleEncoder(),
		zapcore.AddSync(stdout),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= minLevel && l < ErrorLevel
		}),
	)
}

func stderrCore(stderr io.Writer) zapcore.Core {
	return zapcore.NewCore(
		consoleEncoder(),
		zapcore.AddSync(stderr),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= ErrorLevel
		}),
	)
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: "  ",
	})
}
