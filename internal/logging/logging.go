// Package logging builds the zap loggers used by changelog2html.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelDebug logs every repository and fragment decision.
	LevelDebug = "debug"
	// LevelInfo adds run summaries and timings.
	LevelInfo = "info"
	// LevelWarn logs skipped tags and fragments only.
	LevelWarn = "warn"
	// LevelError logs failures only.
	LevelError = "error"
	// LevelNone disables logging.
	LevelNone = "none"
)

// Levels returns the accepted level names.
func Levels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelNone}
}

// New returns a console logger writing to w at the given level.
func New(level string, w io.Writer) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == LevelNone {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("unknown log level %q (valid: %s)", level, strings.Join(Levels(), ", "))
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !isTerminal(w) {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core), nil
}

// MustNew returns a logger with the specified level or panics
func MustNew(level string, w io.Writer) *zap.Logger {
	l, err := New(level, w)
	if err != nil {
		panic(err)
	}
	return l
}

// DebugHook adapts a logger to the printf-style debug hooks some packages
// expose, such as git.SetDebugLogger. It returns nil when debug logging is
// off so the hook costs nothing.
func DebugHook(l *zap.Logger) func(format string, args ...any) {
	if l == nil || !l.Core().Enabled(zapcore.DebugLevel) {
		return nil
	}
	return l.Sugar().Debugf
}
