// Package xlog wraps log/slog with the two extra verbosity levels the
// teacher's core/util.go defined for CGRA tracing (LevelTrace below Debug,
// LevelWaveform below that again), repurposed here for cycle-by-cycle Port
// and peripheral diagnostics.
package xlog

import (
	"context"
	"log/slog"
	"os"
)

// Custom levels below slog.LevelDebug, most to least verbose.
const (
	// LevelTrace logs individual Port operations (in/out/sync) and
	// peripheral state transitions.
	LevelTrace = slog.Level(-8)
	// LevelWaveform logs every observed pin edge; the most verbose level,
	// intended for driving a waveform dump rather than reading directly.
	LevelWaveform = slog.Level(-12)
)

var levelNames = map[slog.Level]string{
	LevelTrace:    "TRACE",
	LevelWaveform: "WAVEFORM",
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	if name, ok := levelNames[level]; ok {
		a.Value = slog.StringValue(name)
	}
	return a
}

// New builds a *slog.Logger writing text-handler output to os.Stderr at the
// given minimum level, recognizing LevelTrace/LevelWaveform.
func New(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	})
	return slog.New(handler)
}

// Trace logs at LevelTrace.
func Trace(ctx context.Context, l *slog.Logger, msg string, args ...any) {
	l.Log(ctx, LevelTrace, msg, args...)
}

// Waveform logs at LevelWaveform.
func Waveform(ctx context.Context, l *slog.Logger, msg string, args ...any) {
	l.Log(ctx, LevelWaveform, msg, args...)
}
