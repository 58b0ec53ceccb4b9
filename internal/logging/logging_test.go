package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		logger, err := New(in)
		if err != nil {
			t.Fatalf("New(%q): %v", in, err)
		}
		if !logger.Core().Enabled(want) || (want > zapcore.DebugLevel && logger.Core().Enabled(want-1)) {
			t.Fatalf("New(%q): expected level %v", in, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected no-op logger")
	}
	l := zap.NewExample()
	if got := FromContext(WithLogger(context.Background(), l)); got != l {
		t.Fatalf("expected stored logger")
	}
}
