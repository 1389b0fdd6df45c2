package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, env := range []string{"prod", "dev"} {
		l, err := New(env, "debug")
		if err != nil {
			t.Fatalf("New(%q): %v", env, err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("%s logger drops debug", env)
		}
	}
}
