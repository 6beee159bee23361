package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	cases := []struct {
		level   string
		debugOn bool
	}{
		{"debug", true},
		{"info", false},
		{"", false},
		{"WARN", false},
	}
	for _, c := range cases {
		logger, err := New(c.level)
		if err != nil {
			t.Fatalf("New(%q): %v", c.level, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != c.debugOn {
			t.Fatalf("New(%q) debug enabled = %v", c.level, got)
		}
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
