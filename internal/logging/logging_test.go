package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	quiet, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error: %v", err)
	}
	if quiet.Core().Enabled(zap.InfoLevel) {
		t.Error("non-verbose logger should not emit info")
	}
	if !quiet.Core().Enabled(zap.WarnLevel) {
		t.Error("non-verbose logger should emit warnings")
	}

	verbose, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error: %v", err)
	}
	if !verbose.Core().Enabled(zap.DebugLevel) {
		t.Error("verbose logger should emit debug")
	}
}
