package logger

import (
	"testing"
)

func TestNew_Development(t *testing.T) {
	log, err := New("", true)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}

	// Should not panic
	log.Info("test message")
}

func TestNew_Production(t *testing.T) {
	log, err := New("", false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_Level(t *testing.T) {
	log, err := New("warn", false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log.Core().Enabled(0) { // 0 is InfoLevel
		t.Error("info should be disabled at warn level")
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("shout", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestMust(t *testing.T) {
	// Should not panic
	log := Must("debug", true)
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
}
