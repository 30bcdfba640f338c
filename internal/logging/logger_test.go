package logging

import (
	"os"
	"path/filepath"
	"testing"

	"classroom-quiz-service/internal/config"
)

func TestNewWritesRotatingFile(t *testing.T) {
	cfg := config.Config{}
	cfg.Log.Level = "debug"
	cfg.Log.File = filepath.Join(t.TempDir(), "app.log")

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.Log.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in file")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	cfg := config.Config{}
	cfg.Log.Level = "loud"
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
