package diag

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir)

	logger.Info("checkpoint", zap.String("session", "s-1"))
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file should not be empty")
	}
}

func TestNewBadDirReturnsNop(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	logger := New(blocker)
	logger.Info("should be discarded")
	_ = logger.Sync()
}
