// Package diag provides the structured diagnostic log for whitebox.
// Diagnostics go to a file under the data directory, never to stdout,
// so checkpoint responses on stdout stay machine-parseable.
package diag

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the diagnostic log file under the data directory.
const FileName = "diag.log"

// New opens a logger writing JSON lines to baseDir/diag.log. If the
// sink cannot be opened the returned logger discards everything; a
// broken log must never block a checkpoint.
func New(baseDir string) *zap.Logger {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return zap.NewNop()
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(baseDir, FileName)}
	cfg.ErrorOutputPaths = []string{filepath.Join(baseDir, FileName)}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
