package cli

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger returns a JSON logger writing to stderr; stdout carries reports and the slot
// protocol. Unknown or empty levels log at info.
func NewLogger(level string) *zap.Logger {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build(zap.Fields(zap.Int("pid", os.Getpid())))
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
