package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/eisenhower/pkg/models"
	"go.uber.org/zap"
)

// NewLogger builds a JSON zap logger at cfg.Level. Output goes to cfg.File
// when set (the TUI owns the terminal), otherwise to stderr.
func NewLogger(cfg models.LogConfig) (*zap.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	atom, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = atom
	zc.Sampling = nil
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
