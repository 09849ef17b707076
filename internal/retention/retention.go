package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"locmirror/internal/logger"
	"locmirror/internal/util"

	"go.uber.org/zap"
)

// Manager prunes per-run log artifacts under the log root.
type Manager struct {
	logRoot string
}

func NewManager(logRoot string) *Manager {
	return &Manager{logRoot: logRoot}
}

// Prune removes regular files strictly older than now - horizonDays.
// A horizon of zero or less disables pruning. Individual deletion
// failures are counted and skipped, never fatal.
func (m *Manager) Prune(horizonDays int) (deleted, failed int, err error) {
	if horizonDays <= 0 {
		return 0, 0, nil
	}

	entries, err := os.ReadDir(m.logRoot)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read log root: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -horizonDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			failed++
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(m.logRoot, entry.Name())
		if err := util.RemoveIfExists(path); err != nil {
			failed++
			logger.Log.Warn("failed to prune log file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		deleted++
	}

	return deleted, failed, nil
}
