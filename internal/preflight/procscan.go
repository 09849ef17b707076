package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ExecScanner lists running copy-engine processes through the platform's
// process lister.
type ExecScanner struct {
	engineBinary string
}

func NewExecScanner(engineBinary string) *ExecScanner {
	return &ExecScanner{engineBinary: engineBinary}
}

func (s *ExecScanner) RunningMirrors(ctx context.Context) ([]string, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "wmic", "process", "get", "commandline")
	default:
		cmd = exec.CommandContext(ctx, "ps", "-eo", "args=")
	}

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var matches []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, s.engineBinary) {
			matches = append(matches, line)
		}
	}

	return matches, nil
}
