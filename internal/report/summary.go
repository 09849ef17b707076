package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"locmirror/internal/model"
	"locmirror/internal/util"
)

const (
	summaryTimeFormat = "20060102_150405"
	timeRounding      = time.Second
)

// SummaryWriter produces the durable plain-text record of a run.
type SummaryWriter struct {
	logRoot string
}

func NewSummaryWriter(logRoot string) *SummaryWriter {
	return &SummaryWriter{logRoot: logRoot}
}

// SummaryPath is deterministic in the location code and run start time.
func (w *SummaryWriter) SummaryPath(outcome model.RunOutcome) string {
	name := fmt.Sprintf("mirror_%s_%s.log",
		outcome.Identity.Code,
		outcome.StartedAt.Format(summaryTimeFormat))
	return filepath.Join(w.logRoot, name)
}

// Write renders the summary and writes it atomically. Only the outcome's
// own timestamps appear in the artifact, so re-rendering the same outcome
// is byte-stable.
func (w *SummaryWriter) Write(outcome model.RunOutcome) (string, error) {
	path := w.SummaryPath(outcome)
	if err := util.AtomicWrite(path, strings.NewReader(Render(outcome))); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}

	return path, nil
}

// Render produces the summary text. Shared with the alert description.
func Render(outcome model.RunOutcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "mirror run %s\n", outcome.RunID)
	fmt.Fprintf(&b, "location:  %s (%s)\n", outcome.Identity.Code, outcome.Identity.Hostname)
	fmt.Fprintf(&b, "started:   %s\n", outcome.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "finished:  %s\n", outcome.FinishedAt.Format("2006-01-02 15:04:05"))
	if outcome.DryRun {
		b.WriteString("mode:      DRY RUN (no destination changes)\n")
	}
	b.WriteString("\n")

	for _, j := range outcome.Jobs {
		marker := ""
		if j.DryRun {
			marker = " [dry-run]"
		}
		fmt.Fprintf(&b, "job %-10s status=%-2d duration=%s%s\n",
			j.Name, j.ExitStatus, j.Duration.Round(timeRounding), marker)
		fmt.Fprintf(&b, "    log: %s\n", j.LogPath)
	}

	b.WriteString("\n")
	if outcome.AbortReason != "" {
		fmt.Fprintf(&b, "aborted:   %s\n", outcome.AbortReason)
	}
	fmt.Fprintf(&b, "overall:   code=%d band=%s\n", outcome.OverallCode, outcome.Band)
	if outcome.CapacityWarning != "" {
		fmt.Fprintf(&b, "warning:   %s\n", outcome.CapacityWarning)
	}

	return b.String()
}
