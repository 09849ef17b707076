package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"locmirror/internal/classify"
	"locmirror/internal/engine"
	"locmirror/internal/location"
	"locmirror/internal/logger"
	"locmirror/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func testOutcome() model.RunOutcome {
	started := time.Date(2026, 8, 24, 3, 0, 0, 0, time.UTC)
	return model.RunOutcome{
		RunID: "run-1",
		Identity: location.Identity{
			Code:     "42",
			Hostname: "42srv-fs01",
		},
		Jobs: []engine.JobResult{
			{Name: "share", ExitStatus: 1, Duration: 91 * time.Second, LogPath: "/logs/share.log"},
			{Name: "profile", ExitStatus: 2, Duration: 40 * time.Second, LogPath: "/logs/profile.log"},
		},
		OverallCode: 3,
		Band:        classify.BandWarning,
		StartedAt:   started,
		FinishedAt:  started.Add(2 * time.Minute),
	}
}

func TestWriteProducesSummary(t *testing.T) {
	dir := t.TempDir()
	w := NewSummaryWriter(dir)

	path, err := w.Write(testOutcome())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "mirror_42_20260824_030000.log"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "location:  42 (42srv-fs01)")
	assert.Contains(t, text, "job share")
	assert.Contains(t, text, "job profile")
	assert.Contains(t, text, "status=1")
	assert.Contains(t, text, "status=2")
	assert.Contains(t, text, "/logs/share.log")
	assert.Contains(t, text, "overall:   code=3 band=warning")
	assert.NotContains(t, text, "DRY RUN")
	assert.NotContains(t, text, "warning:")
}

func TestWriteIsByteStable(t *testing.T) {
	w := NewSummaryWriter(t.TempDir())
	outcome := testOutcome()

	path, err := w.Write(outcome)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = w.Write(outcome)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteMarksDryRunAndWarnings(t *testing.T) {
	w := NewSummaryWriter(t.TempDir())
	outcome := testOutcome()
	outcome.DryRun = true
	outcome.Jobs[0].DryRun = true
	outcome.Jobs[1].DryRun = true
	outcome.CapacityWarning = "destination volume low on space: 5.0% free (threshold 10.0%)"

	path, err := w.Write(outcome)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "DRY RUN")
	assert.Contains(t, text, "[dry-run]")
	assert.Contains(t, text, "warning:   destination volume low on space")
}

func TestWriteAbortedRun(t *testing.T) {
	w := NewSummaryWriter(t.TempDir())
	outcome := testOutcome()
	outcome.Jobs = nil
	outcome.OverallCode = 99
	outcome.Band = classify.BandError
	outcome.AbortReason = "path unreachable: dest_share: /mnt/mirror/loc42/share"

	path, err := w.Write(outcome)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(content), "aborted:   path unreachable")
	assert.Contains(t, string(content), "code=99 band=error")
}

func TestWriteFailsOnUnwritableRoot(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("cannot make directories unwritable as root")
	}

	dir := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.Mkdir(dir, 0555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

	_, err := NewSummaryWriter(filepath.Join(dir, "logs")).Write(testOutcome())
	assert.Error(t, err)
}
