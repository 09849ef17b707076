package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"locmirror/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("log"), 0644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	return path
}

func TestPruneDeletesOnlyExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "old.log", 40*24*time.Hour)
	fresh := writeAged(t, dir, "fresh.log", 5*24*time.Hour)
	boundary := writeAged(t, dir, "boundary.log", 29*24*time.Hour)

	deleted, failed, err := NewManager(dir).Prune(30)
	require.NoError(t, err)

	assert.Equal(t, 1, deleted)
	assert.Zero(t, failed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, boundary)
}

func TestPruneDisabledByZeroHorizon(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "old.log", 400*24*time.Hour)

	for _, horizon := range []int{0, -1} {
		deleted, failed, err := NewManager(dir).Prune(horizon)
		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.Zero(t, failed)
	}

	assert.FileExists(t, old)
}

func TestPruneSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "archive")
	require.NoError(t, os.Mkdir(sub, 0755))
	stamp := time.Now().Add(-100 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(sub, stamp, stamp))

	deleted, _, err := NewManager(dir).Prune(30)
	require.NoError(t, err)

	assert.Zero(t, deleted)
	assert.DirExists(t, sub)
}

func TestPruneMissingRootFails(t *testing.T) {
	_, _, err := NewManager(filepath.Join(t.TempDir(), "nope")).Prune(30)
	assert.Error(t, err)
}

func TestPruneContinuesPastUndeletableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("cannot make files undeletable as root")
	}

	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0755))
	writeAged(t, locked, "stuck.log", 40*24*time.Hour)

	// Removing write permission on the directory makes its entries
	// undeletable.
	require.NoError(t, os.Chmod(locked, 0555))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	stamp := time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(locked, stamp, stamp))

	old := writeAged(t, dir, "old.log", 40*24*time.Hour)

	deleted, failed, err := NewManager(locked).Prune(30)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Equal(t, 1, failed)

	// A failure in one root never blocks pruning elsewhere.
	deleted, failed, err = NewManager(dir).Prune(30)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Zero(t, failed)
	assert.NoFileExists(t, old)
}
