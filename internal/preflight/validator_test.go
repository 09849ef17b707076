package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"locmirror/internal/location"
	"locmirror/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type stubScanner struct {
	cmdlines []string
	err      error
	calls    int
}

func (s *stubScanner) RunningMirrors(ctx context.Context) ([]string, error) {
	s.calls++
	return s.cmdlines, s.err
}

type stubProbe struct {
	ratio float64
	err   error
}

func (p *stubProbe) FreeRatio(path string) (float64, error) {
	return p.ratio, p.err
}

func testIdentity(t *testing.T) location.Identity {
	t.Helper()
	root := t.TempDir()

	addrs := location.AddressSet{
		SourceShare:   filepath.Join(root, "share"),
		SourceProfile: filepath.Join(root, "profiles"),
		DestShare:     filepath.Join(root, "mirror", "share"),
		DestProfile:   filepath.Join(root, "mirror", "profiles"),
	}
	for _, np := range addrs.Named() {
		require.NoError(t, os.MkdirAll(np.Path, 0755))
	}

	return location.Identity{Code: "42", Hostname: "42srv", Addresses: addrs}
}

func TestValidatePasses(t *testing.T) {
	identity := testIdentity(t)
	v := NewValidator(&stubScanner{}, &stubProbe{ratio: 0.5}, 0.10)

	result := v.Validate(context.Background(), identity, Options{})

	assert.True(t, result.OK())
	assert.Empty(t, result.CapacityWarning)
}

func TestValidateReportsEveryMissingPath(t *testing.T) {
	identity := testIdentity(t)
	require.NoError(t, os.Remove(identity.Addresses.DestShare))
	require.NoError(t, os.Remove(identity.Addresses.DestProfile))

	v := NewValidator(&stubScanner{}, &stubProbe{ratio: 0.5}, 0.10)
	result := v.Validate(context.Background(), identity, Options{})

	require.Len(t, result.Failures, 2)
	for _, f := range result.Failures {
		assert.ErrorIs(t, f.Err, ErrPathUnreachable)
	}
	assert.False(t, result.HasConcurrentRun())
}

func TestValidateDetectsConcurrentRun(t *testing.T) {
	identity := testIdentity(t)
	scanner := &stubScanner{cmdlines: []string{
		fmt.Sprintf("robocopy %s %s /MIR", identity.Addresses.SourceShare, identity.Addresses.DestShare),
	}}

	v := NewValidator(scanner, &stubProbe{ratio: 0.5}, 0.10)
	result := v.Validate(context.Background(), identity, Options{})

	assert.False(t, result.OK())
	assert.True(t, result.HasConcurrentRun())
}

func TestValidateIgnoresUnrelatedProcesses(t *testing.T) {
	identity := testIdentity(t)
	scanner := &stubScanner{cmdlines: []string{
		"robocopy /somewhere/else /another/place /MIR",
	}}

	v := NewValidator(scanner, &stubProbe{ratio: 0.5}, 0.10)
	result := v.Validate(context.Background(), identity, Options{})

	assert.True(t, result.OK())
}

func TestValidateSkipsScanOnForceAndDryRun(t *testing.T) {
	identity := testIdentity(t)

	for _, opts := range []Options{{AllowConcurrent: true}, {DryRun: true}} {
		scanner := &stubScanner{cmdlines: []string{identity.Addresses.DestShare}}
		v := NewValidator(scanner, &stubProbe{ratio: 0.5}, 0.10)

		result := v.Validate(context.Background(), identity, opts)

		assert.True(t, result.OK())
		assert.Zero(t, scanner.calls)
	}
}

func TestValidateScanErrorDoesNotFail(t *testing.T) {
	identity := testIdentity(t)
	scanner := &stubScanner{err: fmt.Errorf("ps unavailable")}

	v := NewValidator(scanner, &stubProbe{ratio: 0.5}, 0.10)
	result := v.Validate(context.Background(), identity, Options{})

	assert.True(t, result.OK())
}

func TestValidateLowCapacityIsWarningOnly(t *testing.T) {
	identity := testIdentity(t)
	v := NewValidator(&stubScanner{}, &stubProbe{ratio: 0.05}, 0.10)

	result := v.Validate(context.Background(), identity, Options{})

	assert.True(t, result.OK())
	assert.NotEmpty(t, result.CapacityWarning)
}

func TestValidateChecksAreNotShortCircuited(t *testing.T) {
	identity := testIdentity(t)
	require.NoError(t, os.Remove(identity.Addresses.SourceProfile))
	scanner := &stubScanner{cmdlines: []string{identity.Addresses.DestShare}}

	v := NewValidator(scanner, &stubProbe{ratio: 0.05}, 0.10)
	result := v.Validate(context.Background(), identity, Options{})

	// Concurrency conflict, the missing path, and the capacity warning
	// all show up together.
	assert.True(t, result.HasConcurrentRun())
	assert.Len(t, result.Failures, 2)
	assert.NotEmpty(t, result.CapacityWarning)
}
