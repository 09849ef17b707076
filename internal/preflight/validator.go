package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"locmirror/internal/location"
	"locmirror/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrConcurrentRun   = errors.New("concurrent mirror run detected")
	ErrPathUnreachable = errors.New("path unreachable")
)

// ProcessScanner lists the command lines of currently running copy-engine
// processes. The scan is advisory: there is a window between the scan and
// the job launch in which another run can start. Callers that need a hard
// mutual-exclusion guarantee must substitute an implementation backed by a
// lock file or an external lease.
type ProcessScanner interface {
	RunningMirrors(ctx context.Context) ([]string, error)
}

// CapacityProbe reports the free-space ratio of the volume holding path.
type CapacityProbe interface {
	FreeRatio(path string) (float64, error)
}

type Options struct {
	AllowConcurrent bool
	DryRun          bool
}

type Failure struct {
	Err    error
	Detail string
}

// Result carries every failed check, not just the first, so the abort
// report is complete. A low-capacity destination is a warning only.
type Result struct {
	Failures        []Failure
	CapacityWarning string
}

func (r Result) OK() bool {
	return len(r.Failures) == 0
}

func (r Result) HasConcurrentRun() bool {
	for _, f := range r.Failures {
		if errors.Is(f.Err, ErrConcurrentRun) {
			return true
		}
	}
	return false
}

type Validator struct {
	scanner   ProcessScanner
	probe     CapacityProbe
	warnRatio float64
}

func NewValidator(scanner ProcessScanner, probe CapacityProbe, warnRatio float64) *Validator {
	return &Validator{scanner: scanner, probe: probe, warnRatio: warnRatio}
}

// Validate runs all three checks and reports every failure. Checks never
// short-circuit each other.
func (v *Validator) Validate(ctx context.Context, identity location.Identity, opts Options) Result {
	var result Result

	if !opts.AllowConcurrent && !opts.DryRun {
		if f := v.checkConcurrent(ctx, identity); f != nil {
			result.Failures = append(result.Failures, *f)
		}
	}

	result.Failures = append(result.Failures, v.checkReachable(identity)...)
	result.CapacityWarning = v.checkCapacity(identity)

	return result
}

func (v *Validator) checkConcurrent(ctx context.Context, identity location.Identity) *Failure {
	cmdlines, err := v.scanner.RunningMirrors(ctx)
	if err != nil {
		// A failed scan must not block the run; the guard is advisory.
		logger.Log.Warn("process scan failed, skipping concurrency check",
			zap.Error(err))
		return nil
	}

	for _, cmdline := range cmdlines {
		for _, np := range identity.Addresses.Named() {
			if strings.Contains(cmdline, np.Path) {
				return &Failure{
					Err:    ErrConcurrentRun,
					Detail: fmt.Sprintf("engine process already mirroring %s", np.Path),
				}
			}
		}
	}

	return nil
}

func (v *Validator) checkReachable(identity location.Identity) []Failure {
	var failures []Failure
	for _, np := range identity.Addresses.Named() {
		if _, err := os.Stat(np.Path); err != nil {
			failures = append(failures, Failure{
				Err:    ErrPathUnreachable,
				Detail: fmt.Sprintf("%s: %s", np.Name, np.Path),
			})
		}
	}
	return failures
}

func (v *Validator) checkCapacity(identity location.Identity) string {
	ratio, err := v.probe.FreeRatio(identity.Addresses.DestShare)
	if err != nil {
		logger.Log.Warn("capacity probe failed",
			zap.String("path", identity.Addresses.DestShare),
			zap.Error(err))
		return ""
	}

	if ratio < v.warnRatio {
		return fmt.Sprintf("destination volume low on space: %.1f%% free (threshold %.1f%%)",
			ratio*100, v.warnRatio*100)
	}

	return ""
}
