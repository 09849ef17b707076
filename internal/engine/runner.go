package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"locmirror/config"
	"locmirror/internal/classify"
	"locmirror/internal/logger"

	"go.uber.org/zap"
)

// JobSpec is one source→destination mirror unit. Immutable once built.
type JobSpec struct {
	Name    string
	Source  string
	Dest    string
	LogPath string
}

// JobResult records the outcome of one job. Every launched job produces
// exactly one result; an engine that could not be started or completed is
// recorded with ExitInvocationFailed rather than dropped.
type JobResult struct {
	Name       string
	ExitStatus int
	Duration   time.Duration
	LogPath    string
	DryRun     bool
	Err        error
}

// Engine invokes the external copy tool for one job and returns its raw
// exit status.
type Engine interface {
	Mirror(ctx context.Context, spec JobSpec, dryRun bool) (int, error)
}

// ExecEngine drives a robocopy-compatible binary.
type ExecEngine struct {
	cfg config.EngineConfig
}

func NewExecEngine(cfg config.EngineConfig) *ExecEngine {
	return &ExecEngine{cfg: cfg}
}

func (e *ExecEngine) buildArgs(spec JobSpec, dryRun bool) []string {
	args := []string{
		spec.Source, spec.Dest,
		"/MIR", "/COPY:DAT", "/DCOPY:T", "/NP",
		fmt.Sprintf("/R:%d", e.cfg.RetryCount),
		fmt.Sprintf("/W:%d", e.cfg.RetryWaitSec),
		fmt.Sprintf("/MT:%d", e.cfg.Threads),
		"/LOG:" + spec.LogPath,
	}

	if len(e.cfg.ExcludeFiles) > 0 {
		args = append(args, "/XF")
		args = append(args, e.cfg.ExcludeFiles...)
	}
	if len(e.cfg.ExcludeDirs) > 0 {
		args = append(args, "/XD")
		args = append(args, e.cfg.ExcludeDirs...)
	}

	if dryRun {
		// List-only mode: the engine reports what it would do without
		// touching the destination.
		args = append(args, "/L")
	}

	return args
}

func (e *ExecEngine) Mirror(ctx context.Context, spec JobSpec, dryRun bool) (int, error) {
	cmd := exec.CommandContext(ctx, e.cfg.Binary, e.buildArgs(spec, dryRun)...)
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		code := exitErr.ExitCode()
		if code < 0 {
			return classify.ExitInvocationFailed, fmt.Errorf("engine terminated abnormally: %w", err)
		}
		// Non-zero statuses are part of the engine's normal vocabulary.
		return code, nil
	}

	return classify.ExitInvocationFailed, fmt.Errorf("engine invocation failed: %w", err)
}

// Runner executes mirror jobs and measures them.
type Runner struct {
	engine  Engine
	timeout time.Duration
}

// NewRunner wraps an engine. A timeout of 0 leaves jobs unbounded.
func NewRunner(engine Engine, timeout time.Duration) *Runner {
	return &Runner{engine: engine, timeout: timeout}
}

// Run executes one job and always produces a result.
func (r *Runner) Run(ctx context.Context, spec JobSpec, dryRun bool) JobResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	status, err := r.engine.Mirror(ctx, spec, dryRun)
	result := JobResult{
		Name:       spec.Name,
		ExitStatus: status,
		Duration:   time.Since(start),
		LogPath:    spec.LogPath,
		DryRun:     dryRun,
		Err:        err,
	}

	if err != nil {
		logger.Log.Error("mirror job did not complete",
			zap.String("job", spec.Name),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		logger.Log.Info("mirror job finished",
			zap.String("job", spec.Name),
			zap.Int("status", status),
			zap.Duration("duration", result.Duration),
			zap.Bool("dry_run", dryRun))
	}

	return result
}

// RunAll executes every job concurrently and returns results in submission
// order once all jobs have finished. No partial set is ever returned.
func (r *Runner) RunAll(ctx context.Context, specs []JobSpec, dryRun bool) []JobResult {
	results := make([]JobResult, len(specs))

	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec JobSpec) {
			defer wg.Done()
			results[i] = r.Run(ctx, spec, dryRun)
		}(i, spec)
	}
	wg.Wait()

	return results
}
