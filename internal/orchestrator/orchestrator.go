package orchestrator

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"locmirror/internal/classify"
	"locmirror/internal/engine"
	"locmirror/internal/location"
	"locmirror/internal/logger"
	"locmirror/internal/model"
	"locmirror/internal/preflight"
	"locmirror/internal/report"

	"go.uber.org/zap"
)

// Reserved process exit codes. Everything else is the classified overall
// code of the run.
const (
	ExitConfigError = 1
	ExitConcurrent  = 98
	ExitUnreachable = 99
)

type AddressResolver interface {
	Resolve(hostname string) (location.Identity, error)
}

type Validator interface {
	Validate(ctx context.Context, identity location.Identity, opts preflight.Options) preflight.Result
}

type JobRunner interface {
	RunAll(ctx context.Context, specs []engine.JobSpec, dryRun bool) []engine.JobResult
}

type Classifier interface {
	Classify(statuses []int) classify.Outcome
}

type SummaryWriter interface {
	Write(outcome model.RunOutcome) (string, error)
}

type AlertDispatcher interface {
	Dispatch(ctx context.Context, outcome model.RunOutcome, summaryPath string) report.DispatchResult
}

type Retainer interface {
	Prune(horizonDays int) (deleted, failed int, err error)
}

type RunStore interface {
	Save(outcome model.RunOutcome, summaryPath string) error
	SaveAborted(runID, code, hostname, reason string, startedAt time.Time) error
}

// Options are the per-run switches.
type Options struct {
	DryRun bool
	Force  bool
}

// Components are the orchestrator's collaborators.
type Components struct {
	Resolver   AddressResolver
	Validator  Validator
	Runner     JobRunner
	Classifier Classifier
	Summary    SummaryWriter
	Alerts     AlertDispatcher
	Retention  Retainer
	Store      RunStore
}

// Orchestrator drives one mirror run through
// init → resolved → validated → running → classified → reported →
// retained → done, or aborts from init/resolved.
type Orchestrator struct {
	runID         string
	hostname      string
	logRoot       string
	retentionDays int
	opts          Options
	comps         Components

	state    State
	recorder *StateRecorder
}

func NewOrchestrator(runID, hostname, logRoot string, retentionDays int, opts Options, comps Components) *Orchestrator {
	return &Orchestrator{
		runID:         runID,
		hostname:      hostname,
		logRoot:       logRoot,
		retentionDays: retentionDays,
		opts:          opts,
		comps:         comps,
		state:         InitState{},
	}
}

// WithRecorder attaches a state recorder for tests.
func (o *Orchestrator) WithRecorder(r *StateRecorder) *Orchestrator {
	o.recorder = r
	return o
}

func (o *Orchestrator) StateName() string {
	return o.state.Name()
}

func (o *Orchestrator) transitionTo(newState State) {
	oldName := o.state.Name()
	o.state = newState

	if o.recorder != nil {
		o.recorder.Record(newState)
	}

	logger.Log.Debug("state transition",
		zap.String("from", oldName),
		zap.String("to", newState.Name()),
		zap.String("run_id", o.runID))
}

// Run executes the whole pipeline and returns the process exit code.
func (o *Orchestrator) Run(ctx context.Context) int {
	startedAt := time.Now()

	identity, err := o.comps.Resolver.Resolve(o.hostname)
	if err != nil {
		// No side effect has happened yet; abort silently except for
		// the local log.
		logger.Log.Error("hostname resolution failed",
			zap.String("hostname", o.hostname),
			zap.Error(err))
		o.transitionTo(AbortedState{})
		return ExitConfigError
	}
	o.transitionTo(ResolvedState{})

	validation := o.comps.Validator.Validate(ctx, identity, preflight.Options{
		AllowConcurrent: o.opts.Force,
		DryRun:          o.opts.DryRun,
	})
	if !validation.OK() {
		return o.abortOnPreflight(ctx, identity, validation, startedAt)
	}
	o.transitionTo(ValidatedState{})

	specs := o.buildJobSpecs(identity, startedAt)
	o.transitionTo(RunningState{})
	results := o.comps.Runner.RunAll(ctx, specs, o.opts.DryRun)

	statuses := make([]int, 0, len(results))
	for _, r := range results {
		statuses = append(statuses, r.ExitStatus)
	}
	classified := o.comps.Classifier.Classify(statuses)
	o.transitionTo(ClassifiedState{})

	outcome := model.RunOutcome{
		RunID:           o.runID,
		Identity:        identity,
		Jobs:            results,
		OverallCode:     classified.OverallCode,
		Band:            classified.Band,
		DryRun:          o.opts.DryRun,
		CapacityWarning: validation.CapacityWarning,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
	}

	o.report(ctx, outcome)
	o.transitionTo(ReportedState{})

	o.retain()
	o.transitionTo(RetainedState{})

	o.transitionTo(DoneState{})
	logger.Log.Info("mirror run finished",
		zap.String("run_id", o.runID),
		zap.String("location", identity.Code),
		zap.Int("overall_code", outcome.OverallCode),
		zap.String("band", string(outcome.Band)),
		zap.Bool("dry_run", outcome.DryRun))

	return outcome.OverallCode
}

// buildJobSpecs derives the share and profile jobs from the identity.
// Per-job log names embed the location code and run start time so the
// engine's own logs land next to the summary.
func (o *Orchestrator) buildJobSpecs(identity location.Identity, startedAt time.Time) []engine.JobSpec {
	stamp := startedAt.Format("20060102_150405")
	return []engine.JobSpec{
		{
			Name:    "share",
			Source:  identity.Addresses.SourceShare,
			Dest:    identity.Addresses.DestShare,
			LogPath: jobLogPath(o.logRoot, identity.Code, "share", stamp),
		},
		{
			Name:    "profile",
			Source:  identity.Addresses.SourceProfile,
			Dest:    identity.Addresses.DestProfile,
			LogPath: jobLogPath(o.logRoot, identity.Code, "profile", stamp),
		},
	}
}

// abortOnPreflight terminates the run before any job launch, still
// producing an error log, an alert, and a persisted aborted record.
func (o *Orchestrator) abortOnPreflight(ctx context.Context, identity location.Identity, validation preflight.Result, startedAt time.Time) int {
	code := ExitUnreachable
	if validation.HasConcurrentRun() {
		code = ExitConcurrent
	}

	reasons := make([]string, 0, len(validation.Failures))
	for _, f := range validation.Failures {
		reasons = append(reasons, f.Err.Error()+": "+f.Detail)
	}
	reason := strings.Join(reasons, "; ")

	logger.Log.Error("preflight validation failed",
		zap.String("run_id", o.runID),
		zap.String("location", identity.Code),
		zap.Int("exit_code", code),
		zap.Strings("reasons", reasons))

	outcome := model.RunOutcome{
		RunID:           o.runID,
		Identity:        identity,
		OverallCode:     code,
		Band:            classify.BandError,
		DryRun:          o.opts.DryRun,
		AbortReason:     reason,
		CapacityWarning: validation.CapacityWarning,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
	}

	summaryPath, err := o.comps.Summary.Write(outcome)
	if err != nil {
		logger.Log.Warn("failed to write abort summary", zap.Error(err))
	}

	if err := o.comps.Store.SaveAborted(o.runID, identity.Code, identity.Hostname, reason, startedAt); err != nil {
		logger.Log.Warn("failed to persist aborted run", zap.Error(err))
	}

	if res := o.comps.Alerts.Dispatch(ctx, outcome, summaryPath); res.Err != nil {
		logger.Log.Warn("abort alert dispatch failed", zap.Error(res.Err))
	}

	o.transitionTo(AbortedState{})
	return code
}

// report writes the summary, persists the run, and dispatches the alert.
// None of these can change the run's exit code.
func (o *Orchestrator) report(ctx context.Context, outcome model.RunOutcome) {
	summaryPath, err := o.comps.Summary.Write(outcome)
	if err != nil {
		logger.Log.Warn("failed to write run summary",
			zap.String("run_id", o.runID),
			zap.Error(err))
	}

	if err := o.comps.Store.Save(outcome, summaryPath); err != nil {
		logger.Log.Warn("failed to persist run record",
			zap.String("run_id", o.runID),
			zap.Error(err))
	}

	if res := o.comps.Alerts.Dispatch(ctx, outcome, summaryPath); res.Err != nil {
		logger.Log.Warn("alert dispatch failed",
			zap.String("run_id", o.runID),
			zap.Error(res.Err))
	}
}

func (o *Orchestrator) retain() {
	deleted, failed, err := o.comps.Retention.Prune(o.retentionDays)
	if err != nil {
		logger.Log.Warn("log pruning failed", zap.Error(err))
		return
	}

	if deleted > 0 || failed > 0 {
		logger.Log.Info("pruned old logs",
			zap.Int("deleted", deleted),
			zap.Int("failed", failed))
	}
}

func jobLogPath(logRoot, code, job, stamp string) string {
	return filepath.Join(logRoot, "engine_"+code+"_"+job+"_"+stamp+".log")
}
