package orchestrator

// State is the orchestrator's pipeline position.
type State interface {
	Name() string
}

type InitState struct{}
type ResolvedState struct{}
type ValidatedState struct{}
type RunningState struct{}
type ClassifiedState struct{}
type ReportedState struct{}
type RetainedState struct{}
type DoneState struct{}
type AbortedState struct{}

func (InitState) Name() string       { return "init" }
func (ResolvedState) Name() string   { return "resolved" }
func (ValidatedState) Name() string  { return "validated" }
func (RunningState) Name() string    { return "running" }
func (ClassifiedState) Name() string { return "classified" }
func (ReportedState) Name() string   { return "reported" }
func (RetainedState) Name() string   { return "retained" }
func (DoneState) Name() string       { return "done" }
func (AbortedState) Name() string    { return "aborted" }

// StateRecorder tracks transitions for tests.
type StateRecorder struct {
	path []string
}

func NewStateRecorder() *StateRecorder {
	return &StateRecorder{path: make([]string, 0)}
}

func (r *StateRecorder) Record(state State) {
	r.path = append(r.path, state.Name())
}

func (r *StateRecorder) Path() []string {
	return r.path
}
