package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"locmirror/internal/classify"
	"locmirror/internal/logger"
	"locmirror/internal/model"

	"go.uber.org/zap"
)

// Payload is the derived view of a run outcome handed to the alerting
// service. Never persisted here; delivery is the service's problem.
type Payload struct {
	Message     string   `json:"message"`
	Description string   `json:"description"`
	Responders  []string `json:"responders"`
	Tags        []string `json:"tags"`
	Priority    string   `json:"priority"`
}

// DispatchResult makes the best-effort contract explicit: the orchestrator
// logs it and moves on, it never influences the run's exit code.
type DispatchResult struct {
	Sent    bool
	Skipped bool
	Err     error
}

type Dispatcher struct {
	url        string
	apiKey     string
	responders []string
	client     *http.Client
}

func NewDispatcher(url, apiKey string, responders []string) *Dispatcher {
	return &Dispatcher{
		url:        url,
		apiKey:     apiKey,
		responders: responders,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// BuildPayload maps the severity band to priority and tags.
func (d *Dispatcher) BuildPayload(outcome model.RunOutcome, summaryPath string) Payload {
	priority := map[classify.Band]string{
		classify.BandSuccess: "P5",
		classify.BandWarning: "P3",
		classify.BandError:   "P1",
	}[outcome.Band]

	tags := []string{
		"locmirror",
		"loc" + outcome.Identity.Code,
		string(outcome.Band),
	}
	if outcome.DryRun {
		tags = append(tags, "dry-run")
	}

	message := fmt.Sprintf("mirror run for location %s finished: %s (code %d)",
		outcome.Identity.Code, outcome.Band, outcome.OverallCode)
	if outcome.DryRun {
		message = "[dry-run] " + message
	}

	description := Render(outcome)
	if summaryPath != "" {
		description += fmt.Sprintf("\nsummary: %s\n", summaryPath)
	}

	return Payload{
		Message:     message,
		Description: description,
		Responders:  d.responders,
		Tags:        tags,
		Priority:    priority,
	}
}

// Dispatch sends the alert. It never escalates: every failure is captured
// in the result and logged by the caller. An unconfigured endpoint or
// credential makes dispatch a silent no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, outcome model.RunOutcome, summaryPath string) DispatchResult {
	if d.url == "" || d.apiKey == "" {
		return DispatchResult{Skipped: true}
	}

	payload := d.BuildPayload(outcome, summaryPath)
	body, err := json.Marshal(payload)
	if err != nil {
		return DispatchResult{Err: fmt.Errorf("failed to encode alert: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return DispatchResult{Err: fmt.Errorf("failed to build alert request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "GenieKey "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return DispatchResult{Err: fmt.Errorf("failed to send alert: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return DispatchResult{Err: fmt.Errorf("alert service returned %s", resp.Status)}
	}

	logger.Log.Info("alert dispatched",
		zap.String("priority", payload.Priority),
		zap.String("band", string(outcome.Band)))

	return DispatchResult{Sent: true}
}
