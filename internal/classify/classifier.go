package classify

import (
	"fmt"
	"sort"
)

// Band is the three-level run classification.
type Band string

const (
	BandSuccess Band = "success"
	BandWarning Band = "warning"
	BandError   Band = "error"
)

func ParseBand(s string) (Band, error) {
	switch Band(s) {
	case BandSuccess, BandWarning, BandError:
		return Band(s), nil
	}
	return "", fmt.Errorf("unknown severity band %q", s)
}

// The copy engine's exit status is a bitmask of independent conditions.
const (
	ExitCopied   = 1
	ExitExtras   = 2
	ExitMismatch = 4
	ExitFailures = 8
	ExitFatal    = 16

	// ExitInvocationFailed is recorded when the engine could not be
	// started or did not complete; it carries the fatal bit so the run
	// always classifies as an error.
	ExitInvocationFailed = ExitFatal
)

// Rule maps overall codes up to and including Max to a band. Rules only
// cover the configurable middle ground: 0 is always Success and anything
// with the failure bit (>= 8) is always Error.
type Rule struct {
	Max  int
	Band Band
}

type Classifier struct {
	rules []Rule
}

// NewClassifier validates and sorts the rule list. Every Max must lie in
// [0, 7], and the rule covering status 0 must map to Success.
func NewClassifier(rules []Rule) (*Classifier, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("severity rules must not be empty")
	}

	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Max < sorted[j].Max })

	for i, r := range sorted {
		if r.Max < 0 || r.Max >= ExitFailures {
			return nil, fmt.Errorf("severity rule max %d out of range [0, %d]", r.Max, ExitFailures-1)
		}
		if i > 0 && sorted[i-1].Max == r.Max {
			return nil, fmt.Errorf("duplicate severity rule max %d", r.Max)
		}
		if _, err := ParseBand(string(r.Band)); err != nil {
			return nil, err
		}
	}

	if sorted[0].Band != BandSuccess {
		return nil, fmt.Errorf("status 0 must classify as success, got %q", sorted[0].Band)
	}

	return &Classifier{rules: sorted}, nil
}

// Outcome is the combined classification of one run's job statuses.
type Outcome struct {
	OverallCode int
	Band        Band
}

// Classify folds the raw job statuses into one overall code and band.
// The overall code is the bitwise OR of all statuses: each status is a
// bitmask of independent conditions, and OR keeps every condition that any
// job reported. The result is independent of job order.
func (c *Classifier) Classify(statuses []int) Outcome {
	overall := 0
	for _, s := range statuses {
		overall |= s
	}

	return Outcome{OverallCode: overall, Band: c.band(overall)}
}

func (c *Classifier) band(overall int) Band {
	if overall == 0 {
		return BandSuccess
	}
	if overall >= ExitFailures {
		return BandError
	}

	for _, r := range c.rules {
		if overall <= r.Max {
			return r.Band
		}
	}

	// Above every configured rule but below the failure bit.
	return BandError
}
