package domain

import "fmt"

// Status is the quality status of an analysis result
type Status string

const (
	// StatusInactive means no threshold applies to the result
	StatusInactive      Status = "INACTIVE"
	StatusPassed        Status = "PASSED"
	StatusWarningLow    Status = "WARNING_LOW"
	StatusWarningNormal Status = "WARNING_NORMAL"
	StatusWarningHigh   Status = "WARNING_HIGH"
	StatusFailed        Status = "FAILED"
)

var statusRank = map[Status]int{
	StatusInactive:      0,
	StatusPassed:        1,
	StatusWarningLow:    2,
	StatusWarningNormal: 3,
	StatusWarningHigh:   4,
	StatusFailed:        5,
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// IsWarning reports whether s is one of the warning levels
func (s Status) IsWarning() bool {
	return s == StatusWarningLow || s == StatusWarningNormal || s == StatusWarningHigh
}

// IsWorseThan orders statuses from INACTIVE (best) to FAILED (worst)
func (s Status) IsWorseThan(other Status) bool {
	return statusRank[s] > statusRank[other]
}

// Threshold holds the issue counts at which a result escalates to a status.
// A level is reached when the counted issues are greater than or equal to its
// limit; a limit of 0 disables the level.
type Threshold struct {
	WarningLow    int `json:"warning_low" mapstructure:"warning_low" yaml:"warning_low"`
	WarningNormal int `json:"warning_normal" mapstructure:"warning_normal" yaml:"warning_normal"`
	WarningHigh   int `json:"warning_high" mapstructure:"warning_high" yaml:"warning_high"`
	Failed        int `json:"failed" mapstructure:"failed" yaml:"failed"`

	// NewIssuesOnly counts only issues that are new against the reference
	NewIssuesOnly bool `json:"new_issues_only" mapstructure:"new_issues_only" yaml:"new_issues_only"`
}

// IsConfigured reports whether any level is enabled
func (t Threshold) IsConfigured() bool {
	return t.WarningLow > 0 || t.WarningNormal > 0 || t.WarningHigh > 0 || t.Failed > 0
}

// Validate rejects negative limits and enabled limits that are out of order
func (t Threshold) Validate() error {
	levels := []struct {
		name  string
		value int
	}{
		{"warning_low", t.WarningLow},
		{"warning_normal", t.WarningNormal},
		{"warning_high", t.WarningHigh},
		{"failed", t.Failed},
	}

	prevName, prev := "", 0
	for _, level := range levels {
		if level.value < 0 {
			return NewInvalidThresholdError(fmt.Sprintf("%s must be >= 0, got %d", level.name, level.value))
		}
		if level.value == 0 {
			continue
		}
		if prev > 0 && level.value < prev {
			return NewInvalidThresholdError(fmt.Sprintf("%s (%d) must not be lower than %s (%d)",
				level.name, level.value, prevName, prev))
		}
		prevName, prev = level.name, level.value
	}
	return nil
}

// Evaluate derives the status for the given total and new issue counts
func (t Threshold) Evaluate(total, newIssues int) Status {
	if !t.IsConfigured() {
		return StatusInactive
	}

	count := total
	if t.NewIssuesOnly {
		count = newIssues
	}

	switch {
	case reached(count, t.Failed):
		return StatusFailed
	case reached(count, t.WarningHigh):
		return StatusWarningHigh
	case reached(count, t.WarningNormal):
		return StatusWarningNormal
	case reached(count, t.WarningLow):
		return StatusWarningLow
	}
	return StatusPassed
}

func reached(count, limit int) bool {
	return limit > 0 && count >= limit
}
