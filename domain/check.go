package domain

import "fmt"

// CheckResult represents the result of a quality check over analysis results
type CheckResult struct {
	Passed      bool             `json:"passed"`
	ExitCode    int              `json:"exit_code"`
	Outcome     Outcome          `json:"outcome"`
	Violations  []CheckViolation `json:"violations"`
	Summary     CheckSummary     `json:"summary"`
	Duration    int64            `json:"duration_ms"`
	GeneratedAt string           `json:"generated_at"`
	Version     string           `json:"version"`
}

// CheckViolation represents a single result that did not pass
type CheckViolation struct {
	ResultID  string `json:"result_id"`
	Status    Status `json:"status"`
	Severity  string `json:"severity"` // error, warning
	Message   string `json:"message"`
	Actual    int    `json:"actual"`
	Threshold int    `json:"threshold,omitempty"`
}

// CheckSummary provides aggregate statistics
type CheckSummary struct {
	ResultsChecked  int `json:"results_checked"`
	TotalIssues     int `json:"total_issues"`
	NewIssues       int `json:"new_issues"`
	TotalViolations int `json:"total_violations"`
	BuildErrors     int `json:"build_errors"`
}

// NewCheckViolation builds a violation for a result whose status is a warning
// or failure. It returns false for results that passed.
func NewCheckViolation(r *AnalysisResult, t Threshold) (CheckViolation, bool) {
	status := r.Status()
	if !status.IsWarning() && status != StatusFailed {
		return CheckViolation{}, false
	}

	actual := r.TotalSize()
	kind := "issues"
	if t.NewIssuesOnly {
		actual = r.NewSize()
		kind = "new issues"
	}

	limit := 0
	switch status {
	case StatusFailed:
		limit = t.Failed
	case StatusWarningHigh:
		limit = t.WarningHigh
	case StatusWarningNormal:
		limit = t.WarningNormal
	case StatusWarningLow:
		limit = t.WarningLow
	}

	severity := "warning"
	if status == StatusFailed {
		severity = "error"
	}

	return CheckViolation{
		ResultID:  r.ID(),
		Status:    status,
		Severity:  severity,
		Message:   fmt.Sprintf("%s reports %d %s (limit %d)", r.ID(), actual, kind, limit),
		Actual:    actual,
		Threshold: limit,
	}, true
}
