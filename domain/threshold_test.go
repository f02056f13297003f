package domain

import (
	"errors"
	"testing"
)

func TestThresholdEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		threshold Threshold
		total     int
		newIssues int
		expected  Status
	}{
		{"unconfigured", Threshold{}, 100, 100, StatusInactive},
		{"below limit", Threshold{WarningNormal: 7}, 6, 0, StatusPassed},
		{"limit reached", Threshold{WarningNormal: 7}, 7, 0, StatusWarningNormal},
		{"limit exceeded", Threshold{WarningNormal: 7}, 8, 0, StatusWarningNormal},
		{"failed wins", Threshold{WarningLow: 1, Failed: 5}, 5, 0, StatusFailed},
		{"highest reached warning", Threshold{WarningLow: 1, WarningNormal: 3, WarningHigh: 10}, 4, 0, StatusWarningNormal},
		{"new issues only", Threshold{WarningHigh: 2, NewIssuesOnly: true}, 50, 1, StatusPassed},
		{"new issues reached", Threshold{WarningHigh: 2, NewIssuesOnly: true}, 50, 2, StatusWarningHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.threshold.Evaluate(tt.total, tt.newIssues); got != tt.expected {
				t.Errorf("Evaluate() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestThresholdValidate(t *testing.T) {
	tests := []struct {
		name      string
		threshold Threshold
		wantErr   bool
	}{
		{"empty", Threshold{}, false},
		{"ordered", Threshold{WarningLow: 1, WarningNormal: 5, Failed: 10}, false},
		{"gaps allowed", Threshold{WarningLow: 3, Failed: 3}, false},
		{"negative", Threshold{WarningHigh: -1}, true},
		{"out of order", Threshold{WarningNormal: 10, WarningHigh: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.threshold.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var domainErr DomainError
				if !errors.As(err, &domainErr) || domainErr.Code != ErrCodeInvalidThreshold {
					t.Errorf("expected invalid threshold error, got %v", err)
				}
			}
		})
	}
}

func TestStatusOrdering(t *testing.T) {
	if !StatusFailed.IsWorseThan(StatusWarningHigh) {
		t.Error("FAILED should be worse than WARNING_HIGH")
	}
	if !StatusWarningLow.IsWorseThan(StatusPassed) {
		t.Error("WARNING_LOW should be worse than PASSED")
	}
	if !StatusWarningNormal.IsWarning() || StatusFailed.IsWarning() {
		t.Error("IsWarning misclassifies statuses")
	}
}

func TestOutcomeOf(t *testing.T) {
	result := func(s Status) *AnalysisResult {
		return NewAnalysisResult(ResultSnapshot{ID: "x", Status: s})
	}

	tests := []struct {
		name     string
		results  []*AnalysisResult
		expected Outcome
	}{
		{"no results", nil, OutcomeSuccess},
		{"inactive and passed", []*AnalysisResult{result(StatusInactive), result(StatusPassed)}, OutcomeSuccess},
		{"warning", []*AnalysisResult{result(StatusPassed), result(StatusWarningLow)}, OutcomeUnstable},
		{"failed", []*AnalysisResult{result(StatusWarningHigh), result(StatusFailed)}, OutcomeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutcomeOf(tt.results); got != tt.expected {
				t.Errorf("OutcomeOf() = %s, want %s", got, tt.expected)
			}
		})
	}
}
