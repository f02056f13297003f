package domain

import (
	"encoding/json"
	"sort"
)

// AggregateResultID is the identifier of the single result produced when
// several tool runs are merged.
const AggregateResultID = "analysis"

// ResultSnapshot is the serializable form of an AnalysisResult
type ResultSnapshot struct {
	ID            string         `json:"id" yaml:"id"`
	Aggregate     bool           `json:"aggregate" yaml:"aggregate"`
	TotalSize     int            `json:"total_size" yaml:"total_size"`
	SizePerOrigin map[string]int `json:"size_per_origin" yaml:"size_per_origin"`
	OriginOrder   []string       `json:"origin_order,omitempty" yaml:"origin_order,omitempty"`
	NewSize       int            `json:"new_size" yaml:"new_size"`
	FixedSize     int            `json:"fixed_size" yaml:"fixed_size"`
	UnchangedSize int            `json:"unchanged_size" yaml:"unchanged_size"`
	HasReference  bool           `json:"has_reference" yaml:"has_reference"`
	Status        Status         `json:"status" yaml:"status"`
	InfoMessages  []string       `json:"info_messages,omitempty" yaml:"info_messages,omitempty"`
	ErrorMessages []string       `json:"error_messages,omitempty" yaml:"error_messages,omitempty"`
	Issues        []Issue        `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// AnalysisResult is the immutable outcome of one result unit of an execution:
// either a single tool run or the aggregate of all of them.
type AnalysisResult struct {
	snapshot ResultSnapshot
}

// NewAnalysisResult creates a result from a snapshot. The snapshot is copied so
// later changes to it do not leak into the result.
func NewAnalysisResult(s ResultSnapshot) *AnalysisResult {
	return &AnalysisResult{snapshot: copySnapshot(s)}
}

// ID returns the result identifier (tool origin or AggregateResultID)
func (r *AnalysisResult) ID() string { return r.snapshot.ID }

// TotalSize returns the number of issues in the result
func (r *AnalysisResult) TotalSize() int { return r.snapshot.TotalSize }

// NewSize returns the number of issues not present in the reference
func (r *AnalysisResult) NewSize() int { return r.snapshot.NewSize }

// FixedSize returns the number of reference issues no longer present
func (r *AnalysisResult) FixedSize() int { return r.snapshot.FixedSize }

// UnchangedSize returns the number of issues present in both
func (r *AnalysisResult) UnchangedSize() int { return r.snapshot.UnchangedSize }

// HasReference reports whether new and fixed counts were computed against a reference
func (r *AnalysisResult) HasReference() bool { return r.snapshot.HasReference }

// Status returns the quality status
func (r *AnalysisResult) Status() Status { return r.snapshot.Status }

// IsAggregate reports whether the result merges several tool runs
func (r *AnalysisResult) IsAggregate() bool { return r.snapshot.Aggregate }

// SizePerOrigin returns a copy of the issue count per origin
func (r *AnalysisResult) SizePerOrigin() map[string]int {
	out := make(map[string]int, len(r.snapshot.SizePerOrigin))
	for k, v := range r.snapshot.SizePerOrigin {
		out[k] = v
	}
	return out
}

// Origins returns the contributing origins in first-registration order
func (r *AnalysisResult) Origins() []string {
	return append([]string(nil), r.snapshot.OriginOrder...)
}

// InfoMessages returns a copy of the informational messages
func (r *AnalysisResult) InfoMessages() []string {
	return append([]string(nil), r.snapshot.InfoMessages...)
}

// ErrorMessages returns a copy of the error messages
func (r *AnalysisResult) ErrorMessages() []string {
	return append([]string(nil), r.snapshot.ErrorMessages...)
}

// Issues returns a copy of the issues
func (r *AnalysisResult) Issues() []Issue {
	return append([]Issue(nil), r.snapshot.Issues...)
}

// SizeOf counts the issues of a severity
func (r *AnalysisResult) SizeOf(severity Severity) int {
	count := 0
	for _, issue := range r.snapshot.Issues {
		if issue.Severity == severity {
			count++
		}
	}
	return count
}

// Snapshot returns a deep copy of the result data
func (r *AnalysisResult) Snapshot() ResultSnapshot {
	return copySnapshot(r.snapshot)
}

// MarshalJSON implements json.Marshaler
func (r *AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.snapshot)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var s ResultSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r.snapshot = copySnapshot(s)
	return nil
}

// MarshalYAML implements the yaml Marshaler interface
func (r *AnalysisResult) MarshalYAML() (interface{}, error) {
	return r.snapshot, nil
}

// UnmarshalYAML implements the yaml Unmarshaler interface
func (r *AnalysisResult) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s ResultSnapshot
	if err := unmarshal(&s); err != nil {
		return err
	}
	r.snapshot = copySnapshot(s)
	return nil
}

func copySnapshot(s ResultSnapshot) ResultSnapshot {
	out := s
	out.SizePerOrigin = make(map[string]int, len(s.SizePerOrigin))
	for k, v := range s.SizePerOrigin {
		out.SizePerOrigin[k] = v
	}
	out.OriginOrder = normalizeOriginOrder(s.OriginOrder, out.SizePerOrigin)
	out.InfoMessages = append([]string(nil), s.InfoMessages...)
	out.ErrorMessages = append([]string(nil), s.ErrorMessages...)
	out.Issues = append([]Issue(nil), s.Issues...)
	if out.Status == "" {
		out.Status = StatusInactive
	}
	return out
}

// normalizeOriginOrder keeps the given order when it names exactly the keys of
// sizes and falls back to sorted keys otherwise.
func normalizeOriginOrder(order []string, sizes map[string]int) []string {
	if len(order) == len(sizes) {
		consistent := true
		seen := make(map[string]bool, len(order))
		for _, origin := range order {
			if _, ok := sizes[origin]; !ok || seen[origin] {
				consistent = false
				break
			}
			seen[origin] = true
		}
		if consistent {
			return append([]string(nil), order...)
		}
	}

	keys := make([]string, 0, len(sizes))
	for k := range sizes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
