package domain

import (
	"fmt"
	"sync"
)

// Report collects the issues produced by one tool run. It is mutable until
// sealed; afterwards only diagnostic messages may be appended.
type Report struct {
	mu sync.RWMutex

	origin   string
	issues   []Issue
	seen     map[string]struct{}
	skipped  int
	sealed   bool
	infos    []string
	errs     []string
	severity map[Severity]int
}

// NewReport creates an empty report for the given origin
func NewReport(origin string) *Report {
	return &Report{
		origin:   origin,
		seen:     make(map[string]struct{}),
		severity: make(map[Severity]int),
	}
}

// Origin returns the identifier of the tool run that owns the report
func (r *Report) Origin() string {
	return r.origin
}

// Add appends issues, stamping the origin and fingerprint on each. Issues that
// duplicate an already added issue of the same origin are skipped. It returns
// the number of issues actually added.
func (r *Report) Add(issues ...Issue) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		if len(issues) > 0 {
			r.errs = append(r.errs, fmt.Sprintf("Dropped %d issues: %v", len(issues), ErrReportSealed))
		}
		return 0
	}

	added := 0
	for _, issue := range issues {
		if issue.Message == "" {
			r.errs = append(r.errs, fmt.Sprintf("Skipped issue without message at %s", issue.Location()))
			continue
		}
		if issue.OriginID == "" {
			issue.OriginID = r.origin
		}
		issue = issue.Normalize()

		key := issue.identityKey()
		if _, ok := r.seen[key]; ok {
			r.skipped++
			continue
		}
		r.seen[key] = struct{}{}
		r.issues = append(r.issues, issue)
		r.severity[issue.Severity]++
		added++
	}
	return added
}

// Seal freezes the issue sequence
func (r *Report) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// IsSealed reports whether the report has been sealed
func (r *Report) IsSealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Size returns the number of distinct issues
func (r *Report) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.issues)
}

// IsEmpty reports whether the report has no issues
func (r *Report) IsEmpty() bool {
	return r.Size() == 0
}

// SizeOf returns the number of issues with the given severity
func (r *Report) SizeOf(severity Severity) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.severity[severity]
}

// DuplicatesSkipped returns how many added issues were collapsed as duplicates
func (r *Report) DuplicatesSkipped() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skipped
}

// Issues returns a copy of the issues in insertion order
func (r *Report) Issues() []Issue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Issue, len(r.issues))
	copy(out, r.issues)
	return out
}

// Info appends an informational message
func (r *Report) Info(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}

// Error appends an error message
func (r *Report) Error(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

// InfoMessages returns a copy of the informational messages
func (r *Report) InfoMessages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.infos...)
}

// ErrorMessages returns a copy of the error messages
func (r *Report) ErrorMessages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.errs...)
}

// HasErrors reports whether any error message was recorded
func (r *Report) HasErrors() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.errs) > 0
}

// Enrich applies fn to every issue of a sealed report. fn may only change
// attributes outside the identity of an issue; rewrites that change the
// fingerprint or origin are discarded and recorded as errors. It returns the
// number of issues that were changed.
func (r *Report) Enrich(fn func(Issue) Issue) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	rejected := 0
	for idx, issue := range r.issues {
		updated := fn(issue)
		if updated.OriginID != issue.OriginID || updated.ComputeFingerprint() != issue.Fingerprint {
			rejected++
			continue
		}
		updated.Fingerprint = issue.Fingerprint
		updated.LineEnd = issue.LineEnd
		if updated != issue {
			r.issues[idx] = updated
			changed++
		}
	}
	if rejected > 0 {
		r.errs = append(r.errs, fmt.Sprintf("Rejected %d post-processing changes to issue identities", rejected))
	}
	return changed
}
