package analyzer

import (
	"sync"

	"github.com/ludo-technologies/warnscan/domain"
)

// RegisteredRun is one report registered under an origin
type RegisteredRun struct {
	Origin      string
	Report      *domain.Report
	Description string
	// Sequence is the global registration order within the execution
	Sequence int
}

// Registry tracks the reports of a single execution, keyed by origin.
// Register is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	aggregate bool
	order     []string
	runs      map[string][]RegisteredRun
	sequence  int
	failure   error
}

// NewRegistry creates an empty registry. With aggregate set, several reports
// may share an origin; otherwise a repeated origin fails the execution.
func NewRegistry(aggregate bool) *Registry {
	return &Registry{
		aggregate: aggregate,
		runs:      make(map[string][]RegisteredRun),
	}
}

// Register adds a report under origin. In separate mode a second report for an
// origin returns a *domain.DuplicateOriginError and moves the registry into the
// failed state, after which every call returns domain.ErrExecutionAborted.
func (r *Registry) Register(origin string, report *domain.Report, description string) error {
	if origin == "" {
		return domain.NewInvalidInputError("origin must not be empty", nil)
	}
	if report == nil {
		return domain.NewInvalidInputError("report must not be nil", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failure != nil {
		return domain.ErrExecutionAborted
	}

	existing, taken := r.runs[origin]
	if taken && !r.aggregate {
		r.failure = &domain.DuplicateOriginError{
			Origin:   origin,
			Existing: existing[0].Description,
		}
		return r.failure
	}

	if !taken {
		r.order = append(r.order, origin)
	}
	r.runs[origin] = append(existing, RegisteredRun{
		Origin:      origin,
		Report:      report,
		Description: description,
		Sequence:    r.sequence,
	})
	r.sequence++
	return nil
}

// IsAggregating reports whether duplicate origins are merged
func (r *Registry) IsAggregating() bool {
	return r.aggregate
}

// Failed returns the collision that failed the execution, or nil
func (r *Registry) Failed() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// Origins returns the registered origins in first-registration order
func (r *Registry) Origins() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Runs returns the reports registered under origin in registration order
func (r *Registry) Runs(origin string) []RegisteredRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RegisteredRun(nil), r.runs[origin]...)
}

// Len returns the number of registered reports
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sequence
}

// Snapshot returns all runs grouped by origin in first-registration order
func (r *Registry) Snapshot() [][]RegisteredRun {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]RegisteredRun, 0, len(r.order))
	for _, origin := range r.order {
		out = append(out, append([]RegisteredRun(nil), r.runs[origin]...))
	}
	return out
}
