package api

import (
	"sync"

	"github.com/ludo-technologies/warnscan/service"
)

// executionStore keeps the most recent execution reports in memory
type executionStore struct {
	mu      sync.RWMutex
	max     int
	order   []string
	reports map[string]service.ExecutionReportJSON
}

func newExecutionStore(max int) *executionStore {
	return &executionStore{
		max:     max,
		reports: make(map[string]service.ExecutionReportJSON),
	}
}

func (s *executionStore) put(report service.ExecutionReportJSON) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[report.ExecutionID]; !ok {
		s.order = append(s.order, report.ExecutionID)
	}
	s.reports[report.ExecutionID] = report

	for len(s.order) > s.max {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *executionStore) get(id string) (service.ExecutionReportJSON, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	return report, ok
}

// list returns the stored reports, newest first
func (s *executionStore) list() []service.ExecutionReportJSON {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]service.ExecutionReportJSON, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.reports[s.order[i]])
	}
	return out
}
