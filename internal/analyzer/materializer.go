package analyzer

import (
	"fmt"

	"github.com/ludo-technologies/warnscan/domain"
)

// Materializer turns result groups into immutable analysis results
type Materializer struct {
	config   *domain.ExecutionConfig
	baseline domain.BaselineProvider
}

// NewMaterializer creates a materializer. Both arguments may be nil: without a
// configuration every status is INACTIVE, without a baseline nothing is new.
func NewMaterializer(config *domain.ExecutionConfig, baseline domain.BaselineProvider) *Materializer {
	if config == nil {
		config = &domain.ExecutionConfig{}
	}
	return &Materializer{config: config, baseline: baseline}
}

// MaterializeAll materializes every group in order
func (m *Materializer) MaterializeAll(groups []Group) []*domain.AnalysisResult {
	results := make([]*domain.AnalysisResult, 0, len(groups))
	for _, g := range groups {
		results = append(results, m.Materialize(g))
	}
	return results
}

// Materialize builds the result of one group
func (m *Materializer) Materialize(group Group) *domain.AnalysisResult {
	snapshot := domain.ResultSnapshot{
		ID:            group.ID,
		Aggregate:     group.Aggregate,
		SizePerOrigin: make(map[string]int, len(group.Parts)),
	}

	labelled := group.IsAggregate()
	infos := newMessageSet()
	errs := newMessageSet()

	for _, part := range group.Parts {
		snapshot.OriginOrder = append(snapshot.OriginOrder, part.Origin)
		for _, run := range part.Runs {
			snapshot.SizePerOrigin[part.Origin] += run.Report.Size()
			snapshot.Issues = append(snapshot.Issues, run.Report.Issues()...)

			infos.addReport(labelAll(labelled, part.Origin, run.Report.InfoMessages()))
			errs.addReport(labelAll(labelled, part.Origin, run.Report.ErrorMessages()))
		}
	}
	snapshot.TotalSize = len(snapshot.Issues)
	snapshot.InfoMessages = infos.items
	snapshot.ErrorMessages = errs.items

	snapshot.UnchangedSize = snapshot.TotalSize
	if m.baseline != nil {
		if reference, ok := m.baseline.Baseline(group.ID); ok {
			diff := Compare(snapshot.Issues, reference)
			snapshot.HasReference = true
			snapshot.NewSize = diff.New
			snapshot.FixedSize = diff.Fixed
			snapshot.UnchangedSize = diff.Unchanged
		}
	}

	threshold := m.config.ThresholdFor(group.ID, group.Aggregate)
	snapshot.Status = threshold.Evaluate(snapshot.TotalSize, snapshot.NewSize)

	return domain.NewAnalysisResult(snapshot)
}

// Delta counts the differences between current issues and a reference
type Delta struct {
	New       int
	Fixed     int
	Unchanged int
}

// Compare matches current issues against reference issues by origin and
// fingerprint. Repeated identities are matched pairwise.
func Compare(current, reference []domain.Issue) Delta {
	pending := make(map[string]int, len(reference))
	for _, issue := range reference {
		pending[baselineKey(issue)]++
	}

	var d Delta
	for _, issue := range current {
		key := baselineKey(issue)
		if pending[key] > 0 {
			pending[key]--
			d.Unchanged++
			continue
		}
		d.New++
	}
	for _, left := range pending {
		d.Fixed += left
	}
	return d
}

func baselineKey(issue domain.Issue) string {
	fingerprint := issue.Fingerprint
	if fingerprint == "" {
		fingerprint = issue.Normalize().Fingerprint
	}
	return issue.OriginID + "\x00" + fingerprint
}

func labelAll(enabled bool, origin string, msgs []string) []string {
	if !enabled {
		return msgs
	}
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = fmt.Sprintf("[%s] %s", origin, msg)
	}
	return out
}

// messageSet keeps insertion order and drops messages already contributed by
// an earlier report. The messages of one report are always kept as a whole.
type messageSet struct {
	items []string
	seen  map[string]struct{}
}

func newMessageSet() *messageSet {
	return &messageSet{seen: make(map[string]struct{})}
}

func (s *messageSet) addReport(msgs []string) {
	for _, msg := range msgs {
		if _, dup := s.seen[msg]; !dup {
			s.items = append(s.items, msg)
		}
	}
	for _, msg := range msgs {
		s.seen[msg] = struct{}{}
	}
}
