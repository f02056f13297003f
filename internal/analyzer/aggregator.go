package analyzer

import (
	"github.com/ludo-technologies/warnscan/domain"
)

// AggregationMode selects how registered reports become results
type AggregationMode string

const (
	AggregationModeSeparate  AggregationMode = "separate"
	AggregationModeAggregate AggregationMode = "aggregate"
)

// ModeOf returns the aggregation mode for the aggregate flag
func ModeOf(aggregate bool) AggregationMode {
	if aggregate {
		return AggregationModeAggregate
	}
	return AggregationModeSeparate
}

// OriginPart holds every report registered under one origin
type OriginPart struct {
	Origin string
	Runs   []RegisteredRun
}

// Size sums the deduplicated sizes of the part's reports
func (p OriginPart) Size() int {
	total := 0
	for _, run := range p.Runs {
		total += run.Report.Size()
	}
	return total
}

// Group is one unit that will be materialized as an analysis result
type Group struct {
	ID        string
	Aggregate bool
	Parts     []OriginPart
}

// TotalSize sums the sizes of all parts
func (g Group) TotalSize() int {
	total := 0
	for _, part := range g.Parts {
		total += part.Size()
	}
	return total
}

// IsAggregate reports whether the group merges tool runs
func (g Group) IsAggregate() bool {
	return g.Aggregate
}

// GroupingStrategy turns the registry contents into result groups
type GroupingStrategy interface {
	Group(registry *Registry) []Group
	GetName() string
}

// CreateGroupingStrategy creates the strategy for a mode
func CreateGroupingStrategy(mode AggregationMode) GroupingStrategy {
	switch mode {
	case AggregationModeAggregate:
		return &mergedGrouping{id: domain.AggregateResultID}
	case AggregationModeSeparate:
		fallthrough
	default:
		return &separateGrouping{}
	}
}

// separateGrouping yields one group per origin
type separateGrouping struct{}

func (s *separateGrouping) GetName() string { return string(AggregationModeSeparate) }

func (s *separateGrouping) Group(registry *Registry) []Group {
	snapshot := registry.Snapshot()
	groups := make([]Group, 0, len(snapshot))
	for _, runs := range snapshot {
		if len(runs) == 0 {
			continue
		}
		groups = append(groups, Group{
			ID:    runs[0].Origin,
			Parts: []OriginPart{{Origin: runs[0].Origin, Runs: runs}},
		})
	}
	return groups
}

// mergedGrouping yields exactly one group containing every origin
type mergedGrouping struct {
	id string
}

func (m *mergedGrouping) GetName() string { return string(AggregationModeAggregate) }

func (m *mergedGrouping) Group(registry *Registry) []Group {
	group := Group{ID: m.id, Aggregate: true}
	for _, runs := range registry.Snapshot() {
		if len(runs) == 0 {
			continue
		}
		group.Parts = append(group.Parts, OriginPart{Origin: runs[0].Origin, Runs: runs})
	}
	return []Group{group}
}

// Engine resolves the final grouping of an execution
type Engine struct {
	strategy GroupingStrategy
}

// NewEngine creates an engine for the aggregate flag
func NewEngine(aggregate bool) *Engine {
	return &Engine{strategy: CreateGroupingStrategy(ModeOf(aggregate))}
}

// Mode returns the configured aggregation mode
func (e *Engine) Mode() AggregationMode {
	return AggregationMode(e.strategy.GetName())
}

// Group resolves the registered reports into result groups
func (e *Engine) Group(registry *Registry) []Group {
	return e.strategy.Group(registry)
}
