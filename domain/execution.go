package domain

import (
	"context"
	"fmt"
	"io"
)

// Parser converts the raw output of one analysis tool into issues
type Parser interface {
	// Parse reads text and returns the issues it contains. Relative paths may be
	// returned as is; they are resolved against workspaceRoot by the caller.
	// A *ParseError is returned when the input is structurally unreadable.
	Parse(text string, workspaceRoot string) ([]Issue, error)
}

// ParserFunc adapts a function to the Parser interface
type ParserFunc func(text string, workspaceRoot string) ([]Issue, error)

// Parse calls f
func (f ParserFunc) Parse(text string, workspaceRoot string) ([]Issue, error) {
	return f(text, workspaceRoot)
}

// BaselineProvider supplies the issues of a reference result
type BaselineProvider interface {
	// Baseline returns the reference issues of the result with the given id
	Baseline(resultID string) ([]Issue, bool)
}

// ToolRun configures one parser invocation within an execution
type ToolRun struct {
	// Origin is the identity of the run; defaults to the tool id
	Origin string `json:"id" yaml:"id"`

	// ToolID selects the parser
	ToolID string `json:"tool" yaml:"tool"`

	// Name is the display name; defaults to the tool's display name
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Pattern selects the report files in the workspace
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Describe returns a human readable description of the run, used when another
// run collides with it.
func (t ToolRun) Describe() string {
	name := t.Name
	if name == "" {
		name = t.ToolID
	}
	if t.Pattern == "" {
		return fmt.Sprintf("analysis result for %s", name)
	}
	return fmt.Sprintf("analysis result for %s (pattern '%s')", name, t.Pattern)
}

// ExecutionConfig is the configuration of a single execution
type ExecutionConfig struct {
	// Aggregate merges all tool runs into one result
	Aggregate bool

	Tools []ToolRun

	// ToolThresholds are keyed by origin
	ToolThresholds map[string]Threshold

	// ExecutionThreshold applies to the aggregate result, and to tool results
	// without a threshold of their own
	ExecutionThreshold *Threshold

	// Patterns override tool patterns, keyed by origin
	Patterns map[string]string

	// Labels map ids to display names
	Labels map[string]string

	WorkspaceRoot  string
	ConsoleLog     string
	ReferencePath  string
	ExcludePattern []string
}

// ThresholdFor returns the threshold that applies to a result. Aggregate
// results only use the execution threshold.
func (c *ExecutionConfig) ThresholdFor(resultID string, aggregate bool) Threshold {
	if !aggregate {
		if t, ok := c.ToolThresholds[resultID]; ok && t.IsConfigured() {
			return t
		}
	}
	if c.ExecutionThreshold != nil {
		return *c.ExecutionThreshold
	}
	return Threshold{}
}

// PatternFor returns the effective pattern of a tool run
func (c *ExecutionConfig) PatternFor(run ToolRun) string {
	if p, ok := c.Patterns[run.Origin]; ok && p != "" {
		return p
	}
	return run.Pattern
}

// Validate checks the configuration before any report is parsed
func (c *ExecutionConfig) Validate() error {
	if len(c.Tools) == 0 {
		return NewConfigError("no tools configured", nil)
	}
	for _, run := range c.Tools {
		if run.ToolID == "" {
			return NewConfigError(fmt.Sprintf("tool run %q has no tool", run.Origin), nil)
		}
	}
	for origin, t := range c.ToolThresholds {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("threshold of %s: %w", origin, err)
		}
	}
	if c.ExecutionThreshold != nil {
		if err := c.ExecutionThreshold.Validate(); err != nil {
			return fmt.Errorf("execution threshold: %w", err)
		}
	}
	return nil
}

// Outcome is the overall result of an execution
type Outcome string

const (
	OutcomeSuccess  Outcome = "SUCCESS"
	OutcomeUnstable Outcome = "UNSTABLE"
	OutcomeFailure  Outcome = "FAILURE"
)

// OutcomeOf derives the execution outcome from result statuses
func OutcomeOf(results []*AnalysisResult) Outcome {
	outcome := OutcomeSuccess
	for _, r := range results {
		switch {
		case r.Status() == StatusFailed:
			return OutcomeFailure
		case r.Status().IsWarning():
			outcome = OutcomeUnstable
		}
	}
	return outcome
}

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatHTML OutputFormat = "html"
)

// ProgressManager creates progress trackers for long running tasks
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks the progress of one task
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}

// ExecutableTask is a unit of work run by the parallel executor
type ExecutableTask interface {
	Name() string
	Execute(ctx context.Context) (interface{}, error)
	IsEnabled() bool
}

// ParallelExecutor runs tasks concurrently
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
}

// ReportWriter renders execution results
type ReportWriter interface {
	Write(w io.Writer, format OutputFormat, results []*AnalysisResult, meta ExecutionMeta) error
}

// ExecutionMeta carries the execution level data shown with results
type ExecutionMeta struct {
	ExecutionID string   `json:"execution_id" yaml:"execution_id"`
	Outcome     Outcome  `json:"outcome" yaml:"outcome"`
	BuildErrors []string `json:"build_errors,omitempty" yaml:"build_errors,omitempty"`
	DurationMs  int64    `json:"duration_ms" yaml:"duration_ms"`
}
