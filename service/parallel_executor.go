package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/config"
	"github.com/ludo-technologies/warnscan/internal/constants"
)

// DefaultToolRunConcurrency is used when parallel_tools is set without max_goroutines
const DefaultToolRunConcurrency = 4

// TaskError is the failure of a single tool run
type TaskError struct {
	TaskName string
	Err      error
}

// Error implements the error interface
func (e TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TaskName, e.Err)
}

// Unwrap returns the underlying error
func (e TaskError) Unwrap() error {
	return e.Err
}

// AggregatedError collects the failed tool runs of an execution
type AggregatedError struct {
	Errors []TaskError
}

// Error implements the error interface
func (e *AggregatedError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tool runs failed:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Unwrap returns every task error for errors.Is/As
func (e *AggregatedError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// ToolRunExecutor runs the tool runs of one execution
type ToolRunExecutor struct {
	concurrency int
	timeout     time.Duration
	progress    domain.ProgressManager
}

var _ domain.ParallelExecutor = (*ToolRunExecutor)(nil)

// NewToolRunExecutor creates the executor for the tool runs of an execution.
// Unless parallel_tools is set, runs execute one at a time in configured order.
func NewToolRunExecutor(cfg *config.PerformanceConfig, pm domain.ProgressManager) *ToolRunExecutor {
	concurrency := 1
	if cfg.ParallelTools {
		concurrency = cfg.MaxGoroutines
		if concurrency <= 0 {
			concurrency = DefaultToolRunConcurrency
		}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = constants.DefaultTimeoutSeconds * time.Second
	}

	return &ToolRunExecutor{
		concurrency: concurrency,
		timeout:     timeout,
		progress:    pm,
	}
}

// Execute runs the enabled tasks within the execution timeout.
// Failed runs are collected into an *AggregatedError; when the context ends
// first, the context error is returned instead.
func (e *ToolRunExecutor) Execute(ctx context.Context, tasks []domain.ExecutableTask) error {
	enabled := make([]domain.ExecutableTask, 0, len(tasks))
	for _, t := range tasks {
		if t.IsEnabled() {
			enabled = append(enabled, t)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var bar domain.TaskProgress = &NoOpTaskProgress{}
	if e.progress != nil {
		bar = e.progress.StartTask("Recording tool runs", len(enabled))
	}
	defer bar.Complete()

	g, gCtx := errgroup.WithContext(timeoutCtx)
	g.SetLimit(e.concurrency)

	var mu sync.Mutex
	var failed []TaskError
	for _, t := range enabled {
		t := t
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}

			bar.Describe(t.Name())
			_, err := t.Execute(gCtx)
			bar.Increment(1)
			if err != nil {
				mu.Lock()
				failed = append(failed, TaskError{TaskName: t.Name(), Err: err})
				mu.Unlock()
			}
			// a failed run never stops the others
			return nil
		})
	}
	_ = g.Wait()

	if err := timeoutCtx.Err(); err != nil {
		return fmt.Errorf("recording tool runs interrupted: %w", err)
	}
	if len(failed) > 0 {
		return &AggregatedError{Errors: failed}
	}
	return nil
}
