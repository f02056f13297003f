package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/config"
)

// mockTask implements domain.ExecutableTask for testing
type mockTask struct {
	name     string
	enabled  bool
	execFunc func(ctx context.Context) (interface{}, error)
}

func (t *mockTask) Name() string {
	return t.name
}

func (t *mockTask) Execute(ctx context.Context) (interface{}, error) {
	if t.execFunc != nil {
		return t.execFunc(ctx)
	}
	return nil, nil
}

func (t *mockTask) IsEnabled() bool {
	return t.enabled
}

func newMockTask(name string, enabled bool, execFunc func(ctx context.Context) (interface{}, error)) *mockTask {
	return &mockTask{name: name, enabled: enabled, execFunc: execFunc}
}

func TestNewToolRunExecutor(t *testing.T) {
	tests := []struct {
		name            string
		cfg             config.PerformanceConfig
		wantConcurrency int
		wantTimeout     time.Duration
	}{
		{
			name:            "sequential by default",
			cfg:             config.PerformanceConfig{MaxGoroutines: 8, TimeoutSeconds: 30},
			wantConcurrency: 1,
			wantTimeout:     30 * time.Second,
		},
		{
			name:            "parallel tools use max goroutines",
			cfg:             config.PerformanceConfig{MaxGoroutines: 8, TimeoutSeconds: 30, ParallelTools: true},
			wantConcurrency: 8,
			wantTimeout:     30 * time.Second,
		},
		{
			name:            "invalid values fall back to defaults",
			cfg:             config.PerformanceConfig{MaxGoroutines: -1, TimeoutSeconds: 0, ParallelTools: true},
			wantConcurrency: DefaultToolRunConcurrency,
			wantTimeout:     5 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := NewToolRunExecutor(&tt.cfg, nil)
			if executor.concurrency != tt.wantConcurrency {
				t.Errorf("concurrency = %d, want %d", executor.concurrency, tt.wantConcurrency)
			}
			if executor.timeout != tt.wantTimeout {
				t.Errorf("timeout = %v, want %v", executor.timeout, tt.wantTimeout)
			}
		})
	}
}

func TestToolRunExecutor_SequentialKeepsOrder(t *testing.T) {
	executor := NewToolRunExecutor(&config.PerformanceConfig{TimeoutSeconds: 30}, &NoOpProgressManager{})

	var mu sync.Mutex
	var order []string
	var tasks []domain.ExecutableTask
	for _, name := range []string{"eclipse", "checkstyle", "pmd", "gcc"} {
		name := name
		tasks = append(tasks, newMockTask(name, true, func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}))
	}

	if err := executor.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(order, ","); got != "eclipse,checkstyle,pmd,gcc" {
		t.Errorf("tool runs executed out of order: %s", got)
	}
}

func TestToolRunExecutor_EmptyAndDisabled(t *testing.T) {
	executor := NewToolRunExecutor(&config.PerformanceConfig{}, nil)

	if err := executor.Execute(context.Background(), nil); err != nil {
		t.Errorf("empty task list should succeed, got %v", err)
	}

	var executed atomic.Bool
	disabled := newMockTask("pmd", false, func(ctx context.Context) (interface{}, error) {
		executed.Store(true)
		return nil, nil
	})
	if err := executor.Execute(context.Background(), []domain.ExecutableTask{disabled}); err != nil {
		t.Errorf("disabled tasks should be skipped, got %v", err)
	}
	if executed.Load() {
		t.Error("disabled task was executed")
	}
}

func TestToolRunExecutor_FailuresAreCollected(t *testing.T) {
	executor := NewToolRunExecutor(&config.PerformanceConfig{TimeoutSeconds: 30}, nil)
	collision := &domain.DuplicateOriginError{Origin: "eclipse", Existing: "analysis result for Eclipse ECJ"}

	var executed atomic.Int32
	tasks := []domain.ExecutableTask{
		newMockTask("eclipse", true, func(ctx context.Context) (interface{}, error) {
			executed.Add(1)
			return nil, nil
		}),
		newMockTask("eclipse#2", true, func(ctx context.Context) (interface{}, error) {
			executed.Add(1)
			return nil, collision
		}),
		newMockTask("pmd", true, func(ctx context.Context) (interface{}, error) {
			executed.Add(1)
			return nil, domain.ErrExecutionAborted
		}),
	}

	err := executor.Execute(context.Background(), tasks)
	if executed.Load() != 3 {
		t.Errorf("every tool run should execute, got %d", executed.Load())
	}

	var aggregated *AggregatedError
	if !errors.As(err, &aggregated) {
		t.Fatalf("expected *AggregatedError, got %T", err)
	}
	if len(aggregated.Errors) != 2 {
		t.Fatalf("expected 2 task errors, got %d", len(aggregated.Errors))
	}
	if aggregated.Errors[0].TaskName != "eclipse#2" {
		t.Errorf("unexpected first failure: %s", aggregated.Errors[0].TaskName)
	}

	var dup *domain.DuplicateOriginError
	if !errors.As(err, &dup) {
		t.Error("the collision should be reachable through errors.As")
	}
	if !errors.Is(err, domain.ErrExecutionAborted) {
		t.Error("the aborted run should be reachable through errors.Is")
	}
}

func TestToolRunExecutor_Timeout(t *testing.T) {
	executor := NewToolRunExecutor(&config.PerformanceConfig{TimeoutSeconds: 1}, nil)
	executor.timeout = 20 * time.Millisecond

	slow := newMockTask("slow", true, func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	err := executor.Execute(context.Background(), []domain.ExecutableTask{slow})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "recording tool runs interrupted") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestToolRunExecutor_ContextCancellation(t *testing.T) {
	executor := NewToolRunExecutor(&config.PerformanceConfig{TimeoutSeconds: 30}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed atomic.Bool
	task := newMockTask("eclipse", true, func(ctx context.Context) (interface{}, error) {
		executed.Store(true)
		return nil, nil
	})

	err := executor.Execute(ctx, []domain.ExecutableTask{task})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if executed.Load() {
		t.Error("no tool run should start after cancellation")
	}
}

func TestToolRunExecutor_ProgressIntegration(t *testing.T) {
	var (
		mu          sync.Mutex
		description string
		total       int
		increments  int
		described   []string
		completed   bool
	)

	pm := &mockProgressManager{
		startTaskFunc: func(desc string, n int) domain.TaskProgress {
			description, total = desc, n
			return &mockTaskProgress{
				incrementFunc: func(n int) {
					mu.Lock()
					increments += n
					mu.Unlock()
				},
				describeFunc: func(d string) {
					mu.Lock()
					described = append(described, d)
					mu.Unlock()
				},
				completeFunc: func() { completed = true },
			}
		},
	}

	executor := NewToolRunExecutor(&config.PerformanceConfig{TimeoutSeconds: 30}, pm)
	tasks := []domain.ExecutableTask{
		newMockTask("eclipse", true, nil),
		newMockTask("pmd", true, nil),
		newMockTask("gcc", false, nil),
	}
	if err := executor.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if description != "Recording tool runs" {
		t.Errorf("unexpected progress description: %q", description)
	}
	if total != 2 {
		t.Errorf("progress total should count enabled runs only, got %d", total)
	}
	if increments != 2 {
		t.Errorf("expected 2 increments, got %d", increments)
	}
	if strings.Join(described, ",") != "eclipse,pmd" {
		t.Errorf("unexpected described runs: %v", described)
	}
	if !completed {
		t.Error("progress should be completed")
	}
}

func TestAggregatedError_Error(t *testing.T) {
	tests := []struct {
		name   string
		errors []TaskError
		want   []string
	}{
		{name: "empty", want: []string{"no errors"}},
		{
			name:   "single",
			errors: []TaskError{{TaskName: "pmd", Err: errors.New("boom")}},
			want:   []string{"[pmd] boom"},
		},
		{
			name: "multiple",
			errors: []TaskError{
				{TaskName: "pmd", Err: errors.New("boom")},
				{TaskName: "gcc", Err: errors.New("bang")},
			},
			want: []string{"2 tool runs failed:", "1. [pmd] boom", "2. [gcc] bang"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := (&AggregatedError{Errors: tt.errors}).Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("error %q should contain %q", msg, want)
				}
			}
		})
	}
}

func TestTaskError_Unwrap(t *testing.T) {
	original := errors.New("original")
	te := TaskError{TaskName: "eclipse", Err: original}

	if te.Error() != "[eclipse] original" {
		t.Errorf("unexpected error string: %s", te.Error())
	}
	if !errors.Is(te, original) {
		t.Error("TaskError should unwrap to original error")
	}
}

type mockProgressManager struct {
	startTaskFunc func(description string, total int) domain.TaskProgress
}

func (m *mockProgressManager) StartTask(description string, total int) domain.TaskProgress {
	if m.startTaskFunc != nil {
		return m.startTaskFunc(description, total)
	}
	return &NoOpTaskProgress{}
}

func (m *mockProgressManager) IsInteractive() bool {
	return false
}

func (m *mockProgressManager) Close() {}

type mockTaskProgress struct {
	incrementFunc func(n int)
	describeFunc  func(description string)
	completeFunc  func()
}

func (m *mockTaskProgress) Increment(n int) {
	if m.incrementFunc != nil {
		m.incrementFunc(n)
	}
}

func (m *mockTaskProgress) Describe(description string) {
	if m.describeFunc != nil {
		m.describeFunc(description)
	}
}

func (m *mockTaskProgress) Complete() {
	if m.completeFunc != nil {
		m.completeFunc()
	}
}
