package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/analyzer"
	"github.com/ludo-technologies/warnscan/internal/config"
	"github.com/ludo-technologies/warnscan/internal/parser"
	"github.com/ludo-technologies/warnscan/service"
)

// ReportScanner builds the report of one tool run
type ReportScanner interface {
	Scan(ctx context.Context, input service.ScanInput) (*domain.Report, error)
}

// RecordResult holds the outcome of one execution
type RecordResult struct {
	ExecutionID string
	Results     []*domain.AnalysisResult
	Outcome     domain.Outcome
	BuildErrors []string
	Duration    time.Duration
}

// Meta returns the execution data shown alongside the results
func (r *RecordResult) Meta() domain.ExecutionMeta {
	return domain.ExecutionMeta{
		ExecutionID: r.ExecutionID,
		Outcome:     r.Outcome,
		BuildErrors: r.BuildErrors,
		DurationMs:  r.Duration.Milliseconds(),
	}
}

// Result returns the result with the given id
func (r *RecordResult) Result(id string) (*domain.AnalysisResult, bool) {
	for _, result := range r.Results {
		if result.ID() == id {
			return result, true
		}
	}
	return nil, false
}

// RecordUseCase records the tool runs of an execution and materializes their results
type RecordUseCase struct {
	scanner     ReportScanner
	fileHelper  *FileHelper
	performance config.PerformanceConfig
	progress    domain.ProgressManager
	logger      logrus.FieldLogger
	baseline    domain.BaselineProvider
}

// Execute runs every configured tool, registers the reports and returns the
// results. An identity collision fails the execution but keeps the results of
// the runs registered before it. A cancelled context returns an error and no
// results.
func (uc *RecordUseCase) Execute(ctx context.Context, cfg *domain.ExecutionConfig) (*RecordResult, error) {
	if cfg == nil {
		return nil, domain.NewInvalidInputError("execution config must not be nil", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	result := &RecordResult{ExecutionID: uuid.NewString()}
	log := uc.logger.WithFields(logrus.Fields{
		"execution": result.ExecutionID,
		"mode":      analyzer.ModeOf(cfg.Aggregate),
	})

	baseline, err := uc.loadBaseline(cfg, log)
	if err != nil {
		return nil, err
	}

	scanner := uc.scanner
	if scanner == nil {
		scanner = service.NewScanService(log, uc.performance.MaxGoroutines, service.NewPostProcessor(log), uc.progress)
	}

	registry := analyzer.NewRegistry(cfg.Aggregate)
	tasks := make([]domain.ExecutableTask, 0, len(cfg.Tools))
	for _, run := range cfg.Tools {
		tasks = append(tasks, &toolRunTask{
			run:        run,
			config:     cfg,
			scanner:    scanner,
			fileHelper: uc.fileHelper,
			registry:   registry,
			logger:     log,
		})
	}

	log.WithField("tools", len(tasks)).Info("recording tool runs")
	executor := service.NewToolRunExecutor(&uc.performance, uc.progress)
	if err := executor.Execute(ctx, tasks); err != nil {
		var aggregated *service.AggregatedError
		if !errors.As(err, &aggregated) {
			log.WithError(err).Warn("execution interrupted")
			return nil, err
		}
		result.BuildErrors = buildErrors(aggregated)
	}

	groups := analyzer.NewEngine(cfg.Aggregate).Group(registry)
	result.Results = analyzer.NewMaterializer(cfg, baseline).MaterializeAll(groups)

	result.Outcome = domain.OutcomeOf(result.Results)
	if registry.Failed() != nil || len(result.BuildErrors) > 0 {
		result.Outcome = domain.OutcomeFailure
	}
	result.Duration = time.Since(startTime)

	log.WithFields(logrus.Fields{
		"results": len(result.Results),
		"outcome": result.Outcome,
	}).Info("execution recorded")
	return result, nil
}

func (uc *RecordUseCase) loadBaseline(cfg *domain.ExecutionConfig, log logrus.FieldLogger) (domain.BaselineProvider, error) {
	if uc.baseline != nil {
		return uc.baseline, nil
	}
	if cfg.ReferencePath == "" {
		return nil, nil
	}

	baseline, err := service.LoadBaseline(cfg.ReferencePath)
	if err != nil {
		var domainErr domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeFileNotFound {
			log.WithField("reference", cfg.ReferencePath).Warn("reference report not found, recording without reference")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load reference report: %w", err)
	}
	log.WithField("reference", baseline.ExecutionID).Debug("loaded reference report")
	return baseline, nil
}

// buildErrors turns task failures into execution level messages. Runs skipped
// after a collision are not reported again.
func buildErrors(aggregated *service.AggregatedError) []string {
	var messages []string
	for _, taskErr := range aggregated.Errors {
		if errors.Is(taskErr.Err, domain.ErrExecutionAborted) {
			continue
		}
		var duplicate *domain.DuplicateOriginError
		if errors.As(taskErr.Err, &duplicate) {
			messages = append(messages, duplicate.Error())
			continue
		}
		messages = append(messages, taskErr.Error())
	}
	return messages
}

// toolRunTask scans and registers one tool run
type toolRunTask struct {
	run        domain.ToolRun
	config     *domain.ExecutionConfig
	scanner    ReportScanner
	fileHelper *FileHelper
	registry   *analyzer.Registry
	logger     logrus.FieldLogger
}

func (t *toolRunTask) Name() string { return t.run.Origin }

func (t *toolRunTask) IsEnabled() bool { return true }

func (t *toolRunTask) Execute(ctx context.Context) (interface{}, error) {
	if err := t.registry.Failed(); err != nil {
		return nil, domain.ErrExecutionAborted
	}

	tool, err := parser.Resolve(t.run.ToolID)
	if err != nil {
		return nil, err
	}
	run := t.run
	if run.Name == "" {
		run.Name = tool.Name
	}

	input := service.ScanInput{
		Run:           run,
		Parser:        tool.New(),
		Pattern:       t.config.PatternFor(run),
		WorkspaceRoot: t.config.WorkspaceRoot,
	}

	var scanErr error
	switch {
	case input.Pattern == "" && tool.CanScanConsoleLog && t.config.ConsoleLog != "":
		input.ConsoleLog = t.config.ConsoleLog
	default:
		if input.Pattern == "" {
			input.Pattern = tool.DefaultPattern
		}
		input.Files, scanErr = t.fileHelper.CollectReportFiles(t.config.WorkspaceRoot, input.Pattern, t.config.ExcludePattern)
	}

	var report *domain.Report
	if scanErr != nil {
		t.logger.WithError(scanErr).WithField("origin", run.Origin).Warn("scanning the workspace failed")
		report = domain.NewReport(run.Origin)
		report.Error("Scanning for files with pattern '%s' failed: %v", input.Pattern, scanErr)
		report.Seal()
	} else {
		report, err = t.scanner.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
	}

	if err := t.registry.Register(run.Origin, report, run.Describe()); err != nil {
		return nil, err
	}
	return report, nil
}

// RecordUseCaseBuilder builds a RecordUseCase
type RecordUseCaseBuilder struct {
	scanner     ReportScanner
	fileHelper  *FileHelper
	performance *config.PerformanceConfig
	progress    domain.ProgressManager
	logger      logrus.FieldLogger
	baseline    domain.BaselineProvider
}

// NewRecordUseCaseBuilder creates a new builder
func NewRecordUseCaseBuilder() *RecordUseCaseBuilder {
	return &RecordUseCaseBuilder{}
}

// WithScanner sets the report scanner. By default every execution gets its own
// scan service with post-processing.
func (b *RecordUseCaseBuilder) WithScanner(scanner ReportScanner) *RecordUseCaseBuilder {
	b.scanner = scanner
	return b
}

// WithFileHelper sets the file helper
func (b *RecordUseCaseBuilder) WithFileHelper(fileHelper *FileHelper) *RecordUseCaseBuilder {
	b.fileHelper = fileHelper
	return b
}

// WithPerformance sets the concurrency limits
func (b *RecordUseCaseBuilder) WithPerformance(cfg config.PerformanceConfig) *RecordUseCaseBuilder {
	b.performance = &cfg
	return b
}

// WithProgress sets the progress manager
func (b *RecordUseCaseBuilder) WithProgress(pm domain.ProgressManager) *RecordUseCaseBuilder {
	b.progress = pm
	return b
}

// WithLogger sets the logger
func (b *RecordUseCaseBuilder) WithLogger(logger logrus.FieldLogger) *RecordUseCaseBuilder {
	b.logger = logger
	return b
}

// WithBaseline sets the reference issues, overriding the configured reference path
func (b *RecordUseCaseBuilder) WithBaseline(baseline domain.BaselineProvider) *RecordUseCaseBuilder {
	b.baseline = baseline
	return b
}

// Build creates the RecordUseCase
func (b *RecordUseCaseBuilder) Build() (*RecordUseCase, error) {
	uc := &RecordUseCase{
		scanner:    b.scanner,
		fileHelper: b.fileHelper,
		progress:   b.progress,
		logger:     b.logger,
		baseline:   b.baseline,
	}

	if b.performance != nil {
		uc.performance = *b.performance
	} else {
		uc.performance = config.DefaultConfig().Performance
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}
	if uc.progress == nil {
		uc.progress = &service.NoOpProgressManager{}
	}
	if uc.logger == nil {
		uc.logger = logrus.StandardLogger()
	}

	return uc, nil
}
