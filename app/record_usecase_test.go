package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/testutil"
	"github.com/ludo-technologies/warnscan/service"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRecordUseCase(t *testing.T, baseline domain.BaselineProvider) *RecordUseCase {
	t.Helper()
	builder := NewRecordUseCaseBuilder().WithLogger(quietLogger())
	if baseline != nil {
		builder = builder.WithBaseline(baseline)
	}
	uc, err := builder.Build()
	require.NoError(t, err)
	return uc
}

func checkStyleXML(dir string, n int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<checkstyle version=\"8.0\">\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "  <file name=\"%s\">\n", filepath.Join(dir, fmt.Sprintf("Style%d.java", i)))
		fmt.Fprintf(&sb, "    <error line=\"%d\" severity=\"warning\" message=\"Line is longer than 100 characters\" source=\"com.puppycrawl.tools.checkstyle.checks.sizes.LineLengthCheck\"/>\n", i+1)
		sb.WriteString("  </file>\n")
	}
	sb.WriteString("</checkstyle>\n")
	return sb.String()
}

// twoToolWorkspace holds six checkstyle issues and four eclipse warnings
func twoToolWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "target/checkstyle-result.xml", checkStyleXML(dir, 6))
	testutil.WriteFile(t, dir, "logs/compile.log", testutil.EclipseLog(dir, 4))
	return dir
}

func twoToolConfig(dir string, aggregate bool) *domain.ExecutionConfig {
	return &domain.ExecutionConfig{
		Aggregate: aggregate,
		Tools: []domain.ToolRun{
			{Origin: "checkstyle", ToolID: "checkstyle"},
			{Origin: "eclipse", ToolID: "eclipse", Pattern: "**/*.log"},
		},
		WorkspaceRoot: dir,
	}
}

func TestRecordUseCase_SeparateResults(t *testing.T) {
	dir := twoToolWorkspace(t)
	uc := newRecordUseCase(t, nil)

	result, err := uc.Execute(context.Background(), twoToolConfig(dir, false))
	require.NoError(t, err)

	assert.NotEmpty(t, result.ExecutionID)
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Empty(t, result.BuildErrors)
	require.Len(t, result.Results, 2)

	checkstyle, ok := result.Result("checkstyle")
	require.True(t, ok)
	assert.Equal(t, 6, checkstyle.TotalSize())
	assert.Equal(t, domain.StatusInactive, checkstyle.Status())
	assert.Equal(t, map[string]int{"checkstyle": 6}, checkstyle.SizePerOrigin())

	eclipse, ok := result.Result("eclipse")
	require.True(t, ok)
	assert.Equal(t, 4, eclipse.TotalSize())
	assert.False(t, eclipse.IsAggregate())
	assert.Empty(t, eclipse.ErrorMessages())

	meta := result.Meta()
	assert.Equal(t, result.ExecutionID, meta.ExecutionID)
	assert.Equal(t, domain.OutcomeSuccess, meta.Outcome)
}

func TestRecordUseCase_AggregateResult(t *testing.T) {
	dir := twoToolWorkspace(t)
	uc := newRecordUseCase(t, nil)

	result, err := uc.Execute(context.Background(), twoToolConfig(dir, true))
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	aggregate := result.Results[0]
	assert.Equal(t, domain.AggregateResultID, aggregate.ID())
	assert.True(t, aggregate.IsAggregate())
	assert.Equal(t, 10, aggregate.TotalSize())
	assert.Equal(t, map[string]int{"checkstyle": 6, "eclipse": 4}, aggregate.SizePerOrigin())
	assert.Equal(t, []string{"checkstyle", "eclipse"}, aggregate.Origins())
}

func TestRecordUseCase_DuplicateOriginFailsExecution(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "build.log", testutil.EclipseLog(dir, 8))

	cfg := &domain.ExecutionConfig{
		Tools: []domain.ToolRun{
			{Origin: "eclipse", ToolID: "eclipse", Pattern: "**/*.log"},
			{Origin: "eclipse", ToolID: "eclipse", Pattern: "**/*.log"},
		},
		WorkspaceRoot: dir,
	}

	result, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeFailure, result.Outcome)
	require.Len(t, result.BuildErrors, 1)
	assert.Equal(t,
		"ID eclipse is already used by another action: analysis result for Eclipse ECJ (pattern '**/*.log')",
		result.BuildErrors[0])

	// The run registered before the collision is kept
	require.Len(t, result.Results, 1)
	assert.Equal(t, 8, result.Results[0].TotalSize())
}

func TestRecordUseCase_AggregateSameToolTwice(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "build.log", testutil.EclipseLog(dir, 8))

	cfg := &domain.ExecutionConfig{
		Aggregate: true,
		Tools: []domain.ToolRun{
			{Origin: "eclipse", ToolID: "eclipse", Pattern: "**/*.log"},
			{Origin: "eclipse", ToolID: "eclipse", Pattern: "**/*.log"},
		},
		WorkspaceRoot: dir,
	}

	result, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	require.Len(t, result.Results, 1)
	assert.Equal(t, map[string]int{"eclipse": 16}, result.Results[0].SizePerOrigin())
	assert.Equal(t, 16, result.Results[0].TotalSize())
}

func TestRecordUseCase_EmptyPattern(t *testing.T) {
	dir := t.TempDir()
	cfg := &domain.ExecutionConfig{
		Tools:         []domain.ToolRun{{Origin: "pmd", ToolID: "pmd"}},
		WorkspaceRoot: dir,
	}

	result, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	pmd := result.Results[0]
	assert.Equal(t, 0, pmd.TotalSize())
	assert.Contains(t, pmd.InfoMessages(), "No files found for pattern '**/pmd.xml'. Configuration error?")
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
}

func TestRecordUseCase_MissingWorkspace(t *testing.T) {
	cfg := &domain.ExecutionConfig{
		Tools:         []domain.ToolRun{{Origin: "pmd", ToolID: "pmd"}},
		WorkspaceRoot: filepath.Join(t.TempDir(), "missing"),
	}

	result, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	errs := result.Results[0].ErrorMessages()
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "Scanning for files with pattern '**/pmd.xml' failed"), errs[0])
}

func TestRecordUseCase_Thresholds(t *testing.T) {
	dir := twoToolWorkspace(t)
	cfg := twoToolConfig(dir, false)
	cfg.ToolThresholds = map[string]domain.Threshold{
		"checkstyle": {WarningNormal: 5, Failed: 20},
	}

	result, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)

	checkstyle, _ := result.Result("checkstyle")
	assert.Equal(t, domain.StatusWarningNormal, checkstyle.Status())
	eclipse, _ := result.Result("eclipse")
	assert.Equal(t, domain.StatusInactive, eclipse.Status())
	assert.Equal(t, domain.OutcomeUnstable, result.Outcome)

	cfg.ExecutionThreshold = &domain.Threshold{Failed: 3}
	result, err = newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)

	eclipse, _ = result.Result("eclipse")
	assert.Equal(t, domain.StatusFailed, eclipse.Status())
	assert.Equal(t, domain.OutcomeFailure, result.Outcome)
}

func TestRecordUseCase_Reference(t *testing.T) {
	dir := t.TempDir()
	log := testutil.WriteFile(t, dir, "build.log", testutil.EclipseLog(dir, 4))
	cfg := &domain.ExecutionConfig{
		Tools:         []domain.ToolRun{{Origin: "eclipse", ToolID: "eclipse", Pattern: "**/*.log"}},
		WorkspaceRoot: dir,
	}

	first, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)
	baseline := service.NewReferenceBaseline(first.ExecutionID, first.Results)

	testutil.WriteFile(t, dir, filepath.Base(log), testutil.EclipseLog(dir, 6))
	cfg.ExecutionThreshold = &domain.Threshold{WarningHigh: 2, NewIssuesOnly: true}

	second, err := newRecordUseCase(t, baseline).Execute(context.Background(), cfg)
	require.NoError(t, err)

	eclipse, ok := second.Result("eclipse")
	require.True(t, ok)
	assert.True(t, eclipse.HasReference())
	assert.Equal(t, 6, eclipse.TotalSize())
	assert.Equal(t, 2, eclipse.NewSize())
	assert.Equal(t, 4, eclipse.UnchangedSize())
	assert.Equal(t, 0, eclipse.FixedSize())
	assert.Equal(t, domain.StatusWarningHigh, eclipse.Status())
}

func TestRecordUseCase_MissingReferenceFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "build.log", testutil.EclipseLog(dir, 2))
	cfg := &domain.ExecutionConfig{
		Tools:         []domain.ToolRun{{Origin: "eclipse", ToolID: "eclipse", Pattern: "**/*.log"}},
		WorkspaceRoot: dir,
		ReferencePath: filepath.Join(dir, "missing.json"),
	}

	result, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].HasReference())
}

func TestRecordUseCase_ConsoleLog(t *testing.T) {
	dir := t.TempDir()
	console := testutil.WriteFile(t, dir, "console.txt", testutil.EclipseLog(dir, 3))
	cfg := &domain.ExecutionConfig{
		Tools:         []domain.ToolRun{{Origin: "eclipse", ToolID: "eclipse"}},
		WorkspaceRoot: dir,
		ConsoleLog:    console,
	}

	result, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, 3, result.Results[0].TotalSize())
	assert.Contains(t, result.Results[0].InfoMessages(), "Successfully parsed file "+service.ConsoleLogName)
}

func TestRecordUseCase_Cancelled(t *testing.T) {
	dir := twoToolWorkspace(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newRecordUseCase(t, nil).Execute(ctx, twoToolConfig(dir, false))
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestRecordUseCase_InvalidConfig(t *testing.T) {
	uc := newRecordUseCase(t, nil)

	_, err := uc.Execute(context.Background(), nil)
	assert.Error(t, err)

	_, err = uc.Execute(context.Background(), &domain.ExecutionConfig{})
	assert.Error(t, err)

	_, err = uc.Execute(context.Background(), &domain.ExecutionConfig{
		Tools:          []domain.ToolRun{{Origin: "x", ToolID: "eclipse"}},
		ToolThresholds: map[string]domain.Threshold{"x": {WarningHigh: 5, WarningLow: 10}},
	})
	assert.Error(t, err)
}

func TestRecordUseCase_UnknownTool(t *testing.T) {
	cfg := &domain.ExecutionConfig{
		Tools:         []domain.ToolRun{{Origin: "nope", ToolID: "nope"}},
		WorkspaceRoot: t.TempDir(),
	}

	result, err := newRecordUseCase(t, nil).Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailure, result.Outcome)
	require.Len(t, result.BuildErrors, 1)
	assert.Contains(t, result.BuildErrors[0], `unknown tool "nope"`)
	assert.Empty(t, result.Results)
}
