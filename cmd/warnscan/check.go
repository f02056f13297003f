package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/warnscan/app"
	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/constants"
	"github.com/ludo-technologies/warnscan/internal/version"
	"github.com/ludo-technologies/warnscan/service"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [workspace]",
		Short: "Record an execution and fail on quality thresholds for CI/CD pipelines",
		Long: `Record the configured tools and evaluate their results against the
configured thresholds.

Exit codes:
  0 - SUCCESS: every result passed or has no threshold
  1 - UNSTABLE: a warning threshold was reached
  2 - FAILURE: a failure threshold was reached, an ID collision occurred,
      or the execution could not run

Examples:
  # Check with warnscan.yaml
  warnscan check

  # Fail when the aggregated result has 10 or more issues
  warnscan check --tool gcc,clang --aggregate --fail-at 10

  # JSON output for machine parsing
  warnscan check --json`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runCheck,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	addExecutionFlags(cmd)
	cmd.Flags().Int("warn-at", 0, "Issue count at which results become WARNING_NORMAL (0 = configured)")
	cmd.Flags().Int("fail-at", 0, "Issue count at which results become FAILED (0 = configured)")
	cmd.Flags().Bool("new-only", false, "Count only issues that are new against the reference")
	cmd.Flags().Bool("json", false, "Output the check result as JSON")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := loadExecution(cmd, args)
	if err != nil {
		return &CheckExitError{Code: constants.ExitFailure, Message: err.Error()}
	}
	if err := applyThresholdFlags(cmd, e.exec); err != nil {
		return &CheckExitError{Code: constants.ExitFailure, Message: err.Error()}
	}

	result, err := e.run(cmd.Context(), !asJSON)
	if err != nil {
		return &CheckExitError{Code: constants.ExitFailure, Message: err.Error()}
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" || e.cfg.Output.Directory != "" {
		if err := e.writeReport(cmd, result); err != nil {
			return &CheckExitError{Code: constants.ExitFailure, Message: err.Error()}
		}
	}

	check := buildCheckResult(result, e.exec, startTime)
	if asJSON {
		if err := service.WriteJSON(cmd.OutOrStdout(), check); err != nil {
			return &CheckExitError{Code: constants.ExitFailure, Message: fmt.Sprintf("failed to encode JSON: %v", err)}
		}
	} else {
		verbose, _ := cmd.Flags().GetBool("verbose")
		writeCheckText(cmd.OutOrStdout(), check, verbose)
	}

	if check.ExitCode != constants.ExitSuccess {
		return &CheckExitError{Code: check.ExitCode, Message: ""}
	}
	return nil
}

// applyThresholdFlags replaces the execution threshold with the one given on
// the command line
func applyThresholdFlags(cmd *cobra.Command, exec *domain.ExecutionConfig) error {
	changed := cmd.Flags().Changed("warn-at") || cmd.Flags().Changed("fail-at") || cmd.Flags().Changed("new-only")
	if !changed {
		return nil
	}

	threshold := domain.Threshold{}
	if exec.ExecutionThreshold != nil {
		threshold = *exec.ExecutionThreshold
	}
	if cmd.Flags().Changed("warn-at") {
		threshold.WarningNormal, _ = cmd.Flags().GetInt("warn-at")
	}
	if cmd.Flags().Changed("fail-at") {
		threshold.Failed, _ = cmd.Flags().GetInt("fail-at")
	}
	if cmd.Flags().Changed("new-only") {
		threshold.NewIssuesOnly, _ = cmd.Flags().GetBool("new-only")
	}
	if err := threshold.Validate(); err != nil {
		return err
	}
	exec.ExecutionThreshold = &threshold
	return nil
}

// exitCodeFor maps an execution outcome to the exit code of check
func exitCodeFor(outcome domain.Outcome) int {
	switch outcome {
	case domain.OutcomeUnstable:
		return constants.ExitUnstable
	case domain.OutcomeFailure:
		return constants.ExitFailure
	default:
		return constants.ExitSuccess
	}
}

func buildCheckResult(result *app.RecordResult, exec *domain.ExecutionConfig, startTime time.Time) *domain.CheckResult {
	check := &domain.CheckResult{
		Passed:      result.Outcome == domain.OutcomeSuccess,
		ExitCode:    exitCodeFor(result.Outcome),
		Outcome:     result.Outcome,
		Violations:  []domain.CheckViolation{},
		Duration:    time.Since(startTime).Milliseconds(),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.GetVersion(),
	}

	for _, r := range result.Results {
		check.Summary.ResultsChecked++
		check.Summary.TotalIssues += r.TotalSize()
		check.Summary.NewIssues += r.NewSize()
		if v, ok := domain.NewCheckViolation(r, exec.ThresholdFor(r.ID(), r.IsAggregate())); ok {
			check.Violations = append(check.Violations, v)
		}
	}
	for _, msg := range result.BuildErrors {
		check.Violations = append(check.Violations, domain.CheckViolation{
			Status:   domain.StatusFailed,
			Severity: "error",
			Message:  msg,
		})
	}
	check.Summary.BuildErrors = len(result.BuildErrors)
	check.Summary.TotalViolations = len(check.Violations)
	return check
}

func writeCheckText(w io.Writer, check *domain.CheckResult, verbose bool) {
	switch check.Outcome {
	case domain.OutcomeSuccess:
		fmt.Fprintln(w, "PASS: All quality checks passed")
	case domain.OutcomeUnstable:
		fmt.Fprintln(w, "UNSTABLE: Warning thresholds reached")
	default:
		fmt.Fprintln(w, "FAIL: Quality check failed")
	}

	if len(check.Violations) > 0 {
		fmt.Fprintf(w, "  Violations: %d\n", check.Summary.TotalViolations)
	}
	for _, v := range check.Violations {
		severity := "ERROR"
		if v.Severity == "warning" {
			severity = "WARN"
		}
		if v.ResultID == "" {
			fmt.Fprintf(w, "  [%s] %s\n", severity, v.Message)
			continue
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", severity, v.Status, v.Message)
	}

	if verbose {
		fmt.Fprintf(w, "\nSummary:\n")
		fmt.Fprintf(w, "  Results: %d\n", check.Summary.ResultsChecked)
		fmt.Fprintf(w, "  Issues: %d (new %d)\n", check.Summary.TotalIssues, check.Summary.NewIssues)
		fmt.Fprintf(w, "  Build errors: %d\n", check.Summary.BuildErrors)
		fmt.Fprintf(w, "  Duration: %dms\n", check.Duration)
	}
}
