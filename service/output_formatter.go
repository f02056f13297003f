package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/version"
)

// OutputFormatterImpl implements domain.ReportWriter
type OutputFormatterImpl struct {
	// ShowDetails lists every issue in text output
	ShowDetails bool

	// NoColor disables styling of text output
	NoColor bool

	// Labels map result ids to display names
	Labels map[string]string
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// ExecutionReportJSON is the document written for json and yaml output. It is
// also the format read back as a reference by LoadBaseline.
type ExecutionReportJSON struct {
	Version     string                   `json:"version" yaml:"version"`
	GeneratedAt string                   `json:"generated_at" yaml:"generated_at"`
	ExecutionID string                   `json:"execution_id" yaml:"execution_id"`
	Outcome     domain.Outcome           `json:"outcome" yaml:"outcome"`
	DurationMs  int64                    `json:"duration_ms" yaml:"duration_ms"`
	BuildErrors []string                 `json:"build_errors,omitempty" yaml:"build_errors,omitempty"`
	Results     []*domain.AnalysisResult `json:"results" yaml:"results"`
}

// NewExecutionReport builds the serializable document of an execution
func NewExecutionReport(results []*domain.AnalysisResult, meta domain.ExecutionMeta) ExecutionReportJSON {
	if results == nil {
		results = []*domain.AnalysisResult{}
	}
	return ExecutionReportJSON{
		Version:     version.GetVersion(),
		GeneratedAt: time.Now().Format(time.RFC3339),
		ExecutionID: meta.ExecutionID,
		Outcome:     meta.Outcome,
		DurationMs:  meta.DurationMs,
		BuildErrors: meta.BuildErrors,
		Results:     results,
	}
}

// Write writes the results of an execution in the specified format
func (f *OutputFormatterImpl) Write(writer io.Writer, format domain.OutputFormat, results []*domain.AnalysisResult, meta domain.ExecutionMeta) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, NewExecutionReport(results, meta))
	case domain.OutputFormatYAML:
		return WriteYAML(writer, NewExecutionReport(results, meta))
	case domain.OutputFormatHTML:
		return f.WriteHTML(writer, results, meta)
	case domain.OutputFormatText, "":
		return f.writeText(writer, results, meta)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

type textStyles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

func (f *OutputFormatterImpl) styles() textStyles {
	if f.NoColor {
		plain := lipgloss.NewStyle()
		return textStyles{plain, plain, plain, plain, plain, plain}
	}
	return textStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		heading: lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		good:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		bad:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

func (s textStyles) status(status domain.Status) string {
	switch {
	case status == domain.StatusFailed:
		return s.bad.Render(string(status))
	case status.IsWarning():
		return s.warn.Render(string(status))
	case status == domain.StatusPassed:
		return s.good.Render(string(status))
	default:
		return s.muted.Render(string(status))
	}
}

func (s textStyles) outcome(outcome domain.Outcome) string {
	switch outcome {
	case domain.OutcomeFailure:
		return s.bad.Render(string(outcome))
	case domain.OutcomeUnstable:
		return s.warn.Render(string(outcome))
	default:
		return s.good.Render(string(outcome))
	}
}

// writeText writes the results as plain text
func (f *OutputFormatterImpl) writeText(writer io.Writer, results []*domain.AnalysisResult, meta domain.ExecutionMeta) error {
	st := f.styles()

	fmt.Fprintf(writer, "\n%s\n", st.title.Render("=== warnscan Report ==="))
	if meta.ExecutionID != "" {
		fmt.Fprintf(writer, "Execution: %s\n", meta.ExecutionID)
	}
	fmt.Fprintf(writer, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "Duration: %dms\n", meta.DurationMs)
	fmt.Fprintf(writer, "Version: %s\n", version.GetVersion())
	fmt.Fprintf(writer, "Outcome: %s\n", st.outcome(meta.Outcome))

	for _, result := range results {
		f.writeResultText(writer, st, result)
	}
	if len(results) == 0 {
		fmt.Fprintf(writer, "\nNo results recorded.\n")
	}

	if len(meta.BuildErrors) > 0 {
		fmt.Fprintf(writer, "\n%s\n", st.heading.Render("Build errors:"))
		for _, e := range meta.BuildErrors {
			fmt.Fprintf(writer, "  - %s\n", st.bad.Render(e))
		}
	}

	return nil
}

func (f *OutputFormatterImpl) writeResultText(writer io.Writer, st textStyles, result *domain.AnalysisResult) {
	fmt.Fprintf(writer, "\n%s\n", st.heading.Render(fmt.Sprintf("--- %s ---", f.label(result.ID()))))
	fmt.Fprintf(writer, "  Status: %s\n", st.status(result.Status()))

	if result.HasReference() {
		fmt.Fprintf(writer, "  Issues: %d (new %d, fixed %d, unchanged %d)\n",
			result.TotalSize(), result.NewSize(), result.FixedSize(), result.UnchangedSize())
	} else {
		fmt.Fprintf(writer, "  Issues: %d\n", result.TotalSize())
	}

	if result.IsAggregate() {
		sizes := result.SizePerOrigin()
		parts := make([]string, 0, len(sizes))
		for _, origin := range result.Origins() {
			parts = append(parts, fmt.Sprintf("%s: %d", f.label(origin), sizes[origin]))
		}
		fmt.Fprintf(writer, "  Tools: %s\n", strings.Join(parts, ", "))
	}

	severities := make([]string, 0, len(domain.AllSeverities()))
	for _, severity := range domain.AllSeverities() {
		if n := result.SizeOf(severity); n > 0 {
			severities = append(severities, fmt.Sprintf("%s %d", severity, n))
		}
	}
	if len(severities) > 0 {
		fmt.Fprintf(writer, "  Severities: %s\n", strings.Join(severities, ", "))
	}

	if f.ShowDetails && result.TotalSize() > 0 {
		issues := result.Issues()
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Severity < issues[j].Severity
		})
		fmt.Fprintf(writer, "  Details:\n")
		for _, issue := range issues {
			fmt.Fprintf(writer, "    %s [%s] %s", issue.Location(), issue.Severity, issue.Message)
			if issue.Category != "" {
				fmt.Fprintf(writer, " %s", st.muted.Render("("+issue.Category+")"))
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	// Info
	if msgs := result.InfoMessages(); len(msgs) > 0 && f.ShowDetails {
		fmt.Fprintf(writer, "  Info:\n")
		for _, m := range msgs {
			fmt.Fprintf(writer, "    - %s\n", st.muted.Render(m))
		}
	}

	// Errors
	if msgs := result.ErrorMessages(); len(msgs) > 0 {
		fmt.Fprintf(writer, "  Errors:\n")
		for _, m := range msgs {
			fmt.Fprintf(writer, "    - %s\n", st.bad.Render(m))
		}
	}
}

func (f *OutputFormatterImpl) label(id string) string {
	if name, ok := f.Labels[id]; ok && name != "" && name != id {
		return fmt.Sprintf("%s (%s)", name, id)
	}
	return id
}
