package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/warnscan/app"
	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/config"
	"github.com/ludo-technologies/warnscan/service"
)

func recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [workspace]",
		Short: "Parse tool reports and record the issues of an execution",
		Long: `Parse the reports of the configured tools below the workspace and print
one result per tool, or a single aggregated result.

Tools come from the configuration file (warnscan.yaml, discovered upward from
the workspace) unless --tool is given.

Examples:
  # Record the tools of warnscan.yaml
  warnscan record

  # Eclipse and PMD warnings of a Maven build, aggregated into one result
  warnscan record --tool eclipse,pmd --aggregate target/

  # Read compiler warnings from the console log
  warnscan record --tool gcc --console-log build.log

  # Compare with a previous execution
  warnscan record --format json -o current.json --reference previous.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRecord,
	}

	addExecutionFlags(cmd)
	return cmd
}

// addExecutionFlags registers the flags shared by record and check
func addExecutionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Path to config file")
	cmd.Flags().Bool("aggregate", false, "Aggregate all tool runs into a single result")
	cmd.Flags().StringSliceP("tool", "t", nil, "Tools to run, replacing the configured tool list")
	cmd.Flags().StringToString("pattern", nil, "Report file pattern per tool id, e.g. pmd=**/pmd.xml")
	cmd.Flags().String("console-log", "", "Console log scanned by tools without a pattern")
	cmd.Flags().String("reference", "", "Previous JSON or YAML report used to count new and fixed issues")
	cmd.Flags().StringP("format", "f", "", "Output format: text, json, yaml, html")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().Bool("details", false, "List every issue in text output")
	cmd.Flags().Bool("no-color", false, "Disable styled text output")
	cmd.Flags().Bool("no-progress", false, "Disable progress bars")
}

// execution bundles the loaded configuration of one run of record or check
type execution struct {
	cfg  *config.Config
	exec *domain.ExecutionConfig
}

// loadExecution loads the configuration and applies the command line flags
func loadExecution(cmd *cobra.Command, args []string) (*execution, error) {
	configPath, _ := cmd.Flags().GetString("config")
	tools, _ := cmd.Flags().GetStringSlice("tool")
	patterns, _ := cmd.Flags().GetStringToString("pattern")
	consoleLog, _ := cmd.Flags().GetString("console-log")
	reference, _ := cmd.Flags().GetString("reference")
	format, _ := cmd.Flags().GetString("format")

	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	loader := service.NewConfigurationLoader()
	base, err := loader.LoadConfig(configPath, target)
	if err != nil {
		return nil, err
	}

	overrides := service.ConfigOverrides{
		ConsoleLog: consoleLog,
		Reference:  reference,
		Format:     format,
		Tools:      tools,
		Patterns:   patterns,
	}
	if len(args) > 0 {
		overrides.Workspace = args[0]
	}
	if cmd.Flags().Changed("aggregate") {
		aggregate, _ := cmd.Flags().GetBool("aggregate")
		overrides.Aggregate = &aggregate
	}

	cfg := loader.MergeConfig(base, overrides)
	if cmd.Flags().Changed("details") {
		cfg.Output.ShowDetails, _ = cmd.Flags().GetBool("details")
	}
	if cmd.Flags().Changed("no-color") {
		cfg.Output.NoColor, _ = cmd.Flags().GetBool("no-color")
	}
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); noProgress {
		cfg.Performance.EnableProgress = false
	}

	if len(cfg.Tools) == 0 {
		return nil, domain.NewConfigError("no tools configured, pass --tool or run 'warnscan init'", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, domain.NewConfigError("invalid configuration", err)
	}

	exec, err := loader.ToExecutionConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"workspace": exec.WorkspaceRoot,
		"tools":     len(exec.Tools),
		"aggregate": exec.Aggregate,
	}).Debug("configuration loaded")
	return &execution{cfg: cfg, exec: exec}, nil
}

// run records the execution, interrupting it on SIGINT
func (e *execution) run(ctx context.Context, showProgress bool) (*app.RecordResult, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	pm := service.NewProgressManager(showProgress && e.cfg.Performance.EnableProgress)
	defer pm.Close()

	uc, err := app.NewRecordUseCaseBuilder().
		WithFileHelper(app.NewFileHelperWithSymlinks(e.cfg.Analysis.FollowSymlinks)).
		WithPerformance(e.cfg.Performance).
		WithProgress(pm).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, err
	}
	return uc.Execute(ctx, e.exec)
}

// formatter returns the output formatter configured for this execution
func (e *execution) formatter() *service.OutputFormatterImpl {
	labels := make(map[string]string, len(e.exec.Tools)+len(e.exec.Labels))
	for _, run := range e.exec.Tools {
		if run.Name != "" {
			labels[run.Origin] = run.Name
		}
	}
	for id, label := range e.exec.Labels {
		labels[id] = label
	}
	return &service.OutputFormatterImpl{
		ShowDetails: e.cfg.Output.ShowDetails,
		NoColor:     e.cfg.Output.NoColor,
		Labels:      labels,
	}
}

// writeReport writes the results to --output, the configured report directory,
// or stdout.
func (e *execution) writeReport(cmd *cobra.Command, result *app.RecordResult) error {
	format := domain.OutputFormat(e.cfg.Output.Format)
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" && e.cfg.Output.Directory != "" {
		outputPath = filepath.Join(e.cfg.Output.Directory, reportFileName(result.ExecutionID, format))
	}

	if outputPath == "" {
		return e.formatter().Write(cmd.OutOrStdout(), format, result.Results, result.Meta())
	}

	if err := app.NewFileHelper().EnsureDir(filepath.Dir(outputPath)); err != nil {
		return domain.NewOutputError("failed to create report directory", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return domain.NewOutputError("failed to create report file", err)
	}
	defer file.Close()

	if err := e.formatter().Write(file, format, result.Results, result.Meta()); err != nil {
		return err
	}

	displayPath := outputPath
	if absPath, err := filepath.Abs(outputPath); err == nil {
		displayPath = absPath
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to: %s\n", displayPath)
	return nil
}

func reportFileName(executionID string, format domain.OutputFormat) string {
	ext := string(format)
	if ext == "" || format == domain.OutputFormatText {
		ext = "txt"
	}
	return fmt.Sprintf("warnscan-%s.%s", executionID, ext)
}

func runRecord(cmd *cobra.Command, args []string) error {
	e, err := loadExecution(cmd, args)
	if err != nil {
		return err
	}

	result, err := e.run(cmd.Context(), !isMachineFormat(e.cfg.Output.Format))
	if err != nil {
		return err
	}
	return e.writeReport(cmd, result)
}

func isMachineFormat(format string) bool {
	switch strings.ToLower(format) {
	case "json", "yaml":
		return true
	}
	return false
}
