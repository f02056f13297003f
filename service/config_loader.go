package service

import (
	"path/filepath"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/config"
	"github.com/ludo-technologies/warnscan/internal/parser"
)

// ConfigOverrides holds values given on the command line. Zero values keep the
// configured value.
type ConfigOverrides struct {
	Aggregate  *bool
	Workspace  string
	ConsoleLog string
	Reference  string
	Format     string
	Tools      []string
	Patterns   map[string]string
}

// ConfigurationLoaderImpl turns configuration files into execution configs
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads the configuration at path, or discovers one upward from
// targetPath when path is empty.
func (c *ConfigurationLoaderImpl) LoadConfig(path string, targetPath string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(path, targetPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return cfg, nil
}

// MergeConfig applies command line overrides to a loaded configuration
func (c *ConfigurationLoaderImpl) MergeConfig(base *config.Config, override ConfigOverrides) *config.Config {
	merged := *base

	if override.Aggregate != nil {
		merged.Execution.Aggregate = *override.Aggregate
	}
	if override.Workspace != "" {
		merged.Execution.Workspace = override.Workspace
	}
	if override.ConsoleLog != "" {
		merged.Execution.ConsoleLog = override.ConsoleLog
	}
	if override.Reference != "" {
		merged.Execution.Reference = override.Reference
	}
	if override.Format != "" {
		merged.Output.Format = override.Format
	}

	// Tools named on the command line replace the configured list
	if len(override.Tools) > 0 {
		merged.Tools = make([]config.ToolConfig, 0, len(override.Tools))
		for _, id := range override.Tools {
			merged.Tools = append(merged.Tools, config.ToolConfig{Tool: id})
		}
	}
	if len(override.Patterns) > 0 {
		tools := make([]config.ToolConfig, len(merged.Tools))
		copy(tools, merged.Tools)
		for i := range tools {
			if p, ok := override.Patterns[tools[i].Origin()]; ok {
				tools[i].Pattern = p
			}
		}
		merged.Tools = tools
	}

	return &merged
}

// ToExecutionConfig converts a configuration into the settings of one execution.
// Tool runs without a pattern get the tool's default pattern, unless the tool
// can read the console log and one is configured.
func (c *ConfigurationLoaderImpl) ToExecutionConfig(cfg *config.Config) (*domain.ExecutionConfig, error) {
	workspace := cfg.Execution.Workspace
	if workspace == "" {
		workspace = "."
	}
	if abs, err := filepath.Abs(workspace); err == nil {
		workspace = abs
	}

	exec := &domain.ExecutionConfig{
		Aggregate:      cfg.Execution.Aggregate,
		ToolThresholds: make(map[string]domain.Threshold),
		Patterns:       make(map[string]string),
		Labels:         make(map[string]string, len(cfg.Labels)),
		WorkspaceRoot:  workspace,
		ConsoleLog:     cfg.Execution.ConsoleLog,
		ReferencePath:  cfg.Execution.Reference,
		ExcludePattern: cfg.Analysis.ExcludePatterns,
	}
	if cfg.Execution.Threshold.IsConfigured() {
		threshold := cfg.Execution.Threshold
		exec.ExecutionThreshold = &threshold
	}
	for id, label := range cfg.Labels {
		exec.Labels[id] = label
	}

	for _, tc := range cfg.Tools {
		tool, err := parser.Resolve(tc.Tool)
		if err != nil {
			return nil, err
		}

		run := domain.ToolRun{
			Origin:  tc.Origin(),
			ToolID:  tool.ID,
			Name:    tc.Name,
			Pattern: tc.Pattern,
		}
		if run.Name == "" {
			run.Name = tool.Name
		}
		if run.Pattern == "" && !(tool.CanScanConsoleLog && exec.ConsoleLog != "") {
			run.Pattern = tool.DefaultPattern
		}

		exec.Tools = append(exec.Tools, run)
		if tc.Threshold.IsConfigured() {
			exec.ToolThresholds[run.Origin] = tc.Threshold
		}
		if _, ok := exec.Labels[run.Origin]; !ok && tc.Name != "" {
			exec.Labels[run.Origin] = tc.Name
		}
	}

	if err := exec.Validate(); err != nil {
		return nil, err
	}
	return exec, nil
}
