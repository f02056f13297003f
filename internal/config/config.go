package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/constants"
	"github.com/ludo-technologies/warnscan/internal/parser"
)

// Config represents the main configuration structure
type Config struct {
	// Execution holds the settings that apply to a whole recording
	Execution ExecutionConfig `json:"execution" mapstructure:"execution" yaml:"execution"`

	// Tools lists the tool runs in execution order
	Tools []ToolConfig `json:"tools" mapstructure:"tools" yaml:"tools"`

	// Labels map result ids to display names
	Labels map[string]string `json:"labels,omitempty" mapstructure:"labels" yaml:"labels,omitempty"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Performance holds concurrency configuration
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`

	// Analysis holds report file discovery configuration
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Server holds the HTTP ingest server configuration
	Server ServerConfig `json:"server" mapstructure:"server" yaml:"server"`
}

// ExecutionConfig holds execution level settings
type ExecutionConfig struct {
	// Aggregate merges all tool runs into a single result
	Aggregate bool `json:"aggregate" mapstructure:"aggregate" yaml:"aggregate"`

	// Workspace is the root that relative report paths are resolved against
	Workspace string `json:"workspace" mapstructure:"workspace" yaml:"workspace"`

	// ConsoleLog is scanned by tools without a pattern
	ConsoleLog string `json:"console_log,omitempty" mapstructure:"console_log" yaml:"console_log,omitempty"`

	// Reference is a previous JSON output used to compute new and fixed issues
	Reference string `json:"reference,omitempty" mapstructure:"reference" yaml:"reference,omitempty"`

	// Threshold applies to the aggregate result and to tools without their own
	Threshold domain.Threshold `json:"threshold" mapstructure:"threshold" yaml:"threshold"`
}

// ToolConfig configures one tool run
type ToolConfig struct {
	// ID is the origin of the run, defaults to the tool id
	ID string `json:"id,omitempty" mapstructure:"id" yaml:"id,omitempty"`

	// Tool selects the parser
	Tool string `json:"tool" mapstructure:"tool" yaml:"tool"`

	// Name overrides the display name
	Name string `json:"name,omitempty" mapstructure:"name" yaml:"name,omitempty"`

	// Pattern selects report files, empty for the tool default or the console log
	Pattern string `json:"pattern,omitempty" mapstructure:"pattern" yaml:"pattern,omitempty"`

	Threshold domain.Threshold `json:"threshold" mapstructure:"threshold" yaml:"threshold"`
}

// Origin returns the effective origin of the run
func (t ToolConfig) Origin() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Tool
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails lists every issue in text output
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`

	// Directory specifies where report files are written, empty for stdout
	Directory string `json:"directory,omitempty" mapstructure:"directory" yaml:"directory,omitempty"`

	// NoColor disables styled text output
	NoColor bool `json:"no_color" mapstructure:"no_color" yaml:"no_color"`
}

// PerformanceConfig holds concurrency limits
type PerformanceConfig struct {
	// MaxGoroutines bounds concurrent parsing, 0 for the number of CPUs
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds a whole execution
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

	// ParallelTools runs tool runs concurrently
	ParallelTools bool `json:"parallel_tools" mapstructure:"parallel_tools" yaml:"parallel_tools"`

	// EnableProgress shows progress bars in interactive terminals
	EnableProgress bool `json:"enable_progress" mapstructure:"enable_progress" yaml:"enable_progress"`
}

// AnalysisConfig holds report file discovery configuration
type AnalysisConfig struct {
	// ExcludePatterns specifies gitignore style patterns never scanned
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// FollowSymlinks controls whether to follow symbolic links
	FollowSymlinks bool `json:"follow_symlinks" mapstructure:"follow_symlinks" yaml:"follow_symlinks"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address string `json:"address" mapstructure:"address" yaml:"address"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Execution: ExecutionConfig{
			Workspace: ".",
		},
		Labels: map[string]string{},
		Output: OutputConfig{
			Format: constants.OutputFormatText,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  constants.DefaultMaxGoroutines,
			TimeoutSeconds: constants.DefaultTimeoutSeconds,
			EnableProgress: true,
		},
		Analysis: AnalysisConfig{
			ExcludePatterns: []string{
				".git/",
				"node_modules/",
				"vendor/",
			},
		},
		Server: ServerConfig{
			Address: constants.DefaultServerAddress,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration, discovering the file upward from
// targetPath when configPath is empty. Environment variables prefixed with
// WARNSCAN_ override file values.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// newViper creates a viper instance with defaults and env bindings. A new
// instance per load avoids sharing global state between executions.
func newViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()

	v.SetDefault("execution.aggregate", defaults.Execution.Aggregate)
	v.SetDefault("execution.workspace", defaults.Execution.Workspace)
	v.SetDefault("execution.console_log", "")
	v.SetDefault("execution.reference", "")
	v.SetDefault("execution.threshold.warning_low", 0)
	v.SetDefault("execution.threshold.warning_normal", 0)
	v.SetDefault("execution.threshold.warning_high", 0)
	v.SetDefault("execution.threshold.failed", 0)
	v.SetDefault("execution.threshold.new_issues_only", false)
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.show_details", defaults.Output.ShowDetails)
	v.SetDefault("output.directory", defaults.Output.Directory)
	v.SetDefault("output.no_color", defaults.Output.NoColor)
	v.SetDefault("performance.max_goroutines", defaults.Performance.MaxGoroutines)
	v.SetDefault("performance.timeout_seconds", defaults.Performance.TimeoutSeconds)
	v.SetDefault("performance.parallel_tools", defaults.Performance.ParallelTools)
	v.SetDefault("performance.enable_progress", defaults.Performance.EnableProgress)
	v.SetDefault("analysis.exclude_patterns", defaults.Analysis.ExcludePatterns)
	v.SetDefault("analysis.follow_symlinks", defaults.Analysis.FollowSymlinks)
	v.SetDefault("server.address", defaults.Server.Address)

	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if config.Labels == nil {
		config.Labels = map[string]string{}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configCandidates are the file names searched for, in order of preference
var configCandidates = []string{
	"warnscan.yaml",
	"warnscan.yml",
	".warnscan.yaml",
	".warnscan.yml",
	".warnscan.toml",
	"warnscan.json",
	".warnscan.json",
}

// findDefaultConfig looks for configuration files from targetPath upward,
// then in the current, XDG and home directories.
func findDefaultConfig(targetPath string) string {
	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, configCandidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", configCandidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), configCandidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", constants.ToolName)
		if config := searchConfigInDirectory(configDir, configCandidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(constants.ConfigEnvVar); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if err := c.Execution.Threshold.Validate(); err != nil {
		return fmt.Errorf("execution.threshold: %w", err)
	}

	for i, tool := range c.Tools {
		if tool.Tool == "" {
			return fmt.Errorf("tools[%d]: tool must be set", i)
		}
		if _, err := parser.Resolve(tool.Tool); err != nil {
			return fmt.Errorf("tools[%d]: %w", i, err)
		}
		if err := tool.Threshold.Validate(); err != nil {
			return fmt.Errorf("tools[%d] (%s).threshold: %w", i, tool.Origin(), err)
		}
	}

	validFormats := map[string]bool{
		constants.OutputFormatText: true,
		constants.OutputFormatJSON: true,
		constants.OutputFormatYAML: true,
		constants.OutputFormatHTML: true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, html", c.Output.Format)
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	return nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("execution", config.Execution)
	v.Set("tools", config.Tools)
	v.Set("labels", config.Labels)
	v.Set("output", config.Output)
	v.Set("performance", config.Performance)
	v.Set("analysis", config.Analysis)
	v.Set("server", config.Server)

	return v.WriteConfig()
}
