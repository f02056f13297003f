package config

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/warnscan/internal/parser"
)

// ProjectType represents the build ecosystem of a project
type ProjectType string

const (
	ProjectTypeGeneric ProjectType = "generic"
	ProjectTypeJava    ProjectType = "java"
	ProjectTypeC       ProjectType = "c"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeRuby    ProjectType = "ruby"
	ProjectTypePuppet  ProjectType = "puppet"
)

// Strictness represents how quickly results escalate
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset holds the tools typically used by a project type
type ProjectPreset struct {
	Tools           []string
	ExcludePatterns []string
}

// StrictnessPreset holds the execution threshold of a strictness level
type StrictnessPreset struct {
	WarningNormal int
	WarningHigh   int
	Failed        int
	NewIssuesOnly bool
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	common := []string{".git/", "node_modules/", "vendor/"}
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {Tools: []string{"gcc"}, ExcludePatterns: common},
		ProjectTypeJava: {
			Tools:           []string{"java", "javadoc", "checkstyle", "pmd"},
			ExcludePatterns: append(common, "**/generated-sources/"),
		},
		ProjectTypeC:      {Tools: []string{"gcc", "clang", "iar-cstat"}, ExcludePatterns: append(common, "third_party/")},
		ProjectTypePython: {Tools: []string{"pylint"}, ExcludePatterns: append(common, ".venv/", "**/__pycache__/")},
		ProjectTypeRuby:   {Tools: []string{"brakeman"}, ExcludePatterns: append(common, "tmp/")},
		ProjectTypePuppet: {Tools: []string{"puppetlint"}, ExcludePatterns: common},
	}
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			WarningHigh: 100,
		},
		StrictnessStandard: {
			WarningNormal: 10,
			WarningHigh:   50,
			Failed:        200,
		},
		StrictnessStrict: {
			WarningNormal: 1,
			Failed:        1,
			NewIssuesOnly: true,
		},
	}
}

// GetFullConfigTemplate returns the documented config template as YAML
func GetFullConfigTemplate(projectType ProjectType, strictness Strictness, aggregate bool) string {
	project, ok := GetProjectPresets()[projectType]
	if !ok {
		project = GetProjectPresets()[ProjectTypeGeneric]
	}
	level, ok := GetStrictnessPresets()[strictness]
	if !ok {
		level = GetStrictnessPresets()[StrictnessStandard]
	}

	var sb strings.Builder
	sb.WriteString("# warnscan configuration\n")
	fmt.Fprintf(&sb, "# project type: %s, strictness: %s\n\n", projectType, strictness)

	sb.WriteString("execution:\n")
	sb.WriteString("  # merge all tool runs into one result with id 'analysis'\n")
	fmt.Fprintf(&sb, "  aggregate: %t\n", aggregate)
	sb.WriteString("  workspace: .\n")
	sb.WriteString("  # console_log: build.log\n")
	sb.WriteString("  # reference: .warnscan/reports/previous.json\n")
	sb.WriteString("  threshold:\n")
	fmt.Fprintf(&sb, "    warning_normal: %d\n", level.WarningNormal)
	fmt.Fprintf(&sb, "    warning_high: %d\n", level.WarningHigh)
	fmt.Fprintf(&sb, "    failed: %d\n", level.Failed)
	fmt.Fprintf(&sb, "    new_issues_only: %t\n\n", level.NewIssuesOnly)

	sb.WriteString("tools:\n")
	for _, id := range project.Tools {
		tool, ok := parser.Lookup(id)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  - tool: %s\n", tool.ID)
		fmt.Fprintf(&sb, "    # %s\n", tool.Name)
		fmt.Fprintf(&sb, "    pattern: %q\n", tool.DefaultPattern)
	}
	sb.WriteString("\n")

	sb.WriteString("output:\n")
	sb.WriteString("  format: text\n")
	sb.WriteString("  show_details: false\n\n")

	sb.WriteString("performance:\n")
	sb.WriteString("  max_goroutines: 4\n")
	sb.WriteString("  timeout_seconds: 300\n")
	sb.WriteString("  parallel_tools: false\n\n")

	sb.WriteString("analysis:\n")
	sb.WriteString("  exclude_patterns:\n")
	for _, pattern := range project.ExcludePatterns {
		fmt.Fprintf(&sb, "    - %q\n", pattern)
	}
	return sb.String()
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# warnscan configuration (minimal)
execution:
  aggregate: false

tools:
  - tool: eclipse
    pattern: "**/*.log"
`
}
