package parser

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ludo-technologies/warnscan/domain"
)

// Tool describes a supported analysis tool
type Tool struct {
	// ID is the default origin of the tool's runs
	ID string

	// Name is the display name
	Name string

	// DefaultPattern selects report files when a run has no pattern
	DefaultPattern string

	// CanScanConsoleLog reports whether the parser understands console output
	CanScanConsoleLog bool

	// New creates a parser instance
	New func() domain.Parser
}

var (
	toolsMu sync.RWMutex
	tools   = make(map[string]Tool)
)

// Register adds a tool descriptor. It panics on an invalid or duplicate
// descriptor since registration happens during package initialization.
func Register(tool Tool) {
	if tool.ID == "" || tool.New == nil {
		panic("parser: tool descriptor needs an id and a constructor")
	}

	toolsMu.Lock()
	defer toolsMu.Unlock()

	if _, dup := tools[tool.ID]; dup {
		panic(fmt.Sprintf("parser: tool %q registered twice", tool.ID))
	}
	if tool.Name == "" {
		tool.Name = tool.ID
	}
	tools[tool.ID] = tool
}

// Lookup returns the descriptor of a tool
func Lookup(id string) (Tool, bool) {
	toolsMu.RLock()
	defer toolsMu.RUnlock()
	tool, ok := tools[id]
	return tool, ok
}

// Resolve returns the descriptor of a tool or a configuration error naming
// the known tools
func Resolve(id string) (Tool, error) {
	if tool, ok := Lookup(id); ok {
		return tool, nil
	}
	return Tool{}, domain.NewConfigError(fmt.Sprintf("unknown tool %q (known tools: %v)", id, IDs()), nil)
}

// Tools returns all registered descriptors sorted by id
func Tools() []Tool {
	toolsMu.RLock()
	defer toolsMu.RUnlock()

	out := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the sorted ids of all registered tools
func IDs() []string {
	all := Tools()
	ids := make([]string, len(all))
	for i, tool := range all {
		ids[i] = tool.ID
	}
	return ids
}

func init() {
	Register(Tool{
		ID: "eclipse", Name: "Eclipse ECJ", DefaultPattern: "**/*.log",
		CanScanConsoleLog: true,
		New:               func() domain.Parser { return NewEclipseParser() },
	})
	Register(Tool{
		ID: "java", Name: "Java Compiler", DefaultPattern: "**/*.log",
		CanScanConsoleLog: true,
		New:               func() domain.Parser { return NewJavacParser() },
	})
	Register(Tool{
		ID: "javadoc", Name: "JavaDoc", DefaultPattern: "**/*.log",
		CanScanConsoleLog: true,
		New:               func() domain.Parser { return NewJavaDocParser() },
	})
	Register(Tool{
		ID: "clang", Name: "Clang", DefaultPattern: "**/*.log",
		CanScanConsoleLog: true,
		New:               func() domain.Parser { return NewGccParser() },
	})
	Register(Tool{
		ID: "gcc", Name: "GNU C Compiler", DefaultPattern: "**/*.log",
		CanScanConsoleLog: true,
		New:               func() domain.Parser { return NewGccParser() },
	})
	Register(Tool{
		ID: "puppetlint", Name: "Puppet-Lint", DefaultPattern: "**/puppet-lint.log",
		CanScanConsoleLog: true,
		New:               func() domain.Parser { return NewPuppetLintParser() },
	})
	Register(Tool{
		ID: "pylint", Name: "Pylint", DefaultPattern: "**/pylint.log",
		CanScanConsoleLog: true,
		New:               func() domain.Parser { return NewPyLintParser() },
	})
	Register(Tool{
		ID: "iar-cstat", Name: "IAR C-STAT", DefaultPattern: "**/cstat.log",
		CanScanConsoleLog: true,
		New:               func() domain.Parser { return NewIarCstatParser() },
	})
	Register(Tool{
		ID: "checkstyle", Name: "CheckStyle", DefaultPattern: "**/checkstyle-result.xml",
		New: func() domain.Parser { return NewCheckStyleParser() },
	})
	Register(Tool{
		ID: "pmd", Name: "PMD", DefaultPattern: "**/pmd.xml",
		New: func() domain.Parser { return NewPmdParser() },
	})
	Register(Tool{
		ID: "brakeman", Name: "Brakeman", DefaultPattern: "**/brakeman-output.json",
		New: func() domain.Parser { return NewBrakemanParser() },
	})
}
