package parser

import (
	"regexp"
	"strings"

	"github.com/ludo-technologies/warnscan/domain"
)

// pyLintParser understands the parseable and the colon separated formats:
//
//	src/cache.py:57: [C0301(line-too-long), Cache.get] Line too long (85/80)
//	src/cache.py:57:0: C0301: Line too long (85/80) (line-too-long)
type pyLintParser struct {
	bracketed *regexp.Regexp
	colon     *regexp.Regexp
}

// NewPyLintParser creates a pylint parser
func NewPyLintParser() domain.Parser {
	return &pyLintParser{
		bracketed: regexp.MustCompile(`^(.+?):(\d+):\s*\[([A-Z])(\d*)(?:\(([\w-]+)\))?(?:,[^\]]*)?\]\s*(.+)$`),
		colon:     regexp.MustCompile(`^(.+?):(\d+):(?:\d+:)?\s*([A-Z])(\d{4}):\s*(.+?)(?:\s+\(([\w-]+)\))?$`),
	}
}

// Parse implements domain.Parser
func (p *pyLintParser) Parse(text string, workspaceRoot string) ([]domain.Issue, error) {
	var issues []domain.Issue
	for _, line := range splitLines(text) {
		if g := p.bracketed.FindStringSubmatch(line); g != nil {
			issues = append(issues, pyLintIssue(g[1], g[2], g[3], g[4], g[5], g[6]))
			continue
		}
		if g := p.colon.FindStringSubmatch(line); g != nil {
			issues = append(issues, pyLintIssue(g[1], g[2], g[3], g[4], g[6], g[5]))
		}
	}
	return issues, nil
}

func pyLintIssue(path, line, kind, code, symbol, message string) domain.Issue {
	var severity domain.Severity
	switch kind {
	case "E", "F":
		severity = domain.SeverityWarningHigh
	case "W":
		severity = domain.SeverityWarningNormal
	default:
		severity = domain.SeverityWarningLow
	}

	category := symbol
	if category == "" {
		category = kind + code
	}
	return domain.Issue{
		FilePath:  path,
		LineStart: atoi(line),
		Message:   strings.TrimSpace(message),
		Severity:  severity,
		Category:  category,
		Type:      kind + code,
	}
}

var puppetModulePath = regexp.MustCompile(`(?:^|/)modules/([^/]+)/manifests/(.+)\.pp$`)

// NewPuppetLintParser parses puppet-lint output written with
// --log-format "%{path}:%{line}:%{check}:%{KIND}:%{message}"
func NewPuppetLintParser() domain.Parser {
	return newLineParser(
		`^\s*((?:[A-Za-z]:)?[^:]+):(\d+):([^:]+):([^:]+):\s*(.*)$`,
		func(g []string) (domain.Issue, bool) {
			var severity domain.Severity
			switch strings.ToUpper(g[4]) {
			case "ERROR":
				severity = domain.SeverityWarningHigh
			case "WARNING":
				severity = domain.SeverityWarningNormal
			default:
				severity = domain.SeverityWarningLow
			}
			return domain.Issue{
				FilePath:    g[1],
				LineStart:   atoi(g[2]),
				Message:     g[5],
				Severity:    severity,
				Category:    g[3],
				PackageName: puppetPackage(g[1]),
			}, true
		})
}

// puppetPackage maps modules/<module>/manifests/<class>.pp to ::module::class
func puppetPackage(path string) string {
	m := puppetModulePath.FindStringSubmatch(strings.ReplaceAll(path, "\\", "/"))
	if m == nil {
		return ""
	}
	class := strings.ReplaceAll(m[2], "/", "::")
	if class == "init" {
		return "::" + m[1]
	}
	return "::" + m[1] + "::" + class
}

// NewIarCstatParser parses IAR C-STAT check results:
//
//	"src/main.c",85 Severity-Medium[MISRAC2012-Rule-10.4_a]:Operands of different type
func NewIarCstatParser() domain.Parser {
	return newLineParser(
		`^\s*"?([^",]+)"?,(\d+)\s+Severity-(High|Medium|Low)\s*\[?([^\]:\s]+)\]?\s*:?\s*(.+)$`,
		func(g []string) (domain.Issue, bool) {
			var severity domain.Severity
			switch g[3] {
			case "High":
				severity = domain.SeverityWarningHigh
			case "Medium":
				severity = domain.SeverityWarningNormal
			default:
				severity = domain.SeverityWarningLow
			}
			return domain.Issue{
				FilePath:  g[1],
				LineStart: atoi(g[2]),
				Message:   strings.TrimSpace(g[5]),
				Severity:  severity,
				Category:  g[4],
			}, true
		})
}
