package parser

import (
	"regexp"
	"strings"

	"github.com/ludo-technologies/warnscan/domain"
)

// eclipseParser reads the block format of the Eclipse compiler:
//
//	1. WARNING in /src/Main.java (at line 10)
//		import java.util.List;
//		       ^^^^^^^^^^^^^^
//	The import java.util.List is never used
//	----------
type eclipseParser struct {
	header    *regexp.Regexp
	antPrefix *regexp.Regexp
	caret     *regexp.Regexp
	separator *regexp.Regexp
}

// NewEclipseParser creates an Eclipse ECJ parser
func NewEclipseParser() domain.Parser {
	return &eclipseParser{
		header:    regexp.MustCompile(`^\s*\d+\.\s+(WARNING|ERROR|INFO) in (.+?)\s+\(at line (\d+)\)\s*$`),
		antPrefix: regexp.MustCompile(`^\s*\[javac\]\s?`),
		caret:     regexp.MustCompile(`^\s*\^+\s*$`),
		separator: regexp.MustCompile(`^\s*-{10,}\s*$`),
	}
}

type eclipseBlock struct {
	issue   domain.Issue
	caret   bool
	message []string
	context []string
}

func (b *eclipseBlock) finish() (domain.Issue, bool) {
	parts := b.message
	if !b.caret && len(b.context) > 0 {
		parts = b.context[len(b.context)-1:]
	}
	b.issue.Message = strings.TrimSpace(strings.Join(parts, " "))
	return b.issue, b.issue.Message != ""
}

// Parse implements domain.Parser
func (p *eclipseParser) Parse(text string, workspaceRoot string) ([]domain.Issue, error) {
	var (
		issues []domain.Issue
		block  *eclipseBlock
	)

	flush := func() {
		if block == nil {
			return
		}
		if issue, ok := block.finish(); ok {
			issues = append(issues, issue)
		}
		block = nil
	}

	for _, raw := range splitLines(text) {
		line := p.antPrefix.ReplaceAllString(raw, "")

		if g := p.header.FindStringSubmatch(line); g != nil {
			flush()
			block = &eclipseBlock{issue: domain.Issue{
				FilePath:  g[2],
				LineStart: atoi(g[3]),
				Severity:  eclipseSeverity(g[1]),
			}}
			continue
		}
		if block == nil {
			continue
		}

		switch {
		case p.separator.MatchString(line):
			flush()
		case p.caret.MatchString(line):
			block.caret = true
			block.message = nil
		case strings.TrimSpace(line) == "":
		case block.caret:
			block.message = append(block.message, strings.TrimSpace(line))
		default:
			block.context = append(block.context, line)
		}
	}
	flush()

	return issues, nil
}

func eclipseSeverity(kind string) domain.Severity {
	switch kind {
	case "ERROR":
		return domain.SeverityError
	case "INFO":
		return domain.SeverityWarningLow
	}
	return domain.SeverityWarningNormal
}
