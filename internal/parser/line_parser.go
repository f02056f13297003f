package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ludo-technologies/warnscan/domain"
)

var timestampPrefixes = []*regexp.Regexp{
	// [2019-03-12T10:15:30.123Z] as written by build timestampers
	regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?\]\s?`),
	// 10:15:30 or [10:15:30]
	regexp.MustCompile(`^\[?\d{2}:\d{2}:\d{2}(?:[.,]\d+)?\]?\s+`),
}

// StripTimestamp removes a console timestamp prefix from a line
func StripTimestamp(line string) string {
	for _, re := range timestampPrefixes {
		if loc := re.FindStringIndex(line); loc != nil {
			return line[loc[1]:]
		}
	}
	return line
}

// matchFunc converts the submatches of a line into an issue
type matchFunc func(groups []string) (domain.Issue, bool)

// lineParser applies one regular expression to every line of its input
type lineParser struct {
	pattern *regexp.Regexp
	match   matchFunc
}

func newLineParser(pattern string, match matchFunc) *lineParser {
	return &lineParser{pattern: regexp.MustCompile(pattern), match: match}
}

// Parse implements domain.Parser
func (p *lineParser) Parse(text string, workspaceRoot string) ([]domain.Issue, error) {
	var issues []domain.Issue
	for _, line := range splitLines(text) {
		groups := p.pattern.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		if issue, ok := p.match(groups); ok {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// splitLines returns the input lines with timestamps and carriage returns
// removed. Lines of any length are kept.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = StripTimestamp(strings.TrimRight(line, "\r"))
	}
	return lines
}

// atoi converts a line or column number, 0 when absent or malformed
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
