package parser

import (
	"regexp"
	"strings"

	"github.com/ludo-technologies/warnscan/domain"
)

var javacCategory = regexp.MustCompile(`^\[(\w[\w-]*)\]\s+(.*)$`)

// NewJavacParser parses javac and maven-compiler-plugin output:
//
//	[javac] Test.java:39: warning: [deprecation] old() has been deprecated
//	[WARNING] /src/Test.java:[39,12] [deprecation] old() has been deprecated
func NewJavacParser() domain.Parser {
	return newLineParser(
		`^(?:\s*\[javac\]\s+)?(?:\[(WARNING|ERROR)\]\s+)?(.+?\.java):\[?(\d+)(?:[,:](\d+))?\]?:?\s+(?:(warning|error):\s+)?(.+)$`,
		func(g []string) (domain.Issue, bool) {
			tag, kind := g[1], g[5]
			if tag == "" && kind == "" {
				return domain.Issue{}, false
			}

			severity := domain.SeverityWarningNormal
			if tag == "ERROR" || kind == "error" {
				severity = domain.SeverityError
			}

			message := strings.TrimSpace(g[6])
			category := ""
			if m := javacCategory.FindStringSubmatch(message); m != nil {
				category, message = m[1], m[2]
			}

			return domain.Issue{
				FilePath:  g[2],
				LineStart: atoi(g[3]),
				Message:   message,
				Severity:  severity,
				Category:  category,
			}, true
		})
}

// NewJavaDocParser parses javadoc warnings:
//
//	[javadoc] /src/Test.java:12: warning - @return tag has no arguments.
//	/src/Test.java:12: warning: no comment
func NewJavaDocParser() domain.Parser {
	return newLineParser(
		`^(?:\s*\[javadoc\]\s+)?(?:\[(?:WARNING|ERROR)\]\s+)?(.+?\.java):(\d+):\s*(warning|error)\s*[-:]\s*(.+)$`,
		func(g []string) (domain.Issue, bool) {
			severity := domain.SeverityWarningNormal
			if g[3] == "error" {
				severity = domain.SeverityWarningHigh
			}
			return domain.Issue{
				FilePath:  g[1],
				LineStart: atoi(g[2]),
				Message:   strings.TrimSpace(g[4]),
				Severity:  severity,
				Category:  "JavaDoc",
			}, true
		})
}

// NewGccParser parses gcc and clang diagnostics:
//
//	test.c:1:2: error: This is an error.
//	src/main.c:14:5: warning: unused variable 'x' [-Wunused-variable]
func NewGccParser() domain.Parser {
	return newLineParser(
		`^\s*((?:[A-Za-z]:)?[^:\s][^:]*):(\d+):(?:(\d+):)?\s*(warning|error|fatal error|note|remark):\s*(.*?)(?:\s*\[(-W[^\],]+)[^\]]*\])?\s*$`,
		func(g []string) (domain.Issue, bool) {
			var severity domain.Severity
			switch g[4] {
			case "error", "fatal error":
				severity = domain.SeverityWarningHigh
			case "warning":
				severity = domain.SeverityWarningNormal
			default:
				severity = domain.SeverityWarningLow
			}
			return domain.Issue{
				FilePath:  g[1],
				LineStart: atoi(g[2]),
				Message:   g[5],
				Severity:  severity,
				Category:  strings.TrimPrefix(g[6], "-W"),
			}, true
		})
}
