// Package testutil provides helper functions for testing warnscan components
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/warnscan/domain"
)

// NewIssue creates a normal severity issue at path:line
func NewIssue(path string, line int, message string) domain.Issue {
	return domain.Issue{
		FilePath:  path,
		LineStart: line,
		Message:   message,
		Severity:  domain.SeverityWarningNormal,
	}
}

// SealedReport creates a sealed report for origin containing n distinct issues
func SealedReport(origin string, n int) *domain.Report {
	r := domain.NewReport(origin)
	for i := 0; i < n; i++ {
		r.Add(NewIssue("/workspace/src/File.java", i+1, fmt.Sprintf("%s warning %d", origin, i)))
	}
	r.Seal()
	return r
}

// EclipseLog renders n distinct Eclipse compiler warnings for files below dir
func EclipseLog(dir string, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d. WARNING in %s (at line %d)\n", i+1, filepath.Join(dir, "Main.java"), i+10)
		sb.WriteString("\tint unused = 0;\n")
		sb.WriteString("\t    ^^^^^^\n")
		fmt.Fprintf(&sb, "The value of the local variable unused%d is not used\n", i)
		sb.WriteString("----------\n")
	}
	return sb.String()
}

// WriteFile writes content to a path relative to dir, creating parent directories
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertEqual fails the test if expected != actual
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Error(msg)
	}
}
