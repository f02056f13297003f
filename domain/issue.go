package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Severity is the ordered severity of an issue. Lower values are more severe.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarningHigh
	SeverityWarningNormal
	SeverityWarningLow
)

var severityNames = [...]string{
	SeverityError:         "ERROR",
	SeverityWarningHigh:   "WARNING_HIGH",
	SeverityWarningNormal: "WARNING_NORMAL",
	SeverityWarningLow:    "WARNING_LOW",
}

// AllSeverities lists the severities from most to least severe
func AllSeverities() []Severity {
	return []Severity{SeverityError, SeverityWarningHigh, SeverityWarningNormal, SeverityWarningLow}
}

// String returns the canonical name of the severity
func (s Severity) String() string {
	if s < SeverityError || s > SeverityWarningLow {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// IsValid reports whether s is one of the defined severities
func (s Severity) IsValid() bool {
	return s >= SeverityError && s <= SeverityWarningLow
}

// IsMoreSevereThan compares two severities
func (s Severity) IsMoreSevereThan(other Severity) bool {
	return s < other
}

// ParseSeverity converts a severity name into a Severity. Common aliases used by
// analysis tools (HIGH, NORMAL, LOW, WARNING, INFO) are accepted.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR", "FATAL":
		return SeverityError, nil
	case "WARNING_HIGH", "HIGH":
		return SeverityWarningHigh, nil
	case "WARNING_NORMAL", "NORMAL", "MEDIUM", "WARNING":
		return SeverityWarningNormal, nil
	case "WARNING_LOW", "LOW", "INFO":
		return SeverityWarningLow, nil
	}
	return SeverityWarningNormal, fmt.Errorf("unknown severity: %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Issue is a single normalized static analysis finding
type Issue struct {
	// FilePath is the absolute path of the affected file, empty if unknown
	FilePath string `json:"file_path" yaml:"file_path"`

	// LineStart and LineEnd delimit the affected lines, 0 if not line related
	LineStart int `json:"line_start" yaml:"line_start"`
	LineEnd   int `json:"line_end" yaml:"line_end"`

	Message  string   `json:"message" yaml:"message"`
	Severity Severity `json:"severity" yaml:"severity"`

	// OriginID identifies the tool run that produced the issue
	OriginID string `json:"origin" yaml:"origin"`

	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`

	// Filled by post-processing, never part of the identity
	ModuleName  string `json:"module_name,omitempty" yaml:"module_name,omitempty"`
	PackageName string `json:"package_name,omitempty" yaml:"package_name,omitempty"`

	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// ComputeFingerprint derives the deduplication key of the issue from its path,
// line range, message and severity.
func (i Issue) ComputeFingerprint() string {
	var sb strings.Builder
	sb.WriteString(i.FilePath)
	sb.WriteByte(0)
	sb.WriteString(strconv.Itoa(i.LineStart))
	sb.WriteByte(0)
	sb.WriteString(strconv.Itoa(i.effectiveLineEnd()))
	sb.WriteByte(0)
	sb.WriteString(i.Message)
	sb.WriteByte(0)
	sb.WriteString(i.Severity.String())

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// Normalize fills derived fields: the line end and the fingerprint
func (i Issue) Normalize() Issue {
	if i.LineStart < 0 {
		i.LineStart = 0
	}
	i.LineEnd = i.effectiveLineEnd()
	i.Fingerprint = i.ComputeFingerprint()
	return i
}

// HasLine reports whether the issue is associated with a line
func (i Issue) HasLine() bool {
	return i.LineStart > 0
}

// Location renders the issue location as file:line
func (i Issue) Location() string {
	path := i.FilePath
	if path == "" {
		path = "-"
	}
	if !i.HasLine() {
		return path
	}
	if i.LineEnd > i.LineStart {
		return fmt.Sprintf("%s:%d-%d", path, i.LineStart, i.LineEnd)
	}
	return fmt.Sprintf("%s:%d", path, i.LineStart)
}

func (i Issue) effectiveLineEnd() int {
	if i.LineEnd < i.LineStart {
		return i.LineStart
	}
	return i.LineEnd
}

// identityKey identifies an issue within a report
func (i Issue) identityKey() string {
	return i.OriginID + "\x00" + i.Fingerprint
}
