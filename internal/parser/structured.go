package parser

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ludo-technologies/warnscan/domain"
)

type checkStyleReport struct {
	XMLName xml.Name `xml:"checkstyle"`
	Files   []struct {
		Name   string `xml:"name,attr"`
		Errors []struct {
			Line     string `xml:"line,attr"`
			Severity string `xml:"severity,attr"`
			Message  string `xml:"message,attr"`
			Source   string `xml:"source,attr"`
		} `xml:"error"`
	} `xml:"file"`
}

type checkStyleParser struct{}

// NewCheckStyleParser creates a parser for checkstyle-result.xml files
func NewCheckStyleParser() domain.Parser {
	return checkStyleParser{}
}

// Parse implements domain.Parser
func (checkStyleParser) Parse(text string, workspaceRoot string) ([]domain.Issue, error) {
	var report checkStyleReport
	if err := decodeXML(text, &report); err != nil {
		return nil, err
	}

	var issues []domain.Issue
	for _, file := range report.Files {
		for _, e := range file.Errors {
			var severity domain.Severity
			switch strings.ToLower(e.Severity) {
			case "error":
				severity = domain.SeverityWarningHigh
			case "info", "ignore":
				severity = domain.SeverityWarningLow
			default:
				severity = domain.SeverityWarningNormal
			}
			issues = append(issues, domain.Issue{
				FilePath:  file.Name,
				LineStart: atoi(e.Line),
				Message:   e.Message,
				Severity:  severity,
				Category:  checkName(e.Source),
				Type:      e.Source,
			})
		}
	}
	return issues, nil
}

// checkName reduces com.puppycrawl.tools.checkstyle.checks.FooCheck to Foo
func checkName(source string) string {
	if idx := strings.LastIndex(source, "."); idx >= 0 {
		source = source[idx+1:]
	}
	return strings.TrimSuffix(source, "Check")
}

type pmdReport struct {
	XMLName xml.Name `xml:"pmd"`
	Files   []struct {
		Name       string `xml:"name,attr"`
		Violations []struct {
			BeginLine string `xml:"beginline,attr"`
			EndLine   string `xml:"endline,attr"`
			Rule      string `xml:"rule,attr"`
			RuleSet   string `xml:"ruleset,attr"`
			Priority  string `xml:"priority,attr"`
			Text      string `xml:",chardata"`
		} `xml:"violation"`
	} `xml:"file"`
	Errors []struct {
		Filename string `xml:"filename,attr"`
		Message  string `xml:"msg,attr"`
	} `xml:"error"`
}

type pmdParser struct{}

// NewPmdParser creates a parser for PMD XML reports
func NewPmdParser() domain.Parser {
	return pmdParser{}
}

// Parse implements domain.Parser
func (pmdParser) Parse(text string, workspaceRoot string) ([]domain.Issue, error) {
	var report pmdReport
	if err := decodeXML(text, &report); err != nil {
		return nil, err
	}

	var issues []domain.Issue
	for _, file := range report.Files {
		for _, v := range file.Violations {
			issues = append(issues, domain.Issue{
				FilePath:  file.Name,
				LineStart: atoi(v.BeginLine),
				LineEnd:   atoi(v.EndLine),
				Message:   strings.Join(strings.Fields(v.Text), " "),
				Severity:  pmdSeverity(v.Priority),
				Category:  v.RuleSet,
				Type:      v.Rule,
			})
		}
	}
	for _, e := range report.Errors {
		issues = append(issues, domain.Issue{
			FilePath: e.Filename,
			Message:  e.Message,
			Severity: domain.SeverityError,
			Category: "Processing error",
		})
	}
	return issues, nil
}

func pmdSeverity(priority string) domain.Severity {
	p, err := strconv.Atoi(strings.TrimSpace(priority))
	switch {
	case err != nil:
		return domain.SeverityWarningNormal
	case p <= 2:
		return domain.SeverityWarningHigh
	case p >= 5:
		return domain.SeverityWarningLow
	}
	return domain.SeverityWarningNormal
}

func decodeXML(text string, v interface{}) error {
	if strings.TrimSpace(text) == "" {
		return domain.NewParseError("", errors.New("empty document"))
	}
	if err := xml.Unmarshal([]byte(text), v); err != nil {
		return domain.NewParseError("", err)
	}
	return nil
}

type brakemanReport struct {
	Warnings []struct {
		WarningType string          `json:"warning_type"`
		WarningCode json.RawMessage `json:"warning_code"`
		Message     string          `json:"message"`
		File        string          `json:"file"`
		Line        *int            `json:"line"`
		Confidence  string          `json:"confidence"`
	} `json:"warnings"`
}

type brakemanParser struct{}

// NewBrakemanParser creates a parser for brakeman JSON reports
func NewBrakemanParser() domain.Parser {
	return brakemanParser{}
}

// Parse implements domain.Parser
func (brakemanParser) Parse(text string, workspaceRoot string) ([]domain.Issue, error) {
	var report brakemanReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, domain.NewParseError("", fmt.Errorf("invalid brakeman report: %w", err))
	}

	issues := make([]domain.Issue, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		var severity domain.Severity
		switch strings.ToLower(w.Confidence) {
		case "high":
			severity = domain.SeverityWarningHigh
		case "weak", "low":
			severity = domain.SeverityWarningLow
		default:
			severity = domain.SeverityWarningNormal
		}

		line := 0
		if w.Line != nil {
			line = *w.Line
		}
		issues = append(issues, domain.Issue{
			FilePath:  w.File,
			LineStart: line,
			Message:   w.Message,
			Severity:  severity,
			Category:  w.WarningType,
			Type:      strings.Trim(string(w.WarningCode), `"`),
		})
	}
	return issues, nil
}
