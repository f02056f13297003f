package service

import (
	"html/template"
	"io"
	"time"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/version"
)

// HTMLResult is the template view of one analysis result
type HTMLResult struct {
	ID         string
	Label      string
	Status     domain.Status
	Result     *domain.AnalysisResult
	Severities []HTMLSeverityCount
	Issues     []domain.Issue
}

// HTMLSeverityCount is the number of issues of one severity
type HTMLSeverityCount struct {
	Severity domain.Severity
	Count    int
}

// HTMLData represents the data for HTML template
type HTMLData struct {
	GeneratedAt string
	Duration    int64
	Version     string
	Meta        domain.ExecutionMeta
	Results     []HTMLResult
	TotalIssues int
}

// maxHTMLIssues bounds the issue table of each result
const maxHTMLIssues = 200

// WriteHTML writes the results of an execution as a standalone HTML page
func (f *OutputFormatterImpl) WriteHTML(writer io.Writer, results []*domain.AnalysisResult, meta domain.ExecutionMeta) error {
	data := HTMLData{
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Duration:    meta.DurationMs,
		Version:     version.GetVersion(),
		Meta:        meta,
	}

	for _, r := range results {
		view := HTMLResult{
			ID:     r.ID(),
			Label:  f.label(r.ID()),
			Status: r.Status(),
			Result: r,
			Issues: r.Issues(),
		}
		for _, severity := range domain.AllSeverities() {
			view.Severities = append(view.Severities, HTMLSeverityCount{Severity: severity, Count: r.SizeOf(severity)})
		}
		data.Results = append(data.Results, view)
		data.TotalIssues += r.TotalSize()
	}

	funcMap := template.FuncMap{
		"statusClass": func(status domain.Status) string {
			switch {
			case status == domain.StatusFailed:
				return "status-failed"
			case status.IsWarning():
				return "status-warning"
			case status == domain.StatusPassed:
				return "status-passed"
			default:
				return "status-inactive"
			}
		},
		"outcomeClass": func(outcome domain.Outcome) string {
			switch outcome {
			case domain.OutcomeFailure:
				return "status-failed"
			case domain.OutcomeUnstable:
				return "status-warning"
			default:
				return "status-passed"
			}
		},
		"severityClass": func(severity domain.Severity) string {
			switch severity {
			case domain.SeverityError, domain.SeverityWarningHigh:
				return "severity-high"
			case domain.SeverityWarningNormal:
				return "severity-normal"
			default:
				return "severity-low"
			}
		},
		"limit": func(issues []domain.Issue) []domain.Issue {
			if len(issues) > maxHTMLIssues {
				return issues[:maxHTMLIssues]
			}
			return issues
		},
		"maxIssues": func() int { return maxHTMLIssues },
	}

	tmpl := template.Must(template.New("execution").Funcs(funcMap).Parse(htmlTemplate))
	return tmpl.Execute(writer, data)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>warnscan Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #eef1f5;
            min-height: 100vh;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }
        .header, .result {
            background: white;
            border-radius: 10px;
            padding: 30px;
            margin-bottom: 20px;
            box-shadow: 0 10px 30px rgba(0,0,0,0.1);
        }
        .header h1 { color: #3f51b5; margin-bottom: 10px; }
        .subtitle { color: #666; font-size: 14px; }
        .badge {
            display: inline-block;
            padding: 6px 14px;
            border-radius: 16px;
            font-size: 13px;
            font-weight: 700;
            color: white;
        }
        .status-passed { background: #4caf50; }
        .status-warning { background: #ff9800; }
        .status-failed { background: #f44336; }
        .status-inactive { background: #9e9e9e; }

        .metric-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(160px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .metric-card {
            background: #f8f9fa;
            padding: 20px;
            border-radius: 8px;
            text-align: center;
        }
        .metric-value { font-size: 28px; font-weight: bold; color: #3f51b5; }
        .metric-label { color: #666; margin-top: 5px; }

        .table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        .table th, .table td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; }
        .table th { background: #f8f9fa; font-weight: 600; }

        .severity-high { color: #f44336; }
        .severity-normal { color: #ff9800; }
        .severity-low { color: #2196f3; }
        .messages li { margin-left: 20px; font-size: 14px; }
        .errors li { color: #f44336; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>warnscan Report</h1>
            <p class="subtitle">Generated: {{.GeneratedAt}} | Duration: {{.Duration}}ms | Version: {{.Version}}{{if .Meta.ExecutionID}} | Execution: {{.Meta.ExecutionID}}{{end}}</p>
            <p style="margin-top: 10px;">Outcome: <span class="badge {{outcomeClass .Meta.Outcome}}">{{.Meta.Outcome}}</span> &middot; {{.TotalIssues}} issues</p>
            {{if .Meta.BuildErrors}}
            <ul class="messages errors" style="margin-top: 10px;">
                {{range .Meta.BuildErrors}}<li>{{.}}</li>{{end}}
            </ul>
            {{end}}
        </div>

        {{range .Results}}
        <div class="result" id="result-{{.ID}}">
            <h2>{{.Label}} <span class="badge {{statusClass .Status}}">{{.Status}}</span></h2>

            <div class="metric-grid">
                <div class="metric-card">
                    <div class="metric-value">{{.Result.TotalSize}}</div>
                    <div class="metric-label">Issues</div>
                </div>
                {{if .Result.HasReference}}
                <div class="metric-card">
                    <div class="metric-value">{{.Result.NewSize}}</div>
                    <div class="metric-label">New</div>
                </div>
                <div class="metric-card">
                    <div class="metric-value">{{.Result.FixedSize}}</div>
                    <div class="metric-label">Fixed</div>
                </div>
                {{end}}
                {{range .Severities}}
                <div class="metric-card">
                    <div class="metric-value {{severityClass .Severity}}">{{.Count}}</div>
                    <div class="metric-label">{{.Severity}}</div>
                </div>
                {{end}}
            </div>

            {{if .Issues}}
            <table class="table">
                <thead>
                    <tr>
                        <th>Location</th>
                        <th>Severity</th>
                        <th>Message</th>
                        <th>Category</th>
                        <th>Origin</th>
                    </tr>
                </thead>
                <tbody>
                    {{range limit .Issues}}
                    <tr>
                        <td>{{.Location}}</td>
                        <td class="{{severityClass .Severity}}">{{.Severity}}</td>
                        <td>{{.Message}}</td>
                        <td>{{.Category}}</td>
                        <td>{{.OriginID}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
            {{if gt (len .Issues) maxIssues}}
            <p style="color: #666;">Showing {{maxIssues}} of {{len .Issues}} issues</p>
            {{end}}
            {{else}}
            <p style="color: #4caf50; font-weight: bold; margin-top: 20px;">No issues found</p>
            {{end}}

            {{with .Result.ErrorMessages}}
            <h3>Errors</h3>
            <ul class="messages errors">{{range .}}<li>{{.}}</li>{{end}}</ul>
            {{end}}
            {{with .Result.InfoMessages}}
            <h3>Messages</h3>
            <ul class="messages">{{range .}}<li>{{.}}</li>{{end}}</ul>
            {{end}}
        </div>
        {{end}}
    </div>
</body>
</html>`
