// Package report renders validation results for people: plain text for
// terminals and logs, a self-contained HTML dashboard for browsers, and
// JSON for downstream tooling.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/oarkflow/json"

	"github.com/oarkflow/remit/pkg/validate"
)

// Text renders a sectioned plain-text report.
func Text(r *validate.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validation Report: %s\n", r.File)
	fmt.Fprintf(&b, "Status: %s (%d errors, %d warnings)\n", r.Status, r.ErrorCount, r.WarningCount)
	fmt.Fprintf(&b, "Rows: %d  Claims: %d  Services: %d\n", r.RowCount, r.ClaimCount, r.ServiceCount)
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))

	if len(r.ByKind) > 0 {
		b.WriteString("\nIssues by kind:\n")
		for _, kind := range sortedKinds(r.ByKind) {
			fmt.Fprintf(&b, "  %-22s %d\n", kind, r.ByKind[kind])
		}
	}
	if len(r.ByPayer) > 0 {
		b.WriteString("\nIssues by payer:\n")
		for _, payer := range sortedKeys(r.ByPayer) {
			fmt.Fprintf(&b, "  %-22s %d\n", payer, r.ByPayer[payer])
		}
	}

	if errs := r.Errors(); len(errs) > 0 {
		b.WriteString("\nErrors:\n")
		writeIssues(&b, errs)
	}
	if warns := r.Warnings(); len(warns) > 0 {
		b.WriteString("\nWarnings:\n")
		writeIssues(&b, warns)
	}

	if len(r.MissingMappings) > 0 {
		b.WriteString("\nMissing mappings:\n")
		for _, m := range r.MissingMappings {
			fmt.Fprintf(&b, "  %s\n", m)
		}
	}
	if len(r.Coverage) > 0 {
		b.WriteString("\nUnmapped qualifiers:\n")
		for _, seg := range sortedKeys2(r.Coverage) {
			fmt.Fprintf(&b, "  %s: %s\n", seg, strings.Join(r.Coverage[seg], ", "))
		}
	}
	return b.String()
}

func writeIssues(b *strings.Builder, issues []validate.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(b, "  [%s] %s", issue.Kind, issue.Message)
		if issue.Location != "" {
			fmt.Fprintf(b, " (at %s)", issue.Location)
		}
		if issue.Expected != "" || issue.Actual != "" {
			fmt.Fprintf(b, " expected=%s actual=%s", issue.Expected, issue.Actual)
		}
		b.WriteByte('\n')
	}
}

// JSON serializes the full report.
func JSON(r *validate.Report) ([]byte, error) {
	return json.Marshal(r)
}

// HTML renders a self-contained dashboard page.
func HTML(r *validate.Report) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		*validate.Report
		Kinds  []validate.Kind
		Payers []string
	}{
		Report: r,
		Kinds:  sortedKinds(r.ByKind),
		Payers: sortedKeys(r.ByPayer),
	}
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKinds(m map[validate.Kind]int) []validate.Kind {
	out := make([]validate.Kind, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeys2(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>835 Validation - {{.File}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .section { margin: 20px 0; padding: 20px; border: 1px solid #ddd; }
        .metric { display: inline-block; margin: 10px; padding: 20px; background: #f8f9fa; border-radius: 5px; }
        .status-pass { border-left: 5px solid green; }
        .status-fail { border-left: 5px solid red; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; }
        th { background: #f0f0f0; }
        .warn { color: #8a6d00; }
        .err { color: #a00000; }
    </style>
</head>
<body>
    <h1>835 Validation Report</h1>
    <p>{{.File}} &mdash; generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>

    <div class="metric {{if eq .Status "PASS"}}status-pass{{else}}status-fail{{end}}"><strong>{{.Status}}</strong></div>
    <div class="metric"><strong>{{.ErrorCount}}</strong> errors</div>
    <div class="metric"><strong>{{.WarningCount}}</strong> warnings</div>
    <div class="metric"><strong>{{.ClaimCount}}</strong> claims</div>
    <div class="metric"><strong>{{.ServiceCount}}</strong> services</div>
    <div class="metric"><strong>{{.RowCount}}</strong> rows</div>

    {{if .Kinds}}
    <div class="section">
        <h2>Issues by Kind</h2>
        <table>
            <tr><th>Kind</th><th>Count</th></tr>
            {{$byKind := .ByKind}}
            {{range .Kinds}}<tr><td>{{.}}</td><td>{{index $byKind .}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}

    {{if .Payers}}
    <div class="section">
        <h2>Issues by Payer</h2>
        <table>
            <tr><th>Payer</th><th>Count</th></tr>
            {{$byPayer := .ByPayer}}
            {{range .Payers}}<tr><td>{{.}}</td><td>{{index $byPayer .}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}

    {{if .Issues}}
    <div class="section">
        <h2>Findings</h2>
        <table>
            <tr><th>Kind</th><th>Message</th><th>Location</th><th>Expected</th><th>Actual</th></tr>
            {{range .Issues}}<tr class="{{if .Kind.IsWarning}}warn{{else}}err{{end}}"><td>{{.Kind}}</td><td>{{.Message}}</td><td>{{.Location}}</td><td>{{.Expected}}</td><td>{{.Actual}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}

    {{if .Coverage}}
    <div class="section">
        <h2>Unmapped Qualifiers</h2>
        <table>
            <tr><th>Segment</th><th>Qualifiers</th></tr>
            {{range $seg, $quals := .Coverage}}<tr><td>{{$seg}}</td><td>{{range $quals}}{{.}} {{end}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}
</body>
</html>
`))
