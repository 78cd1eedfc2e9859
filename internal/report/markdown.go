package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePlatforms(md, report)
	w.writeIssues(md, report)
	w.writeEvents(md, report)
	w.writeRecommendations(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with audit information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("Tracking Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + report.URL + "`"},
			{"Audit Date", report.DateAudited.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.statusText(report)},
			{"Health Score", strconv.Itoa(report.Summary.TrackingHealthScore) + "/100"},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on report state.
func (w *MarkdownWriter) statusText(report *model.AuditReport) string {
	if report.Status == model.StatusPartial {
		return "⚠️ Partial (deadline expired)"
	}
	return "✅ Complete"
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	counts := report.IssueCountBySeverity()
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(counts[model.SeverityCritical])},
			{"🟠 High", strconv.Itoa(counts[model.SeverityHigh])},
			{"🟡 Medium", strconv.Itoa(counts[model.SeverityMedium])},
			{"🔵 Low", strconv.Itoa(counts[model.SeverityLow])},
			{"**Total**", "**" + strconv.Itoa(len(report.Issues)) + "**"},
		},
	})
	md.PlainText("")

	if len(report.Issues) > 0 {
		w.writePieChart(md, counts)
	}
	w.writeAlert(md, counts, len(report.Issues))
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Severity]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)

	for _, sev := range []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
	} {
		if counts[sev] > 0 {
			chart.LabelAndIntValue(sev.String(), uint64(counts[sev]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, counts map[model.Severity]int, total int) {
	switch {
	case counts[model.SeverityCritical] > 0:
		md.Cautionf(
			"Critical tracking issues detected! %d critical issue(s) require immediate attention.",
			counts[model.SeverityCritical],
		)
	case counts[model.SeverityHigh] > 0:
		md.Warningf(
			"High severity issues detected. %d issue(s) are likely losing conversion data.",
			counts[model.SeverityHigh],
		)
	case counts[model.SeverityMedium] > 0:
		md.Importantf(
			"Medium severity issues found. %d issue(s) may distort reported metrics.",
			counts[model.SeverityMedium],
		)
	case total > 0:
		md.Note("Only low severity advisories detected.")
	default:
		md.Tip("No tracking issues detected.")
	}
	md.PlainText("")
}

// writePlatforms writes the per-platform detection table.
func (w *MarkdownWriter) writePlatforms(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Detected Platforms")
	md.PlainText("")

	rows := make([][]string, 0, 6)
	for _, row := range platformRows(report) {
		if row.result == nil {
			continue
		}
		detected := "no"
		if row.result.Detected {
			detected = "yes"
		}
		ids := strings.Join(row.result.IDs, ", ")
		if ids == "" {
			ids = "-"
		}
		rows = append(rows, []string{row.label, detected, ids})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Platform", "Detected", "IDs"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeIssues writes all issues grouped by severity.
func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Issues")
	md.PlainText("")

	if len(report.Issues) == 0 {
		md.PlainText("No issues found.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
	}

	for _, sev := range severities {
		issues := issuesBySeverity(report.Issues, sev.level)
		if len(issues) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeIssueTable(md, issues)
	}
}

// issuesBySeverity filters issues for one severity level, preserving order.
func issuesBySeverity(issues []model.Issue, level model.Severity) []model.Issue {
	filtered := make([]model.Issue, 0)
	for _, issue := range issues {
		if issue.Severity == level {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

// writeIssueTable writes a table of issues with recommendations.
func (w *MarkdownWriter) writeIssueTable(md *markdown.Markdown, issues []model.Issue) {
	rows := make([][]string, len(issues))
	for i, issue := range issues {
		rec := issue.Recommendation
		if rec == "" {
			rec = "-"
		}
		rows[i] = []string{
			issue.Platform,
			issue.Title,
			truncateString(rec, 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Platform", "Issue", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeEvents writes the extracted events table.
func (w *MarkdownWriter) writeEvents(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Events")
	md.PlainText("")

	if len(report.Events) == 0 {
		md.PlainText("No tracking events found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Events))
	for i, e := range report.Events {
		source := "explicit call"
		if e.Auto {
			source = "implicit (synthesized)"
		}
		rows[i] = []string{e.Type, e.Name, source}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Platform", "Event", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRecommendations writes the deduplicated recommendation list.
func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Summary.Recommendations) == 0 {
		return
	}

	md.H2("Recommendations")
	md.PlainText("")
	md.OrderedList(report.Summary.Recommendations...)
	md.PlainText("")
}

// truncateString shortens s to max runes, appending an ellipsis when cut.
func truncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
