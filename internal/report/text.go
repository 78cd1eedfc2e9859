package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// showEmpty controls whether platforms with no detection are shown.
	showEmpty bool

	// verbose adds per-event and per-issue detail lines.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to list undetected platforms too.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// platformRow pairs a display label with its detection result.
type platformRow struct {
	label  string
	result *model.DetectionResult
}

func platformRows(report *model.AuditReport) []platformRow {
	return []platformRow{
		{"Google Analytics 4", report.GA4},
		{"Google Tag Manager", report.GTM},
		{"Meta Pixel", report.MetaPixel},
		{"Google Ads", report.GoogleAds},
		{"Merchant Center", report.MerchantCenter},
		{"Shopify", report.Shopify},
	}
}

// Write outputs the report as formatted text.
func (w *TextWriter) Write(report *model.AuditReport) (int, error) {
	var b strings.Builder

	w.writeHeader(&b, report)
	w.writePlatforms(&b, report)
	w.writeIssues(&b, report)
	w.writeEvents(&b, report)
	w.writeRecommendations(&b, report)

	return io.WriteString(w.output, b.String())
}

func (w *TextWriter) writeHeader(b *strings.Builder, report *model.AuditReport) {
	fmt.Fprintf(b, "Tracking Audit: %s\n", report.URL)
	fmt.Fprintf(b, "Date:   %s\n", report.DateAudited.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(b, "Status: %s\n", report.Status)
	fmt.Fprintf(b, "Score:  %d/100\n\n", report.Summary.TrackingHealthScore)
}

func (w *TextWriter) writePlatforms(b *strings.Builder, report *model.AuditReport) {
	b.WriteString("Platforms:\n")
	for _, row := range platformRows(report) {
		if row.result == nil || (!row.result.Detected && !w.showEmpty) {
			continue
		}
		mark := " "
		if row.result.Detected {
			mark = "x"
		}
		fmt.Fprintf(b, "  [%s] %-20s %s\n", mark, row.label, strings.Join(row.result.IDs, ", "))
	}
	b.WriteString("\n")
}

func (w *TextWriter) writeIssues(b *strings.Builder, report *model.AuditReport) {
	if len(report.Issues) == 0 {
		b.WriteString("No issues found.\n\n")
		return
	}

	fmt.Fprintf(b, "Issues (%d):\n", len(report.Issues))
	for _, issue := range report.Issues {
		fmt.Fprintf(b, "  [%s] %s: %s\n", issue.Severity, issue.Platform, issue.Title)
		if w.verbose && issue.Details != "" {
			fmt.Fprintf(b, "        %s\n", issue.Details)
		}
	}
	b.WriteString("\n")
}

func (w *TextWriter) writeEvents(b *strings.Builder, report *model.AuditReport) {
	if len(report.Events) == 0 {
		return
	}

	fmt.Fprintf(b, "Events (%d):\n", len(report.Events))
	for _, e := range report.Events {
		suffix := ""
		if e.Auto {
			suffix = " (implicit)"
		}
		fmt.Fprintf(b, "  %s: %s%s\n", e.Type, e.Name, suffix)
	}
	b.WriteString("\n")
}

func (w *TextWriter) writeRecommendations(b *strings.Builder, report *model.AuditReport) {
	if len(report.Summary.Recommendations) == 0 {
		return
	}

	b.WriteString("Recommendations:\n")
	for i, rec := range report.Summary.Recommendations {
		fmt.Fprintf(b, "  %d. %s\n", i+1, rec)
	}
}
