package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

func sampleReport() *model.AuditReport {
	report := model.NewAuditReport("https://shop.example.com")
	report.DateAudited = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	report.GA4 = &model.DetectionResult{
		Detected:  true,
		IDs:       []string{"G-ABC12345"},
		HasScript: true,
		HasConfig: true,
	}
	report.Events = []model.Event{
		{Type: model.EventTypeGA4, Name: "purchase", Params: map[string]any{"value": 10.0}},
		{Type: model.EventTypeMetaPixel, Name: "PageView", Auto: true},
	}
	report.Issues = []model.Issue{
		model.NewIssue(model.PlatformMetaPixel, "pixel_no_track_calls",
			"Pixel initialized but no track calls found", ""),
		model.NewIssue(model.PlatformGA4, "ga4_script_without_config",
			"GA4 loader present without a config call", ""),
	}
	report.BuildSummary(62)
	return report
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		n, err := w.Write(sampleReport())
		if err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() = %d bytes, buffer holds %d", n, buf.Len())
		}

		var decoded model.AuditReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.URL != "https://shop.example.com" {
			t.Errorf("URL = %q, want the caller URL", decoded.URL)
		}
		if decoded.Summary.TrackingHealthScore != 62 {
			t.Errorf("score = %d, want 62", decoded.Summary.TrackingHealthScore)
		}
		if len(decoded.GA4.IDs) != 1 {
			t.Errorf("GA4.IDs = %v, want one entry", decoded.GA4.IDs)
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(sampleReport()); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("pretty output has no indentation")
		}
	})

	t.Run("severity serializes as a string", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(sampleReport()); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}
		if !strings.Contains(buf.String(), `"severity":"high"`) {
			t.Error("output lacks string severity values")
		}
	})
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("sections present", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		if _, err := w.Write(sampleReport()); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}

		out := buf.String()
		for _, want := range []string{
			"Tracking Audit: https://shop.example.com",
			"Score:  62/100",
			"[x] Google Analytics 4   G-ABC12345",
			"Issues (2):",
			"GA4: purchase",
			"MetaPixel: PageView (implicit)",
			"Recommendations:",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q\n%s", want, out)
			}
		}
	})

	t.Run("clean report", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("https://example.com")
		report.BuildSummary(30)

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).Write(report); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}
		if !strings.Contains(buf.String(), "No issues found.") {
			t.Error("output missing the no-issues line")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)

	if _, err := w.Write(sampleReport()); err != nil {
		t.Fatalf("Write() error = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Tracking Audit Report",
		"## Severity Summary",
		"## Detected Platforms",
		"## Issues",
		"## Events",
		"G-ABC12345",
		"purchase",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, jsonBuf bytes.Buffer
	mw := NewMultiWriter(NewTextWriter(&text), NewJSONWriter(&jsonBuf))

	n, err := mw.Write(sampleReport())
	if err != nil {
		t.Fatalf("Write() error = %v, want nil", err)
	}
	if text.Len() == 0 || jsonBuf.Len() == 0 {
		t.Error("MultiWriter left a destination empty")
	}
	if n != text.Len()+jsonBuf.Len() {
		t.Errorf("Write() = %d bytes, want %d", n, text.Len()+jsonBuf.Len())
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString() = %q, want unchanged", got)
	}
	if got := truncateString("abcdefghij", 8); got != "abcde..." {
		t.Errorf("truncateString() = %q, want %q", got, "abcde...")
	}
}
