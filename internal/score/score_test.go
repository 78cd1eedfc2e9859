package score

import (
	"testing"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

func detected() *model.DetectionResult {
	return &model.DetectionResult{Detected: true, IDs: []string{}}
}

func confidence(v float64) *model.DetectionResult {
	return &model.DetectionResult{IDs: []string{}, Confidence: &v}
}

func TestCompute(t *testing.T) {
	t.Parallel()

	t.Run("empty page scores 30", func(t *testing.T) {
		t.Parallel()

		// Nothing installed, nothing wrong: 100 - 25 - 25 - 10 - 10.
		report := model.NewAuditReport("https://example.com")
		if got := Compute(report); got != 30 {
			t.Errorf("Compute() = %d, want 30", got)
		}
	})

	t.Run("everything installed and clean scores 100", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("https://example.com")
		report.GA4 = detected()
		report.GTM = detected()
		report.MetaPixel = detected()
		report.GoogleAds = detected()

		if got := Compute(report); got != 100 {
			t.Errorf("Compute() = %d, want 100", got)
		}
	})

	t.Run("issue severities subtract their weights", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("https://example.com")
		report.GA4 = detected()
		report.GTM = detected()
		report.MetaPixel = detected()
		report.GoogleAds = detected()
		report.Issues = []model.Issue{
			{Severity: model.SeverityHigh},   // 18
			{Severity: model.SeverityMedium}, // 10
		}

		if got := Compute(report); got != 72 {
			t.Errorf("Compute() = %d, want 72", got)
		}
	})

	t.Run("issue penalty is capped", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("https://example.com")
		report.GA4 = detected()
		report.GTM = detected()
		report.MetaPixel = detected()
		report.GoogleAds = detected()
		for i := 0; i < 10; i++ {
			report.Issues = append(report.Issues, model.Issue{Severity: model.SeverityCritical})
		}

		if got := Compute(report); got != 60 {
			t.Errorf("Compute() = %d, want 60", got)
		}
	})

	t.Run("detected without IDs still counts as installed", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("https://example.com")
		report.GA4 = &model.DetectionResult{Detected: true, IDs: []string{}, HasScript: true}

		// 100 - 25 (meta) - 10 (gtm) - 10 (ads).
		if got := Compute(report); got != 55 {
			t.Errorf("Compute() = %d, want 55", got)
		}
	})

	t.Run("confidence wins over the formula", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("https://example.com")
		report.MetaPixel = confidence(87)

		if got := Compute(report); got != 87 {
			t.Errorf("Compute() = %d, want 87", got)
		}
	})

	t.Run("first confidence in results order wins", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("https://example.com")
		report.GA4 = confidence(40)
		report.MetaPixel = confidence(90)

		if got := Compute(report); got != 40 {
			t.Errorf("Compute() = %d, want 40", got)
		}
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			in   float64
			want int
		}{
			{name: "above range", in: 140, want: 100},
			{name: "below range", in: -5, want: 0},
		}
		for _, tt := range tests {
			report := model.NewAuditReport("https://example.com")
			report.GA4 = confidence(tt.in)
			if got := Compute(report); got != tt.want {
				t.Errorf("%s: Compute() = %d, want %d", tt.name, got, tt.want)
			}
		}
	})

	t.Run("score stays in bounds", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("https://example.com")
		for i := 0; i < 20; i++ {
			report.Issues = append(report.Issues, model.Issue{Severity: model.SeverityCritical})
		}

		got := Compute(report)
		if got < 0 || got > 100 {
			t.Errorf("Compute() = %d, want within [0, 100]", got)
		}
	})
}
