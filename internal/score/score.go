// Package score computes the tracking health score for an audit report.
package score

import "github.com/pixelaudit/pixelaudit/internal/model"

// Penalty weights for the fallback formula. Platform penalties apply when
// the platform is not installed at all; the issue penalty sums severity
// weights across every raised issue, capped so a long tail of advisories
// cannot zero out a working installation.
const (
	penaltyNoGA4    = 25
	penaltyNoMeta   = 25
	penaltyNoGTM    = 10
	penaltyNoAds    = 10
	maxIssuePenalty = 40
	baseScore       = 100
)

// Compute returns the 0-100 tracking health score for the report.
//
// When any detector supplied a confidence value, the first one in
// Results() order wins, clamped to [0, 100]. Detector confidence reflects
// signal quality the formula cannot see, so it takes precedence over the
// formula whenever present. Otherwise the fallback formula starts from 100
// and subtracts per-platform absence penalties plus capped issue-severity
// weights.
func Compute(report *model.AuditReport) int {
	for _, result := range report.Results() {
		if result != nil && result.Confidence != nil {
			return clamp(int(*result.Confidence))
		}
	}

	score := baseScore
	if !installed(report.GA4) {
		score -= penaltyNoGA4
	}
	if !installed(report.MetaPixel) {
		score -= penaltyNoMeta
	}
	if !installed(report.GTM) {
		score -= penaltyNoGTM
	}
	if !installed(report.GoogleAds) {
		score -= penaltyNoAds
	}
	score -= issuePenalty(report.Issues)

	return clamp(score)
}

// installed reports whether a platform result counts as installed for
// scoring. Detected covers both a validated ID and script/config signals
// without one; an obfuscated install should not be penalized as absent.
func installed(result *model.DetectionResult) bool {
	return result != nil && result.Detected
}

// issuePenalty sums the severity weights of all issues, capped at
// maxIssuePenalty.
func issuePenalty(issues []model.Issue) int {
	total := 0
	for _, issue := range issues {
		total += issue.Severity.Weight()
	}
	if total > maxIssuePenalty {
		return maxIssuePenalty
	}
	return total
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
