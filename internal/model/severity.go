package model

import "encoding/json"

// Severity represents the impact level of a tracking issue.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// the lowercase wire representation expected by report consumers.
type Severity int

const (
	// SeverityUnknown is the zero value for issues whose code has no entry
	// in the issue info mapping. It still carries a score penalty.
	SeverityUnknown Severity = iota

	// SeverityLow indicates advisory findings.
	// Examples: missing noscript fallback, enhanced conversions not enabled.
	SeverityLow

	// SeverityMedium indicates issues that degrade data quality.
	// Examples: configuration without loader script, duplicate events.
	SeverityMedium

	// SeverityHigh indicates issues that likely break tracking.
	// Examples: loader script present but never configured, a send_to
	// value missing its conversion label.
	SeverityHigh

	// SeverityCritical indicates issues that make tracking data unusable.
	SeverityCritical
)

// String returns the lowercase representation used in serialized reports.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Weight returns the health-score penalty for a single issue of this
// severity. The per-audit sum of weights is capped by the scorer.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 25
	case SeverityHigh:
		return 18
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 5
	default:
		return 8
	}
}

// MarshalJSON serializes the severity as its lowercase string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the lowercase string form back into a Severity.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "low":
		*s = SeverityLow
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	case "critical":
		*s = SeverityCritical
	default:
		*s = SeverityUnknown
	}
	return nil
}
