package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit statuses.
const (
	// StatusOK marks a fully completed audit.
	StatusOK = "ok"

	// StatusPartial marks an audit cut short by the overall deadline.
	// The report is still valid; some sub-results may be empty.
	StatusPartial = "partial"
)

// DetectionResult is the outcome of one platform detector.
//
// Design decision: We use a single struct for every platform, with
// platform-specific booleans serialized only when set, rather than one type
// per platform. The scorer and report writers can then treat all platforms
// uniformly.
type DetectionResult struct {
	// Detected is true if a valid identifier was found OR script/config
	// signals exist without a readable ID (covers obfuscated installs).
	Detected bool `json:"detected"`

	// IDs contains only identifiers that passed the platform's format
	// validator and are absent from its false-positive denylist.
	IDs []string `json:"ids"`

	// Issues raised by this detector.
	Issues []Issue `json:"issues,omitempty"`

	// HasScript is true when the official loader appears anywhere in the
	// scanned text, even without a parseable ID.
	HasScript bool `json:"has_script"`

	// HasConfig is true when a first-party configuration call is present.
	HasConfig bool `json:"has_config"`

	// === Platform-specific signals ===

	// HasInit is true when an init call is present (Meta Pixel).
	HasInit bool `json:"has_init,omitempty"`

	// HasTrack is true when at least one track call is present (Meta Pixel).
	HasTrack bool `json:"has_track,omitempty"`

	// HasNoscript is true when a noscript pixel fallback exists (Meta Pixel).
	HasNoscript bool `json:"has_noscript,omitempty"`

	// HasConversion is true when a conversion event call exists (Google Ads).
	HasConversion bool `json:"has_conversion,omitempty"`

	// HasConversionLinker is true when a conversion linker is present (Google Ads).
	HasConversionLinker bool `json:"has_conversion_linker,omitempty"`

	// HasReportConversionHelper is true when the gtag_report_conversion
	// helper function is present (Google Ads).
	HasReportConversionHelper bool `json:"has_report_conversion_helper,omitempty"`

	// HasDataLayer is true when a dataLayer declaration exists (GTM).
	HasDataLayer bool `json:"has_data_layer,omitempty"`

	// ShopDomain is the detected storefront domain (Shopify).
	ShopDomain string `json:"shop_domain,omitempty"`

	// ConfigFlags holds secondary configuration values extracted from the
	// first configuration call (send_page_view, anonymize_ip, ...).
	ConfigFlags map[string]any `json:"config_flags,omitempty"`

	// Confidence is an optional detector-supplied health score in [0,100].
	// When any detector supplies one, the scorer uses it instead of the
	// fallback formula.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Summary aggregates the audit outcome into the headline numbers.
type Summary struct {
	// TrackingHealthScore is the 0-100 health score.
	TrackingHealthScore int `json:"tracking_health_score"`

	// IssuesCount is the total number of issues across all detectors.
	IssuesCount int `json:"issues_count"`

	// EventsCount is the number of extracted events.
	EventsCount int `json:"events_count"`

	// Recommendations lists the remediation text of each issue, in issue
	// order, deduplicated.
	Recommendations []string `json:"recommendations,omitempty"`
}

// Details carries raw intermediates for debugging and inspection.
// Populated only when the caller requests details.
type Details struct {
	// FetchedScripts are the external scripts that were downloaded,
	// including their bodies.
	FetchedScripts []*ScriptRecord `json:"fetched_scripts,omitempty"`

	// DuplicateEvents is the raw duplicate-events list.
	DuplicateEvents []Event `json:"duplicate_events,omitempty"`

	// ParameterFindings is the raw parameter-validation output.
	ParameterFindings []ParamFinding `json:"parameter_findings,omitempty"`
}

// AuditReport is the complete result of one tracking audit.
// It is built once, read-only, and returned to the caller; the engine does
// not persist it.
type AuditReport struct {
	// AuditID uniquely identifies this audit run.
	AuditID string `json:"audit_id"`

	// Status is StatusOK, or StatusPartial when the deadline expired.
	Status string `json:"status"`

	// URL echoes the caller-supplied URL verbatim for display stability.
	// Internal URL resolution uses PageContent.FinalURL instead.
	URL string `json:"url"`

	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// === Per-platform results ===

	GA4            *DetectionResult `json:"ga4"`
	GTM            *DetectionResult `json:"gtm"`
	MetaPixel      *DetectionResult `json:"meta_pixel"`
	GoogleAds      *DetectionResult `json:"google_ads"`
	MerchantCenter *DetectionResult `json:"merchant_center"`
	Shopify        *DetectionResult `json:"shopify"`

	// Events are the extracted tracking events.
	Events []Event `json:"events"`

	// Issues is the merged issue list from every detector plus event
	// validation.
	Issues []Issue `json:"issues"`

	// Summary holds the headline score and counts.
	Summary Summary `json:"summary"`

	// Details holds raw intermediates; nil unless details were requested.
	Details *Details `json:"details,omitempty"`

	// Page is the fetched page snapshot. Excluded from JSON output due to
	// size; report writers use it for context only.
	Page *PageContent `json:"-"`

	// Scripts is the resolved script set the detectors ran over.
	// Excluded from JSON output due to size.
	Scripts []*ScriptRecord `json:"-"`
}

// NewAuditReport creates an empty report for the given caller-supplied URL.
// Detection results start as empty non-nil structs so consumers never need
// nil checks on the platform fields.
func NewAuditReport(url string) *AuditReport {
	return &AuditReport{
		AuditID:        uuid.NewString(),
		Status:         StatusOK,
		URL:            url,
		DateAudited:    time.Now(),
		GA4:            &DetectionResult{IDs: []string{}},
		GTM:            &DetectionResult{IDs: []string{}},
		MetaPixel:      &DetectionResult{IDs: []string{}},
		GoogleAds:      &DetectionResult{IDs: []string{}},
		MerchantCenter: &DetectionResult{IDs: []string{}},
		Shopify:        &DetectionResult{IDs: []string{}},
		Events:         []Event{},
		Issues:         []Issue{},
	}
}

// Results returns the platform results in scoring priority order.
// The scorer takes the first non-nil Confidence from this sequence.
func (r *AuditReport) Results() []*DetectionResult {
	return []*DetectionResult{r.GA4, r.GTM, r.MetaPixel, r.GoogleAds, r.MerchantCenter, r.Shopify}
}

// CollectIssues merges every detector's issues plus the given extra issues
// into the report-level list, preserving detector order.
func (r *AuditReport) CollectIssues(extra ...Issue) {
	issues := make([]Issue, 0)
	for _, res := range r.Results() {
		if res != nil {
			issues = append(issues, res.Issues...)
		}
	}
	issues = append(issues, extra...)
	r.Issues = issues
}

// IssueCountBySeverity returns the number of issues at each severity.
func (r *AuditReport) IssueCountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// BuildSummary fills the Summary from the current issues, events, and the
// given score.
func (r *AuditReport) BuildSummary(score int) {
	seen := make(map[string]bool)
	recs := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Recommendation == "" || seen[issue.Recommendation] {
			continue
		}
		seen[issue.Recommendation] = true
		recs = append(recs, issue.Recommendation)
	}

	r.Summary = Summary{
		TrackingHealthScore: score,
		IssuesCount:         len(r.Issues),
		EventsCount:         len(r.Events),
		Recommendations:     recs,
	}
}
