package model

// Platform identifiers used in issues, events, and detection results.
const (
	PlatformGA4            = "ga4"
	PlatformGTM            = "gtm"
	PlatformGoogleAds      = "google_ads"
	PlatformMetaPixel      = "meta_pixel"
	PlatformMerchantCenter = "merchant_center"
	PlatformShopify        = "shopify"
)

// Issue is a single, independently-raised finding with a severity and a
// stable code. Issues are created by exactly one detector and never mutated
// after creation; they feed both user-facing recommendations and score
// penalties.
type Issue struct {
	// Platform identifies which detector raised the issue.
	Platform string `json:"platform"`

	// Code is the stable machine-readable identifier for the issue kind.
	Code string `json:"code"`

	// Title is a short human-readable summary.
	Title string `json:"title"`

	// Severity is the impact level, resolved from the issue info mapping.
	Severity Severity `json:"severity"`

	// Details carries optional free-form context.
	Details string `json:"details,omitempty"`

	// Recommendation explains how to address the issue.
	Recommendation string `json:"recommendation,omitempty"`

	// Evidence carries structured context (matched IDs, counts, URLs).
	Evidence map[string]any `json:"evidence,omitempty"`
}

// IssueInfo contains metadata about an issue code: its severity and the
// remediation recommendation surfaced in report summaries.
type IssueInfo struct {
	Severity       Severity
	Recommendation string
}

// issueInfoMapping maps issue codes to their metadata.
//
// Design decision: We use a central map rather than embedding severity at
// each emit site because:
//  1. It keeps risk assessment consistent across detectors
//  2. Severity tuning doesn't require touching detector logic
//  3. It doubles as the catalog of every issue the engine can raise
var issueInfoMapping = map[string]IssueInfo{
	// GA4
	"ga4_script_without_config": {
		Severity:       SeverityHigh,
		Recommendation: "The gtag.js loader is present but no gtag('config', ...) call was found. Add a config call with your measurement ID so hits are actually sent.",
	},
	"ga4_config_without_script": {
		Severity:       SeverityMedium,
		Recommendation: "A gtag('config', ...) call exists but the gtag.js loader script was not found. Include the official loader from googletagmanager.com.",
	},
	"ga4_no_events": {
		Severity:       SeverityMedium,
		Recommendation: "A GA4 measurement ID is installed but no event calls were found. Wire up gtag('event', ...) calls for the interactions you care about.",
	},
	"ga4_multiple_ids": {
		Severity:       SeverityMedium,
		Recommendation: "Multiple distinct GA4 measurement IDs were found. Double-reporting inflates metrics; keep a single ID per property.",
	},
	"ga4_duplicate_gtag": {
		Severity:       SeverityMedium,
		Recommendation: "The gtag() function is defined more than once in the page HTML, a symptom of double installation. Remove the duplicate snippet.",
	},

	// GTM
	"gtm_multiple_containers": {
		Severity:       SeverityMedium,
		Recommendation: "Multiple GTM container IDs load on the same page. Unless intentional, consolidate into one container.",
	},

	// Google Ads
	"ads_script_without_config": {
		Severity:       SeverityHigh,
		Recommendation: "The Google Ads loader is present but no gtag('config', 'AW-...') call was found. Conversions will not be recorded.",
	},
	"ads_config_without_script": {
		Severity:       SeverityMedium,
		Recommendation: "A Google Ads config call exists without the official loader script. Include the gtag.js loader with your AW- ID.",
	},
	"ads_send_to_missing_label": {
		Severity:       SeverityHigh,
		Recommendation: "A conversion send_to value uses a bare AW- ID without a conversion label (AW-XXXXXXX/label). The conversion will not match a conversion action.",
	},
	"ads_no_conversion_events": {
		Severity:       SeverityMedium,
		Recommendation: "A Google Ads tag is installed but no conversion events were found. Add gtag('event', 'conversion', {send_to: ...}) on your conversion pages.",
	},
	"ads_multiple_ids": {
		Severity:       SeverityMedium,
		Recommendation: "Multiple distinct Google Ads conversion IDs were found. Verify that each account should be receiving conversions from this page.",
	},
	"ads_missing_conversion_linker": {
		Severity:       SeverityLow,
		Recommendation: "No conversion linker was detected. Without it, cross-domain and browser-restricted conversions may be lost.",
	},
	"ads_enhanced_conversions_off": {
		Severity:       SeverityLow,
		Recommendation: "Enhanced conversions do not appear to be enabled. Enabling them improves conversion measurement accuracy.",
	},

	// Merchant Center
	"merchant_no_ads_link": {
		Severity:       SeverityLow,
		Recommendation: "Merchant Center signals were found without a Google Ads tag. Link the accounts and install conversion tracking to measure Shopping performance.",
	},

	// Meta Pixel
	"pixel_script_without_init": {
		Severity:       SeverityHigh,
		Recommendation: "The Meta Pixel base code loads but fbq('init', ...) was never called. The pixel records nothing without an init.",
	},
	"pixel_init_without_script": {
		Severity:       SeverityMedium,
		Recommendation: "fbq('init', ...) is called but the fbevents.js base code was not found. Install the full pixel snippet.",
	},
	"pixel_no_track_calls": {
		Severity:       SeverityMedium,
		Recommendation: "The pixel is initialized but no fbq('track', ...) calls were found. At minimum, track PageView.",
	},
	"missing_noscript_fallback": {
		Severity:       SeverityLow,
		Recommendation: "No <noscript> image fallback was found for the Meta Pixel. Visitors with JavaScript disabled will not be counted.",
	},
	"pixel_duplicate_shim": {
		Severity:       SeverityMedium,
		Recommendation: "The fbq bootstrap function is defined more than once in the page HTML. Remove the duplicate base code snippet.",
	},
	"pixel_duplicate_init": {
		Severity:       SeverityMedium,
		Recommendation: "fbq('init') is called multiple times with the same pixel ID, which double-counts events. Keep a single init per ID.",
	},
	"pixel_multiple_ids": {
		Severity:       SeverityMedium,
		Recommendation: "Multiple distinct Meta Pixel IDs were found. Verify that every ID should receive events from this page.",
	},

	// Cross-platform event hygiene
	"duplicate_event": {
		Severity:       SeverityMedium,
		Recommendation: "The same event fires more than once on this page. Deduplicate to avoid inflated counts.",
	},
	"event_missing_params": {
		Severity:       SeverityMedium,
		Recommendation: "An event is missing parameters the platform requires for full attribution. Add the listed parameters.",
	},
}

// GetIssueInfo returns the metadata for an issue code.
// Unknown codes get SeverityUnknown and a generic recommendation.
func GetIssueInfo(code string) IssueInfo {
	if info, ok := issueInfoMapping[code]; ok {
		return info
	}
	return IssueInfo{
		Severity:       SeverityUnknown,
		Recommendation: "Review this finding manually.",
	}
}

// NewIssue creates an Issue for the given platform and code, resolving
// severity and recommendation from the issue info mapping.
func NewIssue(platform, code, title, details string) Issue {
	info := GetIssueInfo(code)
	return Issue{
		Platform:       platform,
		Code:           code,
		Title:          title,
		Severity:       info.Severity,
		Details:        details,
		Recommendation: info.Recommendation,
	}
}

// WithEvidence returns a copy of the issue with the evidence map attached.
// The original issue is left untouched; issues are immutable after creation.
func (i Issue) WithEvidence(evidence map[string]any) Issue {
	i.Evidence = evidence
	return i
}
