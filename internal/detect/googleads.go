package detect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/textscan"
)

// adsIDRules extract Google Ads conversion IDs. Labels are stripped before
// storage; send_to label checking runs as its own pass.
var adsIDRules = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"gtag_loader", regexp.MustCompile(`googletagmanager\.com/gtag/js\?[^"'\s>]*\bid=(AW-\d+)`)},
	{"gtag_config", regexp.MustCompile(`gtag\(\s*["']config["']\s*,\s*["'](AW-\d+)["']`)},
	{"send_to", regexp.MustCompile(`["'](AW-\d+)(?:/[\w-]+)?["']`)},
	{"legacy_conversion_path", regexp.MustCompile(`googleadservices\.com/pagead/conversion/(\d{9,11})\b`)},
	{"legacy_conversion_var", regexp.MustCompile(`google_conversion_id\s*[:=]\s*["']?(\d{9,11})\b`)},
}

var (
	adsIDShape = regexp.MustCompile(`^AW-\d{9,11}$`)

	adsLoaderPattern      = regexp.MustCompile(`googletagmanager\.com/gtag/js\?[^"'\s>]*\bid=AW-`)
	adsConfigCallPattern  = regexp.MustCompile(`gtag\(\s*["']config["']\s*,\s*["']AW-`)
	adsConversionPattern  = regexp.MustCompile(`gtag\(\s*["']event["']\s*,\s*["']conversion["']`)
	adsHelperPattern      = regexp.MustCompile(`\bgtag_report_conversion\s*[(=]`)
	adsLinkerPattern      = regexp.MustCompile(`gtag\(\s*["']set["']\s*,\s*["']linker["']|conversion_linker`)
	adsEnhancedPattern    = regexp.MustCompile(`allow_enhanced_conversions|enhanced_conversion_data`)
	adsSendToValuePattern = regexp.MustCompile(`["']?send_to["']?\s*:\s*["'](AW-\d+)(/[\w-]+)?["']`)
)

const adsLegacyHost = "googleadservices.com/pagead/conversion"

// GoogleAdsDetector detects Google Ads conversion tracking and, from related
// commerce signals, Merchant Center usage.
type GoogleAdsDetector struct {
	validator idValidator
}

var _ Detector = (*GoogleAdsDetector)(nil)

// NewGoogleAdsDetector creates a GoogleAdsDetector.
func NewGoogleAdsDetector(options Options) *GoogleAdsDetector {
	d := &GoogleAdsDetector{
		validator: idValidator{
			shape:          adsIDShape.MatchString,
			prefixLen:      len("AW-"),
			denylist:       map[string]struct{}{},
			allowMixedCase: true, // all-digit body, casing cannot be suspicious
		},
	}
	d.validator.withExtraDenylist(options.ExtraIDDenylist)
	return d
}

// Name returns the detector's name.
func (d *GoogleAdsDetector) Name() string { return "google_ads" }

// Detect scans for Google Ads conversion tracking signals.
func (d *GoogleAdsDetector) Detect(_ context.Context, in *Input) *model.DetectionResult {
	result := emptyResult()
	text := in.ScanText
	if text == "" {
		return result
	}

	for _, rule := range adsIDRules {
		for _, m := range textscan.FindAllMatches(text, rule.pattern) {
			candidate := m.Group(0)
			if !strings.HasPrefix(candidate, "AW-") {
				// Legacy rules capture the bare numeric conversion ID.
				candidate = "AW-" + candidate
			}
			if id, ok := d.validator.validate(candidate); ok {
				result.IDs = appendUniqueID(result.IDs, id)
			}
		}
	}

	result.HasScript = adsLoaderPattern.MatchString(text) || strings.Contains(text, adsLegacyHost)
	result.HasConfig = adsConfigCallPattern.MatchString(text)
	result.HasConversion = adsConversionPattern.MatchString(in.EventText)
	result.HasReportConversionHelper = adsHelperPattern.MatchString(text)
	result.HasConversionLinker = adsLinkerPattern.MatchString(text)

	// Ads widens the detection rule beyond IDs/script/config: the report
	// conversion helper and the linker only exist on pages that run Ads.
	result.Detected = len(result.IDs) > 0 || result.HasScript || result.HasConfig ||
		result.HasReportConversionHelper || result.HasConversionLinker

	d.raiseIssues(result, in)
	return result
}

func (d *GoogleAdsDetector) raiseIssues(result *model.DetectionResult, in *Input) {
	if result.HasScript && !result.HasConfig {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGoogleAds, "ads_script_without_config",
			"Google Ads loader present without a config call",
			"The Ads loader was found but no gtag('config', 'AW-...') call is reachable.",
		))
	}
	if result.HasConfig && !result.HasScript {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGoogleAds, "ads_config_without_script",
			"Google Ads config call without the loader script",
			"A gtag('config', 'AW-...') call was found but the loader script is missing.",
		))
	}

	if bare := d.bareSendToIDs(in.EventText); len(bare) > 0 {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGoogleAds, "ads_send_to_missing_label",
			"Conversion send_to missing its label",
			fmt.Sprintf("%d send_to value(s) use a bare AW- ID without a conversion label.", len(bare)),
		).WithEvidence(map[string]any{"ids": bare}))
	}

	if len(result.IDs) > 0 && !result.HasConversion && !result.HasReportConversionHelper {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGoogleAds, "ads_no_conversion_events",
			"Google Ads tag installed but no conversion events found",
			fmt.Sprintf("Conversion ID %s is installed but no conversion event calls were found.", result.IDs[0]),
		))
	}
	if len(result.IDs) > 1 {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGoogleAds, "ads_multiple_ids",
			"Multiple Google Ads conversion IDs on one page",
			fmt.Sprintf("Found %d distinct conversion IDs.", len(result.IDs)),
		).WithEvidence(map[string]any{"ids": result.IDs}))
	}

	// Advisories only fire on confirmed installs, otherwise every page
	// without Ads would collect linker noise.
	if len(result.IDs) > 0 && !result.HasConversionLinker {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGoogleAds, "ads_missing_conversion_linker",
			"No conversion linker detected",
			"",
		))
	}
	if len(result.IDs) > 0 && result.HasConversion && !adsEnhancedPattern.MatchString(in.ScanText) {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGoogleAds, "ads_enhanced_conversions_off",
			"Enhanced conversions not enabled",
			"",
		))
	}
}

// bareSendToIDs returns the distinct AW- IDs used in send_to values without
// a conversion label.
func (d *GoogleAdsDetector) bareSendToIDs(text string) []string {
	var bare []string
	for _, m := range textscan.FindAllMatches(text, adsSendToValuePattern) {
		if m.Group(1) != "" {
			continue // label present
		}
		if id, ok := d.validator.validate(m.Group(0)); ok {
			bare = appendUniqueID(bare, id)
		}
	}
	return bare
}
