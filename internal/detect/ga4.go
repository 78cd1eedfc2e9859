package detect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/textscan"
)

// ga4IDRules are the extraction passes for GA4 measurement IDs, ordered from
// strongest evidence (the official loader URL) to weakest (a bare tid query
// parameter). Candidates from every rule go through the same validator, so
// rule order only affects the order of the final ID list.
var ga4IDRules = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"gtag_loader", regexp.MustCompile(`googletagmanager\.com/gtag/js\?[^"'\s>]*\bid=(G-[A-Za-z0-9]+)`)},
	{"gtag_config", regexp.MustCompile(`gtag\(\s*["']config["']\s*,\s*["'](G-[A-Za-z0-9]+)["']`)},
	{"minified_config", regexp.MustCompile(`\b[\w$]{1,4}\(\s*["']config["']\s*,\s*["'](G-[A-Za-z0-9]+)["']`)},
	{"measurement_id_assign", regexp.MustCompile(`(?i)measurement[_-]?id["']?\s*[:=]\s*["'](G-[A-Za-z0-9]+)["']`)},
	{"send_to_param", regexp.MustCompile(`["']?send_to["']?\s*:\s*["'](G-[A-Za-z0-9]+)["']`)},
	{"data_attribute", regexp.MustCompile(`(?i)data-(?:ga4|ga-measurement|measurement)-id\s*=\s*["'](G-[A-Za-z0-9]+)["']`)},
	{"collect_endpoint", regexp.MustCompile(`google-analytics\.com/g/collect[^"'\s>]*[?&]tid=(G-[A-Za-z0-9]+)`)},
	{"tid_param", regexp.MustCompile(`[?&]tid=(G-[A-Za-z0-9]+)`)},
}

var (
	ga4IDShape = regexp.MustCompile(`^G-[A-Z0-9]{6,12}$`)

	gtagConfigCallPattern = regexp.MustCompile(`gtag\(\s*["']config["']`)
	gtagEventCallPattern  = regexp.MustCompile(`gtag\(\s*["']event["']`)

	// gtagDefinitionPattern matches the snippet that defines gtag().
	// Counted against page HTML only; see Input.PageHTML.
	gtagDefinitionPattern = regexp.MustCompile(`function\s+gtag\s*\(|(?:window\.)?gtag\s*=\s*function`)

	ga4ConfigWithIDPattern = regexp.MustCompile(`gtag\(\s*["']config["']\s*,\s*["']G-[A-Za-z0-9]+["']\s*`)
)

const ga4LoaderHost = "googletagmanager.com/gtag/js"

// ga4ConfigFlagKeys are the secondary settings worth surfacing from a
// gtag('config', ...) options object.
var ga4ConfigFlagKeys = []string{
	"send_page_view",
	"anonymize_ip",
	"allow_google_signals",
	"allow_ad_personalization_signals",
	"debug_mode",
	"transport_url",
	"server_container_url",
	"cookie_domain",
}

// GA4Detector detects Google Analytics 4 installs and, from the same pass
// infrastructure, Google Tag Manager containers.
type GA4Detector struct {
	validator    idValidator
	gtmValidator idValidator
}

var _ Detector = (*GA4Detector)(nil)

// NewGA4Detector creates a GA4Detector.
func NewGA4Detector(options Options) *GA4Detector {
	d := &GA4Detector{
		validator: idValidator{
			shape:        ga4IDShape.MatchString,
			requireDigit: true,
			prefixLen:    len("G-"),
			denylist: map[string]struct{}{
				// Words that share the G- prefix in unrelated scripts.
				"G-RECAPTCHA": {},
				"G-ANALYTICS": {},
			},
			allowMixedCase: options.AllowMixedCaseIDs,
		},
		gtmValidator: idValidator{
			shape:     gtmIDShape.MatchString,
			prefixLen: len("GTM-"),
			denylist: map[string]struct{}{
				"GTM-XXXX":    {},
				"GTM-XXXXXX":  {},
				"GTM-XXXXXXX": {},
			},
			allowMixedCase: options.AllowMixedCaseIDs,
		},
	}
	d.validator.withExtraDenylist(options.ExtraIDDenylist)
	d.gtmValidator.withExtraDenylist(options.ExtraIDDenylist)
	return d
}

// Name returns the detector's name.
func (d *GA4Detector) Name() string { return "ga4" }

// Detect scans for GA4 install signals.
func (d *GA4Detector) Detect(_ context.Context, in *Input) *model.DetectionResult {
	result := emptyResult()
	text := in.ScanText
	if text == "" {
		return result
	}

	for _, rule := range ga4IDRules {
		for _, m := range textscan.FindAllMatches(text, rule.pattern) {
			if id, ok := d.validator.validate(m.Group(0)); ok {
				result.IDs = appendUniqueID(result.IDs, id)
			}
		}
	}

	result.HasScript = strings.Contains(text, ga4LoaderHost)
	result.HasConfig = gtagConfigCallPattern.MatchString(text)
	result.ConfigFlags = d.configFlags(text)
	result.Detected = len(result.IDs) > 0 || result.HasScript || result.HasConfig

	d.raiseIssues(result, in)
	return result
}

// configFlags extracts scalar settings from the options object of the first
// gtag('config', 'G-...') call, when one is present and parseable.
func (d *GA4Detector) configFlags(text string) map[string]any {
	loc := ga4ConfigWithIDPattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	literal := textscan.ExtractObjectAfter(text, loc[1])
	if literal == "" {
		return nil
	}
	obj, ok := textscan.ParseLooseObject(literal)
	if !ok {
		return nil
	}

	flags := make(map[string]any)
	for _, key := range ga4ConfigFlagKeys {
		if v, exists := obj[key]; exists {
			switch v.(type) {
			case string, bool, float64:
				flags[key] = v
			}
		}
	}
	if len(flags) == 0 {
		return nil
	}
	return flags
}

func (d *GA4Detector) raiseIssues(result *model.DetectionResult, in *Input) {
	if result.HasScript && !result.HasConfig {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGA4, "ga4_script_without_config",
			"GA4 loader present without a config call",
			"The gtag.js loader was found but no gtag('config', ...) call is reachable in the page or its scripts.",
		))
	}
	if result.HasConfig && !result.HasScript {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGA4, "ga4_config_without_script",
			"GA4 config call without the loader script",
			"A gtag('config', ...) call was found but the gtag.js loader script is missing.",
		))
	}
	if len(result.IDs) > 0 && !gtagEventCallPattern.MatchString(in.EventText) {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGA4, "ga4_no_events",
			"GA4 installed but no event calls found",
			fmt.Sprintf("Measurement ID %s is installed but no gtag('event', ...) calls were found.", result.IDs[0]),
		))
	}
	if len(result.IDs) > 1 {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGA4, "ga4_multiple_ids",
			"Multiple GA4 measurement IDs on one page",
			fmt.Sprintf("Found %d distinct measurement IDs.", len(result.IDs)),
		).WithEvidence(map[string]any{"ids": result.IDs}))
	}
	if n := textscan.CountMatches(in.PageHTML(), gtagDefinitionPattern); n > 1 {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGA4, "ga4_duplicate_gtag",
			"gtag() defined multiple times",
			fmt.Sprintf("The gtag bootstrap function is defined %d times in the page HTML.", n),
		).WithEvidence(map[string]any{"definitions": n}))
	}
}
