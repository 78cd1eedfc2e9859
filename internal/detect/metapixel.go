package detect

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/script"
	"github.com/pixelaudit/pixelaudit/internal/textscan"
)

// pixelIDRules extract Meta Pixel IDs. Pixel IDs are 15-16 digit numbers,
// so every rule anchors on a call or attribute context to avoid matching
// arbitrary long numbers (timestamps, order IDs).
var pixelIDRules = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"fbq_init", regexp.MustCompile(`fbq\(\s*["']init["']\s*,\s*["'](\d{15,16})["']`)},
	{"fbq_push_init", regexp.MustCompile(`_fbq\.push\(\s*\[\s*["']init["']\s*,\s*["'](\d{15,16})["']`)},
	{"noscript_tr", regexp.MustCompile(`facebook\.com/tr\?[^"'\s>]*\bid=(\d{15,16})\b`)},
	{"data_attribute", regexp.MustCompile(`(?i)data-pixel-id\s*=\s*["'](\d{15,16})["']`)},
	{"minified_init", regexp.MustCompile(`\b[\w$]{1,4}\(\s*["']init["']\s*,\s*["'](\d{15,16})["']`)},
}

var (
	pixelIDShape = regexp.MustCompile(`^\d{15,16}$`)

	fbqInitPattern  = regexp.MustCompile(`fbq\(\s*["']init["']`)
	fbqTrackPattern = regexp.MustCompile(`fbq\(\s*["']track(?:Custom)?["']`)

	// fbqShimPattern matches the pixel bootstrap. Counted against page HTML
	// only, same rationale as the gtag duplicate check. The stock IIFE
	// contains an inner fbq=function assignment, so the second alternative
	// is anchored on window. to keep a single install at one match.
	fbqShimPattern = regexp.MustCompile(`!function\s*\(\s*f\s*,\s*b\s*,\s*e\s*,\s*v\b|window\.fbq\s*=\s*function`)

	fbqInitWithIDPattern = regexp.MustCompile(`fbq\(\s*["']init["']\s*,\s*["'](\d{15,16})["']\s*`)

	fbeventsLoaderPattern = regexp.MustCompile(`connect\.facebook\.net/[^"'\s>]*fbevents\.js`)
)

// MetaPixelDetector detects Meta (Facebook) Pixel installs.
type MetaPixelDetector struct {
	validator idValidator
}

var _ Detector = (*MetaPixelDetector)(nil)

// NewMetaPixelDetector creates a MetaPixelDetector.
func NewMetaPixelDetector(options Options) *MetaPixelDetector {
	d := &MetaPixelDetector{
		validator: idValidator{
			shape:          pixelIDShape.MatchString,
			denylist:       map[string]struct{}{},
			allowMixedCase: true, // numeric, casing cannot apply
		},
	}
	d.validator.withExtraDenylist(options.ExtraIDDenylist)
	return d
}

// Name returns the detector's name.
func (d *MetaPixelDetector) Name() string { return "meta_pixel" }

// Detect scans for Meta Pixel install signals.
func (d *MetaPixelDetector) Detect(_ context.Context, in *Input) *model.DetectionResult {
	result := emptyResult()
	text := in.ScanText
	if text == "" {
		return result
	}

	for _, rule := range pixelIDRules {
		for _, m := range textscan.FindAllMatches(text, rule.pattern) {
			if id, ok := d.validator.validate(m.Group(0)); ok {
				result.IDs = appendUniqueID(result.IDs, id)
			}
		}
	}

	result.HasScript = fbeventsLoaderPattern.MatchString(text)
	result.HasInit = fbqInitPattern.MatchString(text)
	result.HasConfig = result.HasInit
	result.HasTrack = fbqTrackPattern.MatchString(in.EventText)
	result.HasNoscript = script.HasNoscriptPixel(in.Page, "facebook.com/tr")
	result.ConfigFlags = d.configFlags(text)
	result.Detected = len(result.IDs) > 0 || result.HasScript || result.HasInit

	d.raiseIssues(result, in)
	return result
}

// configFlags extracts advanced-matching parameters from the first
// fbq('init', id, {...}) call.
func (d *MetaPixelDetector) configFlags(text string) map[string]any {
	loc := fbqInitWithIDPattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	literal := textscan.ExtractObjectAfter(text, loc[1])
	if literal == "" {
		return nil
	}
	obj, ok := textscan.ParseLooseObject(literal)
	if !ok || len(obj) == 0 {
		return nil
	}

	// Advanced matching sends hashed user data; report the keys only.
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	return map[string]any{"advanced_matching_keys": keys}
}

func (d *MetaPixelDetector) raiseIssues(result *model.DetectionResult, in *Input) {
	if result.HasScript && !result.HasInit {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformMetaPixel, "pixel_script_without_init",
			"Pixel base code present without an init call",
			"fbevents.js loads but fbq('init', ...) was never called.",
		))
	}
	if result.HasInit && !result.HasScript {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformMetaPixel, "pixel_init_without_script",
			"fbq('init') called without the base code",
			"An init call was found but the fbevents.js base code is missing.",
		))
	}
	if result.HasInit && !result.HasTrack {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformMetaPixel, "pixel_no_track_calls",
			"Pixel initialized but no track calls found",
			"fbq('init', ...) is present but no fbq('track', ...) calls were found.",
		))
	}
	if result.Detected && !result.HasNoscript {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformMetaPixel, "missing_noscript_fallback",
			"No noscript pixel fallback",
			"",
		))
	}
	if n := textscan.CountMatches(in.PageHTML(), fbqShimPattern); n > 1 {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformMetaPixel, "pixel_duplicate_shim",
			"Pixel base code installed multiple times",
			fmt.Sprintf("The fbq bootstrap appears %d times in the page HTML.", n),
		).WithEvidence(map[string]any{"definitions": n}))
	}
	d.raiseDuplicateInits(result, in)
	if len(result.IDs) > 1 {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformMetaPixel, "pixel_multiple_ids",
			"Multiple Meta Pixel IDs on one page",
			fmt.Sprintf("Found %d distinct pixel IDs.", len(result.IDs)),
		).WithEvidence(map[string]any{"ids": result.IDs}))
	}
}

// raiseDuplicateInits flags pixel IDs initialized more than once in the
// page HTML.
func (d *MetaPixelDetector) raiseDuplicateInits(result *model.DetectionResult, in *Input) {
	counts := make(map[string]int)
	for _, m := range textscan.FindAllMatches(in.PageHTML(), fbqInitWithIDPattern) {
		if id, ok := d.validator.validate(m.Group(0)); ok {
			counts[id]++
		}
	}
	for _, id := range result.IDs {
		if counts[id] > 1 {
			result.Issues = append(result.Issues, model.NewIssue(
				model.PlatformMetaPixel, "pixel_duplicate_init",
				"fbq('init') called multiple times for one ID",
				fmt.Sprintf("Pixel %s is initialized %d times.", id, counts[id]),
			).WithEvidence(map[string]any{"id": id, "count": counts[id]}))
		}
	}
}
