package detect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/textscan"
)

// gtmIDRules extract GTM container IDs. The bare quoted form is last: the
// GTM- prefix is distinctive enough that a quoted token is still decent
// evidence, but the loader and snippet forms should win the ordering.
var gtmIDRules = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"gtm_loader", regexp.MustCompile(`googletagmanager\.com/gtm\.js\?[^"'\s>]*\bid=(GTM-[A-Za-z0-9]+)`)},
	{"gtm_snippet", regexp.MustCompile(`["']dataLayer["']\s*,\s*["'](GTM-[A-Za-z0-9]+)["']`)},
	{"gtm_iframe", regexp.MustCompile(`googletagmanager\.com/ns\.html\?[^"'\s>]*\bid=(GTM-[A-Za-z0-9]+)`)},
	{"quoted_id", regexp.MustCompile(`["'](GTM-[A-Z0-9]{4,10})["']`)},
}

var (
	gtmIDShape = regexp.MustCompile(`^GTM-[A-Z0-9]{4,10}$`)

	gtmIframePattern    = regexp.MustCompile(`googletagmanager\.com/ns\.html`)
	dataLayerHintRegexp = regexp.MustCompile(`(?:window\.|var\s+|let\s+|const\s+)dataLayer\s*=|dataLayer\.push\s*\(`)
)

const gtmLoaderHost = "googletagmanager.com/gtm.js"

// DetectGTM scans for Google Tag Manager containers. It lives on the GA4
// detector because the two share the gtag snippet infrastructure: a page
// that loads GTM usually routes GA4 through it.
//
// The dataLayer declaration alone does not count toward detection. The
// stock gtag.js snippet also declares window.dataLayer, so treating it as a
// container signal would mark every plain-GA4 page as running GTM. It is
// still reported as a flag.
func (d *GA4Detector) DetectGTM(_ context.Context, in *Input) *model.DetectionResult {
	result := emptyResult()
	text := in.ScanText
	if text == "" {
		return result
	}

	for _, rule := range gtmIDRules {
		for _, m := range textscan.FindAllMatches(text, rule.pattern) {
			if id, ok := d.gtmValidator.validate(m.Group(0)); ok {
				result.IDs = appendUniqueID(result.IDs, id)
			}
		}
	}

	result.HasScript = strings.Contains(text, gtmLoaderHost)
	result.HasConfig = gtmIframePattern.MatchString(in.PageHTML())
	result.HasNoscript = result.HasConfig
	result.HasDataLayer = dataLayerHintRegexp.MatchString(text)
	result.Detected = len(result.IDs) > 0 || result.HasScript || result.HasConfig

	if len(result.IDs) > 1 {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformGTM, "gtm_multiple_containers",
			"Multiple GTM containers on one page",
			fmt.Sprintf("Found %d distinct container IDs.", len(result.IDs)),
		).WithEvidence(map[string]any{"ids": result.IDs}))
	}
	return result
}
