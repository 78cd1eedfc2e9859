package detect

import (
	"context"
	"regexp"
	"strings"

	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/textscan"
)

var (
	shopifyDomainPattern = regexp.MustCompile(`\b([a-z0-9][a-z0-9-]*\.myshopify\.com)\b`)
	shopifyGlobalPattern = regexp.MustCompile(`window\.Shopify\b|\bShopifyAnalytics\b|\bShopify\.shop\b`)
)

const shopifyCDNHost = "cdn.shopify.com"

// ShopifyDetector detects whether the page runs on Shopify. It is a
// contextual signal, not a tracking platform: a storefront result tells the
// reader which tag surfaces (checkout, web pixels) are managed by the
// platform rather than the page. It raises no issues.
type ShopifyDetector struct{}

var _ Detector = (*ShopifyDetector)(nil)

// NewShopifyDetector creates a ShopifyDetector.
func NewShopifyDetector(Options) *ShopifyDetector {
	return &ShopifyDetector{}
}

// Name returns the detector's name.
func (d *ShopifyDetector) Name() string { return "shopify" }

// Detect scans for Shopify storefront signals.
func (d *ShopifyDetector) Detect(_ context.Context, in *Input) *model.DetectionResult {
	result := emptyResult()
	text := in.ScanText
	if text == "" {
		return result
	}

	result.HasScript = strings.Contains(text, shopifyCDNHost)
	result.HasConfig = shopifyGlobalPattern.MatchString(text)

	if matches := textscan.FindAllMatches(strings.ToLower(text), shopifyDomainPattern); len(matches) > 0 {
		result.ShopDomain = matches[0].Group(0)
	}

	result.Detected = result.HasScript || result.HasConfig || result.ShopDomain != ""
	return result
}
