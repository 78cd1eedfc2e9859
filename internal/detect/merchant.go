package detect

import (
	"context"
	"regexp"

	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/textscan"
)

var (
	merchantIDPattern   = regexp.MustCompile(`(?i)["']?merchant[_-]?id["']?\s*[:=]\s*["']?(\d{6,12})\b`)
	merchantAttrPattern = regexp.MustCompile(`(?i)data-merchant-id\s*=\s*["'](\d{6,12})["']`)
	merchantHintPattern = regexp.MustCompile(`google_base_offer_id|aw_merchant_id|merchant_center`)
)

// DetectMerchantCenter scans for Google Merchant Center signals. It takes
// the finished Ads result because its one issue is a cross-account check:
// Merchant Center feeds without an Ads tag cannot report Shopping
// conversions.
//
// Merchant Center has no loader script of its own, so detection rests on
// merchant ID annotations and feed hints embedded in the page.
func (d *GoogleAdsDetector) DetectMerchantCenter(_ context.Context, in *Input, ads *model.DetectionResult) *model.DetectionResult {
	result := emptyResult()
	text := in.ScanText
	if text == "" {
		return result
	}

	for _, pattern := range []*regexp.Regexp{merchantIDPattern, merchantAttrPattern} {
		for _, m := range textscan.FindAllMatches(text, pattern) {
			result.IDs = appendUniqueID(result.IDs, m.Group(0))
		}
	}

	result.HasConfig = merchantHintPattern.MatchString(text)
	result.Detected = len(result.IDs) > 0 || result.HasConfig

	if result.Detected && (ads == nil || !ads.Detected) {
		result.Issues = append(result.Issues, model.NewIssue(
			model.PlatformMerchantCenter, "merchant_no_ads_link",
			"Merchant Center signals without a Google Ads tag",
			"Merchant identifiers were found but no Google Ads conversion tag is installed on this page.",
		))
	}
	return result
}
