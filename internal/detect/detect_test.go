package detect

import (
	"context"
	"testing"
)

func TestDetectGTM(t *testing.T) {
	t.Parallel()

	t.Run("container snippet", func(t *testing.T) {
		t.Parallel()

		html := `<script>(function(w,d,s,l,i){w[l]=w[l]||[];w[l].push({'gtm.start':new Date().getTime(),event:'gtm.js'});
var f=d.getElementsByTagName(s)[0],j=d.createElement(s);j.async=true;
j.src='https://www.googletagmanager.com/gtm.js?id='+i;f.parentNode.insertBefore(j,f);
})(window,document,'script','dataLayer','GTM-AB12CD');</script>
<noscript><iframe src="https://www.googletagmanager.com/ns.html?id=GTM-AB12CD"></iframe></noscript>`

		d := NewGA4Detector(Options{})
		result := d.DetectGTM(context.Background(), newTestInput(html))

		if !result.Detected {
			t.Fatal("Detected = false, want true")
		}
		if len(result.IDs) != 1 || result.IDs[0] != "GTM-AB12CD" {
			t.Errorf("IDs = %v, want [GTM-AB12CD]", result.IDs)
		}
		if !result.HasScript {
			t.Error("HasScript = false, want true")
		}
		if !result.HasNoscript {
			t.Error("HasNoscript = false, want true")
		}
	})

	t.Run("dataLayer alone is not a container", func(t *testing.T) {
		t.Parallel()

		html := `<script>window.dataLayer = window.dataLayer || [];</script>`

		d := NewGA4Detector(Options{})
		result := d.DetectGTM(context.Background(), newTestInput(html))

		if result.Detected {
			t.Error("Detected = true, want false")
		}
		if !result.HasDataLayer {
			t.Error("HasDataLayer = false, want true")
		}
	})

	t.Run("placeholder container ID rejected", func(t *testing.T) {
		t.Parallel()

		html := `<script src="https://www.googletagmanager.com/gtm.js?id=GTM-XXXXXX"></script>`

		d := NewGA4Detector(Options{})
		result := d.DetectGTM(context.Background(), newTestInput(html))

		if len(result.IDs) != 0 {
			t.Errorf("IDs = %v, want empty", result.IDs)
		}
		// The loader itself is still a detection signal.
		if !result.Detected {
			t.Error("Detected = false, want true")
		}
	})

	t.Run("multiple containers", func(t *testing.T) {
		t.Parallel()

		html := `<script>'dataLayer','GTM-AB12CD'</script><script>'dataLayer','GTM-EF34GH'</script>`

		d := NewGA4Detector(Options{})
		result := d.DetectGTM(context.Background(), newTestInput(html))

		if !hasIssue(result.Issues, "gtm_multiple_containers") {
			t.Error("missing gtm_multiple_containers issue")
		}
	})
}

func TestGoogleAdsDetectorDetect(t *testing.T) {
	t.Parallel()

	t.Run("full conversion setup", func(t *testing.T) {
		t.Parallel()

		html := `<script async src="https://www.googletagmanager.com/gtag/js?id=AW-123456789"></script>
<script>
  gtag('config', 'AW-123456789');
  function gtag_report_conversion(url) {
    gtag('event', 'conversion', {send_to: 'AW-123456789/AbCdEfGhIj', value: 1.0, currency: 'USD'});
    return false;
  }
</script>`

		d := NewGoogleAdsDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !result.Detected {
			t.Fatal("Detected = false, want true")
		}
		if len(result.IDs) != 1 || result.IDs[0] != "AW-123456789" {
			t.Errorf("IDs = %v, want [AW-123456789]", result.IDs)
		}
		if !result.HasConversion {
			t.Error("HasConversion = false, want true")
		}
		if !result.HasReportConversionHelper {
			t.Error("HasReportConversionHelper = false, want true")
		}
		if hasIssue(result.Issues, "ads_send_to_missing_label") {
			t.Error("unexpected ads_send_to_missing_label issue")
		}
	})

	t.Run("send_to without conversion label", func(t *testing.T) {
		t.Parallel()

		html := `<script>
gtag('config', 'AW-123456789');
gtag('event', 'conversion', {send_to: 'AW-123456789'});
</script>`

		d := NewGoogleAdsDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !hasIssue(result.Issues, "ads_send_to_missing_label") {
			t.Error("missing ads_send_to_missing_label issue")
		}
	})

	t.Run("installed ID without conversion events", func(t *testing.T) {
		t.Parallel()

		html := `<script src="https://www.googletagmanager.com/gtag/js?id=AW-123456789"></script>
<script>gtag('config', 'AW-123456789');</script>`

		d := NewGoogleAdsDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !hasIssue(result.Issues, "ads_no_conversion_events") {
			t.Error("missing ads_no_conversion_events issue")
		}
	})

	t.Run("legacy conversion path", func(t *testing.T) {
		t.Parallel()

		html := `<script src="https://www.googleadservices.com/pagead/conversion/987654321/"></script>`

		d := NewGoogleAdsDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !result.Detected {
			t.Error("Detected = false, want true")
		}
		if len(result.IDs) != 1 || result.IDs[0] != "AW-987654321" {
			t.Errorf("IDs = %v, want [AW-987654321]", result.IDs)
		}
	})

	t.Run("conversion linker alone detects", func(t *testing.T) {
		t.Parallel()

		html := `<script>gtag('set', 'linker', {domains: ['example.com']});</script>`

		d := NewGoogleAdsDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !result.Detected {
			t.Error("Detected = false, want true")
		}
		if !result.HasConversionLinker {
			t.Error("HasConversionLinker = false, want true")
		}
	})
}

func TestDetectMerchantCenter(t *testing.T) {
	t.Parallel()

	t.Run("merchant signals without an ads tag", func(t *testing.T) {
		t.Parallel()

		html := `<div data-merchant-id="123456789"></div>`

		d := NewGoogleAdsDetector(Options{})
		in := newTestInput(html)
		ads := d.Detect(context.Background(), in)
		result := d.DetectMerchantCenter(context.Background(), in, ads)

		if !result.Detected {
			t.Fatal("Detected = false, want true")
		}
		if !hasIssue(result.Issues, "merchant_no_ads_link") {
			t.Error("missing merchant_no_ads_link issue")
		}
	})

	t.Run("merchant signals with an ads tag", func(t *testing.T) {
		t.Parallel()

		html := `<div data-merchant-id="123456789"></div>
<script>gtag('config', 'AW-123456789');</script>`

		d := NewGoogleAdsDetector(Options{})
		in := newTestInput(html)
		ads := d.Detect(context.Background(), in)
		result := d.DetectMerchantCenter(context.Background(), in, ads)

		if !result.Detected {
			t.Fatal("Detected = false, want true")
		}
		if hasIssue(result.Issues, "merchant_no_ads_link") {
			t.Error("unexpected merchant_no_ads_link issue")
		}
	})
}

func TestMetaPixelDetectorDetect(t *testing.T) {
	t.Parallel()

	t.Run("full pixel install", func(t *testing.T) {
		t.Parallel()

		html := `<script>!function(f,b,e,v,n,t,s){if(f.fbq)return;n=f.fbq=function(){};
n.push=n;f.fbq=n;t=b.createElement(e);t.src=v}(window,document,'script','https://connect.facebook.net/en_US/fbevents.js');
fbq('init', '123456789012345');
fbq('track', 'PageView');</script>
<noscript><img height="1" width="1" src="https://www.facebook.com/tr?id=123456789012345&ev=PageView&noscript=1"/></noscript>`

		d := NewMetaPixelDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !result.Detected {
			t.Fatal("Detected = false, want true")
		}
		if len(result.IDs) != 1 || result.IDs[0] != "123456789012345" {
			t.Errorf("IDs = %v, want [123456789012345]", result.IDs)
		}
		if !result.HasTrack {
			t.Error("HasTrack = false, want true")
		}
		if !result.HasNoscript {
			t.Error("HasNoscript = false, want true")
		}
		if hasIssue(result.Issues, "pixel_no_track_calls") {
			t.Error("unexpected pixel_no_track_calls issue")
		}
		if hasIssue(result.Issues, "missing_noscript_fallback") {
			t.Error("unexpected missing_noscript_fallback issue")
		}
	})

	t.Run("init only raises track and noscript issues", func(t *testing.T) {
		t.Parallel()

		// A 13-digit ID fails validation but the init call still detects.
		html := `<script>fbq('init', '1234567890123');</script>`

		d := NewMetaPixelDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !result.Detected {
			t.Fatal("Detected = false, want true")
		}
		if len(result.IDs) != 0 {
			t.Errorf("IDs = %v, want empty", result.IDs)
		}
		if !hasIssue(result.Issues, "pixel_no_track_calls") {
			t.Error("missing pixel_no_track_calls issue")
		}
		if !hasIssue(result.Issues, "missing_noscript_fallback") {
			t.Error("missing missing_noscript_fallback issue")
		}
	})

	t.Run("duplicate init for one ID", func(t *testing.T) {
		t.Parallel()

		html := `<script>fbq('init', '123456789012345');fbq('track', 'PageView');</script>
<script>fbq('init', '123456789012345');</script>`

		d := NewMetaPixelDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !hasIssue(result.Issues, "pixel_duplicate_init") {
			t.Error("missing pixel_duplicate_init issue")
		}
	})

	t.Run("base code without init", func(t *testing.T) {
		t.Parallel()

		html := `<script src="https://connect.facebook.net/en_US/fbevents.js"></script>`

		d := NewMetaPixelDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !result.Detected {
			t.Error("Detected = false, want true")
		}
		if !hasIssue(result.Issues, "pixel_script_without_init") {
			t.Error("missing pixel_script_without_init issue")
		}
	})
}

func TestShopifyDetectorDetect(t *testing.T) {
	t.Parallel()

	t.Run("storefront signals", func(t *testing.T) {
		t.Parallel()

		html := `<link rel="stylesheet" href="https://cdn.shopify.com/s/files/1/theme.css">
<script>window.Shopify = {shop: "acme-store.myshopify.com"};</script>`

		d := NewShopifyDetector(Options{})
		result := d.Detect(context.Background(), newTestInput(html))

		if !result.Detected {
			t.Fatal("Detected = false, want true")
		}
		if result.ShopDomain != "acme-store.myshopify.com" {
			t.Errorf("ShopDomain = %q, want %q", result.ShopDomain, "acme-store.myshopify.com")
		}
	})

	t.Run("no signals", func(t *testing.T) {
		t.Parallel()

		d := NewShopifyDetector(Options{})
		result := d.Detect(context.Background(), newTestInput("<html><body>plain page</body></html>"))

		if result.Detected {
			t.Error("Detected = true, want false")
		}
	})
}

func TestCoordinatorRun(t *testing.T) {
	t.Parallel()

	t.Run("all slots populated", func(t *testing.T) {
		t.Parallel()

		html := `<script src="https://www.googletagmanager.com/gtag/js?id=G-ABC12345"></script>
<script>gtag('config', 'G-ABC12345');gtag('event', 'page_view');</script>
<script>fbq('init', '123456789012345');fbq('track', 'PageView');</script>`

		c := NewCoordinator()
		results := c.Run(context.Background(), newTestInput(html))

		if results.GA4 == nil || results.GTM == nil || results.GoogleAds == nil ||
			results.MerchantCenter == nil || results.MetaPixel == nil || results.Shopify == nil {
			t.Fatal("Run() left a nil result slot")
		}
		if !results.GA4.Detected {
			t.Error("GA4.Detected = false, want true")
		}
		if !results.MetaPixel.Detected {
			t.Error("MetaPixel.Detected = false, want true")
		}
		if results.Shopify.Detected {
			t.Error("Shopify.Detected = true, want false")
		}
	})

	t.Run("nil input yields empty results", func(t *testing.T) {
		t.Parallel()

		c := NewCoordinator()
		results := c.Run(context.Background(), nil)

		for _, r := range []*struct {
			name     string
			detected bool
		}{
			{"ga4", results.GA4.Detected},
			{"gtm", results.GTM.Detected},
			{"meta_pixel", results.MetaPixel.Detected},
		} {
			if r.detected {
				t.Errorf("%s detected = true on nil input, want false", r.name)
			}
		}
	})
}
