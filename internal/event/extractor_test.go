package event

import (
	"testing"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

func testPage(html string) *model.PageContent {
	return &model.PageContent{
		HTML:     html,
		FinalURL: "https://shop.example.com/",
		Status:   200,
	}
}

func eventNames(events []model.Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Type+":"+e.Name)
	}
	return names
}

func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("explicit gtag event with params", func(t *testing.T) {
		t.Parallel()

		html := `<script>gtag('event', 'purchase', {value: 10, currency: 'USD', transaction_id: 'T-1'});</script>`

		events := Extract(testPage(html), nil)
		if len(events) != 1 {
			t.Fatalf("Extract() = %v, want 1 event", eventNames(events))
		}
		e := events[0]
		if e.Type != model.EventTypeGA4 || e.Name != "purchase" {
			t.Errorf("event = %s:%s, want GA4:purchase", e.Type, e.Name)
		}
		if e.Params["value"] != float64(10) {
			t.Errorf("value = %v, want 10", e.Params["value"])
		}
		if e.Params["transaction_id"] != "T-1" {
			t.Errorf("transaction_id = %v, want T-1", e.Params["transaction_id"])
		}
		if e.Auto {
			t.Error("Auto = true, want false")
		}
	})

	t.Run("every occurrence is kept", func(t *testing.T) {
		t.Parallel()

		html := `<script>
gtag('event', 'add_to_cart', {value: 5, currency: 'USD'});
gtag('event', 'add_to_cart', {value: 5, currency: 'USD'});
</script>`

		events := Extract(testPage(html), nil)
		if len(events) != 2 {
			t.Fatalf("Extract() = %v, want 2 events", eventNames(events))
		}
	})

	t.Run("reserved tokens are not events", func(t *testing.T) {
		t.Parallel()

		html := `<script>
gtag('config', 'G-ABC12345');
gtag('consent', 'default', {ad_storage: 'denied'});
gtag('set', {currency: 'USD'});
fbq('init', '123456789012345');
</script>`

		events := Extract(testPage(html), nil)
		if len(events) != 0 {
			t.Errorf("Extract() = %v, want no events", eventNames(events))
		}
	})

	t.Run("dataLayer push with event key", func(t *testing.T) {
		t.Parallel()

		html := `<script>
dataLayer.push({event: 'begin_checkout', value: 20, currency: 'EUR'});
dataLayer.push({'gtm.start': 123});
dataLayer.push({page_type: 'product'});
</script>`

		events := Extract(testPage(html), nil)
		if len(events) != 1 {
			t.Fatalf("Extract() = %v, want 1 event", eventNames(events))
		}
		e := events[0]
		if e.Type != model.EventTypeGTM || e.Name != "begin_checkout" {
			t.Errorf("event = %s:%s, want GTM:begin_checkout", e.Type, e.Name)
		}
		if e.Params["value"] != float64(20) {
			t.Errorf("value = %v, want 20", e.Params["value"])
		}
		if _, present := e.Params["event"]; present {
			t.Error("params contain the event key, want it stripped")
		}
	})

	t.Run("fbq track and trackCustom", func(t *testing.T) {
		t.Parallel()

		html := `<script>
fbq('track', 'Purchase', {value: 30, currency: 'USD'});
fbq('trackCustom', 'NewsletterSignup');
</script>`

		events := Extract(testPage(html), nil)
		if len(events) != 2 {
			t.Fatalf("Extract() = %v, want 2 events", eventNames(events))
		}
		if events[0].Name != "Purchase" || events[0].Type != model.EventTypeMetaPixel {
			t.Errorf("first event = %s:%s, want MetaPixel:Purchase", events[0].Type, events[0].Name)
		}
		if events[1].Name != "NewsletterSignup" {
			t.Errorf("second event = %q, want NewsletterSignup", events[1].Name)
		}
	})

	t.Run("minified tier requires a standard event name", func(t *testing.T) {
		t.Parallel()

		html := `<script>g('event', 'purchase', {value: 1});g('event', 'internal_flush');t('track', 'Purchase');t('track', 'Obscure');</script>`

		events := Extract(testPage(html), nil)

		names := eventNames(events)
		if len(events) != 2 {
			t.Fatalf("Extract() = %v, want 2 events", names)
		}
		if events[0].Name != "purchase" {
			t.Errorf("first event = %q, want purchase", events[0].Name)
		}
		if events[1].Name != "Purchase" {
			t.Errorf("second event = %q, want Purchase", events[1].Name)
		}
	})

	t.Run("excluded scripts contribute no events", func(t *testing.T) {
		t.Parallel()

		scripts := []*model.ScriptRecord{
			{
				Type:              model.ScriptExternal,
				AbsoluteSrc:       "https://connect.facebook.net/en_US/fbevents.js",
				Content:           `fbq('track', 'Purchase', {value: 1, currency: 'USD'});`,
				ExcludeFromEvents: true,
			},
			{
				Type:        model.ScriptExternal,
				AbsoluteSrc: "https://shop.example.com/app.js",
				Content:     `gtag('event', 'sign_up');`,
			},
		}

		events := Extract(testPage("<html></html>"), scripts)
		if len(events) != 1 {
			t.Fatalf("Extract() = %v, want 1 event", eventNames(events))
		}
		if events[0].Name != "sign_up" {
			t.Errorf("event = %q, want sign_up", events[0].Name)
		}
	})

	t.Run("noscript pixel synthesizes PageView", func(t *testing.T) {
		t.Parallel()

		html := `<script>fbq('init', '123456789012345');</script>
<noscript><img src="https://www.facebook.com/tr?id=123456789012345&ev=PageView"/></noscript>`

		events := Extract(testPage(html), nil)
		if len(events) != 1 {
			t.Fatalf("Extract() = %v, want 1 event", eventNames(events))
		}
		e := events[0]
		if e.Type != model.EventTypeMetaPixel || e.Name != "PageView" {
			t.Errorf("event = %s:%s, want MetaPixel:PageView", e.Type, e.Name)
		}
		if !e.Auto {
			t.Error("Auto = false, want true")
		}
	})

	t.Run("explicit PageView suppresses synthesis", func(t *testing.T) {
		t.Parallel()

		html := `<script>fbq('init', '123456789012345');fbq('track', 'PageView');</script>
<noscript><img src="https://www.facebook.com/tr?id=123456789012345&ev=PageView"/></noscript>`

		events := Extract(testPage(html), nil)
		if len(events) != 1 {
			t.Fatalf("Extract() = %v, want 1 event", eventNames(events))
		}
		if events[0].Auto {
			t.Error("Auto = true, want false")
		}
	})

	t.Run("empty page", func(t *testing.T) {
		t.Parallel()

		events := Extract(testPage(""), nil)
		if len(events) != 0 {
			t.Errorf("Extract() = %v, want none", eventNames(events))
		}
	})
}
