package event

import (
	"regexp"
	"strings"

	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/script"
	"github.com/pixelaudit/pixelaudit/internal/textscan"
)

var (
	gtagEventPattern     = regexp.MustCompile(`gtag\(\s*["']event["']\s*,\s*["']([\w.-]+)["']`)
	minifiedEventPattern = regexp.MustCompile(`\b[\w$]{1,4}\(\s*["']event["']\s*,\s*["']([\w.-]+)["']`)
	dataLayerPushPattern = regexp.MustCompile(`dataLayer\.push\s*\(`)
	fbqTrackCallPattern  = regexp.MustCompile(`fbq\(\s*["'](track|trackCustom)["']\s*,\s*["']([\w ]+)["']`)
	minifiedTrackPattern = regexp.MustCompile(`\b[\w$]{1,4}\(\s*["']track["']\s*,\s*["'](\w+)["']`)

	fbqInitSignal    = regexp.MustCompile(`fbq\(\s*["']init["']`)
	gtagConfigSignal = regexp.MustCompile(`gtag\(\s*["']config["']`)
)

const ga4CollectEndpoint = "google-analytics.com/g/collect"

// reservedTokens are call arguments that look like event names in minified
// or loosely matched code but are command words or literals. A candidate
// name matching one of these is dropped at every tier.
var reservedTokens = map[string]struct{}{
	"config":    {},
	"consent":   {},
	"init":      {},
	"set":       {},
	"get":       {},
	"js":        {},
	"event":     {},
	"policy":    {},
	"default":   {},
	"update":    {},
	"true":      {},
	"false":     {},
	"null":      {},
	"undefined": {},
	"function":  {},
	"return":    {},
	"gtm.js":    {},
	"gtm.start": {},
	"gtm.dom":   {},
	"gtm.load":  {},
}

// ga4StandardEvents gates the minified GA4 tier. An explicit gtag('event')
// call is trusted with any name; a minified call only counts when the name
// belongs to the recommended event catalog, because single-letter wrappers
// match far too much bundler output to trust arbitrary names.
var ga4StandardEvents = map[string]struct{}{
	"page_view":         {},
	"purchase":          {},
	"refund":            {},
	"add_to_cart":       {},
	"remove_from_cart":  {},
	"view_cart":         {},
	"view_item":         {},
	"view_item_list":    {},
	"select_item":       {},
	"begin_checkout":    {},
	"add_payment_info":  {},
	"add_shipping_info": {},
	"add_to_wishlist":   {},
	"generate_lead":     {},
	"sign_up":           {},
	"login":             {},
	"search":            {},
	"share":             {},
}

// metaStandardEvents gates the minified Meta tier.
var metaStandardEvents = map[string]struct{}{
	"PageView":             {},
	"ViewContent":          {},
	"AddToCart":            {},
	"AddToWishlist":        {},
	"InitiateCheckout":     {},
	"AddPaymentInfo":       {},
	"Purchase":             {},
	"Lead":                 {},
	"CompleteRegistration": {},
	"Search":               {},
	"Subscribe":            {},
	"StartTrial":           {},
	"Contact":              {},
}

// Extract returns every tracking event found in the page and its
// event-eligible scripts, in text order per platform pass. Scripts flagged
// ExcludeFromEvents contribute nothing here; vendor bundles define the call
// forms themselves and would otherwise fake events on every page.
func Extract(page *model.PageContent, scripts []*model.ScriptRecord) []model.Event {
	text := model.EventScanText(page, scripts)
	if text == "" {
		return []model.Event{}
	}

	events := make([]model.Event, 0)
	events = append(events, extractGA4(text)...)
	events = append(events, extractGTM(text)...)
	events = append(events, extractMeta(text)...)
	events = append(events, synthesizeImplicit(page, text, events)...)
	return events
}

// extractGA4 runs the GA4 cascade: explicit gtag('event') calls first, then
// minified wrappers. A name already found by the explicit tier is not
// re-added by the minified tier, because the minified pattern also matches
// the explicit call text.
func extractGA4(text string) []model.Event {
	var events []model.Event
	seen := make(map[string]struct{})

	for _, m := range textscan.FindAllMatches(text, gtagEventPattern) {
		name := m.Group(0)
		if reserved(name) {
			continue
		}
		events = append(events, model.Event{
			Type:   model.EventTypeGA4,
			Name:   name,
			Params: paramsAfter(text, m),
		})
		seen[name] = struct{}{}
	}

	for _, m := range textscan.FindAllMatches(text, minifiedEventPattern) {
		name := m.Group(0)
		if reserved(name) {
			continue
		}
		if _, standard := ga4StandardEvents[name]; !standard {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		events = append(events, model.Event{
			Type:   model.EventTypeGA4,
			Name:   name,
			Params: paramsAfter(text, m),
		})
	}
	return events
}

// extractGTM pulls events from dataLayer.push({event: ...}) literals.
// Pushes without an event key (state writes, the gtm.start bootstrap) are
// skipped.
func extractGTM(text string) []model.Event {
	var events []model.Event

	for _, m := range textscan.FindAllMatches(text, dataLayerPushPattern) {
		literal := textscan.ExtractObjectAfter(text, m.Start+len(m.Text))
		if literal == "" {
			continue
		}
		obj, ok := textscan.ParseLooseObject(literal)
		if !ok {
			continue
		}
		name, ok := obj["event"].(string)
		if !ok || name == "" || reserved(name) {
			continue
		}

		params := make(map[string]any, len(obj)-1)
		for k, v := range obj {
			if k == "event" {
				continue
			}
			params[k] = v
		}
		if len(params) == 0 {
			params = nil
		}
		events = append(events, model.Event{
			Type:   model.EventTypeGTM,
			Name:   name,
			Params: params,
		})
	}
	return events
}

// extractMeta runs the Meta cascade: explicit fbq track calls, then
// minified wrappers gated by the standard event catalog.
func extractMeta(text string) []model.Event {
	var events []model.Event
	seen := make(map[string]struct{})

	for _, m := range textscan.FindAllMatches(text, fbqTrackCallPattern) {
		name := m.Group(1)
		if reserved(name) {
			continue
		}
		events = append(events, model.Event{
			Type:   model.EventTypeMetaPixel,
			Name:   name,
			Params: paramsAfter(text, m),
		})
		seen[name] = struct{}{}
	}

	for _, m := range textscan.FindAllMatches(text, minifiedTrackPattern) {
		name := m.Group(0)
		if reserved(name) {
			continue
		}
		if _, standard := metaStandardEvents[name]; !standard {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		events = append(events, model.Event{
			Type:   model.EventTypeMetaPixel,
			Name:   name,
			Params: paramsAfter(text, m),
		})
	}
	return events
}

// synthesizeImplicit adds events that demonstrably fire without an explicit
// call in reachable text: a pixel initialized with a noscript fallback
// records PageView on load, and a GA4 config with a collect endpoint
// reference records page_view. Synthesized events carry the Auto mark so
// report readers can tell evidence from observation.
func synthesizeImplicit(page *model.PageContent, text string, events []model.Event) []model.Event {
	var synthesized []model.Event

	if fbqInitSignal.MatchString(text) &&
		!containsEvent(events, model.EventTypeMetaPixel, "PageView") &&
		script.HasNoscriptPixel(page, "facebook.com/tr") {
		synthesized = append(synthesized, model.Event{
			Type: model.EventTypeMetaPixel,
			Name: "PageView",
			Auto: true,
		})
	}

	if gtagConfigSignal.MatchString(text) &&
		!containsEvent(events, model.EventTypeGA4, "page_view") &&
		strings.Contains(text, ga4CollectEndpoint) {
		synthesized = append(synthesized, model.Event{
			Type: model.EventTypeGA4,
			Name: "page_view",
			Auto: true,
		})
	}
	return synthesized
}

// paramsAfter parses the object literal argument following a call match,
// when present.
func paramsAfter(text string, m textscan.Match) map[string]any {
	literal := textscan.ExtractObjectAfter(text, m.Start+len(m.Text))
	if literal == "" {
		return nil
	}
	obj, ok := textscan.ParseLooseObject(literal)
	if !ok || len(obj) == 0 {
		return nil
	}
	return obj
}

func reserved(name string) bool {
	_, ok := reservedTokens[strings.ToLower(name)]
	return ok
}

func containsEvent(events []model.Event, eventType, name string) bool {
	for _, e := range events {
		if e.Type == eventType && e.Name == name {
			return true
		}
	}
	return false
}
