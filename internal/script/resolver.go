package script

import (
	"net/url"
	"strings"

	"github.com/pixelaudit/pixelaudit/internal/fetch"
	"github.com/pixelaudit/pixelaudit/internal/model"
)

// loaderPatterns identify tag-manager/analytics loader scripts. These are
// always fetch-worthy regardless of origin: they contain the site owner's
// own container configuration.
var loaderPatterns = []string{
	"googletagmanager.com/gtm.js",
	"googletagmanager.com/gtag/js",
}

// thirdPartyEventDomains lists ad/analytics/chat vendor hosts whose script
// payloads are install-detected but not event-mined. Event calls inside
// these bundles belong to the vendor, not the audited site.
var thirdPartyEventDomains = []string{
	"connect.facebook.net",
	"google-analytics.com",
	"googleadservices.com",
	"googlesyndication.com",
	"doubleclick.net",
	"cdn.segment.com",
	"static.hotjar.com",
	"js.hs-scripts.com",
	"widget.intercom.io",
	"js.driftt.com",
	"cdn.heapanalytics.com",
	"static.klaviyo.com",
	"clarity.ms",
	"analytics.tiktok.com",
	"snap.licdn.com",
	"bat.bing.com",
}

// Resolver decides which external scripts to download and resolves their
// URLs to absolute form. It is bound to one audited site.
type Resolver struct {
	// origin is the site's scheme+host, the base for relative src values.
	origin *url.URL

	// baseDomain is the last two labels of the site hostname, used for
	// same-site checks.
	baseDomain string
}

// NewResolver creates a Resolver for the given site URL, which should be
// the final (post-redirect) page URL.
func NewResolver(siteURL string) (*Resolver, error) {
	u, err := fetch.ValidateURL(siteURL)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		origin:     &url.URL{Scheme: u.Scheme, Host: u.Host},
		baseDomain: BaseDomain(u.Hostname()),
	}, nil
}

// BaseDomain returns the last two labels of a hostname with any leading
// "www." stripped. "shop.example.co" and "www.example.co" both yield
// "example.co".
func BaseDomain(host string) string {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// ResolveSrc turns a script src attribute into an absolute URL.
// Protocol-relative srcs get https; relative srcs resolve against the site
// origin (scheme+host), not the page path.
func (r *Resolver) ResolveSrc(src string) string {
	src = strings.TrimSpace(src)
	switch {
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case strings.HasPrefix(src, "/"):
		return r.origin.String() + src
	default:
		return r.origin.String() + "/" + src
	}
}

// IsLoaderURL reports whether the absolute URL is a known
// tag-manager/analytics loader.
func IsLoaderURL(absoluteURL string) bool {
	for _, pattern := range loaderPatterns {
		if strings.Contains(absoluteURL, pattern) {
			return true
		}
	}
	return false
}

// isSameSite reports whether the script host shares the site's base domain.
func (r *Resolver) isSameSite(absoluteURL string) bool {
	u, err := url.Parse(absoluteURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == r.baseDomain || strings.HasSuffix(host, "."+r.baseDomain)
}

// isThirdPartyEventSource reports whether the URL belongs to a vendor whose
// event calls should not be attributed to the site.
func isThirdPartyEventSource(absoluteURL string) bool {
	for _, domain := range thirdPartyEventDomains {
		if strings.Contains(absoluteURL, domain) {
			return true
		}
	}
	return false
}

// Annotate resolves every external record's src to absolute form and marks
// third-party event sources. It mutates the records in place and returns
// them for chaining.
func (r *Resolver) Annotate(records []*model.ScriptRecord) []*model.ScriptRecord {
	for _, rec := range records {
		if !rec.IsExternal() {
			continue
		}
		rec.AbsoluteSrc = r.ResolveSrc(rec.Src)
		// Loader scripts stay event-minable: they typically carry the site
		// owner's own configuration.
		if isThirdPartyEventSource(rec.AbsoluteSrc) && !IsLoaderURL(rec.AbsoluteSrc) {
			rec.ExcludeFromEvents = true
		}
	}
	return records
}

// FetchWorthy returns the subset of annotated external records worth
// downloading: same-site scripts and known loaders. The caller bounds the
// result with maxScripts (0 disables fetching).
func (r *Resolver) FetchWorthy(records []*model.ScriptRecord, maxScripts int) []*model.ScriptRecord {
	worthy := make([]*model.ScriptRecord, 0)
	for _, rec := range records {
		if !rec.IsExternal() || rec.AbsoluteSrc == "" {
			continue
		}
		if len(worthy) >= maxScripts {
			break
		}
		if r.isSameSite(rec.AbsoluteSrc) || IsLoaderURL(rec.AbsoluteSrc) {
			worthy = append(worthy, rec)
		}
	}
	return worthy
}

// MergeFetched populates record content from fetched script bodies, keyed
// strictly by absolute URL. Matching on the raw src string would silently
// drop content whenever the page used a relative URL; flags set during
// resolution (ExcludeFromEvents) are preserved because the records are
// updated in place.
func MergeFetched(records []*model.ScriptRecord, contents map[string]string) {
	for _, rec := range records {
		if !rec.IsExternal() || rec.Content != "" {
			continue
		}
		if body, ok := contents[rec.AbsoluteSrc]; ok && body != "" {
			rec.Content = body
		}
	}
}
