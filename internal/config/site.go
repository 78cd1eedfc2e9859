package config

import "maps"

// SiteConfig holds per-site request overrides for a single audited host.
// Some pages only serve their full tag stack to authenticated or cookied
// sessions; these settings let the retriever present one.
type SiteConfig struct {
	// Cookie is an HTTP cookie header value to send to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the default browser-like User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .pixelaudit configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configuration.
	// Keys are bare hostnames (e.g. "shop.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains configuration applied to every site unless
	// overridden in its site-specific section.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a hostname, merging the
// site-specific section over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	// The struct copy above still aliases the defaults map. Clone it so a
	// site-specific Authorization or cookie header never lands in the
	// shared defaults, and so concurrent batch audits never write to the
	// same map.
	result.Headers = maps.Clone(cf.Defaults.Headers)

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.UserAgent != "" {
			result.UserAgent = siteConfig.UserAgent
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
	}

	return result
}
