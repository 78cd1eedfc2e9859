package model

// Script record types.
const (
	// ScriptInline marks a script whose body was embedded in the page HTML.
	ScriptInline = "inline"

	// ScriptExternal marks a script referenced through a src attribute.
	ScriptExternal = "external"
)

// MaxPageSize is the maximum number of page body bytes the retriever reads.
// Larger responses are truncated to prevent memory exhaustion.
const MaxPageSize = 5 * 1024 * 1024 // 5MB

// MaxScriptSize is the maximum number of bytes read from a single external
// script. Minified analytics bundles fit comfortably under this limit.
const MaxScriptSize = 2 * 1024 * 1024 // 2MB

// PageContent is the immutable snapshot of a fetched page.
// It is produced once per audit by the retriever and never mutated after.
type PageContent struct {
	// HTML is the raw page body, decoded to UTF-8.
	HTML string `json:"html"`

	// FinalURL is the URL after following redirects. All relative-URL
	// resolution downstream must use this, not the caller-supplied URL.
	FinalURL string `json:"final_url"`

	// Status is the HTTP status code of the primary page response.
	Status int `json:"status"`
}

// ScriptRecord is the canonical working unit passed to every detector.
// One record per <script> tag, in document order.
type ScriptRecord struct {
	// Type is ScriptInline or ScriptExternal.
	Type string `json:"type"`

	// Content is the script body. For external scripts it is empty until
	// the resolver fetches and merges it.
	Content string `json:"content,omitempty"`

	// Src is the src attribute as written in the HTML. May be relative or
	// protocol-relative; see AbsoluteSrc for the resolved form.
	Src string `json:"src,omitempty"`

	// AbsoluteSrc is Src resolved against the site origin. It is the merge
	// key between collected records and fetched externals; matching on the
	// raw Src silently drops content when the page uses relative URLs.
	AbsoluteSrc string `json:"absolute_src,omitempty"`

	// Line is the 1-based order-of-appearance index. Informational only.
	Line int `json:"line"`

	// ExcludeFromEvents marks third-party vendor scripts whose event calls
	// must not be attributed to the site's own event stream. The script is
	// still scanned for platform installation signals.
	ExcludeFromEvents bool `json:"exclude_from_events,omitempty"`
}

// IsExternal reports whether the record references an external script.
func (s *ScriptRecord) IsExternal() bool {
	return s.Type == ScriptExternal
}

// CombinedText concatenates the page HTML and every downloaded external
// script body into the single scan surface the detectors operate on.
// Inline bodies are not appended: their text is already part of the HTML,
// and appending them again would double every match.
func CombinedText(page *PageContent, scripts []*ScriptRecord) string {
	if page == nil {
		return ""
	}
	text := page.HTML
	for _, s := range scripts {
		if s.IsExternal() && s.Content != "" {
			text += "\n" + s.Content
		}
	}
	return text
}

// EventScanText concatenates the page HTML and the bodies of external
// scripts not marked ExcludeFromEvents. This is the surface the event
// extractor mines, so vendor-internal calls inside analytics CDN payloads
// are not attributed to the site.
func EventScanText(page *PageContent, scripts []*ScriptRecord) string {
	if page == nil {
		return ""
	}
	text := page.HTML
	for _, s := range scripts {
		if s.IsExternal() && s.Content != "" && !s.ExcludeFromEvents {
			text += "\n" + s.Content
		}
	}
	return text
}
