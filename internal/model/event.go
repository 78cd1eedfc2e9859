package model

// Event platform types. These name the tag stack that fires the event,
// not the detector that found it.
const (
	EventTypeGA4       = "GA4"
	EventTypeGTM       = "GTM"
	EventTypeMetaPixel = "MetaPixel"
)

// Event is a recorded instance of a tracking call found in page or script
// text. It reflects static evidence of a fire, not an observed runtime
// execution.
type Event struct {
	// Type is the platform naming convention the event belongs to.
	Type string `json:"type"`

	// Name is the event name as written in the call (e.g. "purchase",
	// "Purchase", "add_to_cart").
	Name string `json:"name"`

	// Params holds the parsed argument object of the call, when one was
	// present and parseable.
	Params map[string]any `json:"params,omitempty"`

	// Auto marks events synthesized from implicit-fire evidence (fallback
	// pixel URLs, collection endpoints) rather than an explicit call.
	Auto bool `json:"_auto,omitempty"`
}

// Key returns the (type, name) identity used for duplicate detection.
func (e Event) Key() string {
	return e.Type + ":" + e.Name
}

// ParamFinding reports the required parameters missing from one event.
type ParamFinding struct {
	// Event is the event the finding applies to.
	Event Event `json:"event"`

	// MissingParams lists required parameter names absent from the event.
	MissingParams []string `json:"missing_params"`
}
