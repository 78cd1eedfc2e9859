package event

import (
	"fmt"
	"strings"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

// ga4RequiredParams lists the parameters GA4 requires for full attribution,
// per recommended event. GTM events use the same table since dataLayer
// pushes follow GA4 naming.
var ga4RequiredParams = map[string][]string{
	"purchase":          {"transaction_id", "value", "currency"},
	"refund":            {"transaction_id"},
	"add_to_cart":       {"currency", "value"},
	"begin_checkout":    {"currency", "value"},
	"add_payment_info":  {"currency", "value"},
	"add_shipping_info": {"currency", "value"},
	"view_item":         {"currency", "value"},
}

// metaRequiredParams lists the parameters Meta requires per standard event.
var metaRequiredParams = map[string][]string{
	"Purchase":   {"value", "currency"},
	"Subscribe":  {"value", "currency"},
	"StartTrial": {"value", "currency"},
}

// eventIssuePlatform maps an event type to the platform its issues are
// attributed to.
var eventIssuePlatform = map[string]string{
	model.EventTypeGA4:       model.PlatformGA4,
	model.EventTypeGTM:       model.PlatformGTM,
	model.EventTypeMetaPixel: model.PlatformMetaPixel,
}

// FindDuplicates returns every occurrence of an event beyond its first,
// preserving input order. [A, A, B, A] yields [A, A]: the second and fourth
// entries. The first sighting of each (type, name) pair is never a
// duplicate, regardless of how many repeats follow.
func FindDuplicates(events []model.Event) []model.Event {
	seen := make(map[string]bool, len(events))
	duplicates := make([]model.Event, 0)
	for _, e := range events {
		key := e.Key()
		if seen[key] {
			duplicates = append(duplicates, e)
			continue
		}
		seen[key] = true
	}
	return duplicates
}

// ValidateParameters checks each explicit event against its platform's
// required-parameter table and reports what is missing. Events without a
// table entry pass silently; synthesized events are skipped because they
// have no call arguments to inspect.
func ValidateParameters(events []model.Event) []model.ParamFinding {
	findings := make([]model.ParamFinding, 0)
	for _, e := range events {
		if e.Auto {
			continue
		}

		var required []string
		switch e.Type {
		case model.EventTypeGA4, model.EventTypeGTM:
			required = ga4RequiredParams[e.Name]
		case model.EventTypeMetaPixel:
			required = metaRequiredParams[e.Name]
		}
		if len(required) == 0 {
			continue
		}

		var missing []string
		for _, param := range required {
			if _, present := e.Params[param]; !present {
				missing = append(missing, param)
			}
		}
		if len(missing) > 0 {
			findings = append(findings, model.ParamFinding{Event: e, MissingParams: missing})
		}
	}
	return findings
}

// DuplicateIssues converts duplicate events into report issues, one per
// distinct duplicated event.
func DuplicateIssues(duplicates []model.Event) []model.Issue {
	counts := make(map[string]int)
	order := make([]model.Event, 0)
	for _, e := range duplicates {
		if counts[e.Key()] == 0 {
			order = append(order, e)
		}
		counts[e.Key()]++
	}

	issues := make([]model.Issue, 0, len(order))
	for _, e := range order {
		issues = append(issues, model.NewIssue(
			eventIssuePlatform[e.Type], "duplicate_event",
			fmt.Sprintf("Event %q fires more than once", e.Name),
			fmt.Sprintf("Event %s repeats %d time(s) after its first occurrence.", e.Name, counts[e.Key()]),
		).WithEvidence(map[string]any{"event": e.Name, "repeats": counts[e.Key()]}))
	}
	return issues
}

// ParamIssues converts parameter findings into report issues.
func ParamIssues(findings []model.ParamFinding) []model.Issue {
	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, model.NewIssue(
			eventIssuePlatform[f.Event.Type], "event_missing_params",
			fmt.Sprintf("Event %q is missing required parameters", f.Event.Name),
			fmt.Sprintf("Missing: %s.", strings.Join(f.MissingParams, ", ")),
		).WithEvidence(map[string]any{"event": f.Event.Name, "missing_params": f.MissingParams}))
	}
	return issues
}
