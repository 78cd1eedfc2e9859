package event

import (
	"reflect"
	"testing"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

func TestFindDuplicates(t *testing.T) {
	t.Parallel()

	ga4 := func(name string) model.Event {
		return model.Event{Type: model.EventTypeGA4, Name: name}
	}

	tests := []struct {
		name   string
		events []model.Event
		want   []string
	}{
		{
			name:   "no duplicates",
			events: []model.Event{ga4("page_view"), ga4("purchase")},
			want:   []string{},
		},
		{
			name:   "interleaved repeats",
			events: []model.Event{ga4("A"), ga4("A"), ga4("B"), ga4("A")},
			want:   []string{"A", "A"},
		},
		{
			name: "same name different platform is not a duplicate",
			events: []model.Event{
				{Type: model.EventTypeGA4, Name: "search"},
				{Type: model.EventTypeMetaPixel, Name: "search"},
			},
			want: []string{},
		},
		{
			name:   "empty input",
			events: []model.Event{},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FindDuplicates(tt.events)
			names := make([]string, 0, len(got))
			for _, e := range got {
				names = append(names, e.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("FindDuplicates() = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestValidateParameters(t *testing.T) {
	t.Parallel()

	t.Run("ga4 purchase missing transaction_id", func(t *testing.T) {
		t.Parallel()

		events := []model.Event{{
			Type:   model.EventTypeGA4,
			Name:   "purchase",
			Params: map[string]any{"value": 10.0, "currency": "USD"},
		}}

		findings := ValidateParameters(events)
		if len(findings) != 1 {
			t.Fatalf("ValidateParameters() = %v, want 1 finding", findings)
		}
		if !reflect.DeepEqual(findings[0].MissingParams, []string{"transaction_id"}) {
			t.Errorf("MissingParams = %v, want [transaction_id]", findings[0].MissingParams)
		}
	})

	t.Run("meta Purchase missing everything", func(t *testing.T) {
		t.Parallel()

		events := []model.Event{{Type: model.EventTypeMetaPixel, Name: "Purchase"}}

		findings := ValidateParameters(events)
		if len(findings) != 1 {
			t.Fatalf("ValidateParameters() = %v, want 1 finding", findings)
		}
		if !reflect.DeepEqual(findings[0].MissingParams, []string{"value", "currency"}) {
			t.Errorf("MissingParams = %v, want [value currency]", findings[0].MissingParams)
		}
	})

	t.Run("complete event passes", func(t *testing.T) {
		t.Parallel()

		events := []model.Event{{
			Type:   model.EventTypeGA4,
			Name:   "purchase",
			Params: map[string]any{"transaction_id": "T-1", "value": 10.0, "currency": "USD"},
		}}

		if findings := ValidateParameters(events); len(findings) != 0 {
			t.Errorf("ValidateParameters() = %v, want none", findings)
		}
	})

	t.Run("events without a table entry pass", func(t *testing.T) {
		t.Parallel()

		events := []model.Event{
			{Type: model.EventTypeGA4, Name: "sign_up"},
			{Type: model.EventTypeMetaPixel, Name: "Lead"},
		}

		if findings := ValidateParameters(events); len(findings) != 0 {
			t.Errorf("ValidateParameters() = %v, want none", findings)
		}
	})

	t.Run("gtm events use the ga4 table", func(t *testing.T) {
		t.Parallel()

		events := []model.Event{{
			Type:   model.EventTypeGTM,
			Name:   "purchase",
			Params: map[string]any{"value": 10.0},
		}}

		findings := ValidateParameters(events)
		if len(findings) != 1 {
			t.Fatalf("ValidateParameters() = %v, want 1 finding", findings)
		}
		if !reflect.DeepEqual(findings[0].MissingParams, []string{"transaction_id", "currency"}) {
			t.Errorf("MissingParams = %v, want [transaction_id currency]", findings[0].MissingParams)
		}
	})

	t.Run("synthesized events are skipped", func(t *testing.T) {
		t.Parallel()

		events := []model.Event{{Type: model.EventTypeGA4, Name: "purchase", Auto: true}}

		if findings := ValidateParameters(events); len(findings) != 0 {
			t.Errorf("ValidateParameters() = %v, want none", findings)
		}
	})
}

func TestDuplicateIssues(t *testing.T) {
	t.Parallel()

	duplicates := []model.Event{
		{Type: model.EventTypeGA4, Name: "purchase"},
		{Type: model.EventTypeGA4, Name: "purchase"},
		{Type: model.EventTypeMetaPixel, Name: "PageView"},
	}

	issues := DuplicateIssues(duplicates)
	if len(issues) != 2 {
		t.Fatalf("DuplicateIssues() = %v, want 2 issues", issues)
	}
	if issues[0].Code != "duplicate_event" || issues[0].Platform != model.PlatformGA4 {
		t.Errorf("issue[0] = %s/%s, want ga4/duplicate_event", issues[0].Platform, issues[0].Code)
	}
	if issues[0].Severity != model.SeverityMedium {
		t.Errorf("Severity = %v, want medium", issues[0].Severity)
	}
	if issues[1].Platform != model.PlatformMetaPixel {
		t.Errorf("issue[1].Platform = %s, want meta_pixel", issues[1].Platform)
	}
}

func TestParamIssues(t *testing.T) {
	t.Parallel()

	findings := []model.ParamFinding{{
		Event:         model.Event{Type: model.EventTypeGA4, Name: "purchase"},
		MissingParams: []string{"transaction_id"},
	}}

	issues := ParamIssues(findings)
	if len(issues) != 1 {
		t.Fatalf("ParamIssues() = %v, want 1 issue", issues)
	}
	if issues[0].Code != "event_missing_params" {
		t.Errorf("Code = %q, want event_missing_params", issues[0].Code)
	}
	if issues[0].Evidence["event"] != "purchase" {
		t.Errorf("Evidence[event] = %v, want purchase", issues[0].Evidence["event"])
	}
}
