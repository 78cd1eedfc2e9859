package textscan

import (
	"testing"
)

func TestExtractObjectAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		offset int
		want   string
	}{
		{
			name:   "flat literal",
			text:   `gtag('event', 'purchase', {value: 10});`,
			offset: 25,
			want:   `{value: 10}`,
		},
		{
			name:   "nested braces",
			text:   `, {items: [{id: 'a'}], value: 5})`,
			offset: 0,
			want:   `{items: [{id: 'a'}], value: 5}`,
		},
		{
			name:   "brace inside string does not close",
			text:   `{label: 'closing } brace', ok: true}`,
			offset: 0,
			want:   `{label: 'closing } brace', ok: true}`,
		},
		{
			name:   "stops at non-object argument",
			text:   `'page_view');`,
			offset: 0,
			want:   "",
		},
		{
			name:   "unterminated literal",
			text:   `{value: 10`,
			offset: 0,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractObjectAfter(tt.text, tt.offset); got != tt.want {
				t.Errorf("ExtractObjectAfter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLooseObject(t *testing.T) {
	t.Parallel()

	t.Run("strict JSON", func(t *testing.T) {
		t.Parallel()

		obj, ok := ParseLooseObject(`{"value": 10.5, "currency": "USD"}`)
		if !ok {
			t.Fatal("ParseLooseObject() ok = false, want true")
		}
		if obj["value"] != 10.5 {
			t.Errorf("value = %v, want 10.5", obj["value"])
		}
		if obj["currency"] != "USD" {
			t.Errorf("currency = %v, want USD", obj["currency"])
		}
	})

	t.Run("single quotes and unquoted keys", func(t *testing.T) {
		t.Parallel()

		obj, ok := ParseLooseObject(`{value: 10, currency: 'USD', transaction_id: 'T-1'}`)
		if !ok {
			t.Fatal("ParseLooseObject() ok = false, want true")
		}
		if obj["value"] != float64(10) {
			t.Errorf("value = %v, want 10", obj["value"])
		}
		if obj["transaction_id"] != "T-1" {
			t.Errorf("transaction_id = %v, want T-1", obj["transaction_id"])
		}
	})

	t.Run("trailing comma", func(t *testing.T) {
		t.Parallel()

		obj, ok := ParseLooseObject(`{send_page_view: false,}`)
		if !ok {
			t.Fatal("ParseLooseObject() ok = false, want true")
		}
		if obj["send_page_view"] != false {
			t.Errorf("send_page_view = %v, want false", obj["send_page_view"])
		}
	})

	t.Run("malformed literal falls back to key value scan", func(t *testing.T) {
		t.Parallel()

		// The embedded function expression defeats JSON normalization.
		obj, ok := ParseLooseObject(`{value: 10, callback: function(){}, currency: 'EUR'}`)
		if !ok {
			t.Fatal("ParseLooseObject() ok = false, want true")
		}
		if obj["value"] != float64(10) {
			t.Errorf("value = %v, want 10", obj["value"])
		}
		if obj["currency"] != "EUR" {
			t.Errorf("currency = %v, want EUR", obj["currency"])
		}
	})

	t.Run("not an object", func(t *testing.T) {
		t.Parallel()

		if _, ok := ParseLooseObject(`'page_view'`); ok {
			t.Error("ParseLooseObject() ok = true, want false")
		}
		if _, ok := ParseLooseObject(""); ok {
			t.Error("ParseLooseObject(empty) ok = true, want false")
		}
	})
}
