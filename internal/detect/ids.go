package detect

import "strings"

// appendUniqueID appends id to ids unless already present, preserving
// first-seen order.
func appendUniqueID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// idValidator validates candidate identifiers for one platform.
type idValidator struct {
	// shape matches the canonical identifier format, uppercase form.
	shape func(id string) bool

	// requireDigit rejects identifiers with no digit after the prefix.
	// All-letter candidates are almost always words that happen to share
	// the prefix (G-RECAPTCHA style), not real IDs.
	requireDigit bool

	// prefixLen is the length of the platform prefix including the dash,
	// used for the digit check.
	prefixLen int

	// denylist holds known false positives, uppercase form.
	denylist map[string]struct{}

	// allowMixedCase accepts candidates containing lowercase characters,
	// normalizing them to uppercase. When false, mixed case is treated as
	// a placeholder and rejected.
	allowMixedCase bool
}

// validate canonicalizes and checks a raw candidate. It returns the
// canonical identifier and whether it passed.
func (v *idValidator) validate(raw string) (string, bool) {
	id := raw
	if upper := strings.ToUpper(id); upper != id {
		if !v.allowMixedCase {
			return "", false
		}
		id = upper
	}
	if !v.shape(id) {
		return "", false
	}
	if v.requireDigit && !strings.ContainsAny(id[v.prefixLen:], "0123456789") {
		return "", false
	}
	if _, denied := v.denylist[id]; denied {
		return "", false
	}
	return id, true
}

// withExtraDenylist merges additional denylist entries, uppercased, into a
// copy of the validator's denylist.
func (v *idValidator) withExtraDenylist(extra []string) {
	if len(extra) == 0 {
		return
	}
	merged := make(map[string]struct{}, len(v.denylist)+len(extra))
	for id := range v.denylist {
		merged[id] = struct{}{}
	}
	for _, id := range extra {
		merged[strings.ToUpper(id)] = struct{}{}
	}
	v.denylist = merged
}
