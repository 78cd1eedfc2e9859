package textscan

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ExtractObjectAfter returns the first balanced {...} literal in text at or
// after offset, honoring quoted strings so braces inside them do not count.
// It returns "" when no complete literal is found before gap non-whitespace
// characters other than ',' are encountered.
func ExtractObjectAfter(text string, offset int) string {
	if offset < 0 || offset >= len(text) {
		return ""
	}

	start := -1
	for i := offset; i < len(text); i++ {
		c := text[i]
		if c == '{' {
			start = i
			break
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' {
			continue
		}
		return ""
	}
	if start < 0 {
		return ""
	}

	depth := 0
	var quote byte
	for i := start; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

var (
	unquotedKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][\w$]*)(\s*:)`)
	trailingCommaRe    = regexp.MustCompile(`,(\s*[}\]])`)
	looseKVPattern     = regexp.MustCompile(`['"]?([A-Za-z_$][\w$]*)['"]?\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)"|(-?\d+(?:\.\d+)?)|(true|false|null))`)
)

// ParseLooseObject parses a JavaScript object literal into a map. It accepts
// the sloppy forms found in hand-written snippets: single-quoted strings,
// unquoted keys, and trailing commas. When normalization still does not yield
// valid JSON it falls back to a manual key/value scan so a malformed literal
// degrades to the pairs that could be read instead of nothing.
//
// Design decision: both the normalize-then-unmarshal path and the manual
// fallback live behind this one function. Call sites never choose a parsing
// strategy, so tightening the grammar later is a local change.
func ParseLooseObject(src string) (map[string]any, bool) {
	src = strings.TrimSpace(src)
	if src == "" || src[0] != '{' {
		return nil, false
	}

	if obj, err := unmarshalNormalized(src); err == nil {
		return obj, true
	}
	return scanKeyValues(src)
}

// unmarshalNormalized rewrites the literal into strict JSON and unmarshals it.
func unmarshalNormalized(src string) (map[string]any, error) {
	normalized := singleToDoubleQuotes(src)
	normalized = unquotedKeyPattern.ReplaceAllString(normalized, `$1"$2"$3`)
	normalized = trailingCommaRe.ReplaceAllString(normalized, "$1")

	var obj map[string]any
	if err := json.Unmarshal([]byte(normalized), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// singleToDoubleQuotes converts single-quoted strings to double-quoted ones,
// leaving the contents of existing double-quoted strings untouched.
func singleToDoubleQuotes(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote == '"':
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				i++
				b.WriteByte(src[i])
				continue
			}
			if c == '"' {
				quote = 0
			}
		case quote == '\'':
			if c == '\\' && i+1 < len(src) {
				next := src[i+1]
				i++
				if next == '\'' {
					b.WriteByte('\'')
					continue
				}
				b.WriteByte('\\')
				b.WriteByte(next)
				continue
			}
			if c == '\'' {
				b.WriteByte('"')
				quote = 0
				continue
			}
			if c == '"' {
				b.WriteString(`\"`)
				continue
			}
			b.WriteByte(c)
		default:
			switch c {
			case '\'':
				b.WriteByte('"')
				quote = '\''
			case '"':
				b.WriteByte('"')
				quote = '"'
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// scanKeyValues pulls out whatever top-level key/value pairs it can read from
// a literal that resisted normalization. Nested objects are skipped.
func scanKeyValues(src string) (map[string]any, bool) {
	matches := FindAllMatches(src, looseKVPattern)
	if len(matches) == 0 {
		return nil, false
	}

	obj := make(map[string]any, len(matches))
	for _, m := range matches {
		key := m.Group(0)
		if _, ok := obj[key]; ok {
			continue
		}
		switch {
		case m.Group(3) != "":
			if f, err := strconv.ParseFloat(m.Group(3), 64); err == nil {
				obj[key] = f
			}
		case m.Group(4) == "true":
			obj[key] = true
		case m.Group(4) == "false":
			obj[key] = false
		case m.Group(4) == "null":
			obj[key] = nil
		case m.Group(2) != "":
			obj[key] = m.Group(2)
		default:
			obj[key] = m.Group(1)
		}
	}
	return obj, len(obj) > 0
}
