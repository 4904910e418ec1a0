package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// nullTokens are literal values scrapers emit in place of a missing field
var nullTokens = map[string]bool{
	"":          true,
	"null":      true,
	"nil":       true,
	"none":      true,
	"nan":       true,
	"n/a":       true,
	"undefined": true,
}

// IsNullToken reports whether s, once trimmed, means "no value".
func IsNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// RawRecord is a loosely typed listing as produced by a scraper.
// Absent keys, nil values, empty strings and null-like tokens all mean "no value".
type RawRecord map[string]any

// Value returns the raw value stored under key, or nil when absent.
func (r RawRecord) Value(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// String returns the value under key rendered as a string.
// The second return value is false when the key carries no value.
func (r RawRecord) String(key string) (string, bool) {
	s, ok := stringify(r.Value(key))
	if !ok || IsNullToken(s) {
		return "", false
	}
	return s, true
}

// StringOr returns the value under key or def when it carries no value.
func (r RawRecord) StringOr(key, def string) string {
	if s, ok := r.String(key); ok {
		return s
	}
	return def
}

// Strings returns the value under key as a list of non-empty strings.
// A single string is treated as a one-element list.
func (r RawRecord) Strings(key string) []string {
	var out []string
	switch v := r.Value(key).(type) {
	case nil:
		return nil
	case []string:
		for _, s := range v {
			if !IsNullToken(s) {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := stringify(item); ok && !IsNullToken(s) {
				out = append(out, strings.TrimSpace(s))
			}
		}
	default:
		if s, ok := r.String(key); ok {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// StringMap returns the value under key as a string map, skipping empty values.
func (r RawRecord) StringMap(key string) map[string]string {
	out := map[string]string{}
	switch v := r.Value(key).(type) {
	case map[string]string:
		for k, val := range v {
			if !IsNullToken(val) {
				out[k] = strings.TrimSpace(val)
			}
		}
	case map[string]any:
		for k, item := range v {
			if s, ok := stringify(item); ok && !IsNullToken(s) {
				out[k] = strings.TrimSpace(s)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}
