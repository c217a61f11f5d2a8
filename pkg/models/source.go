package models

import (
	"strconv"
	"strings"
)

// SourceRecord is one raw record as produced by a source adapter:
// an arbitrary key/value mapping with no fixed schema. Different
// sources use different key names for the same concept (for example
// "accords" vs "main_accords"); the normalizer resolves those via
// its alias table.
type SourceRecord map[string]any

// String returns the value under key as a trimmed string, or "" when
// the key is absent or not string-like.
func (r SourceRecord) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	}
	return ""
}

// Strings returns the value under key as a string slice. A plain
// string value is split on commas; empty entries are dropped.
func (r SourceRecord) Strings(key string) []string {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}

	var raw []string
	switch vv := v.(type) {
	case []string:
		raw = vv
	case []any:
		for _, e := range vv {
			if s, ok := e.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(vv, ",")
	default:
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Float returns the value under key as a float pointer, nil when the
// key is absent or unparseable. Comma decimal separators are accepted
// (the Kaggle dump uses "4,2" style ratings).
func (r SourceRecord) Float(key string) *float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case float64:
		return &vv
	case int:
		f := float64(vv)
		return &f
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(vv), ",", ".")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// Int returns the value under key as an int pointer, nil when absent
// or unparseable. Thousands separators are stripped first ("19,581").
func (r SourceRecord) Int(key string) *int {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case int:
		return &vv
	case float64:
		n := int(vv)
		return &n
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(vv), ",", "")
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		return &n
	}
	return nil
}

// Has reports whether key is present with a non-nil value.
func (r SourceRecord) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}
