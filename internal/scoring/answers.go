package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Submitted answers arrive as decoded JSON, so every coercion below accepts
// both the precise Go type and its encoding/json generic form.

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func asStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// asKeyed reads per-unit answers either as a map keyed by unit id or as a
// slice aligned with ids.
func asKeyed(v any, ids []string) (map[string]string, bool) {
	switch t := v.(type) {
	case map[string]string:
		return t, true
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	}
	list, ok := asStringSlice(v)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(list))
	for i, s := range list {
		if i < len(ids) {
			out[ids[i]] = s
		}
	}
	return out, true
}

func asFloat(v any, units string) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if units != "" {
			s = strings.TrimSpace(strings.TrimSuffix(s, units))
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// normalize collapses whitespace and, unless caseSensitive, folds case.
func normalize(s string, caseSensitive bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

// matchesAny reports whether answer equals the key or one of the alternates
// after normalization.
func matchesAny(answer, key string, alternates []string, caseSensitive bool) bool {
	got := normalize(answer, caseSensitive)
	if got == "" {
		return false
	}
	if got == normalize(key, caseSensitive) {
		return true
	}
	for _, alt := range alternates {
		if got == normalize(alt, caseSensitive) {
			return true
		}
	}
	return false
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
