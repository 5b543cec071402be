package configutil

import (
	"reflect"
	"sort"
	"strings"
)

// Schema lists the keys a provider settings block accepts.
type Schema struct {
	Required     []string
	Optional     []string
	AllowUnknown bool
}

// SchemaFor derives a schema from the mapstructure tags of a settings struct.
// Fields tagged "-" are internal and never accepted from config. Every other
// key is optional unless named in required.
func SchemaFor(settings any, required ...string) Schema {
	req := make(map[string]struct{}, len(required))
	for _, k := range required {
		req[normalizeKey(k)] = struct{}{}
	}
	schema := Schema{Required: append([]string(nil), required...)}

	t := reflect.TypeOf(settings)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return schema
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if _, ok := req[normalizeKey(name)]; ok {
			continue
		}
		schema.Optional = append(schema.Optional, name)
	}
	return schema
}

// SettingsError reports keys that were missing or not recognised.
type SettingsError struct {
	Missing []string
	Unknown []string
	// Hints maps an unknown key to the accepted key it most likely meant.
	Hints map[string]string
}

func (e *SettingsError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		keys := make([]string, 0, len(e.Unknown))
		for _, k := range e.Unknown {
			if hint, ok := e.Hints[k]; ok {
				k += " (did you mean " + hint + "?)"
			}
			keys = append(keys, k)
		}
		parts = append(parts, "unknown: "+strings.Join(keys, ", "))
	}
	return strings.Join(parts, "; ")
}

// ValidateSettings checks a settings map against a schema and returns a
// *SettingsError when keys are missing or unknown. Keys are compared ignoring
// case, underscores and hyphens.
func ValidateSettings(input map[string]any, schema Schema) error {
	required := make(map[string]string, len(schema.Required))
	allowed := make(map[string]string, len(schema.Required)+len(schema.Optional))
	for _, k := range schema.Required {
		required[normalizeKey(k)] = k
		allowed[normalizeKey(k)] = k
	}
	for _, k := range schema.Optional {
		allowed[normalizeKey(k)] = k
	}

	serr := &SettingsError{}
	seen := make(map[string]bool, len(input))
	for k, v := range input {
		nk := normalizeKey(k)
		seen[nk] = true
		if _, ok := allowed[nk]; !ok && !schema.AllowUnknown {
			serr.Unknown = append(serr.Unknown, k)
			if hint, ok := closestKey(nk, allowed); ok {
				if serr.Hints == nil {
					serr.Hints = make(map[string]string)
				}
				serr.Hints[k] = hint
			}
		}
		if reqKey, ok := required[nk]; ok && isEmptyValue(v) {
			serr.Missing = append(serr.Missing, reqKey)
		}
	}
	for nk, reqKey := range required {
		if !seen[nk] {
			serr.Missing = append(serr.Missing, reqKey)
		}
	}

	if len(serr.Missing) == 0 && len(serr.Unknown) == 0 {
		return nil
	}
	sort.Strings(serr.Missing)
	sort.Strings(serr.Unknown)
	return serr
}

// closestKey returns the accepted key within two edits of nk, if exactly one
// candidate is nearest.
func closestKey(nk string, allowed map[string]string) (string, bool) {
	best, bestDist, tie := "", 3, false
	for candidate, original := range allowed {
		d := editDistance(nk, candidate)
		switch {
		case d < bestDist:
			best, bestDist, tie = original, d, false
		case d == bestDist:
			tie = true
		}
	}
	if best == "" || tie {
		return "", false
	}
	return best, true
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}
