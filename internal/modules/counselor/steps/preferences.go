package steps

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Recognized preference keys.
const (
	PrefSpecialization = "specialization"
	PrefBudget         = "budget"
	PrefCareerGoal     = "career_goal"
	PrefPriorities     = "priorities"
	PrefLocation       = "location_preference"
	PrefExperience     = "experience_level"
	PrefAccreditation  = "accreditation"
)

// Preferences maps a preference key to a string or a []string.
type Preferences map[string]any

// Merge returns a copy of p with every key of update written over it.
func (p Preferences) Merge(update Preferences) Preferences {
	out := p.Clone()
	for k, v := range update {
		out[k] = v
	}
	return out
}

func (p Preferences) Clone() Preferences {
	out := make(Preferences, len(p))
	for k, v := range p {
		if list, ok := v.([]string); ok {
			out[k] = append([]string(nil), list...)
			continue
		}
		out[k] = v
	}
	return out
}

// Text returns the value of key as one string; list values are joined with spaces.
func (p Preferences) Text(key string) string {
	return valueText(p[key])
}

func (p Preferences) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// WantsAccreditation is true when an accreditation key is present or any value mentions accreditation.
func (p Preferences) WantsAccreditation() bool {
	if p.Has(PrefAccreditation) {
		return true
	}
	for _, v := range p {
		if strings.Contains(strings.ToLower(valueText(v)), "accredit") {
			return true
		}
	}
	return false
}

// JSON renders the snapshot with sorted keys; an empty model is "{}".
func (p Preferences) JSON(indent bool) string {
	if len(p) == 0 {
		return "{}"
	}
	var (
		raw []byte
		err error
	)
	if indent {
		raw, err = json.MarshalIndent(map[string]any(p), "", "  ")
	} else {
		raw, err = json.Marshal(map[string]any(p))
	}
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// UnmarshalJSON restores list values as []string.
func (p *Preferences) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = normalizePreferences(raw)
	return nil
}

func (p Preferences) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func valueText(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []string:
		return strings.Join(typed, " ")
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			if s := valueText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		s, _ := normalizeScalar(v)
		return s
	}
}

// normalizePreferences coerces decoded JSON into string / []string values, dropping empties.
func normalizePreferences(raw map[string]any) Preferences {
	out := Preferences{}
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		switch typed := v.(type) {
		case []any:
			list := make([]string, 0, len(typed))
			for _, item := range typed {
				if s, ok := normalizeScalar(item); ok && s != "" {
					list = append(list, s)
				}
			}
			if len(list) > 0 {
				out[key] = list
			}
		default:
			if s, ok := normalizeScalar(v); ok && s != "" {
				out[key] = s
			}
		}
	}
	return out
}

func normalizeScalar(v any) (string, bool) {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	case map[string]any:
		raw, err := json.Marshal(typed)
		if err != nil {
			return "", false
		}
		return string(raw), true
	default:
		return "", false
	}
}
