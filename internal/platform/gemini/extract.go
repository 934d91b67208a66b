package gemini

import (
	"encoding/json"
	"sort"
	"strings"
)

// The upstream response schema is not contractually fixed, so extraction is an
// ordered chain of strategies tried until one yields a non-empty string:
//
//  1. a list-valued field among known candidate names, taking the first
//     element's text-like field,
//  2. a known top-level text field,
//  3. a depth-first search over the whole payload for the first string value.
//
// The precedence tolerates schema drift without a hard failure.
type extractStrategy func(payload any) (string, bool)

var extractStrategies = []extractStrategy{
	fromListField,
	fromTopLevelField,
	fromFirstString,
}

var (
	listFieldNames     = []string{"candidates", "outputs", "output"}
	itemTextFieldNames = []string{"content", "text", "output"}
	topLevelFieldNames = []string{"content", "generated_text", "response", "text"}
)

// ExtractText decodes raw JSON and runs the strategy chain. It reports false
// for malformed payloads and for payloads holding no usable text.
func ExtractText(raw []byte) (string, bool) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", false
	}
	for _, strat := range extractStrategies {
		if text, ok := strat(payload); ok {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

func fromListField(payload any) (string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	for _, name := range listFieldNames {
		lst, ok := obj[name].([]any)
		if !ok || len(lst) == 0 {
			continue
		}
		switch first := lst[0].(type) {
		case string:
			return first, true
		case map[string]any:
			for _, field := range itemTextFieldNames {
				if s, ok := first[field].(string); ok && strings.TrimSpace(s) != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}

func fromTopLevelField(payload any) (string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	for _, name := range topLevelFieldNames {
		if s, ok := obj[name].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// fromFirstString walks maps in sorted key order so the result is
// deterministic for a given payload.
func fromFirstString(payload any) (string, bool) {
	switch v := payload.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return v, true
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := fromFirstString(v[k]); ok {
				return s, true
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := fromFirstString(item); ok {
				return s, true
			}
		}
	}
	return "", false
}
