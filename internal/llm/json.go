package llm

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/TobiSchelling/TrendIntel/internal/logging"
)

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if len(lines) < 2 {
		return ""
	}
	return strings.Join(lines[1:endIdx], "\n")
}

// ParseJSONResponse parses a JSON object from an LLM reply, handling markdown
// code blocks. Returns nil when the reply is not an object.
func ParseJSONResponse(text string) map[string]any {
	text = stripFences(text)
	if text == "" {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		logging.Debug().Err(err).Msg("Failed to parse LLM response as JSON object")
		return nil
	}
	return result
}

// ParseJSONArray parses a JSON array of objects from an LLM reply. Text around
// the outermost brackets is ignored.
func ParseJSONArray(text string) []map[string]any {
	text = stripFences(text)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}

	var result []map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		logging.Debug().Err(err).Msg("Failed to parse LLM response as JSON array")
		return nil
	}
	return result
}

// String returns m[key] as a string, or "".
func String(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Strings returns m[key] as a string slice, skipping non-string elements.
// A bare string value becomes a one-element slice.
func Strings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return []string{}
}

// Int returns m[key] as an int, or def when absent or not a number.
func Int(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return def
}

// Float returns m[key] as a float64, or def when absent or not a number.
func Float(m map[string]any, key string, def float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Object returns m[key] as a nested object, or nil.
func Object(m map[string]any, key string) map[string]any {
	if o, ok := m[key].(map[string]any); ok {
		return o
	}
	return nil
}

// Objects returns m[key] as a slice of objects, skipping other elements.
func Objects(m map[string]any, key string) []map[string]any {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if o, ok := e.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}
