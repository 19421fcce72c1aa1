package util

import (
	"encoding/json"
	"strings"
)

const redactedValue = "[REDACTED]"

// sensitiveKeyFragments marks JSON keys whose values never belong in logs.
// Keys are matched case-insensitively on substrings, so "sessionToken",
// "refresh_token" and "Authorization" are all caught.
var sensitiveKeyFragments = []string{
	"authorization",
	"cookie",
	"credential",
	"api_key",
	"apikey",
	"secret",
	"token",
	"password",
}

// RedactSensitiveJSON replaces the values of sensitive keys in a JSON
// payload before it is logged. Payloads that do not parse as JSON come
// back unchanged.
func RedactSensitiveJSON(body []byte) []byte {
	trim := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trim, "{") && !strings.HasPrefix(trim, "[") {
		return body
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return body
	}
	out, err := json.Marshal(redactValue(v))
	if err != nil {
		return body
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if isSensitiveKey(k) {
				t[k] = redactedValue
				continue
			}
			t[k] = redactValue(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
		return t
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(k, fragment) {
			return true
		}
	}
	return false
}
