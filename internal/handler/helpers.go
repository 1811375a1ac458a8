package handler

import "strconv"

// stringField extracts a string value from a decoded JSON object. Missing
// keys and non-string values both come back as an empty string.
func stringField(raw map[string]any, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}

func itoa(n int) string {
	if n < 0 {
		n = 0
	}
	return strconv.Itoa(n)
}
