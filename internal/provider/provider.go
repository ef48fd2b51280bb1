// Package provider holds the concrete bank adapters. Each bank keeps its
// endpoint URLs, field names, and success-code sets as named constants at
// the top of its file; nothing is inferred at runtime. Zarinpal is the
// reference adapter the others are patterned on.
package provider

// extractErrorMessages normalizes the two error payload shapes Iranian
// gateways use into a flat message list: either a single error object
// {"message": ...} or a list of such objects. Empty input means no error.
func extractErrorMessages(raw any) []string {
	switch errs := raw.(type) {
	case map[string]any:
		if msg, ok := errs["message"].(string); ok && msg != "" {
			return []string{msg}
		}
	case []any:
		var messages []string
		for _, entry := range errs {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if msg, ok := obj["message"].(string); ok && msg != "" {
				messages = append(messages, msg)
			}
		}
		return messages
	}
	return nil
}

// dataString reads payload["data"][key] as a string.
func dataString(payload map[string]any, key string) (string, bool) {
	data, ok := payload["data"].(map[string]any)
	if !ok {
		return "", false
	}
	value, ok := data[key].(string)
	return value, ok
}

// dataInt reads payload["data"][key] as an integer. JSON numbers decode as
// float64; bank codes are small integers so the conversion is lossless.
func dataInt(payload map[string]any, key string) (int64, bool) {
	data, ok := payload["data"].(map[string]any)
	if !ok {
		return 0, false
	}
	value, ok := data[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(value), true
}

// topInt reads payload[key] as an integer, for banks with flat payloads.
func topInt(payload map[string]any, key string) (int64, bool) {
	value, ok := payload[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(value), true
}

// topString reads payload[key] as a string.
func topString(payload map[string]any, key string) (string, bool) {
	value, ok := payload[key].(string)
	return value, ok
}
