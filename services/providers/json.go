package providers

// Lenient accessors for decoded JSON bodies. A missing or mistyped field
// resolves to the zero value rather than an error: response interpretation
// failures are never transport failures.

// MapValue returns m[key] as an object, or nil.
func MapValue(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]interface{})
	return v
}

// SliceValue returns m[key] as an array, or nil.
func SliceValue(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]interface{})
	return v
}

// StringValue returns m[key] as a string, or "".
func StringValue(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

// IntValue returns m[key] as an int, accepting the float64 encoding/json
// produces for JSON numbers. Missing or mistyped fields are 0.
func IntValue(m map[string]interface{}, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// FloatSliceValue returns m[key] as a []float64, skipping non-numeric
// elements.
func FloatSliceValue(m map[string]interface{}, key string) []float64 {
	raw := SliceValue(m, key)
	if raw == nil {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		if f, ok := e.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

// ObjectAt returns s[i] as an object, or nil when out of range or mistyped.
func ObjectAt(s []interface{}, i int) map[string]interface{} {
	if i < 0 || i >= len(s) {
		return nil
	}
	v, _ := s[i].(map[string]interface{})
	return v
}
