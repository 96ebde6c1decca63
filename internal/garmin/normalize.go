package garmin

// Response-shape normalization. The remote service is not consistent about
// returning an object versus a single-element list for the same endpoint
// across versions, so every fetcher goes through these helpers instead of
// asserting shapes inline.

// AsObject coerces a decoded document into a key/value object. A list where
// an object was expected yields its first element; an empty list, empty
// object, or nil yields ok=false (absent).
func AsObject(doc Document) (map[string]interface{}, bool) {
	switch v := doc.(type) {
	case map[string]interface{}:
		if len(v) == 0 {
			return nil, false
		}
		return v, true
	case []interface{}:
		if len(v) == 0 {
			return nil, false
		}
		return AsObject(v[0])
	default:
		return nil, false
	}
}

// AsList coerces a decoded document into a list. A bare object becomes a
// single-element list; nil or an empty list yields ok=false.
func AsList(doc Document) ([]interface{}, bool) {
	switch v := doc.(type) {
	case []interface{}:
		if len(v) == 0 {
			return nil, false
		}
		return v, true
	case map[string]interface{}:
		if len(v) == 0 {
			return nil, false
		}
		return []interface{}{v}, true
	default:
		return nil, false
	}
}

// Dig walks nested objects by key, applying the object coercion rule at
// every level.
func Dig(doc Document, keys ...string) (Document, bool) {
	cur := doc
	for _, key := range keys {
		obj, ok := AsObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Number extracts a numeric value. JSON numbers decode as float64; integers
// arriving as strings are not coerced — a non-numeric value is absent.
func Number(doc Document) (float64, bool) {
	switch v := doc.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// DigNumber digs to a nested key and extracts it as a number.
func DigNumber(doc Document, keys ...string) (float64, bool) {
	v, ok := Dig(doc, keys...)
	if !ok {
		return 0, false
	}
	return Number(v)
}

// DigString digs to a nested key and extracts it as a string.
func DigString(doc Document, keys ...string) (string, bool) {
	v, ok := Dig(doc, keys...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
