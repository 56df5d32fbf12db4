package postgrest

import (
	"fmt"
	"net/url"
	"strings"
)

// jsonbMarker tags a filter name as a JSON document traversal. The name
// "config__mode__jsonb" addresses the "mode" key inside the "config" column
// and is rewritten to PostgREST's "config->>mode" before being sent.
const jsonbMarker = "__jsonb"

// Params holds filter parameters for a collection request. Values are
// operator-prefixed PostgREST strings ("eq.5", "gte.2020-01-01", "is.null").
type Params map[string]string

// Eq formats a value as an equality filter. A nil value becomes an is.null
// filter, matching how PostgREST distinguishes null comparison from equality.
func Eq(v any) string {
	if v == nil {
		return Null()
	}
	return fmt.Sprintf("eq.%v", v)
}

// Null returns the filter matching null columns.
func Null() string {
	return "is.null"
}

// Encode converts the params to a URL querystring, rewriting JSONB-marked
// names to the ->> traversal form. Encoding is deterministic (url.Values
// sorts by key).
func (p Params) Encode() string {
	values := make(url.Values, len(p))
	for key, value := range p {
		values.Set(rewriteJSONBKey(key), value)
	}
	return values.Encode()
}

func rewriteJSONBKey(key string) string {
	if !strings.HasSuffix(key, jsonbMarker) {
		return key
	}
	trimmed := strings.TrimSuffix(key, jsonbMarker)
	return strings.Join(strings.Split(trimmed, "__"), "->>")
}
