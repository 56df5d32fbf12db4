package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edgeflare/pgrest/pkg/util"
	"github.com/mitchellh/mapstructure"
)

// Record is one row of a bound table. Attributes mirror the server's JSON
// object verbatim; JSON numbers decode as float64. Identity is defined by the
// binding's primary-key columns only.
type Record struct {
	resource *Resource
	attrs    map[string]any
}

// Attrs returns a copy of the record's attribute map.
func (r *Record) Attrs() map[string]any {
	attrs := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		attrs[k] = v
	}
	return attrs
}

// Attr returns the named attribute. A key the server never sent yields a
// *FieldNotFoundError so callers can tell a stale or partial record apart
// from an explicitly null column.
func (r *Record) Attr(name string) (any, error) {
	value, ok := r.attrs[name]
	if !ok {
		return nil, &FieldNotFoundError{Table: r.resource.Table, Field: name}
	}
	return value, nil
}

// Lookup resolves a dotted path into nested JSON attributes, e.g.
// "config.limits.max".
func (r *Record) Lookup(path string) (any, error) {
	return util.Jq(r.attrs, path)
}

// Decode maps the record's attributes onto a caller-provided struct.
func (r *Record) Decode(target any) error {
	return mapstructure.Decode(r.attrs, target)
}

// Key returns the record's primary-key mapping. Every key column must be
// present in the attributes.
func (r *Record) Key() (map[string]any, error) {
	key := make(map[string]any, len(r.resource.Key))
	for _, col := range r.resource.Key {
		value, err := r.Attr(col)
		if err != nil {
			return nil, err
		}
		key[col] = value
	}
	return key, nil
}

// Equal reports whether two records share the same primary-key mapping.
// Records with incomplete keys are never equal.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	key, err := r.Key()
	if err != nil {
		return false
	}
	otherKey, err := other.Key()
	if err != nil {
		return false
	}
	if len(key) != len(otherKey) {
		return false
	}
	for col, value := range key {
		if fmt.Sprintf("%v", otherKey[col]) != fmt.Sprintf("%v", value) {
			return false
		}
	}
	return true
}

// MarshalTagged renders the record as JSON with a "_type" field carrying the
// table name, for debugging and snapshotting. The server never consumes this.
func (r *Record) MarshalTagged() ([]byte, error) {
	tagged := make(map[string]any, len(r.attrs)+1)
	for k, v := range r.attrs {
		tagged[k] = v
	}
	tagged["_type"] = r.resource.Table
	return json.Marshal(tagged)
}

// Timestamp parses the named attribute as a PostgREST timestamp string.
func (r *Record) Timestamp(name string) (time.Time, error) {
	value, err := r.Attr(name)
	if err != nil {
		return time.Time{}, err
	}
	s, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("field %q is not a timestamp string", name)
	}
	formats := []string{
		"2006-01-02T15:04:05+00:00",
		"2006-01-02T15:04:05.999999+00:00",
		"2006-01-02T15:04:05.999999",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q does not match any of %v", s, formats)
}

// keyParams renders the primary key as equality filters.
func (r *Record) keyParams() (Params, error) {
	key, err := r.Key()
	if err != nil {
		return nil, err
	}
	params := make(Params, len(key))
	for col, value := range key {
		params[col] = Eq(value)
	}
	return params, nil
}

// Refresh re-fetches the record by primary key and replaces the local
// attributes with the server's current values. Use when another process may
// have mutated the row. A vanished row surfaces as an *APIError or, if the
// server returns an empty set, a 404-class APIError built locally.
func (r *Record) Refresh(ctx context.Context) error {
	params, err := r.keyParams()
	if err != nil {
		return err
	}
	current, err := r.resource.Get(ctx, params)
	if err != nil {
		return err
	}
	if current == nil {
		return &APIError{
			Method:     http.MethodGet,
			URL:        r.resource.collectionURL() + "?" + params.Encode(),
			StatusCode: http.StatusNotFound,
			Body:       []byte("row no longer exists"),
		}
	}
	r.attrs = current.attrs
	return nil
}

// Update PATCHes the payload to the record's primary-key URL, then always
// refreshes so local state matches whatever the server computed (defaults,
// triggers, concurrent writers). An empty payload just refreshes.
func (r *Record) Update(ctx context.Context, payload map[string]any) error {
	if len(payload) > 0 {
		if err := r.patch(ctx, payload); err != nil {
			return err
		}
	}
	return r.Refresh(ctx)
}

func (r *Record) patch(ctx context.Context, payload map[string]any) error {
	params, err := r.keyParams()
	if err != nil {
		return err
	}
	body, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	rawURL := r.resource.collectionURL() + "?" + params.Encode()
	_, err = r.resource.client.do(ctx, http.MethodPatch, rawURL, r.resource.Table, body)
	return err
}

// Delete removes the row matching the record's primary key.
func (r *Record) Delete(ctx context.Context) error {
	params, err := r.keyParams()
	if err != nil {
		return err
	}
	rawURL := r.resource.collectionURL() + "?" + params.Encode()
	_, err = r.resource.client.do(ctx, http.MethodDelete, rawURL, r.resource.Table, nil)
	return err
}
