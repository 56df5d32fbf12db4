package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Binding associates a record type with its collection endpoint. Key lists
// the primary-key columns (default "id"); Identity lists the columns that
// uniquely determine a row for GetOrCreate, which may differ from the key.
type Binding struct {
	Table    string
	Key      []string
	Identity []string
}

// Resource performs record-scoped operations against one bound table. Obtain
// via Client.Bind.
type Resource struct {
	client *Client
	Binding
}

func (rs *Resource) collectionURL() string {
	return rs.client.baseURL + "/" + rs.Table
}

// newRecord wraps a decoded JSON object.
func (rs *Resource) newRecord(attrs map[string]any) *Record {
	return &Record{resource: rs, attrs: attrs}
}

// New builds a client-side record that has not been persisted yet, e.g. to
// inspect attributes before a Create.
func (rs *Resource) New(attrs map[string]any) *Record {
	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return rs.newRecord(copied)
}

// Filter lists the rows matching the given params. Params values must already
// be operator-prefixed ("eq.5", "is.null"); use Eq for convenience.
func (rs *Resource) Filter(ctx context.Context, params Params) ([]*Record, error) {
	rawURL := rs.collectionURL()
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	body, err := rs.client.do(ctx, http.MethodGet, rawURL, rs.Table, nil)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, rs.newRecord(row))
	}
	return records, nil
}

// Get fetches at most one row. It returns nil when nothing matches and
// *MultipleResultsError when the filter matched several rows, since that
// means the caller's filter was not actually unique.
func (rs *Resource) Get(ctx context.Context, params Params) (*Record, error) {
	records, err := rs.Filter(ctx, params)
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		return records[0], nil
	default:
		return nil, &MultipleResultsError{Table: rs.Table, Count: len(records)}
	}
}

// Create POSTs the payload and returns the created row as echoed back by the
// server (Prefer: return=representation).
func (rs *Resource) Create(ctx context.Context, payload map[string]any) (*Record, error) {
	body, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	respBody, err := rs.client.do(ctx, http.MethodPost, rs.collectionURL(), rs.Table, body)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(respBody, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode create response for %q: %w", rs.Table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create on %q returned no representation", rs.Table)
	}
	return rs.newRecord(rows[0]), nil
}

// GetOrCreate fetches the row matching the binding's identity fields, creating
// it when absent. The boolean reports whether a row was created. All identity
// fields must be present in params. When a concurrent insert wins the race and
// the server answers 409, the row is re-fetched and returned as not-created;
// this conflict fallback is the only error the method recovers from.
func (rs *Resource) GetOrCreate(ctx context.Context, params map[string]any) (*Record, bool, error) {
	for _, field := range rs.Identity {
		if _, ok := params[field]; !ok {
			return nil, false, &MissingIdentityError{Table: rs.Table, Field: field}
		}
	}

	identity := make(Params, len(rs.Identity))
	for _, field := range rs.Identity {
		identity[field] = Eq(params[field])
	}

	found, err := rs.Get(ctx, identity)
	if err != nil {
		return nil, false, err
	}
	if found != nil {
		return found, false, nil
	}

	created, err := rs.Create(ctx, params)
	if err == nil {
		return created, true, nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsConflict() {
		return nil, false, err
	}

	// Lost a create/create race: someone else inserted the row between our
	// read and write. Treat the conflict as "already exists".
	found, err = rs.Get(ctx, identity)
	if err != nil {
		return nil, false, err
	}
	return found, false, nil
}

// marshalPayload encodes a write payload, stripping NUL escape sequences
// which Postgres rejects in text and jsonb values.
func marshalPayload(payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return bytes.ReplaceAll(body, []byte(`\u0000`), nil), nil
}
