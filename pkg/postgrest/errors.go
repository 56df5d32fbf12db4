package postgrest

import (
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for any non-2xx response from the server. It carries
// the HTTP status and response body for inspection:
//
//	var apiErr *postgrest.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
//		...
//	}
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		msg += ": " + body
	}
	return msg
}

// IsConflict reports whether the server rejected a write with 409, which
// PostgREST uses for uniqueness violations.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// MultipleResultsError signals caller misuse of Get: the supplied filter was
// supposed to match at most one row but matched several.
type MultipleResultsError struct {
	Table string
	Count int
}

func (e *MultipleResultsError) Error() string {
	return fmt.Sprintf("get on %q matched %d rows, expected at most one", e.Table, e.Count)
}

// MissingIdentityError is returned by GetOrCreate before any request is made
// when a required identity field is absent from the params.
type MissingIdentityError struct {
	Table string
	Field string
}

func (e *MissingIdentityError) Error() string {
	return fmt.Sprintf("get_or_create on %q requires the %q param", e.Table, e.Field)
}

// FieldNotFoundError is returned when a record attribute is read that the
// server never sent. A missing key means a stale or partial record, which is
// distinct from a column that is explicitly null.
type FieldNotFoundError struct {
	Table string
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("record from %q has no field %q", e.Table, e.Field)
}
