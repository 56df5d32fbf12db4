package postgrest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientNormalizesURL(t *testing.T) {
	tests := []struct {
		name     string
		connURL  string
		expected string
		wantErr  bool
	}{
		{
			name:     "No scheme defaults to http",
			connURL:  "db.example.com:3000",
			expected: "http://db.example.com:3000",
		},
		{
			name:     "Explicit https is preserved",
			connURL:  "https://db.example.com",
			expected: "https://db.example.com",
		},
		{
			name:     "Path and query are dropped",
			connURL:  "http://db.example.com:3000/some/path?x=1",
			expected: "http://db.example.com:3000",
		},
		{
			name:     "Bare host",
			connURL:  "localhost",
			expected: "http://localhost",
		},
		{
			name:    "Empty URL",
			connURL: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.connURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, client.BaseURL())
		})
	}
}

func TestClientDefaultHeaders(t *testing.T) {
	var captured http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithHeader("Authorization", "Bearer token"))
	require.NoError(t, err)

	_, err = client.Bind(Binding{Table: "users"}).Filter(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "application/json", captured.Get("Content-Type"))
	assert.Equal(t, "return=representation", captured.Get("Prefer"))
	assert.Equal(t, "Bearer token", captured.Get("Authorization"))
	assert.NotEmpty(t, captured.Get("X-Request-Id"))
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "permission denied"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Bind(Binding{Table: "users"}).Filter(context.Background(), nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, string(apiErr.Body), "permission denied")
	assert.Contains(t, apiErr.Error(), "403")
}

func TestClientRelated(t *testing.T) {
	client, err := NewClient("localhost:3000")
	require.NoError(t, err)
	other, err := NewClient("localhost:3001")
	require.NoError(t, err)

	client.AddRelated("billing", other)

	got, ok := client.Related("billing")
	assert.True(t, ok)
	assert.Same(t, other, got)

	_, ok = client.Related("missing")
	assert.False(t, ok)
}

func TestBindDefaultsKey(t *testing.T) {
	client, err := NewClient("localhost:3000")
	require.NoError(t, err)

	users := client.Bind(Binding{Table: "users"})
	assert.Equal(t, []string{"id"}, users.Key)

	composite := client.Bind(Binding{Table: "memberships", Key: []string{"user_id", "group_id"}})
	assert.Equal(t, []string{"user_id", "group_id"}, composite.Key)
}
