package postgrest

import (
	"testing"
)

func TestParamsEncode(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		expected string
	}{
		{
			name:     "Equality filter",
			params:   Params{"id": "eq.5"},
			expected: "id=eq.5",
		},
		{
			name:     "Null filter",
			params:   Params{"deleted_at": "is.null"},
			expected: "deleted_at=is.null",
		},
		{
			name:     "Multiple filters sort by key",
			params:   Params{"name": "eq.anne", "active": "eq.true"},
			expected: "active=eq.true&name=eq.anne",
		},
		{
			name:     "JSONB marker rewrite",
			params:   Params{"config__mode__jsonb": "eq.active"},
			expected: "config-%3E%3Emode=eq.active",
		},
		{
			name:     "JSONB marker with deeper path",
			params:   Params{"config__limits__max__jsonb": "gte.10"},
			expected: "config-%3E%3Elimits-%3E%3Emax=gte.10",
		},
		{
			name:     "Value with spaces is escaped",
			params:   Params{"name": "eq.anne k"},
			expected: "name=eq.anne+k",
		},
		{
			name:     "Empty params",
			params:   Params{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Encode(); got != tt.expected {
				t.Errorf("Encode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEq(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{5, "eq.5"},
		{"anne", "eq.anne"},
		{true, "eq.true"},
		{nil, "is.null"},
		{3.5, "eq.3.5"},
	}

	for _, tt := range tests {
		if got := Eq(tt.value); got != tt.expected {
			t.Errorf("Eq(%v) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestRewriteJSONBKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"name", "name"},
		{"config__mode__jsonb", "config->>mode"},
		{"a__b__c__jsonb", "a->>b->>c"},
		{"jsonb_audit", "jsonb_audit"}, // marker must be a suffix
	}

	for _, tt := range tests {
		if got := rewriteJSONBKey(tt.key); got != tt.expected {
			t.Errorf("rewriteJSONBKey(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}
