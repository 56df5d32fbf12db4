package util

import (
	"reflect"
	"testing"
)

func TestJq(t *testing.T) {
	// Shaped like a decoded PostgREST row with a jsonb column
	input := map[string]any{
		"id":   float64(7),
		"name": "anne",
		"config": map[string]any{
			"mode": "active",
			"limits": map[string]any{
				"max": float64(10),
			},
		},
		"tags":       []any{"a", "b"},
		"deleted_at": nil,
	}

	tests := []struct {
		expected any
		name     string
		path     string
		wantErr  bool
	}{
		{
			name:     "Top level key",
			path:     "name",
			expected: "anne",
		},
		{
			name:     "Leading dot",
			path:     ".name",
			expected: "anne",
		},
		{
			name:     "Nested key",
			path:     "config.mode",
			expected: "active",
		},
		{
			name:     "Deep nested key",
			path:     "config.limits.max",
			expected: float64(10), // JSON numbers decode as float64
		},
		{
			name:     "Array index",
			path:     "tags[1]",
			expected: "b",
		},
		{
			name:     "Null value",
			path:     "deleted_at",
			expected: nil,
		},
		{
			name:     "Entire object",
			path:     "config.limits",
			expected: map[string]any{"max": float64(10)},
		},
		{
			name:    "Non-existent key",
			path:    "config.nonexistent",
			wantErr: true,
		},
		{
			name:    "Index out of range",
			path:    "tags[5]",
			wantErr: true,
		},
		{
			name:    "Malformed array syntax",
			path:    "tags[0",
			wantErr: true,
		},
		{
			name:    "Non-numeric index",
			path:    "tags[abc]",
			wantErr: true,
		},
		{
			name:    "Primitive as object",
			path:    "name.subfield",
			wantErr: true,
		},
		{
			name:    "Empty path",
			path:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Jq(input, tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Jq() expected error for path %s but got none", tt.path)
				}
				return
			}

			if err != nil {
				t.Errorf("Jq() unexpected error for path %s: %v", tt.path, err)
				return
			}

			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Jq() for path %s = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}

	t.Run("Nil input", func(t *testing.T) {
		if _, err := Jq(nil, "any.path"); err == nil {
			t.Error("Jq() expected error for nil input but got none")
		}
	})
}
