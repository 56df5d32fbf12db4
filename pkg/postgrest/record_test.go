package postgrest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResource(t *testing.T, b Binding) *Resource {
	t.Helper()
	client, err := NewClient("localhost:3000")
	require.NoError(t, err)
	return client.Bind(b)
}

func TestRecordAttr(t *testing.T) {
	users := testResource(t, Binding{Table: "users"})
	record := users.New(map[string]any{
		"id":         float64(1),
		"name":       "anne",
		"deleted_at": nil,
	})

	name, err := record.Attr("name")
	require.NoError(t, err)
	assert.Equal(t, "anne", name)

	// Explicitly null column is present, just nil
	deletedAt, err := record.Attr("deleted_at")
	require.NoError(t, err)
	assert.Nil(t, deletedAt)

	// Never-fetched column is an error, not a silent nil
	_, err = record.Attr("email")
	require.Error(t, err)
	fieldErr, ok := err.(*FieldNotFoundError)
	require.True(t, ok, "expected *FieldNotFoundError, got %T", err)
	assert.Equal(t, "users", fieldErr.Table)
	assert.Equal(t, "email", fieldErr.Field)
}

func TestRecordKeyAndEqual(t *testing.T) {
	users := testResource(t, Binding{Table: "users"})

	a := users.New(map[string]any{"id": float64(1), "name": "anne"})
	b := users.New(map[string]any{"id": float64(1), "name": "renamed"})
	c := users.New(map[string]any{"id": float64(2), "name": "anne"})

	key, err := a.Key()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1)}, key)

	// Identity is the primary key only, not the full attribute map
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	// Incomplete key never compares equal
	partial := users.New(map[string]any{"name": "anne"})
	assert.False(t, partial.Equal(a))
	_, err = partial.Key()
	assert.Error(t, err)
}

func TestRecordCompositeKey(t *testing.T) {
	memberships := testResource(t, Binding{Table: "memberships", Key: []string{"user_id", "group_id"}})

	a := memberships.New(map[string]any{"user_id": float64(1), "group_id": float64(2), "role": "admin"})
	b := memberships.New(map[string]any{"user_id": float64(1), "group_id": float64(2), "role": "member"})
	c := memberships.New(map[string]any{"user_id": float64(1), "group_id": float64(3), "role": "admin"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestRecordMarshalTagged(t *testing.T) {
	users := testResource(t, Binding{Table: "users"})
	record := users.New(map[string]any{"id": float64(1), "name": "anne"})

	out, err := record.MarshalTagged()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "users", decoded["_type"])
	assert.Equal(t, "anne", decoded["name"])
	assert.Equal(t, float64(1), decoded["id"])
}

func TestRecordDecode(t *testing.T) {
	users := testResource(t, Binding{Table: "users"})
	record := users.New(map[string]any{
		"id":     float64(7),
		"name":   "anne",
		"active": true,
	})

	var user struct {
		ID     int    `mapstructure:"id"`
		Name   string `mapstructure:"name"`
		Active bool   `mapstructure:"active"`
	}
	require.NoError(t, record.Decode(&user))
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "anne", user.Name)
	assert.True(t, user.Active)
}

func TestRecordLookup(t *testing.T) {
	users := testResource(t, Binding{Table: "users"})
	record := users.New(map[string]any{
		"id": float64(1),
		"config": map[string]any{
			"limits": map[string]any{"max": float64(10)},
		},
	})

	value, err := record.Lookup("config.limits.max")
	require.NoError(t, err)
	assert.Equal(t, float64(10), value)

	_, err = record.Lookup("config.nope")
	assert.Error(t, err)
}

func TestRecordTimestamp(t *testing.T) {
	users := testResource(t, Binding{Table: "users"})
	record := users.New(map[string]any{
		"created_at": "2023-04-01T10:30:00+00:00",
		"updated_at": "2023-04-01T10:30:00.123456+00:00",
		"synced_at":  "2023-04-01T10:30:00.123456",
		"name":       "anne",
	})

	for _, field := range []string{"created_at", "updated_at", "synced_at"} {
		ts, err := record.Timestamp(field)
		require.NoError(t, err, field)
		assert.Equal(t, 2023, ts.Year())
		assert.Equal(t, time.April, ts.Month())
	}

	_, err := record.Timestamp("name")
	assert.Error(t, err)
}
