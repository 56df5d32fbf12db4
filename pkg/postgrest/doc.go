// Package postgrest is a thin client for PostgREST-exposed databases.
//
// A Client holds one normalized connection URL and a shared HTTP client.
// Tables are attached to it through explicit bindings; records come back as
// attribute maps that know how to refresh, update and delete themselves by
// primary key.
//
// Filter values use PostgREST's operator-prefixed syntax:
//
//	Value             | Meaning
//	------------------|------------------------------------------------
//	eq.val            | Column equals val
//	neq.val           | Column does not equal val
//	gt.val / gte.val  | Greater than (or equal)
//	lt.val / lte.val  | Less than (or equal)
//	like.pattern      | Pattern match
//	in.(a,b,c)        | Value list
//	is.null           | Null check
//
// A parameter name carrying the JSONB marker suffix, e.g. "config__mode__jsonb",
// is rewritten to PostgREST's JSON traversal form "config->>mode" before the
// request is sent.
//
// Example usage:
//
//	client, err := postgrest.NewClient("db.example.com:3000")
//	if err != nil {
//		log.Fatal(err)
//	}
//	users := client.Bind(postgrest.Binding{Table: "users", Identity: []string{"name"}})
//
//	user, created, err := users.GetOrCreate(ctx, map[string]any{"name": "anne"})
//	...
//	err = user.Update(ctx, map[string]any{"email": "anne@example.com"})
//
// API semantics follow PostgREST. For details, see:
// https://docs.postgrest.org/en/stable/references/api/tables_views.html
package postgrest
