// Package testutil provides an in-memory PostgREST stand-in for client tests.
// It speaks enough of the PostgREST dialect for the client's request shapes:
// operator-prefixed filters, Prefer: return=representation echoes, /rpc
// invocation and 409 on unique violations.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Table is one in-memory collection. Unique lists columns enforced as
// single-column uniqueness constraints on insert.
type Table struct {
	Rows   []map[string]any
	Unique []string
	nextID int
}

// RPCFunc handles one registered stored procedure.
type RPCFunc func(args map[string]any) []map[string]any

// PostgrestServer is an httptest-backed fake of a PostgREST endpoint.
type PostgrestServer struct {
	mu     sync.Mutex
	tables map[string]*Table
	rpcs   map[string]RPCFunc
	srv    *httptest.Server
}

func NewPostgrestServer() *PostgrestServer {
	s := &PostgrestServer{
		tables: make(map[string]*Table),
		rpcs:   make(map[string]RPCFunc),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server's base URL, e.g. http://127.0.0.1:PORT.
func (s *PostgrestServer) URL() string {
	return s.srv.URL
}

func (s *PostgrestServer) Close() {
	s.srv.Close()
}

// AddTable registers a collection with optional seed rows. Rows without an
// "id" column get one assigned on insert.
func (s *PostgrestServer) AddTable(name string, unique []string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Table{Unique: unique, nextID: 1}
	for _, row := range rows {
		if _, ok := row["id"]; !ok {
			row["id"] = float64(t.nextID)
		}
		t.nextID++
		t.Rows = append(t.Rows, row)
	}
	s.tables[name] = t
}

// AddRPC registers a stored procedure under /rpc/{name}.
func (s *PostgrestServer) AddRPC(name string, fn RPCFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rpcs[name] = fn
}

// Rows returns a snapshot of a table's current rows.
func (s *PostgrestServer) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tables[table]
	if t == nil {
		return nil
	}
	out := make([]map[string]any, len(t.Rows))
	copy(out, t.Rows)
	return out
}

func (s *PostgrestServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.Trim(r.URL.Path, "/")

	if strings.HasPrefix(path, "rpc/") {
		s.handleRPC(w, r, strings.TrimPrefix(path, "rpc/"))
		return
	}

	table, exists := s.tables[path]
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("relation %q does not exist", path))
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, table)
	case http.MethodPost:
		s.handlePost(w, r, table)
	case http.MethodPatch:
		s.handlePatch(w, r, table)
	case http.MethodDelete:
		s.handleDelete(w, r, table)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *PostgrestServer) handleRPC(w http.ResponseWriter, r *http.Request, name string) {
	fn, exists := s.rpcs[name]
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("function %q does not exist", name))
		return
	}
	var args map[string]any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, fn(args))
}

func (s *PostgrestServer) handleGet(w http.ResponseWriter, r *http.Request, table *Table) {
	matched, err := filterRows(table.Rows, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *PostgrestServer) handlePost(w http.ResponseWriter, r *http.Request, table *Table) {
	var row map[string]any
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	for _, col := range table.Unique {
		value, ok := row[col]
		if !ok {
			continue
		}
		for _, existing := range table.Rows {
			if fmt.Sprint(existing[col]) == fmt.Sprint(value) {
				writeError(w, http.StatusConflict,
					fmt.Sprintf("duplicate key value violates unique constraint on %q", col))
				return
			}
		}
	}

	if _, ok := row["id"]; !ok {
		row["id"] = float64(table.nextID)
	}
	table.nextID++
	table.Rows = append(table.Rows, row)

	writeJSON(w, http.StatusCreated, []map[string]any{row})
}

func (s *PostgrestServer) handlePatch(w http.ResponseWriter, r *http.Request, table *Table) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	matched, err := filterRows(table.Rows, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(matched) == 0 {
		writeError(w, http.StatusNotFound, "no rows matched")
		return
	}
	for _, row := range matched {
		for col, value := range patch {
			row[col] = value
		}
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *PostgrestServer) handleDelete(w http.ResponseWriter, r *http.Request, table *Table) {
	matched, err := filterRows(table.Rows, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(matched) == 0 {
		writeError(w, http.StatusNotFound, "no rows matched")
		return
	}

	remaining := make([]map[string]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		deleted := false
		for _, m := range matched {
			if sameRow(row, m) {
				deleted = true
				break
			}
		}
		if !deleted {
			remaining = append(remaining, row)
		}
	}
	table.Rows = remaining

	writeJSON(w, http.StatusOK, matched)
}

// filterRows evaluates PostgREST operator-prefixed filters against rows.
// Supports the operators the client emits: eq, neq, gt, gte, lt, lte, is.
func filterRows(rows []map[string]any, query map[string][]string) ([]map[string]any, error) {
	matched := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		ok, err := rowMatches(row, query)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func rowMatches(row map[string]any, query map[string][]string) (bool, error) {
	for column, values := range query {
		for _, value := range values {
			ok, err := columnMatches(resolveColumn(row, column), value)
			if err != nil {
				return false, fmt.Errorf("column %q: %w", column, err)
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// resolveColumn follows ->> traversal into nested JSON objects.
func resolveColumn(row map[string]any, column string) any {
	parts := strings.Split(column, "->>")
	var current any = row
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

func columnMatches(value any, filter string) (bool, error) {
	op, operand, found := strings.Cut(filter, ".")
	if !found {
		return false, fmt.Errorf("filter %q has no operator prefix", filter)
	}

	if op == "is" {
		switch operand {
		case "null":
			return value == nil, nil
		case "not.null":
			return value != nil, nil
		default:
			return false, fmt.Errorf("unsupported is filter %q", operand)
		}
	}

	switch op {
	case "eq":
		return fmt.Sprint(value) == operand, nil
	case "neq":
		return value != nil && fmt.Sprint(value) != operand, nil
	case "gt", "gte", "lt", "lte":
		cmp, err := compareNumeric(value, operand)
		if err != nil {
			return false, err
		}
		switch op {
		case "gt":
			return cmp > 0, nil
		case "gte":
			return cmp >= 0, nil
		case "lt":
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

func compareNumeric(value any, operand string) (int, error) {
	left, err := strconv.ParseFloat(fmt.Sprint(value), 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric column value %v", value)
	}
	right, err := strconv.ParseFloat(operand, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric filter value %q", operand)
	}
	switch {
	case left > right:
		return 1, nil
	case left < right:
		return -1, nil
	default:
		return 0, nil
	}
}

func sameRow(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if fmt.Sprint(b[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
