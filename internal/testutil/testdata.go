package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

// LoadRows reads a JSON array fixture from this package's directory, in the
// shape PostgREST returns for collection endpoints.
func LoadRows(filename string) ([]map[string]any, error) {
	_, currentFile, _, _ := runtime.Caller(0)
	dir := filepath.Dir(currentFile)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
