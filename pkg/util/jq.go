package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errInvalidInput = errors.New("invalid input or empty path")

// Jq extracts a value from a decoded JSON map using dotted path notation like
// the jq cli, e.g. ".config.limits.max" or "tags[0]". Record attributes from
// PostgREST responses decode to exactly this shape.
func Jq(input map[string]any, path string) (any, error) {
	if input == nil || path == "" {
		return nil, errInvalidInput
	}

	if path[0] == '.' {
		path = path[1:]
	}

	var current any = input
	for _, key := range strings.Split(path, ".") {
		if key == "" {
			continue
		}

		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object at path segment: %s", key)
		}

		if !strings.ContainsRune(key, '[') {
			value, exists := currentMap[key]
			if !exists {
				return nil, fmt.Errorf("key not found: %s", key)
			}
			current = value
			continue
		}

		// Array notation: key[index]
		name, index, err := splitKeyAndIndex(key)
		if err != nil {
			return nil, err
		}
		array, ok := currentMap[name].([]any)
		if !ok {
			return nil, fmt.Errorf("expected array at key: %s", name)
		}
		if index < 0 || index >= len(array) {
			return nil, fmt.Errorf("index %d out of range at key: %s", index, name)
		}
		current = array[index]
	}

	return current, nil
}

func splitKeyAndIndex(key string) (string, int, error) {
	start := strings.IndexByte(key, '[')
	end := strings.IndexByte(key, ']')
	if start == -1 || end == -1 || end < start {
		return "", 0, fmt.Errorf("malformed array syntax in key: %s", key)
	}
	index, err := strconv.Atoi(key[start+1 : end])
	if err != nil {
		return "", 0, fmt.Errorf("malformed array index in key: %s", key)
	}
	return key[:start], index, nil
}
