/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package parser provides resolver document and token source parsing.
package parser

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/potrim/fs"
)

// ParseTokens parses JSON, JSONC, or YAML token source data into a raw
// tree.
func ParseTokens(data []byte) (map[string]any, error) {
	if isLikelyJSON(data) {
		// JSON path: strip comments and parse
		cleanJSON := jsonc.ToJSON(data)
		var raw map[string]any
		if err := json.Unmarshal(cleanJSON, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return raw, nil
	}

	// YAML path: parse directly with yaml.v3
	var yamlRaw any
	if err := yaml.Unmarshal(data, &yamlRaw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	// Normalize map types (YAML numeric keys create map[any]any)
	normalized := normalizeMap(yamlRaw)
	raw, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("YAML root must be an object")
	}
	return raw, nil
}

// ParseTokensFile parses a token source file into a raw tree.
func ParseTokensFile(filesystem fs.FileSystem, path string) (map[string]any, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	raw, err := ParseTokens(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	return raw, nil
}

// isLikelyJSON checks if data appears to be JSON rather than YAML.
// JSON typically starts with '{' (optionally preceded by whitespace/BOM).
func isLikelyJSON(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case 0xEF, 0xBB, 0xBF: // UTF-8 BOM
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// normalizeMap recursively converts map[interface{}]interface{} to map[string]any.
// YAML with numeric keys (like "10:") creates map[interface{}]interface{},
// which must be normalized for our string-keyed processing.
func normalizeMap(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeMap(val)
		}
		return x
	case map[any]any:
		result := make(map[string]any, len(x))
		for k, val := range x {
			result[fmt.Sprintf("%v", k)] = normalizeMap(val)
		}
		return result
	case []any:
		for i, val := range x {
			x[i] = normalizeMap(val)
		}
		return x
	default:
		return v
	}
}
