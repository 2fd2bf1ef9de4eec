/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DocumentKind classifies a parsed file.
type DocumentKind int

const (
	// KindUnknown represents an unclassifiable document.
	KindUnknown DocumentKind = iota

	// KindResolver represents a resolver document (sets, modifiers,
	// resolutionOrder).
	KindResolver

	// KindTokens represents a plain token source document.
	KindTokens
)

// String returns the string representation of the document kind.
func (k DocumentKind) String() string {
	switch k {
	case KindResolver:
		return "resolver"
	case KindTokens:
		return "tokens"
	default:
		return "unknown"
	}
}

// DetectKind detects whether content is a resolver document or a plain
// token source document.
// Priority order:
// 1. resolutionOrder at the document root (resolver)
// 2. sets or modifiers at the document root (resolver, likely incomplete)
// 3. any $value or $ref anywhere (tokens)
func DetectKind(content []byte) (DocumentKind, error) {
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return KindUnknown, fmt.Errorf("invalid YAML/JSON: %w", err)
	}

	if _, ok := data["resolutionOrder"]; ok {
		return KindResolver, nil
	}
	if _, ok := data["sets"]; ok {
		return KindResolver, nil
	}
	if _, ok := data["modifiers"]; ok {
		return KindResolver, nil
	}

	if hasFeature(data, "$value") || hasFeature(data, "$ref") {
		return KindTokens, nil
	}

	return KindUnknown, nil
}

// hasFeature checks if a field name exists anywhere in the structure.
func hasFeature(data map[string]any, featureName string) bool {
	if _, exists := data[featureName]; exists {
		return true
	}
	for _, value := range data {
		switch v := value.(type) {
		case map[string]any:
			if hasFeature(v, featureName) {
				return true
			}
		case []any:
			if hasFeatureInSlice(v, featureName) {
				return true
			}
		}
	}
	return false
}

// hasFeatureInSlice recursively checks for a feature in slice elements.
func hasFeatureInSlice(arr []any, featureName string) bool {
	for _, elem := range arr {
		switch v := elem.(type) {
		case map[string]any:
			if hasFeature(v, featureName) {
				return true
			}
		case []any:
			if hasFeatureInSlice(v, featureName) {
				return true
			}
		}
	}
	return false
}
