/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package token

import (
	"regexp"
	"strings"
)

var (
	// curlyBracePattern matches {token.path} alias references.
	curlyBracePattern = regexp.MustCompile(`\{([^{}]+)\}`)

	// jsonPointerPattern matches JSON pointer references: #/path/to/token
	jsonPointerPattern = regexp.MustCompile(`^#/(.+)$`)

	// namePattern matches valid token and group name segments. Segments
	// must not contain alias or path delimiter characters and must not
	// start with $.
	namePattern = regexp.MustCompile(`^[^$.{}][^.{}]*$`)
)

// IsAlias reports whether value is exactly one {token.path} reference,
// meaning it resolves to the whole target token's value.
func IsAlias(value string) bool {
	m := curlyBracePattern.FindStringIndex(value)
	return m != nil && m[0] == 0 && m[1] == len(value)
}

// AliasTarget extracts the token path from a whole-string alias.
// Returns the path and true if value is a pure alias.
func AliasTarget(value string) (string, bool) {
	if !IsAlias(value) {
		return "", false
	}
	return strings.Trim(value, "{}"), true
}

// ContainsAlias reports whether value contains at least one {token.path}
// reference, possibly as a substring to interpolate.
func ContainsAlias(value string) bool {
	return curlyBracePattern.MatchString(value)
}

// ExtractAliases extracts all {token.path} references from a string.
func ExtractAliases(value string) []string {
	matches := curlyBracePattern.FindAllStringSubmatch(value, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) >= 2 {
			refs = append(refs, m[1])
		}
	}
	return refs
}

// ReplaceAliases substitutes every {token.path} reference in value with
// the string returned by the replace callback.
func ReplaceAliases(value string, replace func(path string) string) string {
	return curlyBracePattern.ReplaceAllStringFunc(value, func(match string) string {
		return replace(strings.Trim(match, "{}"))
	})
}

// IsJSONPointer reports whether ref is a #/segment/... pointer.
func IsJSONPointer(ref string) bool {
	return jsonPointerPattern.MatchString(ref)
}

// PointerSegments splits a #/a/b pointer into path segments, decoding
// RFC 6901 escape sequences.
func PointerSegments(ref string) []string {
	matches := jsonPointerPattern.FindStringSubmatch(ref)
	if len(matches) != 2 {
		return nil
	}
	parts := strings.Split(matches[1], "/")
	// Order matters: ~1 must be replaced before ~0
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		parts[i] = part
	}
	return parts
}

// ValidName reports whether a path segment is a valid token or group
// identifier.
func ValidName(segment string) bool {
	return namePattern.MatchString(segment)
}
