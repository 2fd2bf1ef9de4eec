/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package formatter provides the interface and common utilities for
// resolved token formatters.
package formatter

import (
	"sort"
	"strings"
	"unicode"

	"bennypowers.dev/potrim/token"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format converts resolved tokens to the target format.
	Format(tokens []*token.Token, opts Options) ([]byte, error)
}

// Options configures formatter behavior.
type Options struct {
	// Prefix is added to output variable names.
	Prefix string

	// Delimiter is the separator for flattened keys.
	// Zero value is empty string; consuming code should set "-" if needed.
	Delimiter string

	// Banner is an optional heading emitted before the output, typically
	// the permutation the tokens were resolved for.
	Banner string
}

// SortTokens returns a copy of tokens sorted by name.
func SortTokens(tokens []*token.Token) []*token.Token {
	sorted := make([]*token.Token, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// ApplyPrefix adds a prefix to a name with the given delimiter.
func ApplyPrefix(name, prefix, delimiter string) string {
	if prefix == "" {
		return name
	}
	return prefix + delimiter + name
}

// ToKebabCase converts a string to kebab-case.
func ToKebabCase(s string) string {
	words := SplitIntoWords(s)
	return strings.ToLower(strings.Join(words, "-"))
}

// SplitIntoWords splits a string on hyphens, underscores, dots, and camelCase boundaries.
func SplitIntoWords(s string) []string {
	var words []string
	var current strings.Builder

	for i, r := range s {
		if r == '-' || r == '_' || r == '.' || r == ' ' {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		} else if unicode.IsUpper(r) && i > 0 {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
			current.WriteRune(r)
		} else {
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
