/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package token provides flattened design token types.
package token

import (
	"sort"
	"strings"
)

// Token is one flattened design token.
type Token struct {
	// Name is the token's dot-joined path (e.g., "color.primary").
	Name string `json:"name"`

	// Path is the literal path segment list.
	Path []string `json:"-"`

	// Value is the token's value. After alias resolution it holds the
	// fully resolved value.
	Value any `json:"$value"`

	// Type specifies the type of token (color, dimension, etc.), either
	// declared on the token or inherited from an enclosing group.
	Type string `json:"$type,omitempty"`

	// Description is optional documentation for the token.
	Description string `json:"$description,omitempty"`

	// Deprecated indicates if this token should no longer be used.
	Deprecated bool `json:"$deprecated,omitempty"`

	// DeprecationMessage provides context for deprecated tokens.
	DeprecationMessage string `json:"deprecationMessage,omitempty"`

	// Extensions allows for custom metadata.
	Extensions map[string]any `json:"$extensions,omitempty"`

	// OriginalValue is the value before alias resolution, so consumers
	// can distinguish "was an alias" from "was a literal".
	OriginalValue any `json:"-"`
}

// Clone returns a shallow-metadata, deep-value copy of the token.
func (t *Token) Clone() *Token {
	out := *t
	out.Path = append([]string(nil), t.Path...)
	return &out
}

// DotPath returns the dot-separated path to this token.
func (t *Token) DotPath() string {
	return strings.Join(t.Path, ".")
}

// CSSVariableName returns the CSS custom property name for this token.
// e.g., "--color-primary" or "--my-prefix-color-primary"
func (t *Token) CSSVariableName(prefix string) string {
	name := strings.ReplaceAll(t.Name, ".", "-")
	if prefix != "" {
		prefix = strings.ReplaceAll(prefix, ".", "-")
		return "--" + prefix + "-" + name
	}
	return "--" + name
}

// ResolvedTokens maps token name to flattened token: the pipeline output
// for one permutation.
type ResolvedTokens map[string]*Token

// Names returns token names in sorted order for deterministic output.
func (r ResolvedTokens) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns tokens sorted by name.
func (r ResolvedTokens) Sorted() []*Token {
	names := r.Names()
	out := make([]*Token, len(names))
	for i, name := range names {
		out[i] = r[name]
	}
	return out
}

// Clone returns a new table with cloned tokens.
func (r ResolvedTokens) Clone() ResolvedTokens {
	out := make(ResolvedTokens, len(r))
	for name, tok := range r {
		out[name] = tok.Clone()
	}
	return out
}
