/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package document

import "strings"

// ResolverDocument is a parsed, validated resolver document. It is
// created once per build invocation and never mutated; every transform
// downstream returns new structures.
type ResolverDocument struct {
	// Version is the declared resolver document version.
	Version string

	// Name is the optional document name.
	Name string

	// Sets maps set name to its definition.
	Sets map[string]*Set

	// SetNames holds set names in declaration order.
	SetNames []string

	// Modifiers maps modifier name to its definition.
	Modifiers map[string]*Modifier

	// ModifierNames holds modifier names in declaration order.
	ModifierNames []string

	// ResolutionOrder holds the declared merge order.
	ResolutionOrder []*OrderEntry

	// Dir is the directory the document was loaded from, used as the base
	// for file references. Empty for in-memory documents.
	Dir string

	// Raw is the normalized raw document tree, the root against which
	// pointers in resolutionOrder entries and source lists resolve.
	Raw map[string]any
}

// Set is a named, ordered list of token-source documents always included
// at a fixed point in resolution.
type Set struct {
	// Name is the set's identifier.
	Name string

	// Sources holds the source documents in merge order. Each element is
	// an inline raw tree, a {$ref: path} reference object, or a bare
	// string path used as an implicit source.
	Sources []any
}

// Modifier is a named axis with mutually-exclusive contexts.
type Modifier struct {
	// Name is the modifier's identifier.
	Name string

	// Contexts maps context name to its ordered source list.
	Contexts map[string][]any

	// ContextNames holds context names in declaration order.
	ContextNames []string

	// Default is the context selected when no input is supplied. Empty
	// means the modifier has no default and requires an input.
	Default string
}

// EntryKind distinguishes resolutionOrder entry targets.
type EntryKind int

const (
	// EntrySet is a /sets/<name> entry.
	EntrySet EntryKind = iota

	// EntryModifier is a /modifiers/<name> entry.
	EntryModifier
)

// OrderEntry is one resolutionOrder element: a reference to a set or a
// modifier, with optional sibling override properties.
type OrderEntry struct {
	// Ref is the original reference string, e.g. "#/sets/base".
	Ref string

	// Kind indicates whether Ref targets a set or a modifier.
	Kind EntryKind

	// Target is the referenced set or modifier name.
	Target string

	// Overrides holds sibling properties of the reference object. An
	// override applies before the entry is merged; an object or array
	// override replaces the corresponding value wholesale.
	Overrides map[string]any
}

// ContextChoice is one (modifier, context) selection.
type ContextChoice struct {
	// Modifier is the modifier name, in the document's declared casing.
	Modifier string

	// Context is the selected context name, in the document's declared
	// casing.
	Context string
}

// Permutation is one concrete choice of context per declared modifier,
// in modifier declaration order.
type Permutation []ContextChoice

// Get returns the context chosen for a modifier.
func (p Permutation) Get(modifier string) (string, bool) {
	for _, c := range p {
		if c.Modifier == modifier {
			return c.Context, true
		}
	}
	return "", false
}

// String returns a stable "modifier=context,..." key for the permutation.
func (p Permutation) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.Modifier + "=" + c.Context
	}
	return strings.Join(parts, ",")
}
