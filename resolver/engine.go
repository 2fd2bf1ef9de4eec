/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"fmt"
	"strings"

	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/schema"
)

// Engine merges a resolver document's sets and modifier contexts per the
// declared resolutionOrder and enumerates permutations. It never mutates
// the parsed document; concurrent resolutions may share one engine.
type Engine struct {
	doc  *document.ResolverDocument
	refs *ReferenceResolver
}

// NewEngine creates an engine over a parsed resolver document.
func NewEngine(doc *document.ResolverDocument, refs *ReferenceResolver) *Engine {
	return &Engine{doc: doc, refs: refs}
}

// Permutations computes the cartesian product of all modifiers' declared
// context names, in modifier-declaration order then context-declaration
// order: one Permutation per combination, deterministic and exhaustive.
func (e *Engine) Permutations() []document.Permutation {
	result := []document.Permutation{{}}
	for _, name := range e.doc.ModifierNames {
		mod := e.doc.Modifiers[name]
		next := make([]document.Permutation, 0, len(result)*len(mod.ContextNames))
		for _, perm := range result {
			for _, ctx := range mod.ContextNames {
				grown := make(document.Permutation, len(perm), len(perm)+1)
				copy(grown, perm)
				next = append(next, append(grown, document.ContextChoice{Modifier: name, Context: ctx}))
			}
		}
		result = next
	}
	return result
}

// Resolve walks resolutionOrder top to bottom, merging each entry's
// reference-resolved sources into one accumulator with last-wins
// semantics, selecting each modifier's context from inputs (or its
// default). It returns the merged raw document plus the resolved
// permutation, whose names preserve the document's declared casing.
func (e *Engine) Resolve(inputs map[string]any) (map[string]any, document.Permutation, error) {
	perm, err := e.resolvePermutation(inputs)
	if err != nil {
		return nil, nil, err
	}

	merged := map[string]any{}
	for i, entry := range e.doc.ResolutionOrder {
		sources, scope, err := e.entrySources(entry, perm)
		if err != nil {
			return nil, nil, fmt.Errorf("resolutionOrder[%d]: %w", i, err)
		}
		for _, src := range sources {
			tree, err := e.refs.ResolveSource(src, e.doc.Raw, scope)
			if err != nil {
				return nil, nil, fmt.Errorf("resolutionOrder[%d]: %w", i, err)
			}
			tree, err = ResolveExtensions(tree)
			if err != nil {
				return nil, nil, fmt.Errorf("resolutionOrder[%d]: %w", i, err)
			}
			tree, err = e.refs.ResolveDeep(tree, tree)
			if err != nil {
				return nil, nil, fmt.Errorf("resolutionOrder[%d]: %w", i, err)
			}
			merged = document.Merge(merged, tree)
		}
	}

	return merged, perm, nil
}

// entrySources selects the source list for one resolutionOrder entry,
// with reference-object overrides applied before merging.
func (e *Engine) entrySources(entry *document.OrderEntry, perm document.Permutation) ([]any, Scope, error) {
	switch entry.Kind {
	case document.EntrySet:
		if override, ok := entry.Overrides["sources"]; ok {
			sources, ok := override.([]any)
			if !ok {
				return nil, ScopeSet, fmt.Errorf("%w: sources override must be an array", schema.ErrConfiguration)
			}
			return sources, ScopeSet, nil
		}
		return e.doc.Sets[entry.Target].Sources, ScopeSet, nil

	case document.EntryModifier:
		mod := e.doc.Modifiers[entry.Target]
		ctx, chosen := perm.Get(mod.Name)
		if !chosen {
			return nil, ScopeModifier, fmt.Errorf("%w: modifier %q requires an input and declares no default", schema.ErrConfiguration, mod.Name)
		}
		if override, ok := entry.Overrides["contexts"]; ok {
			contexts, ok := override.(map[string]any)
			if !ok {
				return nil, ScopeModifier, fmt.Errorf("%w: contexts override must be an object", schema.ErrConfiguration)
			}
			sources, ok := contexts[ctx].([]any)
			if !ok {
				return nil, ScopeModifier, fmt.Errorf("%w: contexts override of modifier %q lacks context %q", schema.ErrConfiguration, mod.Name, ctx)
			}
			return sources, ScopeModifier, nil
		}
		return mod.Contexts[ctx], ScopeModifier, nil
	}
	return nil, ScopeSource, fmt.Errorf("%w: unknown entry kind", schema.ErrConfiguration)
}

// resolvePermutation normalizes inputs case-insensitively against
// declared modifier and context names, applies defaults, and requires an
// input for any defaultless modifier referenced by resolutionOrder.
func (e *Engine) resolvePermutation(inputs map[string]any) (document.Permutation, error) {
	chosen := make(map[string]string, len(inputs))
	for key, raw := range inputs {
		value, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: input %q must be a string, got %T", schema.ErrConfiguration, key, raw)
		}

		mod := e.findModifier(key)
		if mod == nil {
			return nil, fmt.Errorf("%w: input %q matches no declared modifier", schema.ErrConfiguration, key)
		}

		ctx := findFold(mod.ContextNames, value)
		if ctx == "" {
			return nil, fmt.Errorf("%w: input %q of modifier %q matches no declared context", schema.ErrConfiguration, value, mod.Name)
		}
		chosen[mod.Name] = ctx
	}

	perm := make(document.Permutation, 0, len(e.doc.ModifierNames))
	for _, name := range e.doc.ModifierNames {
		mod := e.doc.Modifiers[name]
		ctx, supplied := chosen[name]
		if !supplied {
			if mod.Default == "" {
				if e.orderReferences(name) {
					return nil, fmt.Errorf("%w: missing input for modifier %q", schema.ErrConfiguration, name)
				}
				continue
			}
			ctx = mod.Default
		}
		perm = append(perm, document.ContextChoice{Modifier: name, Context: ctx})
	}
	return perm, nil
}

func (e *Engine) findModifier(name string) *document.Modifier {
	for _, declared := range e.doc.ModifierNames {
		if strings.EqualFold(declared, name) {
			return e.doc.Modifiers[declared]
		}
	}
	return nil
}

func findFold(declared []string, name string) string {
	for _, d := range declared {
		if strings.EqualFold(d, name) {
			return d
		}
	}
	return ""
}

func (e *Engine) orderReferences(modifier string) bool {
	for _, entry := range e.doc.ResolutionOrder {
		if entry.Kind == document.EntryModifier && entry.Target == modifier {
			return true
		}
	}
	return false
}
