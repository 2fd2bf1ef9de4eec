/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"fmt"
	"slices"
	"strings"

	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/internal/logger"
	"bennypowers.dev/potrim/schema"
	"bennypowers.dev/potrim/token"
)

// DefaultMaxAliasDepth bounds pathological, non-cyclic alias chains.
const DefaultMaxAliasDepth = 32

// AliasResolver resolves {token.name} references in a flattened token
// table: whole-token aliases, in-string interpolation, and references
// nested inside composite and array values. It carries configuration
// only; each Resolve call is independent.
type AliasResolver struct {
	// Mode controls handling of missing alias targets: ModeError fails,
	// ModeWarn keeps the original reference and fires the warning
	// callback, ModeOff skips validation.
	Mode schema.ValidationMode

	// OnWarning receives warn-mode messages. Defaults to logger.Warn.
	OnWarning schema.WarnFunc

	// MaxDepth bounds alias chain length independently of cycle
	// detection. Zero means DefaultMaxAliasDepth.
	MaxDepth int
}

// NewAliasResolver creates an alias resolver with default settings.
func NewAliasResolver() *AliasResolver {
	return &AliasResolver{}
}

func (r *AliasResolver) warn(format string, args ...any) {
	if r.OnWarning != nil {
		r.OnWarning(format, args...)
		return
	}
	logger.Warn(format, args...)
}

func (r *AliasResolver) maxDepth() int {
	if r.MaxDepth > 0 {
		return r.MaxDepth
	}
	return DefaultMaxAliasDepth
}

// Resolve returns a new table with every alias reference resolved.
// OriginalValue on each token is left untouched, so consumers can
// distinguish "was an alias" from "was a literal". A reference cycle is
// fatal and names the cycle chain.
func (r *AliasResolver) Resolve(tokens token.ResolvedTokens) (token.ResolvedTokens, error) {
	graph := BuildDependencyGraph(tokens)
	if cycle := graph.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %s", schema.ErrCircularReference, strings.Join(cycle, " -> "))
	}

	// Dependencies resolve before dependents so a pure alias can inherit
	// its target's already-final $type.
	sorted, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	pass := &aliasPass{r: r, source: tokens, out: tokens.Clone()}
	for _, name := range sorted {
		tok := pass.out[name]
		if tok == nil {
			continue
		}
		if err := pass.resolveToken(tok); err != nil {
			return nil, err
		}
	}
	return pass.out, nil
}

// aliasPass is the per-call resolution state. Chains are followed over
// the unresolved source table so the depth bound counts declared links,
// while results and inherited types land in out.
type aliasPass struct {
	r      *AliasResolver
	source token.ResolvedTokens
	out    token.ResolvedTokens
}

func (p *aliasPass) resolveToken(tok *token.Token) error {
	if value, ok := tok.Value.(string); ok {
		if path, pure := token.AliasTarget(value); pure {
			return p.resolvePureAlias(tok, path)
		}
	}

	resolved, err := p.resolveValue(tok.Value, tok.Name, []string{tok.Name}, 0)
	if err != nil {
		return err
	}
	tok.Value = resolved
	return nil
}

// resolvePureAlias resolves a whole-token alias, checking declared $type
// consistency against the target and inheriting the target's $type when
// the alias declares none.
func (p *aliasPass) resolvePureAlias(tok *token.Token, path string) error {
	value, found, err := p.follow(path, tok.Name, []string{tok.Name}, 1)
	if err != nil {
		return err
	}
	if !found {
		// Missing target kept in place under warn/off mode.
		return nil
	}

	if target := p.out[path]; target != nil {
		if tok.Type != "" && target.Type != "" && tok.Type != target.Type {
			return fmt.Errorf("%w: token %q declares $type %q but alias target %q has $type %q",
				schema.ErrTokenReference, tok.Name, tok.Type, target.Name, target.Type)
		}
		if tok.Type == "" {
			tok.Type = target.Type
		}
	}

	tok.Value = value
	return nil
}

// follow resolves the alias target named by path, following further
// aliases in the target's declared value. found is false when the target
// is missing and the mode keeps the original reference.
func (p *aliasPass) follow(path, owner string, visited []string, depth int) (any, bool, error) {
	if depth > p.r.maxDepth() {
		return nil, false, fmt.Errorf("%w: alias chain from %q exceeds maximum depth %d",
			schema.ErrCircularReference, owner, p.r.maxDepth())
	}
	if slices.Contains(visited, path) {
		cycle := append(slices.Clone(visited), path)
		return nil, false, fmt.Errorf("%w: %s", schema.ErrCircularReference, strings.Join(cycle, " -> "))
	}

	target := p.source[path]
	if target == nil {
		switch p.r.Mode {
		case schema.ModeWarn:
			p.r.warn("token %q references unknown token %q", owner, path)
			return nil, false, nil
		case schema.ModeOff:
			return nil, false, nil
		default:
			return nil, false, fmt.Errorf("%w: token %q references unknown token %q",
				schema.ErrTokenReference, owner, path)
		}
	}

	value, err := p.resolveValue(target.OriginalValue, owner, append(slices.Clone(visited), path), depth)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// resolveValue resolves aliases inside a value: whole-string aliases
// yield the target's whole value (an array target stays one element,
// never spread into a containing array), substring aliases interpolate
// stringified targets, and composite values resolve field by field.
func (p *aliasPass) resolveValue(v any, owner string, visited []string, depth int) (any, error) {
	switch x := v.(type) {
	case string:
		if path, pure := token.AliasTarget(x); pure {
			value, found, err := p.follow(path, owner, visited, depth+1)
			if err != nil {
				return nil, err
			}
			if !found {
				return x, nil
			}
			return value, nil
		}
		if token.ContainsAlias(x) {
			return p.interpolate(x, owner, visited, depth)
		}
		return x, nil

	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			resolved, err := p.resolveValue(val, owner, visited, depth)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			resolved, err := p.resolveValue(elem, owner, visited, depth)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return document.DeepCopy(v), nil
	}
}

// interpolate substitutes each {token.name} substring with its target's
// stringified resolved value.
func (p *aliasPass) interpolate(value, owner string, visited []string, depth int) (any, error) {
	var firstErr error
	out := token.ReplaceAliases(value, func(path string) string {
		resolved, found, err := p.follow(path, owner, visited, depth+1)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return "{" + path + "}"
		}
		if !found {
			return "{" + path + "}"
		}
		return fmt.Sprintf("%v", resolved)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
