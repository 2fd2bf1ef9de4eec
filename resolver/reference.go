/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolver provides the resolver document resolution pipeline:
// reference resolution, group extension resolution, permutation
// enumeration and merging, token flattening, and alias resolution.
package resolver

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/fs"
	"bennypowers.dev/potrim/internal/logger"
	"bennypowers.dev/potrim/parser"
	"bennypowers.dev/potrim/schema"
	"bennypowers.dev/potrim/token"
)

// Scope identifies the document region a reference originates from, so
// forbidden crossings can be rejected.
type Scope int

const (
	// ScopeSource is a reference inside a token source document.
	ScopeSource Scope = iota

	// ScopeSet is a reference inside a set's source list.
	ScopeSet

	// ScopeModifier is a reference inside a modifier context's source list.
	ScopeModifier
)

// ReferenceResolver resolves file-based and pointer-based $ref
// references into concrete plain values. It holds no cross-call state
// beyond its configuration; concurrent resolutions may share one.
type ReferenceResolver struct {
	// FS is the filesystem used for file references.
	FS fs.FileSystem

	// BaseDir is the directory relative file references resolve against.
	BaseDir string

	// Mode controls handling of unresolved references inside $value.
	// Structural reference failures are fatal in every mode.
	Mode schema.ValidationMode

	// OnWarning receives warn-mode messages. Defaults to logger.Warn.
	OnWarning schema.WarnFunc
}

// NewReferenceResolver creates a reference resolver rooted at baseDir.
func NewReferenceResolver(filesystem fs.FileSystem, baseDir string) *ReferenceResolver {
	return &ReferenceResolver{
		FS:      filesystem,
		BaseDir: baseDir,
	}
}

func (r *ReferenceResolver) warn(format string, args ...any) {
	if r.OnWarning != nil {
		r.OnWarning(format, args...)
		return
	}
	logger.Warn(format, args...)
}

// refState tracks one resolution walk: visited references for cycle
// detection and whether the walk is inside a token's $value.
type refState struct {
	root    map[string]any
	scope   Scope
	visited map[string]bool
	inValue bool
}

func (s refState) enter(key string) refState {
	next := s
	if key == "$value" {
		next.inValue = true
	}
	return next
}

// ResolveSource resolves one source-list element into a raw tree. A bare
// string is an implicit file source; a reference object resolves its
// $ref then overlays sibling overrides; an inline tree passes through
// with its embedded references resolved.
func (r *ReferenceResolver) ResolveSource(src any, root map[string]any, scope Scope) (map[string]any, error) {
	state := refState{root: root, scope: scope, visited: map[string]bool{}}

	switch s := src.(type) {
	case string:
		return r.loadFile(s, state)
	case map[string]any:
		resolved, err := r.resolveValue(s, state)
		if err != nil {
			return nil, err
		}
		tree, ok := resolved.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: source must resolve to an object, got %T", schema.ErrInvalidReference, resolved)
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("%w: source must be a string or an object, got %T", schema.ErrConfiguration, src)
	}
}

// Resolve resolves a single value: reference objects are replaced by
// their targets with sibling overrides overlaid, other values pass
// through unchanged.
func (r *ReferenceResolver) Resolve(value any, root map[string]any) (any, error) {
	return r.resolveValue(value, refState{root: root, scope: ScopeSource, visited: map[string]bool{}})
}

// ResolveDeep walks an entire document tree and substitutes every
// embedded reference it finds, recursively, against the supplied root
// document.
func (r *ReferenceResolver) ResolveDeep(tree map[string]any, root map[string]any) (map[string]any, error) {
	resolved, err := r.resolveValue(tree, refState{root: root, scope: ScopeSource, visited: map[string]bool{}})
	if err != nil {
		return nil, err
	}
	out, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document root resolved to %T, not an object", schema.ErrInvalidReference, resolved)
	}
	return out, nil
}

func (r *ReferenceResolver) resolveValue(v any, state refState) (any, error) {
	switch document.KindOf(v) {
	case document.KindReference:
		return r.resolveReference(v.(map[string]any), state)
	case document.KindToken, document.KindGroup:
		m := v.(map[string]any)
		out := make(map[string]any, len(m))
		for key, val := range m {
			resolved, err := r.resolveValue(val, state.enter(key))
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	default:
		if arr, ok := v.([]any); ok {
			out := make([]any, len(arr))
			for i, elem := range arr {
				resolved, err := r.resolveValue(elem, state)
				if err != nil {
					return nil, err
				}
				out[i] = resolved
			}
			return out, nil
		}
		return v, nil
	}
}

// resolveReference resolves a {$ref: X, ...overrides} node.
func (r *ReferenceResolver) resolveReference(node map[string]any, state refState) (any, error) {
	ref, ok := node["$ref"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: $ref must be a string", schema.ErrInvalidReference)
	}

	resolved, err := r.resolveTarget(ref, state)
	if err != nil {
		// Unresolved references inside a token's $value are kept in place
		// under warn mode; structural failures stay fatal.
		if state.inValue && r.Mode != schema.ModeError && !isFatalReference(err) {
			if r.Mode == schema.ModeWarn {
				r.warn("unresolved reference %q left in place: %v", ref, err)
			}
			return document.DeepCopy(node), nil
		}
		return nil, err
	}

	return r.applyOverrides(node, ref, resolved)
}

// isFatalReference reports whether a reference failure must abort even in
// warn mode. A pointer whose target path is missing is always fatal;
// only a missing referenced file is soft.
func isFatalReference(err error) bool {
	return !errors.Is(err, iofs.ErrNotExist)
}

func (r *ReferenceResolver) resolveTarget(ref string, state refState) (any, error) {
	if token.IsJSONPointer(ref) {
		return r.resolvePointer(ref, state)
	}
	return r.loadFile(ref, state)
}

// applyOverrides overlays sibling override properties shallowly onto a
// resolved reference target. Object and array overrides replace the
// corresponding resolved value wholesale.
func (r *ReferenceResolver) applyOverrides(node map[string]any, ref string, resolved any) (any, error) {
	overrides := make(map[string]any, len(node))
	for k, v := range node {
		if k != "$ref" {
			overrides[k] = v
		}
	}
	if len(overrides) == 0 {
		return resolved, nil
	}

	target, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: cannot apply overrides to non-object target of %q", schema.ErrInvalidReference, ref)
	}

	if overrideType, ok := overrides["$type"].(string); ok {
		if targetType, ok := target["$type"].(string); ok && targetType != overrideType {
			return nil, fmt.Errorf("%w: $type %q of reference %q mismatches target $type %q",
				schema.ErrTokenReference, overrideType, ref, targetType)
		}
	}

	out := make(map[string]any, len(target)+len(overrides))
	for k, v := range target {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = document.DeepCopy(v)
	}
	return out, nil
}

// resolvePointer resolves a #/segment/... pointer against the walk's
// root document, one segment at a time. Traversal supports arbitrary
// depth including array indices and scalar leaves. A missing target is
// always fatal.
func (r *ReferenceResolver) resolvePointer(ref string, state refState) (any, error) {
	key := "ptr:" + ref
	if state.visited[key] {
		return nil, fmt.Errorf("%w: pointer %q references itself", schema.ErrCircularReference, ref)
	}
	state.visited[key] = true
	defer delete(state.visited, key)

	segments := token.PointerSegments(ref)
	if segments == nil {
		return nil, fmt.Errorf("%w: malformed pointer %q", schema.ErrInvalidReference, ref)
	}
	if err := checkScope(ref, segments, state.scope); err != nil {
		return nil, err
	}

	var cur any = state.root
	for i, seg := range segments {
		switch c := cur.(type) {
		case map[string]any:
			next, exists := c[seg]
			if !exists {
				return nil, fmt.Errorf("%w: pointer %q has no segment %q", schema.ErrInvalidReference, ref, strings.Join(segments[:i+1], "/"))
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, fmt.Errorf("%w: pointer %q indexes an array with non-integer %q", schema.ErrInvalidReference, ref, seg)
			}
			if idx < 0 || idx >= len(c) {
				return nil, fmt.Errorf("%w: pointer %q index %d out of range (array length %d)", schema.ErrInvalidReference, ref, idx, len(c))
			}
			cur = c[idx]
		default:
			return nil, fmt.Errorf("%w: pointer %q traverses a scalar at %q", schema.ErrInvalidReference, ref, strings.Join(segments[:i], "/"))
		}
	}

	// The target may itself contain references; resolve them against the
	// same root before substitution.
	return r.resolveValue(document.DeepCopy(cur), state)
}

// checkScope rejects pointers into forbidden document regions. A pointer
// into /resolutionOrder is rejected unconditionally; a set source must
// not cross into /modifiers; a modifier context must not reference
// another modifier or a set.
func checkScope(ref string, segments []string, scope Scope) error {
	if segments[0] == "resolutionOrder" {
		return fmt.Errorf("%w: pointer %q targets /resolutionOrder", schema.ErrInvalidReference, ref)
	}
	switch scope {
	case ScopeSet:
		if segments[0] == "modifiers" {
			return fmt.Errorf("%w: set reference %q crosses into /modifiers", schema.ErrInvalidReference, ref)
		}
	case ScopeModifier:
		if segments[0] == "modifiers" || segments[0] == "sets" {
			return fmt.Errorf("%w: modifier context reference %q crosses into /%s", schema.ErrInvalidReference, ref, segments[0])
		}
	}
	return nil
}

// loadFile loads and parses an external token source document. The
// loaded document becomes the root for its own embedded references.
func (r *ReferenceResolver) loadFile(path string, state refState) (map[string]any, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.BaseDir, path)
	}

	key := "file:" + full
	if state.visited[key] {
		return nil, fmt.Errorf("%w: file %q references itself", schema.ErrCircularReference, path)
	}
	state.visited[key] = true
	defer delete(state.visited, key)

	if r.FS == nil {
		return nil, fmt.Errorf("%w: file reference %q requires a filesystem", schema.ErrConfiguration, path)
	}

	tree, err := parser.ParseTokensFile(r.FS, full)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrInvalidReference, err)
	}

	// The loaded file is its own pointer-resolution root.
	fileState := refState{root: tree, scope: ScopeSource, visited: state.visited, inValue: false}
	resolved, err := r.resolveValue(tree, fileState)
	if err != nil {
		return nil, err
	}
	return resolved.(map[string]any), nil
}
