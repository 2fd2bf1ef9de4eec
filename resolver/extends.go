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
	"bennypowers.dev/potrim/schema"
	"bennypowers.dev/potrim/token"
)

// ResolveExtensions resolves and strips every $extends in a raw token
// tree, returning a new tree. For group G extending R, R's own extension
// chain resolves first, then G deep-merges over the resolved R: $-prefixed
// metadata and tokens from G replace outright, nested groups merge
// recursively. Child groups then resolve their own extensions
// independently.
func ResolveExtensions(doc map[string]any) (map[string]any, error) {
	work := document.DeepCopy(doc).(map[string]any)
	resolved, err := resolveGroupExtensions(work, work, nil, nil)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// resolveGroupExtensions resolves node's own $extends, then its
// children's, in place within root. chain holds the dot paths of groups
// currently being resolved along this branch, for cycle reporting.
func resolveGroupExtensions(root, node map[string]any, path []string, chain []string) (map[string]any, error) {
	pathKey := strings.Join(path, ".")

	if rawRef, present := node["$extends"]; present {
		ref, ok := rawRef.(string)
		if !ok {
			return nil, fmt.Errorf("%w: $extends at %q must be a string", schema.ErrValidation, pathKey)
		}

		targetPath, err := parseGroupReference(ref)
		if err != nil {
			return nil, fmt.Errorf("%w at %q", err, pathKey)
		}
		targetKey := strings.Join(targetPath, ".")

		branch := append(slices.Clone(chain), pathKey)
		if slices.Contains(branch, targetKey) {
			cycle := append(branch[slices.Index(branch, targetKey):], targetKey)
			return nil, fmt.Errorf("%w in $extends: %s", schema.ErrCircularReference, strings.Join(cycle, " -> "))
		}

		target, err := lookupGroup(root, targetPath, ref)
		if err != nil {
			return nil, err
		}

		// Resolve the target's own extension chain first, so multi-level
		// inheritance flows down.
		resolvedTarget, err := resolveGroupExtensions(root, target, targetPath, branch)
		if err != nil {
			return nil, err
		}
		setPath(root, targetPath, resolvedTarget)

		node = extendMerge(resolvedTarget, node)
		setPath(root, path, node)
	}

	// Child groups resolve their own, possibly unrelated, extensions.
	for key, child := range node {
		if strings.HasPrefix(key, "$") {
			continue
		}
		childMap, ok := child.(map[string]any)
		if !ok || document.IsToken(childMap) {
			continue
		}
		resolvedChild, err := resolveGroupExtensions(root, childMap, append(slices.Clone(path), key), chain)
		if err != nil {
			return nil, err
		}
		node[key] = resolvedChild
	}

	return node, nil
}

// parseGroupReference accepts "{dot.path}" or "#/json/pointer" group
// reference syntax and returns the target path segments.
func parseGroupReference(ref string) ([]string, error) {
	if target, ok := token.AliasTarget(ref); ok {
		return strings.Split(target, "."), nil
	}
	if segments := token.PointerSegments(ref); segments != nil {
		return segments, nil
	}
	return nil, fmt.Errorf("%w: invalid group reference format %q", schema.ErrValidation, ref)
}

// lookupGroup walks root to the referenced group.
func lookupGroup(root map[string]any, path []string, ref string) (map[string]any, error) {
	var cur any = root
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot find target group %q", schema.ErrValidation, ref)
		}
		next, exists := m[seg]
		if !exists {
			return nil, fmt.Errorf("%w: cannot find target group %q", schema.ErrValidation, ref)
		}
		cur = next
	}

	group, ok := cur.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: $extends target %q is not a group", schema.ErrValidation, ref)
	}
	if document.IsToken(group) {
		return nil, fmt.Errorf("%w: $extends target %q is a token, not a group", schema.ErrValidation, ref)
	}
	return group, nil
}

// setPath writes a resolved group back into root. The document root
// itself is updated in place by its callers.
func setPath(root map[string]any, path []string, value map[string]any) {
	if len(path) == 0 {
		return
	}
	var cur any = root
	for _, seg := range path[:len(path)-1] {
		m, ok := cur.(map[string]any)
		if !ok {
			return
		}
		cur = m[seg]
	}
	if m, ok := cur.(map[string]any); ok {
		m[path[len(path)-1]] = value
	}
}

// extendMerge deep-merges child over base with token-aware semantics:
// $-prefixed metadata from child overrides outright, a token on either
// side replaces wholesale, and groups on both sides merge recursively.
// This is deliberately distinct from the resolutionOrder merge in
// document.Merge.
func extendMerge(base, child map[string]any) map[string]any {
	out := document.DeepCopy(base).(map[string]any)
	delete(out, "$extends")

	for key, value := range child {
		if key == "$extends" {
			continue
		}
		if strings.HasPrefix(key, "$") {
			out[key] = document.DeepCopy(value)
			continue
		}

		prev, exists := out[key]
		if !exists || document.IsToken(value) || document.IsToken(prev) {
			out[key] = document.DeepCopy(value)
			continue
		}

		prevMap, prevIsMap := prev.(map[string]any)
		childMap, childIsMap := value.(map[string]any)
		if prevIsMap && childIsMap {
			out[key] = extendMerge(prevMap, childMap)
			continue
		}
		out[key] = document.DeepCopy(value)
	}

	return out
}
