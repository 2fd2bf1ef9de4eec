/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package document provides the raw token tree model and the parsed
// resolver document model.
package document

// Kind classifies a raw tree node. Resolver and flattener code switches
// exhaustively over these variants instead of probing for keys at each
// call site.
type Kind int

const (
	// KindScalar is a leaf value: string, number, bool, nil, or array.
	KindScalar Kind = iota

	// KindToken is a map carrying $value (possibly alongside other
	// $-prefixed metadata).
	KindToken

	// KindReference is a map carrying $ref but no $value: an embedded
	// reference, optionally with sibling override properties.
	KindReference

	// KindGroup is any other map: named children plus optional inheritable
	// $-prefixed metadata.
	KindGroup
)

// String returns the string representation of the node kind.
func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindReference:
		return "reference"
	case KindGroup:
		return "group"
	default:
		return "scalar"
	}
}

// KindOf classifies a raw tree node.
func KindOf(v any) Kind {
	m, ok := v.(map[string]any)
	if !ok {
		return KindScalar
	}
	if _, hasValue := m["$value"]; hasValue {
		return KindToken
	}
	if _, hasRef := m["$ref"]; hasRef {
		return KindReference
	}
	return KindGroup
}

// IsToken reports whether a raw node carries a concrete or referenced
// token value ($value or $ref). Used by the $extends merge, where a
// token on either side replaces wholesale.
func IsToken(v any) bool {
	k := KindOf(v)
	return k == KindToken || k == KindReference
}

// DeepCopy returns a structurally independent copy of a raw tree value.
// Every transform in the pipeline returns a new structure; source
// documents are never mutated.
func DeepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = DeepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = DeepCopy(val)
		}
		return out
	default:
		return x
	}
}

// Merge merges src over dst with last-wins semantics and returns a new
// map: object properties merge key by key recursively, arrays and
// scalars are replaced wholesale by the later source. This is the
// resolutionOrder set/context merge; the token-aware $extends merge is a
// separate operation and must stay separate.
func Merge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = DeepCopy(v)
	}
	for k, v := range src {
		prev, exists := out[k]
		prevMap, prevIsMap := prev.(map[string]any)
		srcMap, srcIsMap := v.(map[string]any)
		if exists && prevIsMap && srcIsMap {
			out[k] = Merge(prevMap, srcMap)
			continue
		}
		out[k] = DeepCopy(v)
	}
	return out
}
