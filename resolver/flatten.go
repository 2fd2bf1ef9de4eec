/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/internal/logger"
	"bennypowers.dev/potrim/schema"
	"bennypowers.dev/potrim/token"
)

// FlattenOptions configures token flattening.
type FlattenOptions struct {
	// Mode controls token name validation: ModeError fails on an invalid
	// identifier, ModeWarn logs and keeps the token, ModeOff skips the
	// check.
	Mode schema.ValidationMode

	// OnWarning receives warn-mode messages. Defaults to logger.Warn.
	OnWarning schema.WarnFunc
}

// inherited carries group-level defaults down to descendant tokens.
type inherited struct {
	typ                string
	description        string
	deprecated         bool
	deprecationMessage string
	hasDeprecated      bool
}

// Flatten converts a merged raw tree into a flat name→token table keyed
// by dot-joined path. Group-level $type, $description, and $deprecated
// become defaults for descendants that omit their own; a $root child is
// emitted at the group's own path.
func Flatten(tree map[string]any, opts FlattenOptions) (token.ResolvedTokens, error) {
	result := token.ResolvedTokens{}
	if err := flattenGroup(tree, nil, inherited{}, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

func flattenGroup(group map[string]any, path []string, inh inherited, opts FlattenOptions, result token.ResolvedTokens) error {
	inh = inheritFrom(group, inh)

	if root, present := group["$root"]; present && len(path) > 0 {
		rootMap, ok := root.(map[string]any)
		if !ok || !document.IsToken(rootMap) {
			return fmt.Errorf("%w: $root of group %q must be a token", schema.ErrValidation, strings.Join(path, "."))
		}
		result[strings.Join(path, ".")] = makeToken(rootMap, path, inh)
	}

	keys := make([]string, 0, len(group))
	for key := range group {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.HasPrefix(key, "$") {
			continue
		}
		value := group[key]

		if err := checkName(key, path, opts); err != nil {
			return err
		}

		childPath := append(slices.Clone(path), key)
		switch document.KindOf(value) {
		case document.KindToken, document.KindReference:
			// A reference node here survived warn-mode resolution; it is
			// carried through so downstream consumers see the original.
			result[strings.Join(childPath, ".")] = makeToken(value.(map[string]any), childPath, inh)
		case document.KindGroup:
			if err := flattenGroup(value.(map[string]any), childPath, inh, opts, result); err != nil {
				return err
			}
		case document.KindScalar:
			// Bare scalars in a group carry no token semantics.
		}
	}
	return nil
}

func checkName(key string, path []string, opts FlattenOptions) error {
	if opts.Mode == schema.ModeOff || token.ValidName(key) {
		return nil
	}
	name := strings.Join(append(slices.Clone(path), key), ".")
	if opts.Mode == schema.ModeWarn {
		warn := opts.OnWarning
		if warn == nil {
			warn = logger.Warn
		}
		warn("invalid token name %q", name)
		return nil
	}
	return fmt.Errorf("%w: invalid token name %q", schema.ErrValidation, name)
}

func inheritFrom(group map[string]any, inh inherited) inherited {
	if t, ok := group["$type"].(string); ok {
		inh.typ = t
	}
	if d, ok := group["$description"].(string); ok {
		inh.description = d
	}
	if dep, present := group["$deprecated"]; present {
		inh.hasDeprecated = true
		switch v := dep.(type) {
		case bool:
			inh.deprecated = v
			inh.deprecationMessage = ""
		case string:
			inh.deprecated = true
			inh.deprecationMessage = v
		}
	}
	return inh
}

func makeToken(m map[string]any, path []string, inh inherited) *token.Token {
	value := document.DeepCopy(m["$value"])
	if value == nil {
		if _, hasRef := m["$ref"]; hasRef {
			value = document.DeepCopy(m)
		}
	}

	t := &token.Token{
		Name:          strings.Join(path, "."),
		Path:          slices.Clone(path),
		Value:         value,
		OriginalValue: document.DeepCopy(value),
	}

	if typ, ok := m["$type"].(string); ok {
		t.Type = typ
	} else {
		t.Type = inh.typ
	}
	if desc, ok := m["$description"].(string); ok {
		t.Description = desc
	} else {
		t.Description = inh.description
	}
	if dep, present := m["$deprecated"]; present {
		switch v := dep.(type) {
		case bool:
			t.Deprecated = v
		case string:
			t.Deprecated = true
			t.DeprecationMessage = v
		}
	} else if inh.hasDeprecated {
		t.Deprecated = inh.deprecated
		t.DeprecationMessage = inh.deprecationMessage
	}
	if ext, ok := m["$extensions"].(map[string]any); ok {
		t.Extensions = ext
	}

	return t
}
