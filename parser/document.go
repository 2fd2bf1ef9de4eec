/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/fs"
	"bennypowers.dev/potrim/schema"
	"bennypowers.dev/potrim/token"
)

// ParseResolverDocument parses and validates resolver document data.
// JSON, JSONC, and YAML input are accepted. Declaration order of sets,
// modifiers, and contexts is preserved.
func ParseResolverDocument(data []byte) (*document.ResolverDocument, error) {
	if isLikelyJSON(data) {
		data = jsonc.ToJSON(data)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: failed to parse resolver document: %v", schema.ErrConfiguration, err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: resolver document root must be an object", schema.ErrConfiguration)
	}

	raw, err := decodeNode(root.Content[0])
	if err != nil {
		return nil, err
	}
	rawMap, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: resolver document root must be an object", schema.ErrConfiguration)
	}

	order := documentOrder(root.Content[0])
	return buildDocument(rawMap, order)
}

// ParseResolverDocumentFile parses a resolver document from a file and
// records its directory as the base for file references.
func ParseResolverDocumentFile(filesystem fs.FileSystem, path string) (*document.ResolverDocument, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	doc, err := ParseResolverDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Dir = filepath.Dir(path)
	return doc, nil
}

// ParseResolverDocumentValue builds a resolver document from an
// in-memory object. Go maps carry no declaration order, so sets,
// modifiers, and contexts are ordered by sorted name for determinism.
func ParseResolverDocumentValue(v any) (*document.ResolverDocument, error) {
	normalized := normalizeMap(v)
	rawMap, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: resolver document must be an object", schema.ErrConfiguration)
	}
	return buildDocument(rawMap, sortedOrder(rawMap))
}

// keyOrder records declaration order for the order-sensitive regions of
// a resolver document.
type keyOrder struct {
	sets      []string
	modifiers []string
	// contexts maps modifier name to its context declaration order.
	contexts map[string][]string
}

// documentOrder extracts declaration order from the yaml AST.
func documentOrder(node *yaml.Node) keyOrder {
	order := keyOrder{contexts: make(map[string][]string)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		switch key {
		case "sets":
			order.sets = mappingKeys(value)
		case "modifiers":
			order.modifiers = mappingKeys(value)
			for j := 0; j+1 < len(value.Content); j += 2 {
				modName := value.Content[j].Value
				modNode := value.Content[j+1]
				for k := 0; k+1 < len(modNode.Content); k += 2 {
					if modNode.Content[k].Value == "contexts" {
						order.contexts[modName] = mappingKeys(modNode.Content[k+1])
					}
				}
			}
		}
	}
	return order
}

// mappingKeys returns the keys of a mapping node in declaration order.
func mappingKeys(node *yaml.Node) []string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

// sortedOrder derives a deterministic order for in-memory documents.
func sortedOrder(raw map[string]any) keyOrder {
	order := keyOrder{contexts: make(map[string][]string)}
	if sets, ok := raw["sets"].(map[string]any); ok {
		order.sets = sortedKeys(sets)
	}
	if modifiers, ok := raw["modifiers"].(map[string]any); ok {
		order.modifiers = sortedKeys(modifiers)
		for name, v := range modifiers {
			if mod, ok := v.(map[string]any); ok {
				if contexts, ok := mod["contexts"].(map[string]any); ok {
					order.contexts[name] = sortedKeys(contexts)
				}
			}
		}
	}
	return order
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// decodeNode decodes a yaml node into plain Go values with normalized
// map types.
func decodeNode(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrConfiguration, err)
	}
	return normalizeMap(v), nil
}

// buildDocument assembles and validates a resolver document from a raw
// tree plus declaration order.
func buildDocument(raw map[string]any, order keyOrder) (*document.ResolverDocument, error) {
	doc := &document.ResolverDocument{
		Sets:      make(map[string]*document.Set),
		Modifiers: make(map[string]*document.Modifier),
		Raw:       raw,
	}

	version, ok := raw["version"].(string)
	if !ok || version == "" {
		return nil, fmt.Errorf("%w: missing version", schema.ErrConfiguration)
	}
	doc.Version = version
	if name, ok := raw["name"].(string); ok {
		doc.Name = name
	}

	if err := buildSets(doc, raw, order); err != nil {
		return nil, err
	}
	if err := buildModifiers(doc, raw, order); err != nil {
		return nil, err
	}
	if err := buildResolutionOrder(doc, raw); err != nil {
		return nil, err
	}
	if err := checkForbiddenPointers(raw); err != nil {
		return nil, err
	}
	return doc, nil
}

func buildSets(doc *document.ResolverDocument, raw map[string]any, order keyOrder) error {
	rawSets, ok := raw["sets"].(map[string]any)
	if !ok {
		if _, present := raw["sets"]; present {
			return fmt.Errorf("%w: sets must be an object", schema.ErrConfiguration)
		}
		return nil
	}

	doc.SetNames = order.sets
	for _, name := range order.sets {
		body, ok := rawSets[name].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: set %q must be an object", schema.ErrConfiguration, name)
		}
		sources, ok := body["sources"].([]any)
		if !ok {
			return fmt.Errorf("%w: set %q is missing a sources array", schema.ErrConfiguration, name)
		}
		doc.Sets[name] = &document.Set{Name: name, Sources: sources}
	}
	return nil
}

func buildModifiers(doc *document.ResolverDocument, raw map[string]any, order keyOrder) error {
	rawModifiers, ok := raw["modifiers"].(map[string]any)
	if !ok {
		if _, present := raw["modifiers"]; present {
			return fmt.Errorf("%w: modifiers must be an object", schema.ErrConfiguration)
		}
		return nil
	}

	doc.ModifierNames = order.modifiers
	for _, name := range order.modifiers {
		body, ok := rawModifiers[name].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: modifier %q must be an object", schema.ErrConfiguration, name)
		}
		rawContexts, ok := body["contexts"].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: modifier %q is missing contexts", schema.ErrConfiguration, name)
		}
		if len(rawContexts) < 2 {
			return fmt.Errorf("%w: modifier %q must declare at least two contexts", schema.ErrConfiguration, name)
		}

		mod := &document.Modifier{
			Name:         name,
			Contexts:     make(map[string][]any, len(rawContexts)),
			ContextNames: order.contexts[name],
		}
		for _, ctxName := range mod.ContextNames {
			sources, ok := rawContexts[ctxName].([]any)
			if !ok {
				return fmt.Errorf("%w: context %q of modifier %q must be an array", schema.ErrConfiguration, ctxName, name)
			}
			mod.Contexts[ctxName] = sources
		}

		if def, present := body["default"]; present {
			defStr, ok := def.(string)
			if !ok {
				return fmt.Errorf("%w: default of modifier %q must be a string", schema.ErrConfiguration, name)
			}
			if _, declared := mod.Contexts[defStr]; !declared {
				return fmt.Errorf("%w: default %q of modifier %q is not a declared context", schema.ErrConfiguration, defStr, name)
			}
			mod.Default = defStr
		}

		doc.Modifiers[name] = mod
	}
	return nil
}

func buildResolutionOrder(doc *document.ResolverDocument, raw map[string]any) error {
	rawOrder, ok := raw["resolutionOrder"].([]any)
	if !ok {
		return fmt.Errorf("%w: missing resolutionOrder", schema.ErrConfiguration)
	}

	for i, rawEntry := range rawOrder {
		entry, err := parseOrderEntry(rawEntry)
		if err != nil {
			return fmt.Errorf("resolutionOrder[%d]: %w", i, err)
		}
		switch entry.Kind {
		case document.EntrySet:
			if _, exists := doc.Sets[entry.Target]; !exists {
				return fmt.Errorf("%w: resolutionOrder[%d] references unknown set %q", schema.ErrConfiguration, i, entry.Target)
			}
		case document.EntryModifier:
			if _, exists := doc.Modifiers[entry.Target]; !exists {
				return fmt.Errorf("%w: resolutionOrder[%d] references unknown modifier %q", schema.ErrConfiguration, i, entry.Target)
			}
		}
		doc.ResolutionOrder = append(doc.ResolutionOrder, entry)
	}
	return nil
}

// parseOrderEntry parses one resolutionOrder element: a bare pointer
// string or a reference object with sibling overrides.
func parseOrderEntry(v any) (*document.OrderEntry, error) {
	var ref string
	overrides := map[string]any{}

	switch x := v.(type) {
	case string:
		ref = x
	case map[string]any:
		refValue, ok := x["$ref"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: entry must carry a $ref string", schema.ErrConfiguration)
		}
		ref = refValue
		for k, val := range x {
			if k != "$ref" {
				overrides[k] = val
			}
		}
	default:
		return nil, fmt.Errorf("%w: entry must be a string or a reference object", schema.ErrConfiguration)
	}

	segments := token.PointerSegments(ref)
	if len(segments) != 2 {
		return nil, fmt.Errorf("%w: %q must point to /sets/<name> or /modifiers/<name>", schema.ErrConfiguration, ref)
	}

	entry := &document.OrderEntry{Ref: ref, Target: segments[1], Overrides: overrides}
	switch segments[0] {
	case "sets":
		entry.Kind = document.EntrySet
	case "modifiers":
		entry.Kind = document.EntryModifier
	default:
		return nil, fmt.Errorf("%w: %q must point to /sets/<name> or /modifiers/<name>", schema.ErrConfiguration, ref)
	}
	return entry, nil
}

// checkForbiddenPointers rejects any $ref or $extends anywhere in the
// document that points into /resolutionOrder. This check is
// unconditional; no validation mode relaxes it.
func checkForbiddenPointers(v any) error {
	switch x := v.(type) {
	case map[string]any:
		for key, val := range x {
			if key == "$ref" || key == "$extends" {
				if ref, ok := val.(string); ok && pointsIntoResolutionOrder(ref) {
					return fmt.Errorf("%w: pointer %q targets /resolutionOrder", schema.ErrInvalidReference, ref)
				}
			}
			if err := checkForbiddenPointers(val); err != nil {
				return err
			}
		}
	case []any:
		for _, elem := range x {
			if err := checkForbiddenPointers(elem); err != nil {
				return err
			}
		}
	case string:
		if pointsIntoResolutionOrder(x) {
			return fmt.Errorf("%w: pointer %q targets /resolutionOrder", schema.ErrInvalidReference, x)
		}
	}
	return nil
}

func pointsIntoResolutionOrder(ref string) bool {
	return ref == "#/resolutionOrder" || strings.HasPrefix(ref, "#/resolutionOrder/")
}
