/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"errors"
	"reflect"
	"testing"

	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/parser"
	"bennypowers.dev/potrim/schema"
)

// engineDoc builds a parsed in-memory resolver document for engine tests.
func engineDoc(t *testing.T, v map[string]any) *document.ResolverDocument {
	t.Helper()
	doc, err := parser.ParseResolverDocumentValue(v)
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}
	return doc
}

func twoModifierDoc(t *testing.T) *document.ResolverDocument {
	return engineDoc(t, map[string]any{
		"version": "2025-10-01",
		"sets": map[string]any{
			"core": map[string]any{
				"sources": []any{
					map[string]any{
						"color": map[string]any{
							"bg": map[string]any{"$value": "#ffffff"},
							"fg": map[string]any{"$value": "#000000"},
						},
					},
				},
			},
		},
		"modifiers": map[string]any{
			"density": map[string]any{
				"contexts": map[string]any{
					"comfortable": []any{
						map[string]any{"space": map[string]any{"$value": "8px"}},
					},
					"compact": []any{
						map[string]any{"space": map[string]any{"$value": "4px"}},
					},
				},
				"default": "comfortable",
			},
			"theme": map[string]any{
				"contexts": map[string]any{
					"dark": []any{
						map[string]any{
							"color": map[string]any{
								"bg": map[string]any{"$value": "#000000"},
							},
						},
					},
					"light": []any{},
				},
				"default": "light",
			},
		},
		"resolutionOrder": []any{
			"#/sets/core",
			"#/modifiers/theme",
			"#/modifiers/density",
		},
	})
}

func TestPermutations_CardinalityAndOrder(t *testing.T) {
	engine := NewEngine(twoModifierDoc(t), nil)
	perms := engine.Permutations()

	if len(perms) != 4 {
		t.Fatalf("expected 4 permutations, got %d", len(perms))
	}

	// Deterministic: modifier declaration order, then context declaration
	// order. In-memory documents sort names.
	var keys []string
	for _, perm := range perms {
		keys = append(keys, perm.String())
	}
	want := []string{
		"density=comfortable,theme=dark",
		"density=comfortable,theme=light",
		"density=compact,theme=dark",
		"density=compact,theme=light",
	}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("permutation order = %v, want %v", keys, want)
	}

	again := engine.Permutations()
	for i := range again {
		if again[i].String() != perms[i].String() {
			t.Fatal("permutation enumeration is not deterministic")
		}
	}
}

func TestResolve_LaterEntryWins(t *testing.T) {
	engine := NewEngine(twoModifierDoc(t), NewReferenceResolver(nil, ""))

	merged, _, err := engine.Resolve(map[string]any{"theme": "dark"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	color := merged["color"].(map[string]any)
	if v := color["bg"].(map[string]any)["$value"]; v != "#000000" {
		t.Errorf("modifier context should override set value: %v", v)
	}
	if v := color["fg"].(map[string]any)["$value"]; v != "#000000" {
		t.Errorf("unrelated token should survive: %v", v)
	}
	if v := merged["space"].(map[string]any)["$value"]; v != "8px" {
		t.Errorf("default density context should apply: %v", v)
	}
}

func TestResolve_DefaultsApply(t *testing.T) {
	engine := NewEngine(twoModifierDoc(t), NewReferenceResolver(nil, ""))

	_, perm, err := engine.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := perm.String(); got != "density=comfortable,theme=light" {
		t.Errorf("default permutation = %q", got)
	}
}

func TestResolve_CaseInsensitiveInputs(t *testing.T) {
	engine := NewEngine(twoModifierDoc(t), NewReferenceResolver(nil, ""))

	_, perm, err := engine.Resolve(map[string]any{"THEME": "Dark", "Density": "COMPACT"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Resolved names preserve the document's declared casing.
	if got := perm.String(); got != "density=compact,theme=dark" {
		t.Errorf("permutation = %q", got)
	}
}

func TestResolve_UnknownInputs(t *testing.T) {
	engine := NewEngine(twoModifierDoc(t), NewReferenceResolver(nil, ""))

	_, _, err := engine.Resolve(map[string]any{"contrast": "high"})
	if !errors.Is(err, schema.ErrConfiguration) {
		t.Errorf("unknown modifier input: expected ErrConfiguration, got %v", err)
	}

	_, _, err = engine.Resolve(map[string]any{"theme": "sepia"})
	if !errors.Is(err, schema.ErrConfiguration) {
		t.Errorf("unknown context input: expected ErrConfiguration, got %v", err)
	}

	_, _, err = engine.Resolve(map[string]any{"theme": 3})
	if !errors.Is(err, schema.ErrConfiguration) {
		t.Errorf("non-string input: expected ErrConfiguration, got %v", err)
	}
}

func TestResolve_MissingInputForDefaultlessModifier(t *testing.T) {
	doc := engineDoc(t, map[string]any{
		"version": "1",
		"modifiers": map[string]any{
			"theme": map[string]any{
				"contexts": map[string]any{
					"light": []any{},
					"dark":  []any{},
				},
			},
		},
		"resolutionOrder": []any{"#/modifiers/theme"},
	})
	engine := NewEngine(doc, NewReferenceResolver(nil, ""))

	_, _, err := engine.Resolve(nil)
	if !errors.Is(err, schema.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for missing input, got %v", err)
	}

	if _, _, err := engine.Resolve(map[string]any{"theme": "dark"}); err != nil {
		t.Errorf("supplying the input should succeed: %v", err)
	}
}

func TestResolve_UnreferencedDefaultlessModifierOmitted(t *testing.T) {
	doc := engineDoc(t, map[string]any{
		"version": "1",
		"modifiers": map[string]any{
			"theme": map[string]any{
				"contexts": map[string]any{"light": []any{}, "dark": []any{}},
			},
		},
		"resolutionOrder": []any{},
	})
	engine := NewEngine(doc, NewReferenceResolver(nil, ""))

	_, perm, err := engine.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(perm) != 0 {
		t.Errorf("modifier not referenced by resolutionOrder should be omitted: %v", perm)
	}
}

func TestResolve_OrderEntrySourcesOverride(t *testing.T) {
	doc := engineDoc(t, map[string]any{
		"version": "1",
		"sets": map[string]any{
			"core": map[string]any{
				"sources": []any{
					map[string]any{"a": map[string]any{"$value": "1"}},
				},
			},
		},
		"resolutionOrder": []any{
			map[string]any{
				"$ref": "#/sets/core",
				"sources": []any{
					map[string]any{"b": map[string]any{"$value": "2"}},
				},
			},
		},
	})
	engine := NewEngine(doc, NewReferenceResolver(nil, ""))

	merged, _, err := engine.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, present := merged["a"]; present {
		t.Error("sources override should replace the declared list wholesale")
	}
	if v := merged["b"].(map[string]any)["$value"]; v != "2" {
		t.Errorf("override source missing: %v", merged)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	engine := NewEngine(twoModifierDoc(t), NewReferenceResolver(nil, ""))
	inputs := map[string]any{"theme": "dark", "density": "compact"}

	first, _, err := engine.Resolve(inputs)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, _, err := engine.Resolve(inputs)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must produce identical results")
	}
}
