/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"errors"
	"testing"

	"bennypowers.dev/potrim/schema"
)

func TestFlatten_Basic(t *testing.T) {
	tree := map[string]any{
		"color": map[string]any{
			"primary": map[string]any{"$value": "#ff0000", "$type": "color"},
			"bg": map[string]any{
				"subtle": map[string]any{"$value": "#f5f5f5"},
			},
		},
	}

	tokens, err := Flatten(tree, FlattenOptions{})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %v", len(tokens), tokens.Names())
	}
	primary := tokens["color.primary"]
	if primary == nil || primary.Value != "#ff0000" || primary.Type != "color" {
		t.Errorf("color.primary wrong: %+v", primary)
	}
	if tokens["color.bg.subtle"] == nil {
		t.Error("nested token missing")
	}
}

func TestFlatten_GroupMetadataInheritance(t *testing.T) {
	tree := map[string]any{
		"color": map[string]any{
			"$type":        "color",
			"$description": "palette",
			"primary":      map[string]any{"$value": "#ff0000"},
			"accent": map[string]any{
				"$value":       "#00ff00",
				"$type":        "color",
				"$description": "accent color",
			},
			"size": map[string]any{"$value": "4px", "$type": "dimension"},
		},
	}

	tokens, err := Flatten(tree, FlattenOptions{})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	if tok := tokens["color.primary"]; tok.Type != "color" || tok.Description != "palette" {
		t.Errorf("group metadata should be inherited: %+v", tok)
	}
	if tok := tokens["color.accent"]; tok.Description != "accent color" {
		t.Errorf("own metadata should win over inherited: %+v", tok)
	}
	if tok := tokens["color.size"]; tok.Type != "dimension" {
		t.Errorf("own $type should win: %+v", tok)
	}
}

func TestFlatten_DeprecatedInheritance(t *testing.T) {
	tree := map[string]any{
		"legacy": map[string]any{
			"$deprecated": "use the new palette",
			"old":         map[string]any{"$value": "#333"},
			"kept": map[string]any{
				"$value":      "#444",
				"$deprecated": false,
			},
		},
	}

	tokens, err := Flatten(tree, FlattenOptions{})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	old := tokens["legacy.old"]
	if !old.Deprecated || old.DeprecationMessage != "use the new palette" {
		t.Errorf("string $deprecated should inherit as message: %+v", old)
	}
	if kept := tokens["legacy.kept"]; kept.Deprecated {
		t.Errorf("own $deprecated: false should win: %+v", kept)
	}
}

func TestFlatten_RootToken(t *testing.T) {
	tree := map[string]any{
		"color": map[string]any{
			"accent": map[string]any{
				"$root": map[string]any{"$value": "#ff0000"},
				"hover": map[string]any{"$value": "#cc0000"},
			},
		},
	}

	tokens, err := Flatten(tree, FlattenOptions{})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	root := tokens["color.accent"]
	if root == nil || root.Value != "#ff0000" {
		t.Errorf("$root child should be emitted at the group's own path: %+v", root)
	}
	if tokens["color.accent.hover"] == nil {
		t.Error("sibling of $root missing")
	}
}

func TestFlatten_RootAtDocumentTopLevel(t *testing.T) {
	tree := map[string]any{
		"$root": map[string]any{"$value": "#ff0000"},
		"other": map[string]any{"$value": "#00ff00"},
	}

	tokens, err := Flatten(tree, FlattenOptions{})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	// Document-level $root has no group path to land on.
	if len(tokens) != 1 {
		t.Errorf("top-level $root should not produce a token: %v", tokens.Names())
	}
}

func TestFlatten_RootMustBeToken(t *testing.T) {
	tree := map[string]any{
		"color": map[string]any{
			"$root": map[string]any{"nested": map[string]any{"$value": "x"}},
		},
	}
	_, err := Flatten(tree, FlattenOptions{})
	if !errors.Is(err, schema.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestFlatten_InvalidName(t *testing.T) {
	tree := map[string]any{
		"color": map[string]any{
			"pri{mary": map[string]any{"$value": "#f00"},
		},
	}

	if _, err := Flatten(tree, FlattenOptions{}); !errors.Is(err, schema.ErrValidation) {
		t.Errorf("error mode: expected ErrValidation, got %v", err)
	}

	var warned bool
	tokens, err := Flatten(tree, FlattenOptions{
		Mode:      schema.ModeWarn,
		OnWarning: func(format string, args ...any) { warned = true },
	})
	if err != nil {
		t.Fatalf("warn mode should keep the token: %v", err)
	}
	if !warned {
		t.Error("warn mode should fire the callback")
	}
	if tokens["color.pri{mary"] == nil {
		t.Error("warn mode should keep the invalid-name token")
	}

	if _, err := Flatten(tree, FlattenOptions{Mode: schema.ModeOff}); err != nil {
		t.Errorf("off mode should skip the check: %v", err)
	}
}

func TestFlatten_OriginalValuePreserved(t *testing.T) {
	tree := map[string]any{
		"a": map[string]any{"$value": "{b}"},
		"b": map[string]any{"$value": "4px"},
	}

	tokens, err := Flatten(tree, FlattenOptions{})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	a := tokens["a"]
	if a.OriginalValue != "{b}" {
		t.Errorf("OriginalValue = %v", a.OriginalValue)
	}
	// Value and OriginalValue must not share structure for composites.
	tree2 := map[string]any{
		"shadow": map[string]any{
			"$value": map[string]any{"color": "{b}", "blur": "2px"},
		},
	}
	tokens2, err := Flatten(tree2, FlattenOptions{})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	shadow := tokens2["shadow"]
	shadow.Value.(map[string]any)["color"] = "mutated"
	if shadow.OriginalValue.(map[string]any)["color"] != "{b}" {
		t.Error("Value and OriginalValue share structure")
	}
}

func TestFlatten_SkipsScalarGroupEntries(t *testing.T) {
	tree := map[string]any{
		"meta":  "not a token",
		"color": map[string]any{"primary": map[string]any{"$value": "#f00"}},
	}

	tokens, err := Flatten(tree, FlattenOptions{})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("bare scalars carry no token semantics: %v", tokens.Names())
	}
}
