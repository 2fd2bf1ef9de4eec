/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package document

import (
	"reflect"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want Kind
	}{
		{"string", "#fff", KindScalar},
		{"number", 4.0, KindScalar},
		{"array", []any{1.0, 2.0}, KindScalar},
		{"nil", nil, KindScalar},
		{"token", map[string]any{"$value": "#fff"}, KindToken},
		{"token with ref sibling", map[string]any{"$value": "#fff", "$ref": "#/a"}, KindToken},
		{"reference", map[string]any{"$ref": "#/a", "$type": "color"}, KindReference},
		{"group", map[string]any{"primary": map[string]any{"$value": "#fff"}}, KindGroup},
		{"empty group", map[string]any{}, KindGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.v); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeepCopy_Independent(t *testing.T) {
	src := map[string]any{
		"group": map[string]any{
			"token": map[string]any{"$value": []any{"a", "b"}},
		},
	}
	cp := DeepCopy(src).(map[string]any)

	cp["group"].(map[string]any)["token"].(map[string]any)["$value"].([]any)[0] = "mutated"
	original := src["group"].(map[string]any)["token"].(map[string]any)["$value"].([]any)[0]
	if original != "a" {
		t.Errorf("copy mutation leaked into source: %v", original)
	}
}

func TestMerge_LastWins(t *testing.T) {
	dst := map[string]any{
		"color": map[string]any{
			"primary":   map[string]any{"$value": "#111"},
			"secondary": map[string]any{"$value": "#222"},
		},
		"scale": []any{1.0, 2.0},
	}
	src := map[string]any{
		"color": map[string]any{
			"primary": map[string]any{"$value": "#999"},
		},
		"scale": []any{3.0},
	}

	got := Merge(dst, src)

	color := got["color"].(map[string]any)
	if v := color["primary"].(map[string]any)["$value"]; v != "#999" {
		t.Errorf("later source should win: got %v", v)
	}
	if v := color["secondary"].(map[string]any)["$value"]; v != "#222" {
		t.Errorf("untouched sibling should survive: got %v", v)
	}

	// Arrays replace wholesale, never merge element-wise.
	if scale := got["scale"].([]any); !reflect.DeepEqual(scale, []any{3.0}) {
		t.Errorf("array should be replaced wholesale: got %v", scale)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1.0}}
	src := map[string]any{"a": map[string]any{"y": 2.0}}

	got := Merge(dst, src)
	got["a"].(map[string]any)["x"] = "mutated"

	if dst["a"].(map[string]any)["x"] != 1.0 {
		t.Error("merge result shares structure with dst")
	}
	if _, ok := src["a"].(map[string]any)["x"]; ok {
		t.Error("merge mutated src")
	}
}

func TestPermutationString(t *testing.T) {
	perm := Permutation{
		{Modifier: "theme", Context: "dark"},
		{Modifier: "density", Context: "compact"},
	}
	want := "theme=dark,density=compact"
	if got := perm.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	ctx, ok := perm.Get("theme")
	if !ok || ctx != "dark" {
		t.Errorf("Get(theme) = %q, %v", ctx, ok)
	}
	if _, ok := perm.Get("missing"); ok {
		t.Error("Get(missing) should report absence")
	}
}
