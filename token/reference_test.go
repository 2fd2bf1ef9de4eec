/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package token

import (
	"reflect"
	"testing"
)

func TestIsAlias(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"{color.primary}", true},
		{"{a}", true},
		{"solid {color.primary}", false},
		{"{color.primary} 1px", false},
		{"color.primary", false},
		{"{}", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAlias(tt.value); got != tt.want {
			t.Errorf("IsAlias(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestAliasTarget(t *testing.T) {
	path, ok := AliasTarget("{color.primary}")
	if !ok || path != "color.primary" {
		t.Errorf("AliasTarget = %q, %v; want %q, true", path, ok, "color.primary")
	}

	if _, ok := AliasTarget("border: {color.primary}"); ok {
		t.Error("expected interpolation not to be a pure alias")
	}
}

func TestExtractAliases(t *testing.T) {
	refs := ExtractAliases("{space.sm} solid {color.border}")
	want := []string{"space.sm", "color.border"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("ExtractAliases = %v, want %v", refs, want)
	}

	if refs := ExtractAliases("no references here"); len(refs) != 0 {
		t.Errorf("expected no references, got %v", refs)
	}
}

func TestReplaceAliases(t *testing.T) {
	got := ReplaceAliases("{a} and {b}", func(path string) string {
		return "<" + path + ">"
	})
	if got != "<a> and <b>" {
		t.Errorf("ReplaceAliases = %q", got)
	}
}

func TestPointerSegments(t *testing.T) {
	tests := []struct {
		ref  string
		want []string
	}{
		{"#/sets/core", []string{"sets", "core"}},
		{"#/a/b/c", []string{"a", "b", "c"}},
		{"#/with~1slash", []string{"with/slash"}},
		{"#/with~0tilde", []string{"with~tilde"}},
		{"#/", nil},
		{"sets/core", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := PointerSegments(tt.ref)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PointerSegments(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestValidName(t *testing.T) {
	valid := []string{"color", "color-primary", "size 2", "a"}
	for _, name := range valid {
		if !ValidName(name) {
			t.Errorf("expected %q to be a valid name", name)
		}
	}

	invalid := []string{"$color", "color.primary", "col{or", "col}or", ""}
	for _, name := range invalid {
		if ValidName(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
