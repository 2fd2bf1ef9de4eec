/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package load_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/potrim/internal/mapfs"
	"bennypowers.dev/potrim/load"
	"bennypowers.dev/potrim/schema"
)

// themeFS builds a resolver document with one set and a theme modifier
// backed by token source files.
func themeFS(t *testing.T) *mapfs.MapFileSystem {
	t.Helper()
	mfs := mapfs.New()
	mfs.AddFile("/proj/resolver.json", `{
		"version": "2025-10-01",
		"name": "app",
		"sets": {
			"core": {"sources": ["core.json"]}
		},
		"modifiers": {
			"theme": {
				"contexts": {
					"light": ["theme-light.json"],
					"dark": ["theme-dark.json"]
				},
				"default": "light"
			}
		},
		"resolutionOrder": ["#/sets/core", "#/modifiers/theme"]
	}`, 0644)
	mfs.AddFile("/proj/core.json", `{
		"color": {
			"$type": "color",
			"bg": {"$value": "#ffffff"},
			"fg": {"$value": "#111111"},
			"accent": {"$value": "{color.fg}"}
		}
	}`, 0644)
	mfs.AddFile("/proj/theme-light.json", `{}`, 0644)
	mfs.AddFile("/proj/theme-dark.json", `{
		"color": {
			"bg": {"$value": "#111111"},
			"fg": {"$value": "#ffffff"}
		}
	}`, 0644)
	return mfs
}

func TestResolve_DefaultPermutation(t *testing.T) {
	mfs := themeFS(t)
	opts := load.Options{FS: mfs}

	doc, err := load.Parse("/proj/resolver.json", opts)
	require.NoError(t, err)

	tokens, perm, err := load.Resolve(doc, nil, opts)
	require.NoError(t, err)

	assert.Equal(t, "theme=light", perm.String())
	assert.Equal(t, "#ffffff", tokens["color.bg"].Value)
	assert.Equal(t, "#111111", tokens["color.fg"].Value)
}

func TestResolve_DarkContext(t *testing.T) {
	mfs := themeFS(t)
	opts := load.Options{FS: mfs}

	doc, err := load.Parse("/proj/resolver.json", opts)
	require.NoError(t, err)

	tokens, perm, err := load.Resolve(doc, map[string]any{"theme": "dark"}, opts)
	require.NoError(t, err)

	assert.Equal(t, "theme=dark", perm.String())
	assert.Equal(t, "#111111", tokens["color.bg"].Value)

	// Aliases resolve against the merged result, so the alias follows the
	// dark override.
	assert.Equal(t, "#ffffff", tokens["color.accent"].Value)
	assert.Equal(t, "{color.fg}", tokens["color.accent"].OriginalValue)
	assert.Equal(t, "color", tokens["color.accent"].Type)
}

func TestResolve_Idempotent(t *testing.T) {
	mfs := themeFS(t)
	opts := load.Options{FS: mfs}

	doc, err := load.Parse("/proj/resolver.json", opts)
	require.NoError(t, err)

	first, _, err := load.Resolve(doc, map[string]any{"theme": "dark"}, opts)
	require.NoError(t, err)
	second, _, err := load.Resolve(doc, map[string]any{"theme": "dark"}, opts)
	require.NoError(t, err)

	require.Equal(t, first.Names(), second.Names())
	for _, name := range first.Names() {
		assert.Equal(t, first[name].Value, second[name].Value, name)
	}
}

func TestResolveAll_EveryPermutation(t *testing.T) {
	mfs := themeFS(t)
	opts := load.Options{FS: mfs}

	doc, err := load.Parse("/proj/resolver.json", opts)
	require.NoError(t, err)

	results := load.ResolveAll(doc, opts)
	require.Len(t, results, 2)

	byPerm := map[string]load.Result{}
	for _, result := range results {
		require.NoError(t, result.Err)
		byPerm[result.Permutation.String()] = result
	}

	assert.Equal(t, "#ffffff", byPerm["theme=light"].Tokens["color.bg"].Value)
	assert.Equal(t, "#111111", byPerm["theme=dark"].Tokens["color.bg"].Value)
}

func TestResolveAll_FailureIsolation(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/resolver.json", `{
		"version": "1",
		"modifiers": {
			"theme": {
				"contexts": {
					"good": [{"a": {"$value": "1"}}],
					"bad": [{"a": {"$value": "{gone}"}}]
				},
				"default": "good"
			}
		},
		"resolutionOrder": ["#/modifiers/theme"]
	}`, 0644)

	opts := load.Options{FS: mfs}
	doc, err := load.Parse("/proj/resolver.json", opts)
	require.NoError(t, err)

	results := load.ResolveAll(doc, opts)
	require.Len(t, results, 2)

	var failed, succeeded int
	for _, result := range results {
		if result.Err != nil {
			failed++
			assert.ErrorIs(t, result.Err, schema.ErrTokenReference)
		} else {
			succeeded++
		}
	}
	assert.Equal(t, 1, failed, "bad context should fail alone")
	assert.Equal(t, 1, succeeded, "good context should still resolve")
}

func TestResolve_ExtendsAcrossPipeline(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/resolver.json", `{
		"version": "1",
		"sets": {"core": {"sources": ["core.json"]}},
		"resolutionOrder": ["#/sets/core"]
	}`, 0644)
	mfs.AddFile("/proj/core.json", `{
		"base": {
			"$type": "dimension",
			"sm": {"$value": "4px"},
			"md": {"$value": "8px"}
		},
		"touch": {
			"$extends": "{base}",
			"md": {"$value": "12px"}
		}
	}`, 0644)

	opts := load.Options{FS: mfs}
	doc, err := load.Parse("/proj/resolver.json", opts)
	require.NoError(t, err)

	tokens, _, err := load.Resolve(doc, nil, opts)
	require.NoError(t, err)

	assert.Equal(t, "4px", tokens["touch.sm"].Value, "inherited token")
	assert.Equal(t, "12px", tokens["touch.md"].Value, "overridden token")
	assert.Equal(t, "dimension", tokens["touch.sm"].Type, "inherited group $type")
	assert.Equal(t, "8px", tokens["base.md"].Value, "base group untouched")
}

func TestResolve_WarnModeSurvivesMissingAlias(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/resolver.json", `{
		"version": "1",
		"sets": {"core": {"sources": [{"a": {"$value": "{missing}"}}]}},
		"resolutionOrder": ["#/sets/core"]
	}`, 0644)

	var warnings []string
	opts := load.Options{
		FS:   mfs,
		Mode: schema.ModeWarn,
		OnWarning: func(format string, args ...any) {
			warnings = append(warnings, format)
		},
	}
	doc, err := load.Parse("/proj/resolver.json", opts)
	require.NoError(t, err)

	tokens, _, err := load.Resolve(doc, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, "{missing}", tokens["a"].Value)
	assert.NotEmpty(t, warnings)
}

func TestParse_InMemoryDocument(t *testing.T) {
	doc, err := load.Parse(map[string]any{
		"version": "1",
		"sets": map[string]any{
			"core": map[string]any{
				"sources": []any{map[string]any{"a": map[string]any{"$value": "1"}}},
			},
		},
		"resolutionOrder": []any{"#/sets/core"},
	}, load.Options{})
	require.NoError(t, err)

	tokens, _, err := load.Resolve(doc, nil, load.Options{})
	require.NoError(t, err)
	assert.Equal(t, "1", tokens["a"].Value)
}

func TestParse_Bytes(t *testing.T) {
	doc, err := load.Parse([]byte(`{"version": "1", "resolutionOrder": []}`), load.Options{})
	require.NoError(t, err)
	assert.Equal(t, "1", doc.Version)
}
