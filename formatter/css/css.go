/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package css provides CSS custom property formatting for resolved tokens.
package css

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mazznoer/csscolorparser"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/formatter"
	"bennypowers.dev/potrim/token"
)

// Selector controls the rule the custom properties are emitted under.
type Selector string

const (
	// SelectorRoot emits properties under :root. This is the default.
	SelectorRoot Selector = "root"

	// SelectorHost emits properties under :host.
	SelectorHost Selector = "host"
)

// Options configures CSS-specific output behavior.
type Options struct {
	Selector Selector
}

// Formatter outputs CSS custom property declarations.
type Formatter struct {
	opts Options
}

// New creates a new CSS formatter with default options.
func New() *Formatter {
	return &Formatter{}
}

// NewWithOptions creates a new CSS formatter.
func NewWithOptions(opts Options) *Formatter {
	return &Formatter{opts: opts}
}

// Format converts resolved tokens to a CSS rule of custom properties.
func (f *Formatter) Format(tokens []*token.Token, opts formatter.Options) ([]byte, error) {
	selector := ":root"
	if f.opts.Selector == SelectorHost {
		selector = ":host"
	}

	var sb strings.Builder

	if opts.Banner != "" {
		sb.WriteString("/* " + opts.Banner + " */\n")
	}

	sb.WriteString(selector + " {\n")
	for _, tok := range formatter.SortTokens(tokens) {
		if tok.Description != "" {
			sb.WriteString("  /* " + tok.Description + " */\n")
		}
		name := tok.CSSVariableName(opts.Prefix)
		sb.WriteString("  " + name + ": " + ToCSSValue(tok.Type, tok.Value) + ";\n")
	}
	sb.WriteString("}\n")

	return []byte(sb.String()), nil
}

// PermutationBanner renders a permutation as a title-cased heading,
// e.g. "Theme: Light / Density: Compact".
func PermutationBanner(perm document.Permutation) string {
	caser := cases.Title(language.English)
	parts := make([]string, 0, len(perm))
	for _, choice := range perm {
		parts = append(parts, caser.String(choice.Modifier)+": "+caser.String(choice.Context))
	}
	return strings.Join(parts, " / ")
}

// ToCSSValue converts a resolved token value to its CSS representation.
func ToCSSValue(typ string, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if typ == "color" {
			return normalizeColorString(v)
		}
		if typ == "fontFamily" {
			return quoteFontFamily(v)
		}
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatNumber(v)
	case []any:
		return formatArray(typ, v)
	case map[string]any:
		if _, ok := v["colorSpace"].(string); ok {
			return structuredColorToCSS(v)
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatArray renders array values for the types that have a CSS form.
func formatArray(typ string, values []any) string {
	switch typ {
	case "cubicBezier":
		parts := make([]string, 0, len(values))
		for _, v := range values {
			if f, ok := v.(float64); ok {
				parts = append(parts, formatNumber(f))
			} else {
				parts = append(parts, fmt.Sprintf("%v", v))
			}
		}
		return "cubic-bezier(" + strings.Join(parts, ", ") + ")"
	case "fontFamily":
		parts := make([]string, 0, len(values))
		for _, v := range values {
			if s, ok := v.(string); ok {
				parts = append(parts, quoteFontFamily(s))
			} else {
				parts = append(parts, fmt.Sprintf("%v", v))
			}
		}
		return strings.Join(parts, ", ")
	default:
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, ToCSSValue("", v))
		}
		return strings.Join(parts, " ")
	}
}

// formatNumber renders integer-valued floats without a trailing ".0".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// quoteFontFamily quotes family names containing spaces, unless already quoted.
func quoteFontFamily(s string) string {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'") {
		return s
	}
	if strings.ContainsAny(s, " ") {
		return `"` + s + `"`
	}
	return s
}

// normalizeColorString normalizes any parseable CSS color to hex.
// Unparseable values pass through unchanged.
func normalizeColorString(s string) string {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return s
	}
	return c.HexString()
}

// structuredColorToCSS converts a structured color value to a CSS color.
// srgb components collapse to hex; other color spaces use the color()
// function.
func structuredColorToCSS(colorObj map[string]any) string {
	if hex, ok := colorObj["hex"].(string); ok && hex != "" {
		return hex
	}

	colorSpace, _ := colorObj["colorSpace"].(string)
	componentsRaw, _ := colorObj["components"].([]any)

	alpha := 1.0
	if a, ok := colorObj["alpha"].(float64); ok {
		alpha = a
	}

	if colorSpace == "srgb" && len(componentsRaw) == 3 && alpha >= 0.999 {
		comps := make([]float64, 0, 3)
		for _, c := range componentsRaw {
			f, ok := c.(float64)
			if !ok {
				comps = nil
				break
			}
			comps = append(comps, f)
		}
		if len(comps) == 3 {
			return colorful.Color{R: comps[0], G: comps[1], B: comps[2]}.Clamped().Hex()
		}
	}

	if colorSpace != "" && len(componentsRaw) > 0 {
		compStrs := make([]string, 0, len(componentsRaw))
		for _, comp := range componentsRaw {
			switch v := comp.(type) {
			case float64:
				compStrs = append(compStrs, fmt.Sprintf("%.4g", v))
			case string:
				compStrs = append(compStrs, v)
			}
		}
		if alpha < 0.999 {
			return fmt.Sprintf("color(%s %s / %.4g)", colorSpace, strings.Join(compStrs, " "), alpha)
		}
		return fmt.Sprintf("color(%s %s)", colorSpace, strings.Join(compStrs, " "))
	}

	return fmt.Sprintf("%v", colorObj)
}
