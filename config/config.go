/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides configuration loading for resolver tooling.
package config

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"bennypowers.dev/potrim/schema"
)

// Config represents the resolver tooling configuration.
type Config struct {
	// Prefix is the global CSS variable prefix.
	Prefix string `yaml:"prefix" json:"prefix"`

	// Resolvers specifies resolver documents to process (paths or specs).
	Resolvers []FileSpec `yaml:"resolvers" json:"resolvers"`

	// Mode is the validation mode: "error", "warn" or "off".
	Mode string `yaml:"mode" json:"mode"`

	// MaxAliasDepth bounds alias chains. Zero means the built-in default.
	MaxAliasDepth int `yaml:"maxAliasDepth" json:"maxAliasDepth"`
}

// FileSpec represents a resolver document specification.
// It can be specified as a simple string path or as an object with overrides.
type FileSpec struct {
	// Path is the document path (supports globs).
	Path string `yaml:"path" json:"path"`

	// Prefix overrides the global CSS variable prefix for this document.
	Prefix string `yaml:"prefix" json:"prefix"`
}

// UnmarshalYAML handles both string and object forms for FileSpec.
func (f *FileSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Path = node.Value
		return nil
	}

	type rawFileSpec FileSpec
	return node.Decode((*rawFileSpec)(f))
}

// UnmarshalJSON handles both string and object forms for FileSpec.
func (f *FileSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Path = s
		return nil
	}

	type rawFileSpec FileSpec
	return json.Unmarshal(data, (*rawFileSpec)(f))
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{}
}

// ValidationMode returns the parsed mode from the Mode field.
// Returns ModeError if the field is empty or invalid.
func (c *Config) ValidationMode() schema.ValidationMode {
	mode, err := schema.ModeFromString(c.Mode)
	if err != nil {
		return schema.ModeError
	}
	return mode
}

// PrefixForFile returns the CSS variable prefix for a document path.
// File-level overrides take precedence over global config.
func (c *Config) PrefixForFile(path string) string {
	for _, spec := range c.Resolvers {
		if spec.Path == path && spec.Prefix != "" {
			return spec.Prefix
		}
	}
	return c.Prefix
}

// ResolverPaths returns the list of document paths from all FileSpecs.
func (c *Config) ResolverPaths() []string {
	paths := make([]string, 0, len(c.Resolvers))
	for _, spec := range c.Resolvers {
		paths = append(paths, spec.Path)
	}
	return paths
}
