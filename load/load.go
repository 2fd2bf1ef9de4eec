/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package load provides a high-level API for resolving resolver
// documents into flattened token tables.
package load

import (
	"fmt"
	"path/filepath"
	"sync"

	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/fs"
	"bennypowers.dev/potrim/parser"
	"bennypowers.dev/potrim/resolver"
	"bennypowers.dev/potrim/schema"
	"bennypowers.dev/potrim/token"
)

// Options configures resolution.
type Options struct {
	// FS is the filesystem to use. Defaults to OS filesystem if nil.
	FS fs.FileSystem

	// Root overrides the base directory for file references. Empty means
	// the resolver document's own directory.
	Root string

	// Mode is the validation mode applied across the pipeline.
	Mode schema.ValidationMode

	// OnWarning receives warn-mode messages across the pipeline.
	OnWarning schema.WarnFunc

	// MaxAliasDepth bounds alias chains. Zero means the resolver default.
	MaxAliasDepth int
}

// Result is one permutation's resolution outcome. Failures are isolated
// per permutation: a Result carries either Tokens or Err.
type Result struct {
	Permutation document.Permutation
	Tokens      token.ResolvedTokens
	Err         error
}

// Parse loads and validates a resolver document from a file path or an
// in-memory object.
func Parse(pathOrValue any, opts Options) (*document.ResolverDocument, error) {
	switch v := pathOrValue.(type) {
	case string:
		return parser.ParseResolverDocumentFile(filesystem(opts), v)
	case []byte:
		return parser.ParseResolverDocument(v)
	default:
		return parser.ParseResolverDocumentValue(v)
	}
}

// Resolve runs the full pipeline for one set of inputs: merge per
// resolutionOrder, flatten, then resolve aliases. Each call is
// independent and idempotent for identical (document, inputs).
func Resolve(doc *document.ResolverDocument, inputs map[string]any, opts Options) (token.ResolvedTokens, document.Permutation, error) {
	refs := &resolver.ReferenceResolver{
		FS:        filesystem(opts),
		BaseDir:   baseDir(doc, opts),
		Mode:      opts.Mode,
		OnWarning: opts.OnWarning,
	}

	engine := resolver.NewEngine(doc, refs)
	merged, perm, err := engine.Resolve(inputs)
	if err != nil {
		return nil, nil, err
	}

	flat, err := resolver.Flatten(merged, resolver.FlattenOptions{
		Mode:      opts.Mode,
		OnWarning: opts.OnWarning,
	})
	if err != nil {
		return nil, nil, err
	}

	aliases := &resolver.AliasResolver{
		Mode:      opts.Mode,
		OnWarning: opts.OnWarning,
		MaxDepth:  opts.MaxAliasDepth,
	}
	resolved, err := aliases.Resolve(flat)
	if err != nil {
		return nil, nil, err
	}

	return resolved, perm, nil
}

// ResolveAll resolves every permutation of the document concurrently.
// Each permutation starts from the same immutable parsed document and
// produces an independent Result; one permutation's failure does not
// abort the others.
func ResolveAll(doc *document.ResolverDocument, opts Options) []Result {
	refs := &resolver.ReferenceResolver{
		FS:        filesystem(opts),
		BaseDir:   baseDir(doc, opts),
		Mode:      opts.Mode,
		OnWarning: opts.OnWarning,
	}
	engine := resolver.NewEngine(doc, refs)
	perms := engine.Permutations()

	results := make([]Result, len(perms))
	var wg sync.WaitGroup
	for i, perm := range perms {
		wg.Add(1)
		go func(i int, perm document.Permutation) {
			defer wg.Done()

			inputs := make(map[string]any, len(perm))
			for _, choice := range perm {
				inputs[choice.Modifier] = choice.Context
			}

			tokens, resolved, err := Resolve(doc, inputs, opts)
			if err != nil {
				results[i] = Result{Permutation: perm, Err: fmt.Errorf("permutation %s: %w", perm, err)}
				return
			}
			results[i] = Result{Permutation: resolved, Tokens: tokens}
		}(i, perm)
	}
	wg.Wait()

	return results
}

func filesystem(opts Options) fs.FileSystem {
	if opts.FS != nil {
		return opts.FS
	}
	return fs.NewOSFileSystem()
}

func baseDir(doc *document.ResolverDocument, opts Options) string {
	if opts.Root != "" {
		if !filepath.IsAbs(opts.Root) {
			if abs, err := filepath.Abs(opts.Root); err == nil {
				return abs
			}
		}
		return opts.Root
	}
	return doc.Dir
}
