/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package validate provides the validate command for potrim.
package validate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/potrim/config"
	"bennypowers.dev/potrim/fs"
	"bennypowers.dev/potrim/internal/logger"
	"bennypowers.dev/potrim/load"
	"bennypowers.dev/potrim/parser"
	"bennypowers.dev/potrim/resolver"
	"bennypowers.dev/potrim/schema"
)

// Cmd is the validate cobra command.
var Cmd = &cobra.Command{
	Use:   "validate [documents...]",
	Short: "Validate resolver documents",
	Long: `Validate resolver documents for structural correctness, and
optionally resolve every permutation to surface reference and alias
errors.`,
	Args: cobra.ArbitraryArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().Bool("quiet", false, "Only output errors")
	Cmd.Flags().Bool("deep", false, "Resolve every permutation, not just parse")
}

func run(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	deep, _ := cmd.Flags().GetBool("deep")

	filesystem := fs.NewOSFileSystem()
	cfg := config.LoadOrDefault(filesystem, ".")

	files := args
	if len(files) == 0 {
		expanded, err := cfg.ExpandResolvers(filesystem, ".")
		if err != nil {
			return fmt.Errorf("error expanding config resolvers: %w", err)
		}
		files = expanded
	}

	if len(files) == 0 {
		return fmt.Errorf("no documents specified and none found in config")
	}

	mode, err := schema.ModeFromString(viper.GetString("mode"))
	if err != nil {
		return err
	}

	hasErrors := false

	for _, file := range files {
		if !quiet {
			fmt.Printf("Validating %s...\n", file)
		}

		data, err := filesystem.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		if kind, err := schema.DetectKind(data); err == nil && kind == schema.KindTokens {
			fmt.Fprintf(os.Stderr, "Error: %s is a token source document, not a resolver document\n", file)
			hasErrors = true
			continue
		}

		doc, err := parser.ParseResolverDocumentFile(filesystem, file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		perms := resolver.NewEngine(doc, nil).Permutations()

		if deep {
			opts := load.Options{
				FS:            filesystem,
				Mode:          mode,
				OnWarning:     logger.Warn,
				MaxAliasDepth: viper.GetInt("maxAliasDepth"),
			}
			failed := 0
			for _, result := range load.ResolveAll(doc, opts) {
				if result.Err != nil {
					fmt.Fprintf(os.Stderr, "Resolution error in %s: %v\n", file, result.Err)
					failed++
				}
			}
			if failed > 0 {
				hasErrors = true
				continue
			}
		}

		if !quiet {
			fmt.Printf("  %d sets, %d modifiers, %d permutations\n",
				len(doc.Sets), len(doc.Modifiers), len(perms))
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	if !quiet {
		fmt.Println("All documents valid.")
	}
	return nil
}
