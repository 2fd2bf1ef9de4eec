/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package permutations provides the permutations command for potrim.
package permutations

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"bennypowers.dev/potrim/fs"
	"bennypowers.dev/potrim/parser"
	"bennypowers.dev/potrim/resolver"
)

// Cmd is the permutations cobra command.
var Cmd = &cobra.Command{
	Use:   "permutations <document>",
	Short: "List a document's modifier context permutations",
	Long: `List every permutation of modifier contexts a resolver document
declares, in declaration order.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	filesystem := fs.NewOSFileSystem()
	doc, err := parser.ParseResolverDocumentFile(filesystem, args[0])
	if err != nil {
		return fmt.Errorf("error loading %s: %w", args[0], err)
	}

	engine := resolver.NewEngine(doc, nil)
	perms := engine.Permutations()

	switch format {
	case "json":
		entries := make([]map[string]string, 0, len(perms))
		for _, perm := range perms {
			entry := make(map[string]string, len(perm))
			for _, choice := range perm {
				entry[choice.Modifier] = choice.Context
			}
			entries = append(entries, entry)
		}
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		for _, perm := range perms {
			fmt.Println(perm)
		}
		fmt.Printf("%d permutations\n", len(perms))
	}
	return nil
}
