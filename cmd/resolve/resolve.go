/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolve provides the resolve command for potrim.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/potrim/config"
	"bennypowers.dev/potrim/document"
	"bennypowers.dev/potrim/formatter"
	"bennypowers.dev/potrim/formatter/css"
	"bennypowers.dev/potrim/formatter/flatjson"
	"bennypowers.dev/potrim/fs"
	"bennypowers.dev/potrim/internal/logger"
	"bennypowers.dev/potrim/load"
	"bennypowers.dev/potrim/schema"
)

// Cmd is the resolve cobra command.
var Cmd = &cobra.Command{
	Use:   "resolve [documents...]",
	Short: "Resolve a resolver document into flat tokens",
	Long: `Resolve a resolver document for a chosen permutation of modifier
contexts, or for every permutation with --all.

Examples:
  # Resolve with defaults for every modifier
  potrim resolve resolver.json

  # Pick modifier contexts
  potrim resolve --context theme=dark --context density=compact resolver.json

  # Emit CSS custom properties
  potrim resolve --format css -o tokens.css resolver.json

  # Resolve every permutation into a directory
  potrim resolve --all --format css --out-dir dist/ resolver.json

  # Use documents from config (.config/potrim.yaml)
  potrim resolve`,
	Args: cobra.ArbitraryArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().StringToString("context", nil, "Modifier context choices as modifier=context pairs")
	Cmd.Flags().StringP("format", "f", "json", "Output format (json, css)")
	Cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	Cmd.Flags().Bool("all", false, "Resolve every permutation")
	Cmd.Flags().String("out-dir", "", "Output directory for --all (one file per permutation)")
	Cmd.Flags().String("selector", "root", "CSS selector (root, host)")
	Cmd.Flags().StringP("delimiter", "d", "-", "Delimiter for flattened keys")
}

func run(cmd *cobra.Command, args []string) error {
	contexts, _ := cmd.Flags().GetStringToString("context")
	formatFlag, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	all, _ := cmd.Flags().GetBool("all")
	outDir, _ := cmd.Flags().GetString("out-dir")
	selector, _ := cmd.Flags().GetString("selector")
	delimiter, _ := cmd.Flags().GetString("delimiter")

	filesystem := fs.NewOSFileSystem()
	cfg := config.LoadOrDefault(filesystem, ".")

	files, err := documentPaths(args, cfg, filesystem)
	if err != nil {
		return err
	}

	mode, err := schema.ModeFromString(viper.GetString("mode"))
	if err != nil {
		return err
	}

	f, err := newFormatter(formatFlag, selector)
	if err != nil {
		return err
	}

	opts := load.Options{
		FS:            filesystem,
		Mode:          mode,
		OnWarning:     logger.Warn,
		MaxAliasDepth: viper.GetInt("maxAliasDepth"),
	}

	for _, file := range files {
		doc, err := load.Parse(file, opts)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		fmtOpts := formatter.Options{
			Prefix:    prefixFor(cfg, file),
			Delimiter: delimiter,
		}

		if all {
			if err := resolveAll(doc, opts, f, fmtOpts, formatFlag, outDir); err != nil {
				return fmt.Errorf("error resolving %s: %w", file, err)
			}
			continue
		}

		inputs := make(map[string]any, len(contexts))
		for k, v := range contexts {
			inputs[k] = v
		}

		tokens, perm, err := load.Resolve(doc, inputs, opts)
		if err != nil {
			return fmt.Errorf("error resolving %s: %w", file, err)
		}

		if formatFlag == "css" && len(perm) > 0 {
			fmtOpts.Banner = css.PermutationBanner(perm)
		}

		out, err := f.Format(tokens.Sorted(), fmtOpts)
		if err != nil {
			return err
		}

		if err := write(filesystem, output, out); err != nil {
			return err
		}
	}

	return nil
}

// resolveAll resolves every permutation and writes one output per
// permutation, either to outDir or to stdout with banners.
func resolveAll(doc *document.ResolverDocument, opts load.Options, f formatter.Formatter, fmtOpts formatter.Options, format, outDir string) error {
	filesystem := opts.FS
	results := load.ResolveAll(doc, opts)

	var failed []error
	for _, result := range results {
		if result.Err != nil {
			failed = append(failed, result.Err)
			continue
		}

		if format == "css" && len(result.Permutation) > 0 {
			fmtOpts.Banner = css.PermutationBanner(result.Permutation)
		}

		out, err := f.Format(result.Tokens.Sorted(), fmtOpts)
		if err != nil {
			return err
		}

		if outDir == "" {
			if err := write(filesystem, "", out); err != nil {
				return err
			}
			fmt.Println()
			continue
		}

		path := filepath.Join(outDir, permutationFileName(result.Permutation, format))
		if err := write(filesystem, path, out); err != nil {
			return err
		}
	}

	for _, err := range failed {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d permutations failed", len(failed), len(results))
	}
	return nil
}

// permutationFileName derives a stable file name from a permutation,
// e.g. "theme-dark.density-compact.css". An empty permutation yields
// "tokens.<ext>".
func permutationFileName(perm document.Permutation, format string) string {
	ext := ".json"
	if format == "css" {
		ext = ".css"
	}

	if len(perm) == 0 {
		return "tokens" + ext
	}

	parts := make([]string, 0, len(perm))
	for _, choice := range perm {
		parts = append(parts, choice.Modifier+"-"+choice.Context)
	}
	sort.Strings(parts)
	return strings.Join(parts, ".") + ext
}

func documentPaths(args []string, cfg *config.Config, filesystem fs.FileSystem) ([]string, error) {
	files := args
	if len(files) == 0 {
		expanded, err := cfg.ExpandResolvers(filesystem, ".")
		if err != nil {
			return nil, fmt.Errorf("error expanding config resolvers: %w", err)
		}
		files = expanded
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no documents specified and none found in config")
	}
	return files, nil
}

func newFormatter(format, selector string) (formatter.Formatter, error) {
	switch format {
	case "json":
		return flatjson.New(), nil
	case "css":
		sel := css.SelectorRoot
		if selector == "host" {
			sel = css.SelectorHost
		}
		return css.NewWithOptions(css.Options{Selector: sel}), nil
	default:
		return nil, fmt.Errorf("unrecognized output format: %s", format)
	}
}

// prefixFor resolves the CSS variable prefix: flag beats config.
func prefixFor(cfg *config.Config, file string) string {
	if p := viper.GetString("prefix"); p != "" {
		return p
	}
	return cfg.PrefixForFile(file)
}

func write(filesystem fs.FileSystem, path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := filesystem.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return filesystem.WriteFile(path, data, 0o644)
}
