/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for potrim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/potrim/cmd/permutations"
	"bennypowers.dev/potrim/cmd/resolve"
	"bennypowers.dev/potrim/cmd/validate"
	"bennypowers.dev/potrim/cmd/version"
)

var rootCmd = &cobra.Command{
	Use:   "potrim",
	Short: "Resolve contextual design token documents",
	Long:  `potrim resolves design token resolver documents: it merges token sets and modifier contexts per the document's resolution order and produces flat resolved token tables.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("prefix", "p", "", "CSS variable prefix for output")
	rootCmd.PersistentFlags().String("mode", "error", "Validation mode (error, warn, off)")
	rootCmd.PersistentFlags().Int("max-depth", 0, "Maximum alias chain depth (0 for default)")

	viper.BindPFlag("prefix", rootCmd.PersistentFlags().Lookup("prefix"))
	viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	viper.BindPFlag("maxAliasDepth", rootCmd.PersistentFlags().Lookup("max-depth"))

	viper.SetEnvPrefix("POTRIM")
	viper.AutomaticEnv()

	rootCmd.AddCommand(resolve.Cmd)
	rootCmd.AddCommand(permutations.Cmd)
	rootCmd.AddCommand(validate.Cmd)
	rootCmd.AddCommand(version.Cmd)
}
