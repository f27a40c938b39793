// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of helm2smiles",
	Args:  exactArgs(0, "no arguments"),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "helm2smiles %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
