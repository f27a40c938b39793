// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barneyhill/helm2smiles/internal/monomer"
)

var monomersCmd = &cobra.Command{
	Use:   "monomers",
	Short: "Inspect and manage the monomer library",
	Long: `Monomers works with the library used by the native backend: the built-in
monomers, merged with --monomers and --monomer-db when given.`,
}

// --- export subcommand ---

var monomersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the effective monomer library to stdout",
	Args:  exactArgs(0, "no arguments"),
	RunE:  runMonomersExport,
}

func runMonomersExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml":
		return lib.WriteYAML(cmd.OutOrStdout())
	case "json":
		return lib.WriteJSON(cmd.OutOrStdout())
	default:
		return &usageError{msg: fmt.Sprintf("unknown format %q (want yaml or json)", format)}
	}
}

// --- import subcommand ---

var monomersImportCmd = &cobra.Command{
	Use:   "import <database>",
	Short: "Store monomers in a SQLite monomer database",
	Long: `Import writes the monomers of --file (default: the built-in library) into
the SQLite database, creating it when needed. Existing monomers with the
same polymer type and symbol are replaced.`,
	Args: exactArgs(1, "<database>"),
	RunE: runMonomersImport,
}

func runMonomersImport(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")

	var lib *monomer.Library
	var err error
	if file != "" {
		lib, err = monomer.LoadFile(file)
	} else {
		lib, err = monomer.Default()
	}
	if err != nil {
		return err
	}

	store, err := monomer.OpenStore(args[0])
	if err != nil {
		return fmt.Errorf("monomer database %s: %w", args[0], err)
	}
	defer store.Close()

	n, err := store.Import(cmd.Context(), lib)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d monomer(s) into %s\n", n, args[0])
	return nil
}

func init() {
	monomersExportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	monomersImportCmd.Flags().String("file", "", "YAML monomer file to import (default: built-in library)")

	monomersCmd.AddCommand(monomersExportCmd, monomersImportCmd)
	rootCmd.AddCommand(monomersCmd)
}
