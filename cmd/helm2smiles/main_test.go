// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barneyhill/helm2smiles/internal/convert"
	"github.com/barneyhill/helm2smiles/internal/smiles"
)

// resetFlags restores every flag of cmd and its children to its default so
// runs do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func canonical(t *testing.T, s string) string {
	t.Helper()
	c, err := smiles.Canonical(s)
	require.NoError(t, err)
	return c
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "usage", err: &usageError{msg: "bad"}, want: exitUsage},
		{name: "wrapped usage", err: fmt.Errorf("x: %w", &usageError{msg: "bad"}), want: exitUsage},
		{name: "io", err: &convert.IOError{Op: "open", Err: os.ErrNotExist}, want: exitIO},
		{name: "wrapped io", err: fmt.Errorf("x: %w", &convert.IOError{Op: "write", Err: errors.New("full")}), want: exitIO},
		{name: "other", err: errors.New("library broken"), want: exitFailure},
		{name: "cancelled", err: context.Canceled, want: exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestConvertFiles(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.helm", "PEPTIDE1{G}$$$$\n\nnot helm at all\nPEPTIDE1{A.G}$$$$V2.0\n")
	out := filepath.Join(dir, "out.smi")

	code, _, stderr := run(t, in, out)
	require.Equal(t, exitOK, code, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, canonical(t, "NCC(=O)O"), lines[0])
	assert.Empty(t, lines[1])
	assert.Empty(t, lines[2])
	assert.Equal(t, canonical(t, "N[C@@H](C)C(=O)NCC(=O)O"), lines[3])

	assert.Contains(t, stderr, "line failed")
	assert.Contains(t, stderr, "not helm at all")
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "one argument", args: []string{filepath.Join(dir, "in.helm")}},
		{name: "three arguments", args: []string{"a", "b", "c"}},
		{name: "unknown flag", args: []string{"--frobnicate", "a", "b"}},
		{name: "version with an argument", args: []string{"version", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr, "Usage:")
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "usage errors must not touch the file system")
}

func TestIOErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.helm", "PEPTIDE1{G}$$$$\n")

	t.Run("missing input", func(t *testing.T) {
		out := filepath.Join(dir, "never.smi")
		code, _, stderr := run(t, filepath.Join(dir, "missing.helm"), out)
		assert.Equal(t, exitIO, code)
		assert.Contains(t, stderr, "missing.helm")

		_, err := os.Stat(out)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("output directory does not exist", func(t *testing.T) {
		code, _, _ := run(t, in, filepath.Join(dir, "nope", "out.smi"))
		assert.Equal(t, exitIO, code)
	})
}

func TestOtherFatalErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.helm", "PEPTIDE1{G}$$$$\n")
	out := filepath.Join(dir, "out.smi")

	tests := []struct {
		name string
		args []string
	}{
		{name: "broken monomer file", args: []string{"--monomers", writeFile(t, dir, "bad.yaml", "monomers: [")}},
		{name: "missing monomer database", args: []string{"--monomer-db", filepath.Join(dir, "missing.db")}},
		{name: "unknown backend", args: []string{"--backend", "quantum"}},
		{name: "container backend without image", args: []string{"--backend", "container"}},
		{name: "bad log level", args: []string{"--log-level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, append(tt.args, in, out)...)
			assert.Equal(t, exitFailure, code)
			assert.NotEmpty(t, stderr)
		})
	}
}

func TestJSONDiagnosticsFromEnvironment(t *testing.T) {
	t.Setenv("HELM2SMILES_LOG_FORMAT", "json")

	dir := t.TempDir()
	in := writeFile(t, dir, "in.helm", "PEPTIDE1{[Xyz]}$$$$\n")
	code, _, stderr := run(t, in, filepath.Join(dir, "out.smi"))
	require.Equal(t, exitOK, code)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if entry["msg"] == "line failed" {
			found = true
			assert.Equal(t, "unknown_monomer", entry["category"])
			assert.Equal(t, float64(1), entry["line"])
		}
	}
	assert.True(t, found, "expected a line failed entry in %s", stderr)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := run(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "helm2smiles dev\n", stdout)
}

func TestMonomersExport(t *testing.T) {
	code, stdout, stderr := run(t, "monomers", "export", "--format", "json")
	require.Equal(t, exitOK, code, stderr)

	var file struct {
		Monomers []struct {
			PolymerType string `json:"polymer_type"`
			Symbol      string `json:"symbol"`
		} `json:"monomers"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &file))
	assert.NotEmpty(t, file.Monomers)

	code, _, _ = run(t, "monomers", "export", "--format", "xml")
	assert.Equal(t, exitUsage, code)
}

const betaAlanineYAML = `monomers:
  - polymer_type: PEPTIDE
    symbol: "bAla"
    name: beta-Alanine
    smiles: "[*:1]NCCC([*:2])=O"
    attachments:
      - {label: R1, cap: H}
      - {label: R2, cap: OH}
`

func TestMonomerDatabaseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "extra.yaml", betaAlanineYAML)
	db := filepath.Join(dir, "db", "monomers.db")

	code, stdout, stderr := run(t, "monomers", "import", db, "--file", yamlPath)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "imported 1 monomer(s)")

	in := writeFile(t, dir, "in.helm", "PEPTIDE1{G.[bAla]}$$$$\n")
	out := filepath.Join(dir, "out.smi")

	// Without the database the monomer is unknown.
	code, _, _ = run(t, in, out)
	require.Equal(t, exitOK, code)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\n", string(data))

	code, _, stderr = run(t, "--monomer-db", db, in, out)
	require.Equal(t, exitOK, code, stderr)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, canonical(t, "NCC(=O)NCCC(=O)O")+"\n", string(data))
}

func TestMonomerFileFlag(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "extra.yaml", betaAlanineYAML)
	in := writeFile(t, dir, "in.helm", "PEPTIDE1{[bAla]}$$$$\n")
	out := filepath.Join(dir, "out.smi")

	code, _, stderr := run(t, "--monomers", yamlPath, in, out)
	require.Equal(t, exitOK, code, stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, canonical(t, "NCCC(=O)O")+"\n", string(data))
}
