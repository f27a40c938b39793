// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package monomer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	for _, aa := range "ACDEFGHIKLMNPQRSTVWY" {
		m, ok := lib.Lookup("PEPTIDE", string(aa))
		require.True(t, ok, "amino acid %c", aa)
		assert.Equal(t, string(aa), m.NaturalAnalog)
		_, ok = m.Attachment("R1")
		assert.True(t, ok)
	}
	for _, sym := range []string{"R", "dR", "mR", "P", "sP", "A", "C", "G", "T", "U"} {
		_, ok := lib.Lookup("RNA", sym)
		assert.True(t, ok, "nucleotide component %s", sym)
	}
	_, ok := lib.Lookup("CHEM", "EG")
	assert.True(t, ok)

	_, ok = lib.Lookup("RNA", "X")
	assert.False(t, ok)
	_, ok = lib.Lookup("CHEM", "A")
	assert.False(t, ok)

	cys, _ := lib.Lookup("PEPTIDE", "C")
	r3, ok := cys.Attachment("R3")
	require.True(t, ok)
	assert.Equal(t, "H", r3.Cap)
	assert.Equal(t, 3, r3.Class())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		monomer Monomer
		errMsg  string
	}{
		{
			name:    "valid",
			monomer: Monomer{PolymerType: "CHEM", Symbol: "X", SMILES: "[*:1]CC[*:2]", Attachments: []Attachment{{"R1", "H"}, {"R2", "[*:1]OC"}}},
		},
		{
			name:    "missing symbol",
			monomer: Monomer{PolymerType: "CHEM", SMILES: "C"},
			errMsg:  "without a symbol",
		},
		{
			name:    "unknown polymer type",
			monomer: Monomer{PolymerType: "BLOB", Symbol: "X", SMILES: "C"},
			errMsg:  "unknown polymer type",
		},
		{
			name:    "bad SMILES",
			monomer: Monomer{PolymerType: "CHEM", Symbol: "X", SMILES: "C(("},
			errMsg:  "monomer X",
		},
		{
			name:    "attachment without atom",
			monomer: Monomer{PolymerType: "CHEM", Symbol: "X", SMILES: "[*:1]C", Attachments: []Attachment{{"R1", "H"}, {"R2", "H"}}},
			errMsg:  "no [*:2]",
		},
		{
			name:    "atom without attachment",
			monomer: Monomer{PolymerType: "CHEM", Symbol: "X", SMILES: "[*:1]C[*:2]", Attachments: []Attachment{{"R1", "H"}}},
			errMsg:  "[*:2] has no attachment",
		},
		{
			name:    "bad label",
			monomer: Monomer{PolymerType: "CHEM", Symbol: "X", SMILES: "[*:1]C", Attachments: []Attachment{{"X1", "H"}}},
			errMsg:  "bad attachment label",
		},
		{
			name:    "duplicate label",
			monomer: Monomer{PolymerType: "CHEM", Symbol: "X", SMILES: "[*:1]C", Attachments: []Attachment{{"R1", "H"}, {"R1", "OH"}}},
			errMsg:  "declared twice",
		},
		{
			name:    "unknown cap",
			monomer: Monomer{PolymerType: "CHEM", Symbol: "X", SMILES: "[*:1]C", Attachments: []Attachment{{"R1", "Cl2"}}},
			errMsg:  "neither a named cap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.monomer.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCapSMILES(t *testing.T) {
	s, err := CapSMILES("OH")
	require.NoError(t, err)
	assert.Equal(t, "[*:1]O", s)

	s, err = CapSMILES("[*:1]OCC")
	require.NoError(t, err)
	assert.Equal(t, "[*:1]OCC", s)

	_, err = CapSMILES("[*:1]C[*:1]")
	assert.Error(t, err)
	_, err = CapSMILES("[*:1]C(")
	assert.Error(t, err)
}

const overrideYAML = `monomers:
  - polymer_type: PEPTIDE
    symbol: "A"
    name: Alanine methyl ester
    smiles: "[*:1]N[C@@H](C)C([*:2])=O"
    attachments:
      - {label: R1, cap: H}
      - {label: R2, cap: "[*:1]OC"}
  - polymer_type: CHEM
    symbol: "Me"
    smiles: "C[*:1]"
    attachments:
      - {label: R1, cap: H}
`

func TestLoadFileAndMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overrideYAML), 0o644))

	extra, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, extra.Len())

	lib, err := Default()
	require.NoError(t, err)
	before := lib.Len()
	lib.Merge(extra)
	assert.Equal(t, before+1, lib.Len())

	ala, ok := lib.Lookup("PEPTIDE", "A")
	require.True(t, ok)
	assert.Equal(t, "Alanine methyl ester", ala.Name)
	_, ok = lib.Lookup("CHEM", "Me")
	assert.True(t, ok)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monomers:\n  - polymer_type: CHEM\n    symbol: X\n    smiles: \"[*:1]C\"\n"), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")

	_, err = Parse([]byte("monomers: [unterminated"))
	assert.Error(t, err)
}

func TestStructureIsACopy(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)
	gly, _ := lib.Lookup("PEPTIDE", "G")

	first, err := lib.Structure(gly)
	require.NoError(t, err)
	first.Atoms[0] = nil

	second, err := lib.Structure(gly)
	require.NoError(t, err)
	assert.NotNil(t, second.Atoms[0])
	assert.Equal(t, 6, second.AtomCount())
}

func TestWriteRoundTrip(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	var y bytes.Buffer
	require.NoError(t, lib.WriteYAML(&y))
	fromYAML, err := Parse(y.Bytes())
	require.NoError(t, err)
	assert.Equal(t, lib.Monomers(), fromYAML.Monomers())

	var j bytes.Buffer
	require.NoError(t, lib.WriteJSON(&j))
	fromJSON, err := Parse(j.Bytes())
	require.NoError(t, err)
	assert.Equal(t, lib.Len(), fromJSON.Len())
}

func TestStoreImportLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "monomers.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	lib, err := Default()
	require.NoError(t, err)
	n, err := store.Import(ctx, lib)
	require.NoError(t, err)
	assert.Equal(t, lib.Len(), n)

	// A second import updates in place.
	n, err = store.Import(ctx, lib)
	require.NoError(t, err)
	assert.Equal(t, lib.Len(), n)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, lib.Monomers(), loaded.Monomers())
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "monomers.db")

	extra, err := Parse([]byte(overrideYAML))
	require.NoError(t, err)

	store, err := OpenStore(path)
	require.NoError(t, err)
	_, err = store.Import(ctx, extra)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenStore(path)
	require.NoError(t, err)
	defer store.Close()
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	me, ok := loaded.Lookup("CHEM", "Me")
	require.True(t, ok)
	assert.Equal(t, []Attachment{{Label: "R1", Cap: "H"}}, me.Attachments)
}
