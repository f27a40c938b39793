// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package monomer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/barneyhill/helm2smiles/internal/smiles"
)

//go:embed library.yaml
var defaultLibrary []byte

// File is the on-disk layout of a monomer library.
type File struct {
	Monomers []*Monomer `yaml:"monomers" json:"monomers"`
}

type key struct {
	polymerType string
	symbol      string
}

// Library indexes monomers by polymer type and symbol. It is safe for
// concurrent use.
type Library struct {
	mu         sync.Mutex
	monomers   map[key]*Monomer
	structures map[key]*smiles.Molecule
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		monomers:   make(map[key]*Monomer),
		structures: make(map[key]*smiles.Molecule),
	}
}

// Default returns the built-in library.
func Default() (*Library, error) {
	lib, err := Parse(defaultLibrary)
	if err != nil {
		return nil, fmt.Errorf("built-in monomer library: %w", err)
	}
	return lib, nil
}

// Parse reads a YAML (or JSON) library document.
func Parse(data []byte) (*Library, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing monomer library: %w", err)
	}
	lib := NewLibrary()
	for _, m := range f.Monomers {
		if err := lib.Add(m); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// LoadFile reads a library from a YAML file.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading monomer library %s: %w", path, err)
	}
	lib, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// Add validates m and stores it, replacing any monomer with the same
// polymer type and symbol.
func (l *Library) Add(m *Monomer) error {
	if m == nil {
		return fmt.Errorf("nil monomer")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	k := key{m.PolymerType, m.Symbol}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.monomers[k] = m
	delete(l.structures, k)
	return nil
}

// Merge copies every monomer of other into l, overriding entries that
// share a polymer type and symbol.
func (l *Library) Merge(other *Library) {
	for _, m := range other.Monomers() {
		k := key{m.PolymerType, m.Symbol}
		l.mu.Lock()
		l.monomers[k] = m
		delete(l.structures, k)
		l.mu.Unlock()
	}
}

// Lookup finds a monomer by polymer type ("PEPTIDE", "RNA", "CHEM") and
// symbol.
func (l *Library) Lookup(polymerType, symbol string) (*Monomer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.monomers[key{polymerType, symbol}]
	return m, ok
}

// Structure returns a fresh copy of the monomer's parsed SMILES. Parsed
// graphs are cached per monomer.
func (l *Library) Structure(m *Monomer) (*smiles.Molecule, error) {
	k := key{m.PolymerType, m.Symbol}
	l.mu.Lock()
	cached, ok := l.structures[k]
	l.mu.Unlock()
	if ok && l.owns(m) {
		return cached.Clone(), nil
	}

	mol, err := smiles.Parse(m.SMILES)
	if err != nil {
		return nil, fmt.Errorf("monomer %s: %w", m.Symbol, err)
	}
	if l.owns(m) {
		l.mu.Lock()
		l.structures[k] = mol
		l.mu.Unlock()
	}
	return mol.Clone(), nil
}

func (l *Library) owns(m *Monomer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.monomers[key{m.PolymerType, m.Symbol}] == m
}

// Len returns the number of monomers.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.monomers)
}

// Monomers returns every monomer sorted by polymer type and symbol.
func (l *Library) Monomers() []*Monomer {
	l.mu.Lock()
	out := make([]*Monomer, 0, len(l.monomers))
	for _, m := range l.monomers {
		out = append(out, m)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].PolymerType != out[j].PolymerType {
			return out[i].PolymerType < out[j].PolymerType
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// WriteYAML writes the library in the layout Parse reads.
func (l *Library) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Monomers: l.Monomers()}); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes the library as indented JSON.
func (l *Library) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(File{Monomers: l.Monomers()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
