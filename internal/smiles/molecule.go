// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package smiles reads and writes SMILES strings over a small molecular graph.
// The writer produces a deterministic (canonical) string: two inputs that
// describe the same graph, including tetrahedral stereo, write identically.
package smiles

import (
	"fmt"
)

// BondOrder is the multiplicity of a bond.
type BondOrder int

const (
	BondSingle    BondOrder = 1
	BondDouble    BondOrder = 2
	BondTriple    BondOrder = 3
	BondQuadruple BondOrder = 4
	BondAromatic  BondOrder = 5
)

// valence returns the bond's contribution to an atom's valence.
func (o BondOrder) valence() int {
	if o == BondAromatic {
		return 1
	}
	return int(o)
}

// Chirality is the tetrahedral parity of an atom as written in SMILES.
type Chirality int

const (
	ChiralNone Chirality = iota
	// ChiralCCW is "@": the remaining neighbours are anticlockwise when
	// viewed from the first one.
	ChiralCCW
	// ChiralCW is "@@".
	ChiralCW
)

func (c Chirality) flip() Chirality {
	switch c {
	case ChiralCCW:
		return ChiralCW
	case ChiralCW:
		return ChiralCCW
	}
	return c
}

func (c Chirality) String() string {
	switch c {
	case ChiralCCW:
		return "@"
	case ChiralCW:
		return "@@"
	}
	return ""
}

// ImplicitH stands for an atom's own hydrogen in a Stereo neighbour list.
const ImplicitH = -1

// Atom is a vertex of the molecular graph.
type Atom struct {
	// Element is the element symbol in standard case ("C", "Cl") or "*".
	Element  string
	Aromatic bool
	Isotope  int
	Charge   int
	// HCount is the number of hydrogens carried by the atom, resolved for
	// organic-subset atoms at parse time.
	HCount int
	// Class is the atom class (":n" in a bracket atom). Attachment points
	// are "*" atoms with a positive class.
	Class     int
	Chirality Chirality
	// Stereo lists neighbour atom indices (and ImplicitH) in the order the
	// Chirality refers to. Nil for atoms without chirality.
	Stereo []int

	bracket bool
}

func (a *Atom) bracketed() bool { return a.bracket }

func (a *Atom) clone() *Atom {
	c := *a
	if a.Stereo != nil {
		c.Stereo = append([]int(nil), a.Stereo...)
	}
	return &c
}

// Bond is an edge of the molecular graph.
type Bond struct {
	A, B  int
	Order BondOrder
	// Dir is '/' or '\\' as read from A to B, or 0.
	Dir byte
}

// other returns the bond partner of atom i.
func (b *Bond) other(i int) int {
	if b.A == i {
		return b.B
	}
	return b.A
}

// Molecule is a molecular graph. Removed atoms and bonds are left as nil
// entries until Compact is called.
type Molecule struct {
	Atoms []*Atom
	Bonds []*Bond
}

// AddAtom appends an atom and returns its index.
func (m *Molecule) AddAtom(a *Atom) int {
	m.Atoms = append(m.Atoms, a)
	return len(m.Atoms) - 1
}

// AddBond connects atoms i and j.
func (m *Molecule) AddBond(i, j int, order BondOrder) *Bond {
	b := &Bond{A: i, B: j, Order: order}
	m.Bonds = append(m.Bonds, b)
	return b
}

// BondBetween returns the bond joining i and j, or nil.
func (m *Molecule) BondBetween(i, j int) *Bond {
	for _, b := range m.Bonds {
		if b == nil {
			continue
		}
		if (b.A == i && b.B == j) || (b.A == j && b.B == i) {
			return b
		}
	}
	return nil
}

// Degree returns the number of bonds on atom i.
func (m *Molecule) Degree(i int) int {
	n := 0
	for _, b := range m.Bonds {
		if b != nil && (b.A == i || b.B == i) {
			n++
		}
	}
	return n
}

// AtomCount returns the number of atoms that have not been removed.
func (m *Molecule) AtomCount() int {
	n := 0
	for _, a := range m.Atoms {
		if a != nil {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of m.
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		Atoms: make([]*Atom, len(m.Atoms)),
		Bonds: make([]*Bond, 0, len(m.Bonds)),
	}
	for i, a := range m.Atoms {
		if a != nil {
			c.Atoms[i] = a.clone()
		}
	}
	for _, b := range m.Bonds {
		if b != nil {
			nb := *b
			c.Bonds = append(c.Bonds, &nb)
		}
	}
	return c
}

// Append copies every atom and bond of other into m and returns the index
// offset at which other's atoms now start.
func (m *Molecule) Append(other *Molecule) int {
	offset := len(m.Atoms)
	for _, a := range other.Atoms {
		if a == nil {
			m.Atoms = append(m.Atoms, nil)
			continue
		}
		c := a.clone()
		for k, s := range c.Stereo {
			if s >= 0 {
				c.Stereo[k] = s + offset
			}
		}
		m.Atoms = append(m.Atoms, c)
	}
	for _, b := range other.Bonds {
		if b == nil {
			continue
		}
		m.Bonds = append(m.Bonds, &Bond{A: b.A + offset, B: b.B + offset, Order: b.Order, Dir: b.Dir})
	}
	return offset
}

// AttachmentPoints maps atom class to atom index for every "*" atom that
// carries a class.
func (m *Molecule) AttachmentPoints() map[int]int {
	points := make(map[int]int)
	for i, a := range m.Atoms {
		if a != nil && a.Element == "*" && a.Class > 0 {
			points[a.Class] = i
		}
	}
	return points
}

// soleBond returns the only bond of atom i and its partner.
func (m *Molecule) soleBond(i int) (int, int, error) {
	found, partner := -1, -1
	for k, b := range m.Bonds {
		if b == nil || (b.A != i && b.B != i) {
			continue
		}
		if found >= 0 {
			return -1, -1, fmt.Errorf("attachment atom %d has more than one bond", i)
		}
		found, partner = k, b.other(i)
	}
	if found < 0 {
		return -1, -1, fmt.Errorf("attachment atom %d is not bonded", i)
	}
	return found, partner, nil
}

// Join fuses two attachment atoms x and y: both are removed and their
// neighbours are bonded directly. The neighbours keep their stereo
// references, with the removed atom replaced by the new partner.
func (m *Molecule) Join(x, y int) error {
	if x == y {
		return fmt.Errorf("cannot join attachment atom %d to itself", x)
	}
	kx, a, err := m.soleBond(x)
	if err != nil {
		return err
	}
	ky, b, err := m.soleBond(y)
	if err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("attachment atoms %d and %d share neighbour %d", x, y, a)
	}
	if m.BondBetween(a, b) != nil {
		return fmt.Errorf("atoms %d and %d are already bonded", a, b)
	}
	order := m.Bonds[kx].Order
	if oy := m.Bonds[ky].Order; oy != order {
		return fmt.Errorf("attachment bond orders differ (%d vs %d)", order, oy)
	}

	m.Bonds[kx] = nil
	m.Bonds[ky] = nil
	m.AddBond(a, b, order)
	m.Atoms[a].replaceStereo(x, b)
	m.Atoms[b].replaceStereo(y, a)
	m.Atoms[x] = nil
	m.Atoms[y] = nil
	return nil
}

func (a *Atom) replaceStereo(old, repl int) {
	for k, s := range a.Stereo {
		if s == old {
			a.Stereo[k] = repl
		}
	}
}

// Compact drops removed atoms and bonds and renumbers the rest.
func (m *Molecule) Compact() {
	index := make([]int, len(m.Atoms))
	atoms := make([]*Atom, 0, len(m.Atoms))
	for i, a := range m.Atoms {
		if a == nil {
			index[i] = -1
			continue
		}
		index[i] = len(atoms)
		atoms = append(atoms, a)
	}
	for _, a := range atoms {
		for k, s := range a.Stereo {
			if s >= 0 {
				a.Stereo[k] = index[s]
			}
		}
	}
	bonds := make([]*Bond, 0, len(m.Bonds))
	for _, b := range m.Bonds {
		if b == nil || index[b.A] < 0 || index[b.B] < 0 {
			continue
		}
		b.A, b.B = index[b.A], index[b.B]
		bonds = append(bonds, b)
	}
	m.Atoms = atoms
	m.Bonds = bonds
}

// edge is one side of a bond in an adjacency list.
type edge struct {
	to   int
	bond *Bond
}

func (m *Molecule) adjacency() [][]edge {
	adj := make([][]edge, len(m.Atoms))
	for _, b := range m.Bonds {
		if b == nil {
			continue
		}
		adj[b.A] = append(adj[b.A], edge{to: b.B, bond: b})
		adj[b.B] = append(adj[b.B], edge{to: b.A, bond: b})
	}
	return adj
}

// valenceSum returns the summed bond valence of every atom.
func (m *Molecule) valenceSum() []int {
	sums := make([]int, len(m.Atoms))
	for _, b := range m.Bonds {
		if b == nil {
			continue
		}
		v := b.Order.valence()
		sums[b.A] += v
		sums[b.B] += v
	}
	return sums
}
