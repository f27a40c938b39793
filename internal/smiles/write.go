// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package smiles

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Canonical parses s and writes it back in canonical form.
func Canonical(s string) (string, error) {
	m, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Write(m), nil
}

// Write renders m as canonical SMILES. Explicit hydrogen atoms are folded
// into their neighbours, atoms are ranked by graph invariants, and
// disconnected components are written in lexicographic order joined by ".".
// The input molecule is not modified.
func Write(m *Molecule) string {
	mol := m.Clone()
	foldHydrogens(mol)
	mol.Compact()
	if len(mol.Atoms) == 0 {
		return ""
	}
	validateStereo(mol)

	adj := mol.adjacency()
	ranks := rankAtoms(mol, adj)
	for i := range adj {
		sort.Slice(adj[i], func(a, b int) bool {
			return ranks[adj[i][a].to] < ranks[adj[i][b].to]
		})
	}

	w := &writer{
		mol:     mol,
		adj:     adj,
		ranks:   ranks,
		visited: make([]bool, len(mol.Atoms)),
		used:    make(map[*Bond]bool),
		opens:   make([][]*Bond, len(mol.Atoms)),
		closes:  make([][]*Bond, len(mol.Atoms)),
		kids:    make([][]edge, len(mol.Atoms)),
		sums:    mol.valenceSum(),
	}

	order := make([]int, len(mol.Atoms))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return ranks[order[a]] < ranks[order[b]] })

	var parts []string
	for _, start := range order {
		if w.visited[start] {
			continue
		}
		w.walk(start, nil)
		w.digits = make(map[*Bond]int)
		w.free = nil
		var b strings.Builder
		w.emit(&b, start, nil)
		parts = append(parts, b.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ".")
}

// foldHydrogens removes plain hydrogen atoms bonded to a heavy atom and
// adds them to that atom's HCount.
func foldHydrogens(m *Molecule) {
	for i, a := range m.Atoms {
		if a == nil || a.Element != "H" || a.Isotope != 0 || a.Charge != 0 || a.Class != 0 || a.HCount != 0 {
			continue
		}
		k, heavy, err := m.soleBond(i)
		if err != nil || m.Bonds[k].Order != BondSingle {
			continue
		}
		h := m.Atoms[heavy]
		if h.Element == "H" {
			continue
		}
		m.Bonds[k] = nil
		m.Atoms[i] = nil
		h.HCount++
		if h.Chirality == ChiralNone {
			continue
		}
		if slices.Contains(h.Stereo, ImplicitH) {
			h.Chirality, h.Stereo = ChiralNone, nil
			continue
		}
		h.replaceStereo(i, ImplicitH)
	}
}

// validateStereo drops chirality that no longer matches the atom's
// neighbourhood.
func validateStereo(m *Molecule) {
	adj := m.adjacency()
	for i, a := range m.Atoms {
		if a.Chirality == ChiralNone {
			continue
		}
		want := len(adj[i])
		if a.HCount > 0 {
			want++
		}
		ok := a.HCount <= 1 && len(a.Stereo) == want && want >= 3
		if ok {
			for _, s := range a.Stereo {
				if s == ImplicitH {
					continue
				}
				if s < 0 || m.BondBetween(i, s) == nil {
					ok = false
					break
				}
			}
		}
		if !ok {
			a.Chirality, a.Stereo = ChiralNone, nil
		}
	}
}

type writer struct {
	mol     *Molecule
	adj     [][]edge
	ranks   []int
	sums    []int
	visited []bool
	used    map[*Bond]bool
	opens   [][]*Bond
	closes  [][]*Bond
	kids    [][]edge
	digits  map[*Bond]int
	free    []int
}

// walk builds the DFS tree and records ring-closure bonds.
func (w *writer) walk(v int, in *Bond) {
	w.visited[v] = true
	for _, e := range w.adj[v] {
		if e.bond == in || w.used[e.bond] {
			continue
		}
		w.used[e.bond] = true
		if w.visited[e.to] {
			w.opens[e.to] = append(w.opens[e.to], e.bond)
			w.closes[v] = append(w.closes[v], e.bond)
			continue
		}
		w.kids[v] = append(w.kids[v], e)
		w.walk(e.to, e.bond)
	}
}

func (w *writer) emit(b *strings.Builder, v int, in *edge) {
	if in != nil {
		b.WriteString(w.bondSymbol(in.bond, in.bond.other(v), v))
	}

	// Neighbour order as written, for stereo.
	var written []int
	if in != nil {
		written = append(written, in.bond.other(v))
	}
	a := w.mol.Atoms[v]
	if a.Chirality != ChiralNone && a.HCount > 0 {
		written = append(written, ImplicitH)
	}

	var rings strings.Builder
	for _, rb := range w.closes[v] {
		d := w.digits[rb]
		delete(w.digits, rb)
		w.free = append(w.free, d)
		rings.WriteString(ringDigit(d))
		written = append(written, rb.other(v))
	}
	for _, rb := range w.opens[v] {
		d := w.allocDigit()
		w.digits[rb] = d
		rings.WriteString(w.bondSymbol(rb, v, rb.other(v)))
		rings.WriteString(ringDigit(d))
		written = append(written, rb.other(v))
	}
	for _, e := range w.kids[v] {
		written = append(written, e.to)
	}

	chir := a.Chirality
	if chir != ChiralNone && odd(a.Stereo, written) {
		chir = chir.flip()
	}
	b.WriteString(w.atomSymbol(v, chir))
	b.WriteString(rings.String())

	for k, e := range w.kids[v] {
		e := e
		if k < len(w.kids[v])-1 {
			b.WriteByte('(')
			w.emit(b, e.to, &e)
			b.WriteByte(')')
			continue
		}
		w.emit(b, e.to, &e)
	}
}

func (w *writer) allocDigit() int {
	if len(w.free) > 0 {
		sort.Ints(w.free)
		d := w.free[0]
		w.free = w.free[1:]
		return d
	}
	used := 0
	for _, d := range w.digits {
		if d > used {
			used = d
		}
	}
	return used + 1
}

func ringDigit(d int) string {
	if d < 10 {
		return strconv.Itoa(d)
	}
	return "%" + strconv.Itoa(d)
}

func (w *writer) bondSymbol(bd *Bond, from, to int) string {
	aromatic := w.mol.Atoms[from].Aromatic && w.mol.Atoms[to].Aromatic
	switch bd.Order {
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondQuadruple:
		return "$"
	case BondAromatic:
		if aromatic {
			return ""
		}
		return ":"
	}
	if bd.Dir != 0 {
		if from == bd.A {
			return string(bd.Dir)
		}
		return string(flipDir(bd.Dir))
	}
	if aromatic {
		return "-"
	}
	return ""
}

func (w *writer) atomSymbol(v int, chir Chirality) string {
	a := w.mol.Atoms[v]
	sym := a.Element
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	organic := chir == ChiralNone && a.Isotope == 0 && a.Charge == 0 && a.Class == 0 &&
		a.HCount == implicitHydrogens(a, w.sums[v])
	if organic {
		if _, ok := organicValences[a.Element]; ok && (!a.Aromatic || organicAromatic[a.Element]) {
			return sym
		}
	}

	var b strings.Builder
	b.WriteByte('[')
	if a.Isotope > 0 {
		b.WriteString(strconv.Itoa(a.Isotope))
	}
	b.WriteString(sym)
	b.WriteString(chir.String())
	if a.HCount > 0 {
		b.WriteByte('H')
		if a.HCount > 1 {
			b.WriteString(strconv.Itoa(a.HCount))
		}
	}
	switch {
	case a.Charge == 1:
		b.WriteByte('+')
	case a.Charge == -1:
		b.WriteByte('-')
	case a.Charge > 1:
		b.WriteString("+" + strconv.Itoa(a.Charge))
	case a.Charge < -1:
		b.WriteString(strconv.Itoa(a.Charge))
	}
	if a.Class > 0 {
		b.WriteString(":" + strconv.Itoa(a.Class))
	}
	b.WriteByte(']')
	return b.String()
}

// odd reports whether reordering from into to is an odd permutation.
// Both slices must hold the same elements.
func odd(from, to []int) bool {
	pos := make(map[int]int, len(to))
	for i, v := range to {
		pos[v] = i
	}
	perm := make([]int, len(from))
	for i, v := range from {
		perm[i] = pos[v]
	}
	inversions := 0
	for i := range perm {
		for j := i + 1; j < len(perm); j++ {
			if perm[i] > perm[j] {
				inversions++
			}
		}
	}
	return inversions%2 == 1
}
