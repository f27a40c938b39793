// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package helm

import (
	"strconv"
)

// maxResidues bounds repeat expansion.
const maxResidues = 100000

// Residue is one monomer of an expanded polymer.
type Residue struct {
	// Position is the 1-based HELM position used by connections. Branch
	// monomers are numbered right after their parent.
	Position int
	Monomer  *MonomerRef
	// Parent is the index of the backbone residue a branch monomer hangs
	// from, or -1 for backbone residues.
	Parent int
	// Prev is the index of the preceding backbone residue, or -1.
	Prev int
}

// Branch reports whether r is a side-chain monomer such as a nucleobase.
func (r Residue) Branch() bool { return r.Parent >= 0 }

// Expand flattens the polymer into residues in position order, unrolling
// fixed repeat counts. Repeat ranges and unknown counts are unsupported.
func (p *Polymer) Expand() ([]Residue, error) {
	e := &expander{prev: -1}
	if err := e.units(p.Units); err != nil {
		return nil, err
	}
	return e.out, nil
}

type expander struct {
	out  []Residue
	prev int
}

func (e *expander) units(units []*Unit) error {
	for _, u := range units {
		n := 1
		if u.Repeat != "" {
			v, err := strconv.Atoi(u.Repeat)
			if err != nil || v < 1 {
				return &UnsupportedError{What: "repeat count '" + u.Repeat + "'"}
			}
			n = v
		}
		for range n {
			if u.Group != nil {
				if err := e.units(u.Group); err != nil {
					return err
				}
				continue
			}
			for _, it := range u.Items {
				if err := e.add(it.Monomer, -1); err != nil {
					return err
				}
				if it.Branch != nil {
					if err := e.add(it.Branch, e.prev); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (e *expander) add(m *MonomerRef, parent int) error {
	if len(e.out) >= maxResidues {
		return &UnsupportedError{What: "polymer longer than " + strconv.Itoa(maxResidues) + " monomers"}
	}
	r := Residue{Position: len(e.out) + 1, Monomer: m, Parent: parent, Prev: -1}
	if parent < 0 {
		r.Prev = e.prev
		e.prev = len(e.out)
	}
	e.out = append(e.out, r)
	return nil
}
