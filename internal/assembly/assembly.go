// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assembly builds the molecular graph described by a HELM notation
// and writes it as canonical SMILES. Monomer fragments are instantiated
// from a monomer library, bonded through their R-group attachment atoms,
// and every attachment left open receives its cap.
package assembly

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/barneyhill/helm2smiles/internal/helm"
	"github.com/barneyhill/helm2smiles/internal/monomer"
	"github.com/barneyhill/helm2smiles/internal/smiles"
)

// Renderer renders notations with the native assembler.
type Renderer struct {
	Library *monomer.Library
}

// New returns a Renderer backed by lib.
func New(lib *monomer.Library) *Renderer {
	return &Renderer{Library: lib}
}

// Render returns the canonical SMILES of n. Hydrogen-bond pairs do not
// change the covalent structure and are ignored; unconnected polymers are
// written as separate "."-joined components.
func (r *Renderer) Render(n *helm.Notation) (string, error) {
	mol, err := r.Assemble(n)
	if err != nil {
		return "", err
	}
	return smiles.Write(mol), nil
}

// Assemble returns the molecular graph of n with all caps applied.
func (r *Renderer) Assemble(n *helm.Notation) (*smiles.Molecule, error) {
	b := &builder{
		lib:      r.Library,
		mol:      &smiles.Molecule{},
		residues: make(map[string][]*instance),
		groups:   make(map[string]bool),
		caps:     make(map[string]*smiles.Molecule),
	}
	for _, g := range n.Groups {
		b.groups[g.ID] = true
	}
	for _, p := range n.Polymers {
		if err := b.addPolymer(p); err != nil {
			return nil, err
		}
	}
	for _, c := range n.Connections {
		if c.IsPair() {
			continue
		}
		if err := b.connect(c); err != nil {
			return nil, err
		}
	}
	if err := b.capAll(); err != nil {
		return nil, err
	}
	return b.mol, nil
}

// instance is one monomer placed in the molecule.
type instance struct {
	polymer  string
	position int
	symbol   string
	points   map[int]int
	caps     map[int]string
	used     map[int]bool
}

type builder struct {
	lib      *monomer.Library
	mol      *smiles.Molecule
	order    []string
	residues map[string][]*instance
	groups   map[string]bool
	caps     map[string]*smiles.Molecule
}

func (b *builder) addPolymer(p *helm.Polymer) error {
	if p.Type == helm.Blob {
		return &helm.UnsupportedError{What: "BLOB polymer " + p.ID + " has no defined structure"}
	}
	residues, err := p.Expand()
	if err != nil {
		return err
	}

	insts := make([]*instance, len(residues))
	for i, res := range residues {
		inst, err := b.instantiate(p, res)
		if err != nil {
			return err
		}
		insts[i] = inst
	}
	b.order = append(b.order, p.ID)
	b.residues[p.ID] = insts

	for i, res := range residues {
		switch {
		case res.Branch():
			if err := b.join(insts[res.Parent], "R3", insts[i], "R1"); err != nil {
				return err
			}
		case res.Prev >= 0:
			if err := b.join(insts[res.Prev], "R2", insts[i], "R1"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) instantiate(p *helm.Polymer, res helm.Residue) (*instance, error) {
	ref := res.Monomer
	inst := &instance{
		polymer:  p.ID,
		position: res.Position,
		symbol:   ref.Symbol,
		points:   make(map[int]int),
		caps:     make(map[int]string),
		used:     make(map[int]bool),
	}

	var frag *smiles.Molecule
	switch {
	case ref.InlineSMILES():
		mol, err := smiles.Parse(ref.Symbol)
		if err != nil {
			return nil, fmt.Errorf("%s position %d: %w", p.ID, res.Position, err)
		}
		frag = mol
		for class := range mol.AttachmentPoints() {
			inst.caps[class] = "H"
		}
	case ref.Symbol == "?" || ref.Symbol == "*" || ref.Symbol == "_":
		return nil, &helm.UnsupportedError{What: fmt.Sprintf("unknown monomer %q at %s position %d", ref.Symbol, p.ID, res.Position)}
	default:
		m, ok := b.lib.Lookup(string(p.Type), ref.Symbol)
		if !ok {
			return nil, &UnknownMonomerError{PolymerType: string(p.Type), Symbol: ref.Symbol}
		}
		mol, err := b.lib.Structure(m)
		if err != nil {
			return nil, err
		}
		frag = mol
		for _, a := range m.Attachments {
			inst.caps[a.Class()] = a.Cap
		}
	}

	offset := b.mol.Append(frag)
	for class, idx := range frag.AttachmentPoints() {
		inst.points[class] = idx + offset
	}
	return inst, nil
}

func (b *builder) join(x *instance, xl string, y *instance, yl string) error {
	xa, err := x.attachment(xl)
	if err != nil {
		return err
	}
	ya, err := y.attachment(yl)
	if err != nil {
		return err
	}
	if err := b.mol.Join(xa, ya); err != nil {
		return &AttachmentError{Polymer: x.polymer, Position: x.position, Symbol: x.symbol, Label: xl, Msg: err.Error()}
	}
	x.used[labelClass(xl)] = true
	y.used[labelClass(yl)] = true
	return nil
}

// attachment returns the atom index of a free R-group.
func (inst *instance) attachment(label string) (int, error) {
	class := labelClass(label)
	idx, ok := inst.points[class]
	if class == 0 || !ok {
		return 0, &AttachmentError{Polymer: inst.polymer, Position: inst.position, Symbol: inst.symbol, Label: label, Msg: "no such attachment point"}
	}
	if inst.used[class] {
		return 0, &AttachmentError{Polymer: inst.polymer, Position: inst.position, Symbol: inst.symbol, Label: label, Msg: "attachment point already connected"}
	}
	return idx, nil
}

func labelClass(label string) int {
	return monomer.Attachment{Label: label}.Class()
}

func (b *builder) connect(c *helm.Connection) error {
	if c.SourceAttach == "?" || c.TargetAttach == "?" {
		return &helm.UnsupportedError{What: "connection " + c.String() + " has an unknown attachment point"}
	}
	src, err := b.endpoint(c, c.Source, c.SourcePos)
	if err != nil {
		return err
	}
	dst, err := b.endpoint(c, c.Target, c.TargetPos)
	if err != nil {
		return err
	}
	return b.join(src, c.SourceAttach, dst, c.TargetAttach)
}

func (b *builder) endpoint(c *helm.Connection, id, pos string) (*instance, error) {
	insts, ok := b.residues[id]
	if !ok {
		if b.groups[id] {
			return nil, &helm.UnsupportedError{What: "connection " + c.String() + " targets group " + id}
		}
		return nil, &helm.ValidationError{Msg: "connection " + c.String() + " references unknown polymer " + id}
	}
	if pos == "?" {
		return nil, &helm.UnsupportedError{What: "connection " + c.String() + " has an unknown position"}
	}
	i, err := strconv.Atoi(pos)
	if err != nil || i < 1 || i > len(insts) {
		return nil, &helm.ValidationError{Msg: "connection " + c.String() + ": position " + pos + " is out of range"}
	}
	return insts[i-1], nil
}

// capAll closes every unused attachment point with its cap fragment.
func (b *builder) capAll() error {
	for _, id := range b.order {
		for _, inst := range b.residues[id] {
			classes := make([]int, 0, len(inst.points))
			for class := range inst.points {
				if !inst.used[class] {
					classes = append(classes, class)
				}
			}
			sort.Ints(classes)
			for _, class := range classes {
				if err := b.capOne(inst, class); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *builder) capOne(inst *instance, class int) error {
	label := "R" + strconv.Itoa(class)
	capName, ok := inst.caps[class]
	if !ok {
		capName = "H"
	}
	frag, ok := b.caps[capName]
	if !ok {
		s, err := monomer.CapSMILES(capName)
		if err != nil {
			return &AttachmentError{Polymer: inst.polymer, Position: inst.position, Symbol: inst.symbol, Label: label, Msg: err.Error()}
		}
		if frag, err = smiles.Parse(s); err != nil {
			return err
		}
		b.caps[capName] = frag
	}

	offset := b.mol.Append(frag)
	y := frag.AttachmentPoints()[1] + offset
	if err := b.mol.Join(inst.points[class], y); err != nil {
		return &AttachmentError{Polymer: inst.polymer, Position: inst.position, Symbol: inst.symbol, Label: label, Msg: "capping: " + err.Error()}
	}
	inst.used[class] = true
	return nil
}
