// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package helm parses HELM (Hierarchical Editing Language for Macromolecules)
// notation, versions 1 and 2, into a Notation value.
//
// A HELM string has five "$"-separated sections: simple polymers,
// connections, groups (hydrogen-bond pairs in HELM1), extended annotations
// and the version tag ("V2.0", or empty for HELM1).
package helm

import (
	"strings"
)

// PolymerType is the class of a simple polymer, taken from its ID prefix.
type PolymerType string

const (
	Peptide PolymerType = "PEPTIDE"
	RNA     PolymerType = "RNA"
	Chem    PolymerType = "CHEM"
	Blob    PolymerType = "BLOB"
)

// Version2 is the version tag written by HELM2 notation.
const Version2 = "V2.0"

// Notation is a parsed HELM string.
type Notation struct {
	Polymers    []*Polymer
	Connections []*Connection
	Groups      []*Group
	// Annotation holds the extended annotation section verbatim.
	Annotation string
	// Version is "V2.0" for HELM2 input and "" for HELM1 input.
	Version string
}

// Polymer returns the polymer with the given ID, or nil.
func (n *Notation) Polymer(id string) *Polymer {
	for _, p := range n.Polymers {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// String renders the notation as HELM2.
func (n *Notation) String() string {
	var b strings.Builder
	for i, p := range n.Polymers {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(p.String())
	}
	b.WriteByte('$')
	for i, c := range n.Connections {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(c.String())
	}
	b.WriteByte('$')
	for i, g := range n.Groups {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(g.String())
	}
	b.WriteByte('$')
	b.WriteString(n.Annotation)
	b.WriteByte('$')
	b.WriteString(Version2)
	return b.String()
}

// Polymer is a simple polymer such as PEPTIDE1{A.C.G}.
type Polymer struct {
	ID         string
	Type       PolymerType
	Units      []*Unit
	Annotation string
}

func (p *Polymer) String() string {
	var b strings.Builder
	b.WriteString(p.ID)
	b.WriteByte('{')
	writeUnits(&b, p.Units)
	b.WriteByte('}')
	writeAnnotation(&b, p.Annotation)
	return b.String()
}

// Unit is one "."-separated element of a polymer sequence: either a chain
// of items such as R(A)P, or a parenthesised repeated sub-sequence.
type Unit struct {
	Items      []*Item
	Group      []*Unit
	Repeat     string
	Annotation string
}

func (u *Unit) String() string {
	var b strings.Builder
	if u.Group != nil {
		b.WriteByte('(')
		writeUnits(&b, u.Group)
		b.WriteByte(')')
	} else {
		for _, it := range u.Items {
			b.WriteString(it.Monomer.String())
			if it.Branch != nil {
				b.WriteByte('(')
				b.WriteString(it.Branch.String())
				b.WriteByte(')')
			}
		}
	}
	if u.Repeat != "" {
		b.WriteString("'" + u.Repeat + "'")
	}
	writeAnnotation(&b, u.Annotation)
	return b.String()
}

// Item is a monomer with an optional branch monomer, e.g. the R(A) of R(A)P.
type Item struct {
	Monomer *MonomerRef
	Branch  *MonomerRef
}

// MonomerRef names a monomer in a sequence.
type MonomerRef struct {
	// Symbol is the monomer ID or inline SMILES, without brackets.
	Symbol     string
	Bracketed  bool
	Annotation string
}

func (m *MonomerRef) String() string {
	s := m.Symbol
	if m.Bracketed {
		s = "[" + s + "]"
	}
	if m.Annotation != "" {
		s += `"` + m.Annotation + `"`
	}
	return s
}

// InlineSMILES reports whether the reference carries its own structure.
func (m *MonomerRef) InlineSMILES() bool {
	return m.Bracketed && strings.Contains(m.Symbol, "*")
}

// Connection is a bond between two monomers, or a hydrogen-bond pair when
// both attachments are "pair".
type Connection struct {
	Source       string
	Target       string
	SourcePos    string
	SourceAttach string
	TargetPos    string
	TargetAttach string
	Annotation   string
}

// IsPair reports whether the connection is a hydrogen-bond pair.
func (c *Connection) IsPair() bool {
	return c.SourceAttach == "pair" && c.TargetAttach == "pair"
}

func (c *Connection) String() string {
	var b strings.Builder
	b.WriteString(c.Source + "," + c.Target + ",")
	b.WriteString(c.SourcePos + ":" + c.SourceAttach + "-" + c.TargetPos + ":" + c.TargetAttach)
	writeAnnotation(&b, c.Annotation)
	return b.String()
}

// Group is a named set of polymers: a mixture ("+") or alternatives (",").
type Group struct {
	ID         string
	Members    []GroupMember
	Exclusive  bool
	Annotation string
}

// GroupMember is a polymer or group with an optional ratio.
type GroupMember struct {
	ID    string
	Ratio string
}

func (g *Group) String() string {
	var b strings.Builder
	b.WriteString(g.ID + "(")
	sep := "+"
	if g.Exclusive {
		sep = ","
	}
	for i, m := range g.Members {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(m.ID)
		if m.Ratio != "" {
			b.WriteString(":" + m.Ratio)
		}
	}
	b.WriteByte(')')
	writeAnnotation(&b, g.Annotation)
	return b.String()
}

func writeUnits(b *strings.Builder, units []*Unit) {
	for i, u := range units {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(u.String())
	}
}

func writeAnnotation(b *strings.Builder, a string) {
	if a != "" {
		b.WriteString(`"` + a + `"`)
	}
}
