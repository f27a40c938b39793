// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package smiles

import (
	"fmt"
	"strings"
)

// ParseError reports malformed SMILES input.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("smiles %q: position %d: %s", e.Input, e.Pos, e.Msg)
}

// Category classifies the error for diagnostics.
func (e *ParseError) Category() string { return "smiles" }

type pendingBond struct {
	order BondOrder
	dir   byte
	set   bool
}

type ringOpen struct {
	atom int
	bond pendingBond
	slot int
}

type parser struct {
	in    string
	pos   int
	mol   *Molecule
	prev  int
	stack []int
	bond  pendingBond
	rings map[int]*ringOpen
}

// stereoPending marks a ring-closure slot whose partner is not known yet.
const stereoPending = -2

// Parse reads a SMILES string into a Molecule. Organic-subset atoms have
// their implicit hydrogens resolved into HCount.
func Parse(s string) (*Molecule, error) {
	p := &parser{
		in:    s,
		mol:   &Molecule{},
		prev:  -1,
		rings: make(map[int]*ringOpen),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.mol, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.in, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) run() error {
	if p.in == "" {
		return p.errorf("empty string")
	}
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.errorf("branch without a preceding atom")
			}
			if p.bond.set {
				return p.errorf("bond before branch")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return p.errorf("unbalanced ')'")
			}
			if p.bond.set {
				return p.errorf("dangling bond before ')'")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case strings.IndexByte("-=#$:/\\", c) >= 0:
			if p.bond.set {
				return p.errorf("two consecutive bonds")
			}
			p.bond = bondFromSymbol(c)
			p.pos++
		case c == '.':
			if p.bond.set {
				return p.errorf("bond before '.'")
			}
			p.prev = -1
			p.pos++
		case c == '%' || (c >= '0' && c <= '9'):
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.addAtom(a); err != nil {
				return err
			}
		default:
			a, err := p.organicAtom()
			if err != nil {
				return err
			}
			if err := p.addAtom(a); err != nil {
				return err
			}
		}
	}

	if len(p.stack) > 0 {
		return p.errorf("unclosed branch")
	}
	if p.bond.set {
		return p.errorf("dangling bond at end of input")
	}
	for n := range p.rings {
		return p.errorf("unclosed ring %d", n)
	}
	p.finish()
	return nil
}

func bondFromSymbol(c byte) pendingBond {
	switch c {
	case '=':
		return pendingBond{order: BondDouble, set: true}
	case '#':
		return pendingBond{order: BondTriple, set: true}
	case '$':
		return pendingBond{order: BondQuadruple, set: true}
	case ':':
		return pendingBond{order: BondAromatic, set: true}
	case '/', '\\':
		return pendingBond{order: BondSingle, dir: c, set: true}
	}
	return pendingBond{order: BondSingle, set: true}
}

func (p *parser) defaultOrder(i, j int) BondOrder {
	if p.mol.Atoms[i].Aromatic && p.mol.Atoms[j].Aromatic {
		return BondAromatic
	}
	return BondSingle
}

func (p *parser) addAtom(a *Atom) error {
	idx := p.mol.AddAtom(a)
	if p.prev >= 0 {
		order := p.defaultOrder(p.prev, idx)
		if p.bond.set {
			order = p.bond.order
		}
		b := p.mol.AddBond(p.prev, idx, order)
		b.Dir = p.bond.dir
		prevAtom := p.mol.Atoms[p.prev]
		prevAtom.Stereo = append(prevAtom.Stereo, idx)
		a.Stereo = append(a.Stereo, p.prev)
	} else if p.bond.set {
		return p.errorf("bond without a preceding atom")
	}
	if a.Chirality != ChiralNone && a.HCount > 0 {
		a.Stereo = append(a.Stereo, ImplicitH)
	}
	p.bond = pendingBond{}
	p.prev = idx
	return nil
}

func (p *parser) ringClosure() error {
	if p.prev < 0 {
		return p.errorf("ring closure without a preceding atom")
	}
	var n int
	if p.in[p.pos] == '%' {
		if p.pos+2 >= len(p.in) || !isDigit(p.in[p.pos+1]) || !isDigit(p.in[p.pos+2]) {
			return p.errorf("'%%' must be followed by two digits")
		}
		n = int(p.in[p.pos+1]-'0')*10 + int(p.in[p.pos+2]-'0')
		p.pos += 3
	} else {
		n = int(p.in[p.pos] - '0')
		p.pos++
	}

	cur := p.mol.Atoms[p.prev]
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = &ringOpen{atom: p.prev, bond: p.bond, slot: len(cur.Stereo)}
		cur.Stereo = append(cur.Stereo, stereoPending)
		p.bond = pendingBond{}
		return nil
	}
	delete(p.rings, n)

	if open.atom == p.prev {
		return p.errorf("ring %d closes on its own atom", n)
	}
	if p.mol.BondBetween(open.atom, p.prev) != nil {
		return p.errorf("ring %d duplicates an existing bond", n)
	}
	order := p.defaultOrder(open.atom, p.prev)
	var dir byte
	switch {
	case open.bond.set && p.bond.set && open.bond.order != p.bond.order:
		return p.errorf("ring %d has conflicting bond orders", n)
	case open.bond.set:
		order, dir = open.bond.order, open.bond.dir
	case p.bond.set:
		order = p.bond.order
		dir = flipDir(p.bond.dir)
	}
	b := p.mol.AddBond(open.atom, p.prev, order)
	b.Dir = dir
	p.mol.Atoms[open.atom].Stereo[open.slot] = p.prev
	cur.Stereo = append(cur.Stereo, open.atom)
	p.bond = pendingBond{}
	return nil
}

func flipDir(d byte) byte {
	switch d {
	case '/':
		return '\\'
	case '\\':
		return '/'
	}
	return d
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *parser) organicAtom() (*Atom, error) {
	rest := p.in[p.pos:]
	if strings.HasPrefix(rest, "Cl") || strings.HasPrefix(rest, "Br") {
		p.pos += 2
		return &Atom{Element: rest[:2]}, nil
	}
	c := rest[0]
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		p.pos++
		return &Atom{Element: string(c)}, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		p.pos++
		return &Atom{Element: aromaticSymbols[string(c)], Aromatic: true}, nil
	case '*':
		p.pos++
		return &Atom{Element: "*"}, nil
	}
	return nil, p.errorf("unexpected character %q", c)
}

// bracketAtom parses "[" isotope? symbol chiral? hcount? charge? class? "]".
func (p *parser) bracketAtom() (*Atom, error) {
	start := p.pos
	end := strings.IndexByte(p.in[start:], ']')
	if end < 0 {
		return nil, p.errorf("unterminated bracket atom")
	}
	body := p.in[start+1 : start+end]
	p.pos = start + end + 1

	a := &Atom{bracket: true}
	i := 0
	for i < len(body) && isDigit(body[i]) {
		a.Isotope = a.Isotope*10 + int(body[i]-'0')
		i++
	}

	sym, n := bracketSymbol(body[i:])
	if n == 0 {
		return nil, &ParseError{Input: p.in, Pos: start, Msg: fmt.Sprintf("unknown atom symbol in [%s]", body)}
	}
	i += n
	if el, ok := aromaticSymbols[sym]; ok {
		a.Element, a.Aromatic = el, true
	} else {
		a.Element = sym
	}

	if strings.HasPrefix(body[i:], "@@") {
		a.Chirality = ChiralCW
		i += 2
	} else if strings.HasPrefix(body[i:], "@") {
		a.Chirality = ChiralCCW
		i++
	}
	if i < len(body) && (body[i] == 'T' || body[i] == 'A' || body[i] == 'S' || body[i] == 'O') && a.Chirality != ChiralNone {
		return nil, &ParseError{Input: p.in, Pos: start, Msg: "only tetrahedral @/@@ chirality is supported"}
	}

	if i < len(body) && body[i] == 'H' {
		i++
		a.HCount = 1
		if i < len(body) && isDigit(body[i]) {
			a.HCount = int(body[i] - '0')
			i++
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		ch := body[i]
		i++
		switch {
		case i < len(body) && isDigit(body[i]):
			v := 0
			for i < len(body) && isDigit(body[i]) {
				v = v*10 + int(body[i]-'0')
				i++
			}
			a.Charge = sign * v
		default:
			a.Charge = sign
			for i < len(body) && body[i] == ch {
				a.Charge += sign
				i++
			}
		}
	}

	if i < len(body) && body[i] == ':' {
		i++
		if i >= len(body) || !isDigit(body[i]) {
			return nil, &ParseError{Input: p.in, Pos: start, Msg: "atom class must be a number"}
		}
		for i < len(body) && isDigit(body[i]) {
			a.Class = a.Class*10 + int(body[i]-'0')
			i++
		}
	}

	if i != len(body) {
		return nil, &ParseError{Input: p.in, Pos: start, Msg: fmt.Sprintf("unexpected %q in bracket atom", body[i:])}
	}
	return a, nil
}

// bracketSymbol returns the element or aromatic symbol at the start of s
// and its length, or 0 when none matches.
func bracketSymbol(s string) (string, int) {
	if s == "" {
		return "", 0
	}
	if s[0] == '*' {
		return "*", 1
	}
	if len(s) >= 2 {
		if _, ok := aromaticSymbols[s[:2]]; ok {
			return s[:2], 2
		}
		if isElement(s[:2]) {
			return s[:2], 2
		}
	}
	if _, ok := aromaticSymbols[s[:1]]; ok {
		return s[:1], 1
	}
	if isElement(s[:1]) {
		return s[:1], 1
	}
	return "", 0
}

// finish resolves implicit hydrogens and drops stereo bookkeeping from
// atoms without chirality.
func (p *parser) finish() {
	sums := p.mol.valenceSum()
	for i, a := range p.mol.Atoms {
		if !a.bracketed() {
			a.HCount = implicitHydrogens(a, sums[i])
		}
		if a.Chirality == ChiralNone {
			a.Stereo = nil
		}
	}
}
