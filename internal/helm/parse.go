// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package helm

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

const sectionCount = 5

// Parser parses HELM strings. The zero value is ready to use.
type Parser struct{}

// Parse parses a single HELM string.
func (Parser) Parse(text string) (*Notation, error) {
	return Parse(text)
}

// Parse reads a HELM1 or HELM2 string into a Notation and validates the
// references between its sections. HELM1 hydrogen-bond pairs are merged
// into the connection list.
func Parse(text string) (*Notation, error) {
	sections, err := splitSections(text)
	if err != nil {
		return nil, err
	}

	n := &Notation{Version: sections[4]}
	if n.Version != "" && n.Version != Version2 {
		return nil, &SyntaxError{Section: "version", Err: errors.New("expected V2.0 or an empty HELM1 version: " + strconv.Quote(n.Version))}
	}

	if sections[0] == "" {
		return nil, &SyntaxError{Section: "polymer", Err: errors.New("no simple polymers")}
	}
	polymers, err := polymerParser.ParseString("", sections[0])
	if err != nil {
		return nil, &SyntaxError{Section: "polymer", Err: err}
	}
	for _, p := range polymers.Polymers {
		n.Polymers = append(n.Polymers, buildPolymer(p))
	}

	if n.Connections, err = parseConnections("connection", sections[1]); err != nil {
		return nil, err
	}

	if n.Version == "" {
		pairs, err := parseConnections("hydrogen bond", sections[2])
		if err != nil {
			return nil, err
		}
		n.Connections = append(n.Connections, pairs...)
	} else if sections[2] != "" {
		groups, err := groupParser.ParseString("", sections[2])
		if err != nil {
			return nil, &SyntaxError{Section: "group", Err: err}
		}
		for _, g := range groups.Groups {
			grp, err := buildGroup(g)
			if err != nil {
				return nil, err
			}
			n.Groups = append(n.Groups, grp)
		}
	}

	n.Annotation = sections[3]
	if n.Version != "" && n.Annotation != "" && !json.Valid([]byte(n.Annotation)) {
		return nil, &SyntaxError{Section: "annotation", Err: errors.New("extended annotation is not valid JSON")}
	}

	if err := validate(n); err != nil {
		return nil, err
	}
	return n, nil
}

// splitSections splits on "$" outside brackets, braces and quotes.
func splitSections(text string) ([]string, error) {
	var (
		sections []string
		start    int
		brackets int
		braces   int
		quoted   bool
	)
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			brackets++
		case c == ']':
			brackets--
		case c == '{':
			braces++
		case c == '}':
			braces--
		case c == '$' && brackets == 0 && braces == 0:
			sections = append(sections, text[start:i])
			start = i + 1
		}
		if brackets < 0 || braces < 0 {
			return nil, &SyntaxError{Err: errors.New("unbalanced brackets at offset " + strconv.Itoa(i))}
		}
	}
	sections = append(sections, text[start:])

	if quoted || brackets != 0 || braces != 0 {
		return nil, &SyntaxError{Err: errors.New("unterminated quote, bracket or brace")}
	}
	if len(sections) != sectionCount {
		return nil, &SyntaxError{Err: errors.New("expected 5 '$'-separated sections, found " + strconv.Itoa(len(sections)))}
	}
	return sections, nil
}

func parseConnections(section, text string) ([]*Connection, error) {
	if text == "" {
		return nil, nil
	}
	ast, err := connectionParser.ParseString("", text)
	if err != nil {
		return nil, &SyntaxError{Section: section, Err: err}
	}
	conns := make([]*Connection, 0, len(ast.Connections))
	for _, c := range ast.Connections {
		conns = append(conns, &Connection{
			Source:       c.Source,
			Target:       c.Target,
			SourcePos:    c.SourcePos,
			SourceAttach: c.SourceAttach,
			TargetPos:    c.TargetPos,
			TargetAttach: c.TargetAttach,
			Annotation:   unquote(c.Annotation),
		})
	}
	return conns, nil
}

func buildPolymer(ast *polymerAST) *Polymer {
	return &Polymer{
		ID:         ast.ID,
		Type:       polymerType(ast.ID),
		Units:      buildUnits(ast.Units),
		Annotation: unquote(ast.Annotation),
	}
}

func buildUnits(asts []*unitAST) []*Unit {
	units := make([]*Unit, 0, len(asts))
	for _, u := range asts {
		unit := &Unit{
			Repeat:     unquoteWith(u.Repeat, "'"),
			Annotation: unquote(u.Annotation),
		}
		if u.Group != nil {
			unit.Group = buildUnits(u.Group)
		}
		for _, it := range u.Items {
			item := &Item{Monomer: buildMonomer(it.Monomer)}
			if it.Branch != nil {
				item.Branch = buildMonomer(it.Branch)
			}
			unit.Items = append(unit.Items, item)
		}
		units = append(units, unit)
	}
	return units
}

func buildMonomer(ast *monomerAST) *MonomerRef {
	m := &MonomerRef{Symbol: ast.Symbol, Annotation: unquote(ast.Annotation)}
	if strings.HasPrefix(m.Symbol, "[") {
		m.Symbol = m.Symbol[1 : len(m.Symbol)-1]
		m.Bracketed = true
	}
	return m
}

func buildGroup(ast *groupAST) (*Group, error) {
	g := &Group{
		ID:         ast.ID,
		Members:    []GroupMember{buildMember(ast.First)},
		Annotation: unquote(ast.Annotation),
	}
	for i, tail := range ast.Rest {
		exclusive := tail.Sep == ","
		if i > 0 && exclusive != g.Exclusive {
			return nil, invalidf("group %s mixes '+' and ',' separators", g.ID)
		}
		g.Exclusive = exclusive
		g.Members = append(g.Members, buildMember(tail.Member))
	}
	return g, nil
}

func buildMember(ast *groupMemberAST) GroupMember {
	m := GroupMember{ID: ast.ID}
	if ast.Ratio != nil {
		m.Ratio = *ast.Ratio
	}
	return m
}

func polymerType(id string) PolymerType {
	for _, t := range []PolymerType{Peptide, RNA, Chem, Blob} {
		if strings.HasPrefix(id, string(t)) {
			return t
		}
	}
	return ""
}

func unquote(s *string) string { return unquoteWith(s, `"`) }

func unquoteWith(s *string, q string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(*s, q), q)
}

func validate(n *Notation) error {
	sizes := make(map[string]int, len(n.Polymers))
	for _, p := range n.Polymers {
		if _, dup := sizes[p.ID]; dup {
			return invalidf("duplicate polymer ID %s", p.ID)
		}
		sizes[p.ID] = -1
		residues, err := p.Expand()
		if err == nil {
			sizes[p.ID] = len(residues)
		}
		if p.Type == Chem && (len(p.Units) != 1 || len(p.Units[0].Items) != 1 || p.Units[0].Repeat != "") {
			return invalidf("CHEM polymer %s must hold exactly one monomer", p.ID)
		}
	}

	groups := make(map[string]bool, len(n.Groups))
	for _, g := range n.Groups {
		if groups[g.ID] {
			return invalidf("duplicate group ID %s", g.ID)
		}
		groups[g.ID] = true
	}
	for _, g := range n.Groups {
		for _, m := range g.Members {
			if _, ok := sizes[m.ID]; !ok && !groups[m.ID] {
				return invalidf("group %s references unknown entity %s", g.ID, m.ID)
			}
		}
	}

	for _, c := range n.Connections {
		for _, end := range []struct{ id, pos string }{{c.Source, c.SourcePos}, {c.Target, c.TargetPos}} {
			size, ok := sizes[end.id]
			if !ok {
				if groups[end.id] {
					continue
				}
				return invalidf("connection %s references unknown polymer %s", c, end.id)
			}
			if end.pos == "?" || size < 0 {
				continue
			}
			pos, err := strconv.Atoi(end.pos)
			if err != nil || pos < 1 || pos > size {
				return invalidf("connection %s: position %s is outside %s (1..%d)", c, end.pos, end.id, size)
			}
		}
		if (c.SourceAttach == "pair") != (c.TargetAttach == "pair") {
			return invalidf("connection %s pairs a hydrogen bond with an R-group", c)
		}
	}
	return nil
}
