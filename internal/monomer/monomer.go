// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package monomer holds the monomer definitions that HELM symbols resolve
// to. A monomer is a SMILES fragment whose attachment atoms are written
// [*:n] for R-group Rn, together with the cap each R-group receives when
// it is left unconnected.
package monomer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/barneyhill/helm2smiles/internal/smiles"
)

// Attachment is an R-group of a monomer and its default cap.
type Attachment struct {
	Label string `yaml:"label" json:"label"`
	Cap   string `yaml:"cap" json:"cap"`
}

// Class returns the atom class of the label ("R3" -> 3), or 0.
func (a Attachment) Class() int {
	n, err := strconv.Atoi(strings.TrimPrefix(a.Label, "R"))
	if err != nil || !strings.HasPrefix(a.Label, "R") || n < 1 {
		return 0
	}
	return n
}

// Monomer is one library entry.
type Monomer struct {
	PolymerType   string       `yaml:"polymer_type" json:"polymer_type"`
	Symbol        string       `yaml:"symbol" json:"symbol"`
	Name          string       `yaml:"name,omitempty" json:"name,omitempty"`
	NaturalAnalog string       `yaml:"natural_analog,omitempty" json:"natural_analog,omitempty"`
	SMILES        string       `yaml:"smiles" json:"smiles"`
	Attachments   []Attachment `yaml:"attachments" json:"attachments"`
}

// Attachment returns the attachment with the given label.
func (m *Monomer) Attachment(label string) (Attachment, bool) {
	for _, a := range m.Attachments {
		if a.Label == label {
			return a, true
		}
	}
	return Attachment{}, false
}

// Validate checks that the SMILES parses and that its attachment atoms and
// the declared attachments agree.
func (m *Monomer) Validate() error {
	if m.Symbol == "" {
		return fmt.Errorf("monomer without a symbol")
	}
	switch m.PolymerType {
	case "PEPTIDE", "RNA", "CHEM":
	default:
		return fmt.Errorf("monomer %s: unknown polymer type %q", m.Symbol, m.PolymerType)
	}
	mol, err := smiles.Parse(m.SMILES)
	if err != nil {
		return fmt.Errorf("monomer %s: %w", m.Symbol, err)
	}

	points := mol.AttachmentPoints()
	seen := make(map[int]bool, len(m.Attachments))
	for _, a := range m.Attachments {
		class := a.Class()
		if class == 0 {
			return fmt.Errorf("monomer %s: bad attachment label %q", m.Symbol, a.Label)
		}
		if seen[class] {
			return fmt.Errorf("monomer %s: attachment %s declared twice", m.Symbol, a.Label)
		}
		seen[class] = true
		if _, ok := points[class]; !ok {
			return fmt.Errorf("monomer %s: SMILES has no [*:%d] for %s", m.Symbol, class, a.Label)
		}
		if _, err := CapSMILES(a.Cap); err != nil {
			return fmt.Errorf("monomer %s %s: %w", m.Symbol, a.Label, err)
		}
	}
	for class := range points {
		if !seen[class] {
			return fmt.Errorf("monomer %s: [*:%d] has no attachment entry", m.Symbol, class)
		}
	}
	return nil
}

var namedCaps = map[string]string{
	"H":   "[*:1][H]",
	"OH":  "[*:1]O",
	"NH2": "[*:1]N",
	"CH3": "[*:1]C",
}

// CapSMILES returns the SMILES fragment for a cap: one of the named caps
// or a fragment bonded through a single [*:1] atom.
func CapSMILES(cap string) (string, error) {
	if s, ok := namedCaps[cap]; ok {
		return s, nil
	}
	if !strings.Contains(cap, "[*:1]") {
		return "", fmt.Errorf("cap %q is neither a named cap nor a fragment with [*:1]", cap)
	}
	mol, err := smiles.Parse(cap)
	if err != nil {
		return "", fmt.Errorf("cap %q: %w", cap, err)
	}
	if points := mol.AttachmentPoints(); len(points) != 1 {
		return "", fmt.Errorf("cap %q must have exactly one attachment atom", cap)
	}
	return cap, nil
}
