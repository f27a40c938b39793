// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assembly

import "fmt"

// UnknownMonomerError reports a symbol that is not in the monomer library.
type UnknownMonomerError struct {
	PolymerType string
	Symbol      string
}

func (e *UnknownMonomerError) Error() string {
	return fmt.Sprintf("unknown %s monomer %q", e.PolymerType, e.Symbol)
}

// Category classifies the error for diagnostics.
func (e *UnknownMonomerError) Category() string { return "unknown_monomer" }

// AttachmentError reports an R-group that cannot be bonded: it does not
// exist on the monomer, is already in use, or the bond is chemically
// impossible.
type AttachmentError struct {
	Polymer  string
	Position int
	Symbol   string
	Label    string
	Msg      string
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("%s position %d (%s) %s: %s", e.Polymer, e.Position, e.Symbol, e.Label, e.Msg)
}

// Category classifies the error for diagnostics.
func (e *AttachmentError) Category() string { return "attachment" }
