// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package helm

import "fmt"

// SyntaxError reports notation that does not match the HELM grammar.
type SyntaxError struct {
	Section string
	Err     error
}

func (e *SyntaxError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("HELM syntax: %v", e.Err)
	}
	return fmt.Sprintf("HELM syntax in %s section: %v", e.Section, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Category classifies the error for diagnostics.
func (e *SyntaxError) Category() string { return "syntax" }

// ValidationError reports well-formed notation that is inconsistent, such
// as a connection to a polymer that does not exist.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "HELM validation: " + e.Msg }

// Category classifies the error for diagnostics.
func (e *ValidationError) Category() string { return "validation" }

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedError reports valid HELM that cannot be expanded into a single
// structure, such as a repeat range or an ambiguous position.
type UnsupportedError struct {
	What string
}

func (e *UnsupportedError) Error() string { return "unsupported HELM construct: " + e.What }

// Category classifies the error for diagnostics.
func (e *UnsupportedError) Category() string { return "unsupported" }
