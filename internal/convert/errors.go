// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// IOError reports a failure opening, reading, writing, flushing or closing
// the input or output file. It aborts the run.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Category classifies the error for diagnostics.
func (e *IOError) Category() string { return "io" }

// LineError reports an input line that was rejected before conversion.
type LineError struct {
	Kind string
	Msg  string
}

func (e *LineError) Error() string { return e.Msg }

// Category classifies the error for diagnostics.
func (e *LineError) Category() string { return e.Kind }

// PanicError is a panic recovered from a parser or renderer.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Category classifies the error for diagnostics.
func (e *PanicError) Category() string { return "panic" }

// Category returns the category of the first error in err's chain that
// declares one, or the Go type name of err.
func Category(err error) string {
	if err == nil {
		return ""
	}
	var c interface{ Category() string }
	if errors.As(err, &c) {
		return c.Category()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
