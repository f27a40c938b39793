// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolkit renders HELM by delegating to a cheminformatics toolkit
// packaged as a container image. The image reads one HELM notation on
// stdin and writes its SMILES on stdout.
package toolkit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/barneyhill/helm2smiles/internal/container"
	"github.com/barneyhill/helm2smiles/internal/helm"
	"github.com/barneyhill/helm2smiles/internal/smiles"
)

// DefaultTimeout bounds a single container run.
const DefaultTimeout = 2 * time.Minute

// Error reports a toolkit run that failed or produced no usable SMILES.
type Error struct {
	Image string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("toolkit %s: %v", e.Image, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Category classifies the error for diagnostics.
func (e *Error) Category() string { return "toolkit" }

// Renderer renders notations by running Image once per notation.
type Renderer struct {
	Runtime container.Runtime
	Image   string
	Args    []string
	Timeout time.Duration

	ctx context.Context
}

// New returns a Renderer running image on rt.
func New(rt container.Runtime, image string, args ...string) *Renderer {
	return &Renderer{Runtime: rt, Image: image, Args: args, Timeout: DefaultTimeout}
}

// WithContext returns a copy of r whose container runs derive from ctx, so
// cancelling ctx stops an in-flight run.
func (r *Renderer) WithContext(ctx context.Context) *Renderer {
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// Check verifies that the image is present locally.
func (r *Renderer) Check(ctx context.Context) error {
	if err := r.Runtime.ImageExists(ctx, r.Image); err != nil {
		return &Error{Image: r.Image, Err: err}
	}
	return nil
}

// Render sends the canonical HELM2 text of n to the toolkit and returns the
// first non-blank line of its output in this package's canonical SMILES.
func (r *Renderer) Render(n *helm.Notation) (string, error) {
	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	out, err := r.run(ctx, n.String()+"\n")
	if err != nil {
		return "", &Error{Image: r.Image, Err: err}
	}

	line, err := firstLine(out)
	if err != nil {
		return "", &Error{Image: r.Image, Err: err}
	}
	canon, err := smiles.Canonical(line)
	if err != nil {
		return "", &Error{Image: r.Image, Err: fmt.Errorf("unreadable output %q: %w", line, err)}
	}
	return canon, nil
}

func (r *Renderer) run(ctx context.Context, input string) (*bytes.Buffer, error) {
	var out bytes.Buffer
	if err := r.Runtime.Run(ctx, r.Image, r.Args, strings.NewReader(input), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func firstLine(out *bytes.Buffer) (string, error) {
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no output")
}
