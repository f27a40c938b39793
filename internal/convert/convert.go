// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert streams notation lines through a two-stage conversion
// (parse, then render) and writes exactly one output line per input line.
// A line that fails to convert produces an empty output line and a
// diagnostic; only I/O failures abort a run.
package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultMaxLineBytes bounds a single input line.
const DefaultMaxLineBytes = 1 << 20

// inputPrefixBytes is how much of an overlong line a diagnostic quotes.
const inputPrefixBytes = 80

// Parser turns one trimmed input line into a document.
type Parser[D any] interface {
	Parse(text string) (D, error)
}

// Renderer turns a parsed document into its output text.
type Renderer[D any] interface {
	Render(doc D) (string, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc[D any] func(text string) (D, error)

// Parse calls f(text).
func (f ParserFunc[D]) Parse(text string) (D, error) { return f(text) }

// RendererFunc adapts a function to Renderer.
type RendererFunc[D any] func(doc D) (string, error)

// Render calls f(doc).
func (f RendererFunc[D]) Render(doc D) (string, error) { return f(doc) }

// Result is the outcome of one input line. Err is nil on success and for
// blank lines; Output is empty whenever Err is set.
type Result struct {
	Line   int
	Input  string
	Output string
	Blank  bool
	Err    error
}

// Summary holds counts from a conversion run.
type Summary struct {
	Lines     int
	Converted int
	Blank     int
	Failed    int
}

func (s *Summary) add(r Result) {
	s.Lines++
	switch {
	case r.Err != nil:
		s.Failed++
	case r.Blank:
		s.Blank++
	default:
		s.Converted++
	}
}

// HasFailures reports whether any line failed to convert.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

type config struct {
	logger       *zap.Logger
	maxLineBytes int
	newline      string
}

// Option configures a LineConverter.
type Option func(*config)

// WithLogger sets the diagnostic logger. The default discards diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxLineBytes bounds the length of an input line, excluding its
// terminator. Longer lines fail with category "line_too_long".
func WithMaxLineBytes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLineBytes = n
		}
	}
}

// WithNewline overrides the platform line terminator used for output.
func WithNewline(nl string) Option {
	return func(c *config) {
		if nl != "" {
			c.newline = nl
		}
	}
}

// LineConverter converts a line-oriented file of notations.
type LineConverter[D any] struct {
	parser   Parser[D]
	renderer Renderer[D]
	config
}

// New returns a LineConverter that parses with p and renders with r.
func New[D any](p Parser[D], r Renderer[D], opts ...Option) *LineConverter[D] {
	c := &LineConverter[D]{
		parser:   p,
		renderer: r,
		config: config{
			logger:       zap.NewNop(),
			maxLineBytes: DefaultMaxLineBytes,
			newline:      platformNewline,
		},
	}
	for _, opt := range opts {
		opt(&c.config)
	}
	return c
}

// Convert runs both stages on one notation. A panic in either stage is
// returned as a *PanicError.
func (c *LineConverter[D]) Convert(text string) (out string, err error) {
	defer func() {
		if v := recover(); v != nil {
			out, err = "", newPanicError(v)
		}
	}()

	doc, err := c.parser.Parse(text)
	if err != nil {
		return "", err
	}
	return c.renderer.Render(doc)
}

// ConvertFile converts inputPath into outputPath. The input is opened
// before the output is created, so a missing input leaves the output
// untouched. The output is truncated. Errors opening, reading, writing or
// closing either file are returned as *IOError.
func (c *LineConverter[D]) ConvertFile(ctx context.Context, inputPath, outputPath string) (sum Summary, err error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return Summary{}, &IOError{Op: "open", Path: inputPath, Err: err}
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return Summary{}, &IOError{Op: "create", Path: outputPath, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: outputPath, Err: cerr}
		}
	}()

	c.logger.Info("converting", zap.String("input", inputPath), zap.String("output", outputPath))

	sum, err = c.ConvertStream(ctx, in, out)
	var ioErr *IOError
	if errors.As(err, &ioErr) && ioErr.Path == "" {
		ioErr.Path = outputPath
		if ioErr.Op == "read" {
			ioErr.Path = inputPath
		}
	}
	return sum, err
}

// ConvertStream reads lines from in and writes one line per input line to
// out. It returns early only on I/O errors or when ctx is done.
func (c *LineConverter[D]) ConvertStream(ctx context.Context, in io.Reader, out io.Writer) (Summary, error) {
	var sum Summary
	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		raw, tooLong, err := readLine(r, c.maxLineBytes)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, &IOError{Op: "read", Err: err}
		}

		res := c.convertLine(n, raw, tooLong)
		sum.add(res)
		c.report(res)

		if _, err := w.WriteString(res.Output); err != nil {
			return sum, &IOError{Op: "write", Err: err}
		}
		if _, err := w.WriteString(c.newline); err != nil {
			return sum, &IOError{Op: "write", Err: err}
		}
	}

	if err := w.Flush(); err != nil {
		return sum, &IOError{Op: "flush", Err: err}
	}

	c.logger.Info("conversion finished",
		zap.Int("lines", sum.Lines),
		zap.Int("converted", sum.Converted),
		zap.Int("blank", sum.Blank),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

func (c *LineConverter[D]) convertLine(n int, raw []byte, tooLong bool) Result {
	res := Result{Line: n}
	switch {
	case tooLong:
		res.Input = strings.ToValidUTF8(string(raw), "\uFFFD") + "…"
		res.Err = &LineError{Kind: "line_too_long", Msg: fmt.Sprintf("line exceeds %d bytes", c.maxLineBytes)}
	case !utf8.Valid(raw):
		res.Input = strings.ToValidUTF8(string(raw), "\uFFFD")
		res.Err = &LineError{Kind: "invalid_utf8", Msg: "line is not valid UTF-8"}
	default:
		res.Input = string(raw)
		text := strings.TrimSpace(res.Input)
		if text == "" {
			res.Blank = true
			return res
		}
		res.Output, res.Err = c.Convert(text)
	}
	if res.Err != nil {
		res.Output = ""
	}
	return res
}

func (c *LineConverter[D]) report(res Result) {
	if res.Err == nil {
		if !res.Blank {
			c.logger.Debug("converted", zap.Int("line", res.Line))
		}
		return
	}
	fields := []zap.Field{
		zap.Int("line", res.Line),
		zap.String("input", res.Input),
		zap.String("category", Category(res.Err)),
		zap.Error(res.Err),
	}
	var pe *PanicError
	if errors.As(res.Err, &pe) {
		fields = append(fields, zap.ByteString("panic_stack", pe.Stack))
	}
	c.logger.Warn("line failed", fields...)
}

// readLine returns the next line without its terminator. A line ends at
// "\n", "\r\n" or a lone "\r". Lines longer than limit are consumed in
// full and tooLong is set; only their first inputPrefixBytes bytes are
// returned. A final line without a terminator is returned normally; io.EOF
// is returned only when no bytes remain.
func readLine(r *bufio.Reader, limit int) ([]byte, bool, error) {
	var line []byte
	read, tooLong := 0, false
	for {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			if read == 0 {
				return nil, false, io.EOF
			}
			break
		}
		if err != nil {
			return nil, false, err
		}
		if b == '\n' {
			break
		}
		if b == '\r' {
			if next, err := r.Peek(1); err == nil && next[0] == '\n' {
				_, _ = r.Discard(1)
			}
			break
		}
		read++
		switch {
		case read <= limit:
			line = append(line, b)
		case !tooLong:
			tooLong = true
			line = line[:min(len(line), inputPrefixBytes)]
		}
	}
	return line, tooLong, nil
}
