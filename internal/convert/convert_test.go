// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeParser accepts any text except lines starting with BAD or PANIC.
var fakeParser = ParserFunc[string](func(text string) (string, error) {
	switch {
	case strings.HasPrefix(text, "BAD"):
		return "", errors.New("malformed notation")
	case strings.HasPrefix(text, "PANIC"):
		panic("parser blew up")
	}
	return text, nil
})

// fakeRenderer wraps the document in angle brackets and rejects UNSUPPORTED.
var fakeRenderer = RendererFunc[string](func(doc string) (string, error) {
	if doc == "UNSUPPORTED" {
		return "", &LineError{Kind: "unsupported", Msg: "cannot render"}
	}
	return "<" + doc + ">", nil
})

func newTestConverter(opts ...Option) (*LineConverter[string], *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	opts = append([]Option{WithLogger(zap.New(core)), WithNewline("\n")}, opts...)
	return New[string](fakeParser, fakeRenderer, opts...), logs
}

func convertString(t *testing.T, c *LineConverter[string], input string) (string, Summary) {
	t.Helper()
	var out bytes.Buffer
	sum, err := c.ConvertStream(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	return out.String(), sum
}

func TestConvertStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		sum   Summary
	}{
		{
			name:  "valid, blank, valid",
			input: "VALID_1\n\nVALID_2\n",
			want:  "<VALID_1>\n\n<VALID_2>\n",
			sum:   Summary{Lines: 3, Converted: 2, Blank: 1},
		},
		{
			name:  "garbage line",
			input: "BAD_NOTATION\n",
			want:  "\n",
			sum:   Summary{Lines: 1, Failed: 1},
		},
		{
			name:  "failure between valid lines",
			input: "A\nBAD\nB\n",
			want:  "<A>\n\n<B>\n",
			sum:   Summary{Lines: 3, Converted: 2, Failed: 1},
		},
		{
			name:  "render failure",
			input: "UNSUPPORTED\nA\n",
			want:  "\n<A>\n",
			sum:   Summary{Lines: 2, Converted: 1, Failed: 1},
		},
		{
			name:  "whitespace is trimmed",
			input: "  A \t\n\t \n",
			want:  "<A>\n\n",
			sum:   Summary{Lines: 2, Converted: 1, Blank: 1},
		},
		{
			name:  "final line without terminator",
			input: "A\nB",
			want:  "<A>\n<B>\n",
			sum:   Summary{Lines: 2, Converted: 2},
		},
		{
			name:  "CRLF input",
			input: "A\r\n\r\nB\r\n",
			want:  "<A>\n\n<B>\n",
			sum:   Summary{Lines: 3, Converted: 2, Blank: 1},
		},
		{
			name:  "lone CR",
			input: "A\rB\r\rC",
			want:  "<A>\n<B>\n\n<C>\n",
			sum:   Summary{Lines: 4, Converted: 3, Blank: 1},
		},
		{
			name:  "mixed terminators",
			input: "A\r\nB\rC\nD\n\r",
			want:  "<A>\n<B>\n<C>\n<D>\n\n",
			sum:   Summary{Lines: 5, Converted: 4, Blank: 1},
		},
		{
			name:  "LF CR is two terminators",
			input: "A\n\rB\r",
			want:  "<A>\n\n<B>\n",
			sum:   Summary{Lines: 3, Converted: 2, Blank: 1},
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
			sum:   Summary{},
		},
		{
			name:  "only blank lines",
			input: "\n\n\n",
			want:  "\n\n\n",
			sum:   Summary{Lines: 3, Blank: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestConverter()
			got, sum := convertString(t, c, tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.sum, sum)
			assert.Equal(t, sum.Lines, strings.Count(got, "\n"), "one output line per input line")
			assert.Equal(t, tt.sum.Failed > 0, sum.HasFailures())
		})
	}
}

func TestDiagnostics(t *testing.T) {
	c, logs := newTestConverter()
	convertString(t, c, "A\n\nBAD_NOTATION\n")

	failed := logs.FilterMessage("line failed").All()
	require.Len(t, failed, 1, "blank lines are never logged as failures")
	fields := failed[0].ContextMap()
	assert.Equal(t, int64(3), fields["line"])
	assert.Equal(t, "BAD_NOTATION", fields["input"])
	assert.Equal(t, "errors.errorString", fields["category"])
	assert.Equal(t, "malformed notation", fields["error"])

	finished := logs.FilterMessage("conversion finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, int64(1), finished[0].ContextMap()["failed"])
}

func TestPanicIsolated(t *testing.T) {
	c, logs := newTestConverter()
	got, sum := convertString(t, c, "PANIC\nA\n")

	assert.Equal(t, "\n<A>\n", got)
	assert.Equal(t, Summary{Lines: 2, Converted: 1, Failed: 1}, sum)

	failed := logs.FilterMessage("line failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "panic", failed[0].ContextMap()["category"])
	assert.Contains(t, failed[0].ContextMap()["panic_stack"], "convert")
}

func TestConvert(t *testing.T) {
	c, _ := newTestConverter()

	out, err := c.Convert("X")
	require.NoError(t, err)
	assert.Equal(t, "<X>", out)

	_, err = c.Convert("PANIC")
	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "parser blew up", pe.Value)
	assert.Equal(t, "panic: parser blew up", err.Error())
}

func TestLineTooLong(t *testing.T) {
	c, logs := newTestConverter(WithMaxLineBytes(5000))
	long := strings.Repeat("x", 10000)
	fits := strings.Repeat("y", 4500)

	got, sum := convertString(t, c, "A\n"+long+"\n"+fits+"\nB\n")
	assert.Equal(t, "<A>\n\n<"+fits+">\n<B>\n", got)
	assert.Equal(t, Summary{Lines: 4, Converted: 3, Failed: 1}, sum)

	failed := logs.FilterMessage("line failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "line_too_long", failed[0].ContextMap()["category"])
	assert.Equal(t, int64(2), failed[0].ContextMap()["line"])
	assert.Equal(t, strings.Repeat("x", 80)+"…", failed[0].ContextMap()["input"])
}

func TestLineTooLongQuotesValidUTF8(t *testing.T) {
	c, logs := newTestConverter(WithMaxLineBytes(100))
	// 79 ASCII bytes put the 80-byte cut inside a two-byte rune.
	line := strings.Repeat("a", 79) + strings.Repeat("é", 50)

	got, sum := convertString(t, c, line+"\r\nB")
	assert.Equal(t, "\n<B>\n", got)
	assert.Equal(t, Summary{Lines: 2, Converted: 1, Failed: 1}, sum)

	failed := logs.FilterMessage("line failed").All()
	require.Len(t, failed, 1)
	input, _ := failed[0].ContextMap()["input"].(string)
	assert.True(t, utf8.ValidString(input))
	assert.True(t, strings.HasPrefix(input, strings.Repeat("a", 79)))
	assert.True(t, strings.HasSuffix(input, "…"))
}

func TestTerminatorSplitAcrossReads(t *testing.T) {
	c, _ := newTestConverter()
	var out bytes.Buffer
	in := iotest.OneByteReader(strings.NewReader("A\r\nB\rC\r\n"))
	sum, err := c.ConvertStream(context.Background(), in, &out)
	require.NoError(t, err)
	assert.Equal(t, "<A>\n<B>\n<C>\n", out.String())
	assert.Equal(t, Summary{Lines: 3, Converted: 3}, sum)
}

func TestLineLimitExcludesTerminator(t *testing.T) {
	c, _ := newTestConverter(WithMaxLineBytes(3))
	got, sum := convertString(t, c, "abc\r\nabcd\nabc")
	assert.Equal(t, "<abc>\n\n<abc>\n", got)
	assert.Equal(t, 1, sum.Failed)
}

func TestInvalidUTF8(t *testing.T) {
	c, logs := newTestConverter()
	got, sum := convertString(t, c, "A\n\xff\xfe\nB\n")
	assert.Equal(t, "<A>\n\n<B>\n", got)
	assert.Equal(t, 1, sum.Failed)

	failed := logs.FilterMessage("line failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "invalid_utf8", failed[0].ContextMap()["category"])
}

func TestNewline(t *testing.T) {
	c := New[string](fakeParser, fakeRenderer, WithNewline("\r\n"))
	var out bytes.Buffer
	_, err := c.ConvertStream(context.Background(), strings.NewReader("A\n\nB"), &out)
	require.NoError(t, err)
	assert.Equal(t, "<A>\r\n\r\n<B>\r\n", out.String())
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestStreamIOErrors(t *testing.T) {
	c, _ := newTestConverter()
	boom := errors.New("device gone")

	_, err := c.ConvertStream(context.Background(), failingReader{boom}, &bytes.Buffer{})
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "read", ioErr.Op)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "io", Category(err))

	_, err = c.ConvertStream(context.Background(), strings.NewReader("A\n"), failingWriter{boom})
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "flush", ioErr.Op)
	assert.ErrorIs(t, err, boom)
}

func TestContextCancelled(t *testing.T) {
	c, _ := newTestConverter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ConvertStream(ctx, strings.NewReader("A\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)

	var ioErr *IOError
	assert.False(t, errors.As(err, &ioErr))
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.helm")
	out := filepath.Join(dir, "out.smi")
	require.NoError(t, os.WriteFile(in, []byte("A\n\nBAD\nB\n"), 0o644))

	c, _ := newTestConverter()
	sum, err := c.ConvertFile(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Lines: 4, Converted: 2, Blank: 1, Failed: 1}, sum)

	first, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<A>\n\n\n<B>\n", string(first))

	// A second run truncates and rewrites the same bytes.
	_, err = c.ConvertFile(context.Background(), in, out)
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConvertFileTruncatesLongerOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.helm")
	out := filepath.Join(dir, "out.smi")
	require.NoError(t, os.WriteFile(in, []byte("A\n"), 0o644))
	require.NoError(t, os.WriteFile(out, []byte("stale\nstale\nstale\n"), 0o644))

	c, _ := newTestConverter()
	_, err := c.ConvertFile(context.Background(), in, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<A>\n", string(data))
}

func TestConvertFileErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.helm")
	require.NoError(t, os.WriteFile(in, []byte("A\n"), 0o644))

	tests := []struct {
		name   string
		input  string
		output string
		op     string
		path   string
	}{
		{
			name:   "missing input",
			input:  filepath.Join(dir, "missing.helm"),
			output: filepath.Join(dir, "untouched.smi"),
			op:     "open",
			path:   filepath.Join(dir, "missing.helm"),
		},
		{
			name:   "output directory does not exist",
			input:  in,
			output: filepath.Join(dir, "no", "such", "dir", "out.smi"),
			op:     "create",
			path:   filepath.Join(dir, "no", "such", "dir", "out.smi"),
		},
		{
			name:   "input is a directory",
			input:  dir,
			output: filepath.Join(dir, "dir.smi"),
			op:     "read",
			path:   dir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestConverter()
			_, err := c.ConvertFile(context.Background(), tt.input, tt.output)

			var ioErr *IOError
			require.True(t, errors.As(err, &ioErr), "got %v", err)
			assert.Equal(t, tt.op, ioErr.Op)
			assert.Equal(t, tt.path, ioErr.Path)
			assert.Contains(t, err.Error(), tt.path)
		})
	}

	_, err := os.Stat(filepath.Join(dir, "untouched.smi"))
	assert.True(t, os.IsNotExist(err), "missing input must not create the output")
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "", Category(nil))
	assert.Equal(t, "errors.errorString", Category(errors.New("x")))
	assert.Equal(t, "line_too_long", Category(&LineError{Kind: "line_too_long"}))
	assert.Equal(t, "io", Category(&IOError{Op: "open", Err: errors.New("x")}))
}
