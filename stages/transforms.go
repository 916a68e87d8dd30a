package stages

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/corelane/strpipe/pipeline"
)

// Uppercaser converts every byte of the line to upper case.
func Uppercaser(it pipeline.Item) (pipeline.Item, error) {
	return pipeline.NewItem(strings.ToUpper(it.String())), nil
}

// Rotator moves the last byte of the line to the front. The empty
// line rotates to itself.
func Rotator(it pipeline.Item) (pipeline.Item, error) {
	b := it.Bytes()
	if len(b) == 0 {
		return it, nil
	}
	out := make([]byte, len(b))
	out[0] = b[len(b)-1]
	copy(out[1:], b[:len(b)-1])
	return pipeline.NewItem(string(out)), nil
}

// Flipper reverses the line byte for byte.
func Flipper(it pipeline.Item) (pipeline.Item, error) {
	b := it.Bytes()
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return pipeline.NewItem(string(out)), nil
}

// Expander inserts a single space between every byte of the line. The
// result never carries a trailing space.
func Expander(it pipeline.Item) (pipeline.Item, error) {
	b := it.Bytes()
	var buf bytes.Buffer
	for i, c := range b {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteByte(c)
	}
	return pipeline.NewItem(buf.String()), nil
}

// LoggerTo returns a transform that prints "[logger] <line>" to out
// and forwards the line unchanged. This is the side-effecting stage
// exercised in nearly every scenario in spec.md §8; per spec.md §9's
// Design Note #2, the side effect lives in the transform, not in the
// worker loop.
func LoggerTo(out io.Writer) pipeline.TransformFunc {
	return func(it pipeline.Item) (pipeline.Item, error) {
		fmt.Fprintf(out, "[logger] %s\n", it.String())
		return it, nil
	}
}

// PrinterTo returns a transform that prints the bare line, with no
// stage prefix. Intended as a terminal stage.
func PrinterTo(out io.Writer) pipeline.TransformFunc {
	return func(it pipeline.Item) (pipeline.Item, error) {
		fmt.Fprintln(out, it.String())
		return it, nil
	}
}
