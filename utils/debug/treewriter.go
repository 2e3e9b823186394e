// Package debug has helpers producing human readable dumps of documents.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines, two spaces per level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Node writes node line prefixed with its document position. Attributes
// are written as key=value pairs in given order.
func (tw TreeWriter) Node(depth, pos int, label string, attrs ...string) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, "%d %s", pos, label)
	for i := 0; i+1 < len(attrs); i += 2 {
		fmt.Fprintf(tw.w, " %s=%s", attrs[i], encodeText(attrs[i+1]))
	}
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
