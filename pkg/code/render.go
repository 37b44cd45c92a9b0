package code

import (
	"fmt"
	"io"
	"strings"
)

// Indent is one nesting level of generated source.
const Indent = "    "

// Writer is the output sink handed to Render. The first write error is
// kept and every later write becomes a no-op, so node renderers do not
// check errors themselves.
type Writer struct {
	w   io.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *Writer) Printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// Line writes indent, the formatted text and a newline.
func (w *Writer) Line(indent, format string, args ...any) {
	w.WriteString(indent)
	w.Printf(format, args...)
	w.WriteString("\n")
}

// Err returns the first error seen by the writer.
func (w *Writer) Err() error {
	return w.err
}

// Render renders c with no indent and returns the text.
func Render(c Code) string {
	var sb strings.Builder
	render(NewWriter(&sb), c, "")
	return sb.String()
}

// render is the nil-checked entry point every parent node uses for its
// children.
func render(w *Writer, c Code, indent string) {
	if c == nil {
		panic("code: rendering a nil node")
	}
	c.Render(w, indent)
}

// Quote returns s as a double-quoted Groovy string literal. Dollar signs
// are escaped so the literal never interpolates.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '$':
			sb.WriteString(`\$`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
