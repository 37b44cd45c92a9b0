package compiler

import (
	"fmt"
	"io"

	"github.com/ahrtr/gocontainer/queue/priorityqueue"
	"github.com/fatih/color"

	"bstgroovy/pkg/code"
)

// Severity orders diagnostics; lower values are reported first.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is an expected compile problem. Translation keeps going
// after one so a single run reports as much as it can.
type Diagnostic struct {
	Severity Severity
	Line     int
	Function string    // BST function being translated, "" at top level
	Message  string
	Node     code.Code // offending node, when there is one

	seq int
}

func (d Diagnostic) String() string {
	where := ""
	if d.Function != "" {
		where = fmt.Sprintf(" in %s", d.Function)
	}
	return fmt.Sprintf("line %d: %s%s: %s", d.Line, d.Severity, where, d.Message)
}

// Diagnostics collects the diagnostics of one compilation run.
type Diagnostics struct {
	list []Diagnostic
}

func (ds *Diagnostics) add(sev Severity, line int, fn string, node code.Code, format string, args ...any) {
	ds.list = append(ds.list, Diagnostic{
		Severity: sev,
		Line:     line,
		Function: fn,
		Message:  fmt.Sprintf(format, args...),
		Node:     node,
		seq:      len(ds.list),
	})
}

// Errorf records an error.
func (ds *Diagnostics) Errorf(line int, fn string, node code.Code, format string, args ...any) {
	ds.add(SeverityError, line, fn, node, format, args...)
}

// Warnf records a warning.
func (ds *Diagnostics) Warnf(line int, fn string, node code.Code, format string, args ...any) {
	ds.add(SeverityWarning, line, fn, node, format, args...)
}

func (ds *Diagnostics) Len() int { return len(ds.list) }

// Errors counts error-severity diagnostics.
func (ds *Diagnostics) Errors() int {
	n := 0
	for _, d := range ds.list {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// All returns the diagnostics in the order they were recorded.
func (ds *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, len(ds.list))
	copy(out, ds.list)
	return out
}

// diagnosticOrder ranks errors before warnings, then by line, then by
// recording order.
type diagnosticOrder struct{}

func (diagnosticOrder) Compare(v1, v2 interface{}) (int, error) {
	a, ok1 := v1.(Diagnostic)
	b, ok2 := v2.(Diagnostic)
	if !ok1 || !ok2 {
		return 0, fmt.Errorf("cannot compare %T with %T", v1, v2)
	}
	switch {
	case a.Severity != b.Severity:
		return int(a.Severity) - int(b.Severity), nil
	case a.Line != b.Line:
		return a.Line - b.Line, nil
	}
	return a.seq - b.seq, nil
}

// Sorted returns the diagnostics errors first, each group by line.
func (ds *Diagnostics) Sorted() []Diagnostic {
	pq := priorityqueue.New().WithComparator(diagnosticOrder{})
	for _, d := range ds.list {
		pq.Add(d)
	}
	out := make([]Diagnostic, 0, pq.Size())
	for !pq.IsEmpty() {
		out = append(out, pq.Poll().(Diagnostic))
	}
	return out
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	fileColor    = color.New(color.Bold)
)

// Print writes the sorted diagnostics to w, one per line, prefixed with
// file. Colour follows color.NoColor.
func (ds *Diagnostics) Print(w io.Writer, file string) {
	for _, d := range ds.Sorted() {
		fileColor.Fprintf(w, "%s:%d: ", file, d.Line)
		if d.Severity == SeverityError {
			errorColor.Fprint(w, "error")
		} else {
			warningColor.Fprint(w, "warning")
		}
		if d.Function != "" {
			fmt.Fprintf(w, " in %s", d.Function)
		}
		fmt.Fprintf(w, ": %s\n", d.Message)
	}
}
