package bst

import (
	"fmt"
	"strings"
)

//  Function body items

// Item is one element of a function body.
type Item interface {
	itemNode()
	Pos() int // 1-based source line
	String() string
}

// IntLit pushes an integer constant.
//
//	#1 #-2
type IntLit struct {
	Value int
	Line  int
}

func (*IntLit) itemNode()        {}
func (i *IntLit) Pos() int       { return i.Line }
func (i *IntLit) String() string { return fmt.Sprintf("#%d", i.Value) }

// StrLit pushes a string constant.
type StrLit struct {
	Value string
	Line  int
}

func (*StrLit) itemNode()        {}
func (s *StrLit) Pos() int       { return s.Line }
func (s *StrLit) String() string { return `"` + s.Value + `"` }

// Name executes a builtin or function, or pushes a variable's value.
//
//	title empty$
//	^^^^^ ^^^^^^
//	Name  Name
type Name struct {
	Name string
	Line int
}

func (*Name) itemNode()        {}
func (n *Name) Pos() int       { return n.Line }
func (n *Name) String() string { return n.Name }

// Quote pushes a reference to a name without executing it.
//
//	'label :=
type Quote struct {
	Name string
	Line int
}

func (*Quote) itemNode()        {}
func (q *Quote) Pos() int       { return q.Line }
func (q *Quote) String() string { return "'" + q.Name }

// Block pushes an anonymous function, used by if$ and while$.
type Block struct {
	Items []Item
	Line  int
}

func (*Block) itemNode()  {}
func (b *Block) Pos() int { return b.Line }
func (b *Block) String() string {
	parts := make([]string, len(b.Items))
	for i, item := range b.Items {
		parts[i] = item.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

//  Top-level commands

// Command is one top-level declaration or action of a style file.
type Command interface {
	commandNode()
	Pos() int
	String() string
}

// Entry declares the per-entry fields and variables.
//
//	ENTRY { author title } { label.len } { label }
//	        ^^^^^^^^^^^^     ^^^^^^^^^     ^^^^^
//	        Fields           Integers      Strings
type Entry struct {
	Fields   []string
	Integers []string
	Strings  []string
	Line     int
}

func (*Entry) commandNode() {}
func (e *Entry) Pos() int   { return e.Line }
func (e *Entry) String() string {
	return fmt.Sprintf("ENTRY {%s} {%s} {%s}",
		strings.Join(e.Fields, " "), strings.Join(e.Integers, " "), strings.Join(e.Strings, " "))
}

// Integers declares global integer variables.
type Integers struct {
	Names []string
	Line  int
}

func (*Integers) commandNode()     {}
func (c *Integers) Pos() int       { return c.Line }
func (c *Integers) String() string { return "INTEGERS {" + strings.Join(c.Names, " ") + "}" }

// Strings declares global string variables.
type Strings struct {
	Names []string
	Line  int
}

func (*Strings) commandNode()     {}
func (c *Strings) Pos() int       { return c.Line }
func (c *Strings) String() string { return "STRINGS {" + strings.Join(c.Names, " ") + "}" }

// Macro names a string constant.
//
//	MACRO {jan} {"January"}
type Macro struct {
	Name  string
	Value string
	Line  int
}

func (*Macro) commandNode() {}
func (m *Macro) Pos() int   { return m.Line }
func (m *Macro) String() string {
	return fmt.Sprintf("MACRO {%s} {%q}", m.Name, m.Value)
}

// Function defines a named function.
type Function struct {
	Name string
	Body *Block
	Line int
}

func (*Function) commandNode() {}
func (f *Function) Pos() int   { return f.Line }
func (f *Function) String() string {
	return fmt.Sprintf("FUNCTION {%s} %s", f.Name, f.Body)
}

// Read loads the entries of the bibliography database.
type Read struct {
	Line int
}

func (*Read) commandNode()     {}
func (r *Read) Pos() int       { return r.Line }
func (r *Read) String() string { return "READ" }

// Sort orders the entries by their sort.key$.
type Sort struct {
	Line int
}

func (*Sort) commandNode()     {}
func (s *Sort) Pos() int       { return s.Line }
func (s *Sort) String() string { return "SORT" }

// Loop kinds of a Run command.
const (
	RunExecute = "EXECUTE" // call once
	RunIterate = "ITERATE" // call once per entry
	RunReverse = "REVERSE" // call once per entry, last entry first
)

// Run invokes Func once or for every entry, depending on Mode.
//
//	ITERATE {call.type$}
type Run struct {
	Mode string
	Func string
	Line int
}

func (*Run) commandNode()     {}
func (r *Run) Pos() int       { return r.Line }
func (r *Run) String() string { return fmt.Sprintf("%s {%s}", r.Mode, r.Func) }

// File is a parsed style file.
type File struct {
	Commands []Command
}

// Functions returns the FUNCTION commands in source order.
func (f *File) Functions() []*Function {
	var out []*Function
	for _, c := range f.Commands {
		if fn, ok := c.(*Function); ok {
			out = append(out, fn)
		}
	}
	return out
}
