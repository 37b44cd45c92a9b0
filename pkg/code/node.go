// Package code is the intermediate representation produced by the
// stack-elimination pass: a closed set of typed expression and statement
// nodes that render themselves as Groovy source.
//
// Every node renders its own indent prefix and no trailing newline;
// Container owns line breaks.
package code

import (
	"fmt"
	"strconv"
)

// Code is implemented by every IR node. The unexported marker keeps the
// set of variants closed to this package.
type Code interface {
	Kind() Kind
	Render(w *Writer, indent string)
	codeNode()
}

// IsTrivial reports whether evaluating c more than once is unobservable.
// Only locals and literals qualify; everything else is hoisted before the
// next statement is emitted.
func IsTrivial(c Code) bool {
	switch c.(type) {
	case *Local, *IntLiteral, *StringLiteral:
		return true
	}
	return false
}

// IntLiteral is an integer constant.
//
//	#42   IntLiteral{Value: 42}
type IntLiteral struct {
	Value int
}

func NewInt(v int) *IntLiteral { return &IntLiteral{Value: v} }

func (*IntLiteral) codeNode()  {}
func (*IntLiteral) Kind() Kind { return Integer }
func (l *IntLiteral) Render(w *Writer, indent string) {
	w.WriteString(indent)
	w.WriteString(strconv.Itoa(l.Value))
}

// StringLiteral is a string constant. It owns the escaping rule used
// wherever literal text is embedded in output, field names included.
type StringLiteral struct {
	Value string
}

func NewString(v string) *StringLiteral { return &StringLiteral{Value: v} }

func (*StringLiteral) codeNode()  {}
func (*StringLiteral) Kind() Kind { return String }
func (l *StringLiteral) Render(w *Writer, indent string) {
	w.WriteString(indent)
	w.WriteString(Quote(l.Value))
}

// Local is a named variable: a synthesized temporary, a function
// parameter, or (Bound) a variable declared outside the generated body.
// Its kind starts as given and is refined by VariableInit and VariableSet.
type Local struct {
	Name  string
	Bound bool
	Init  Code // initializer recorded by the declaring VariableInit

	kind Kind
}

func NewLocal(name string, kind Kind) *Local {
	if name == "" {
		panic("code: local without a name")
	}
	return &Local{Name: name, kind: kind}
}

// NewBound returns a Local for a variable declared by the surrounding
// program, such as a global.
func NewBound(name string, kind Kind) *Local {
	l := NewLocal(name, kind)
	l.Bound = true
	return l
}

func (*Local) codeNode()    {}
func (l *Local) Kind() Kind { return l.kind }

// SetKind refines the kind of l.
func (l *Local) SetKind(k Kind) { l.kind = k }

func (l *Local) Render(w *Writer, indent string) {
	w.WriteString(indent)
	w.WriteString(l.Name)
}

func (l *Local) String() string {
	return fmt.Sprintf("%s:%s", l.Name, l.kind)
}

// VariableInit declares Local, optionally binding Value.
//
//	int v1 = add(1, 2)
//	^^^ ^^   ^^^^^^^^^
//	|   |    Value
//	|   Local.Name
//	Local kind
type VariableInit struct {
	Local *Local
	Value Code
}

// NewVariableInit declares l; value may be nil.
func NewVariableInit(l *Local, value Code) *VariableInit {
	v := &VariableInit{Local: l}
	v.SetValue(value)
	return v
}

// SetValue replaces the initializer and refines the local's kind to the
// kind of value.
func (v *VariableInit) SetValue(value Code) {
	v.Value = value
	v.Local.Init = value
	if value != nil {
		v.Local.SetKind(value.Kind())
	}
}

func (*VariableInit) codeNode()  {}
func (*VariableInit) Kind() Kind { return Void }
// Render declares the local. A local whose kind is still Unknown is
// declared with def rather than treated as an error.
func (v *VariableInit) Render(w *Writer, indent string) {
	w.WriteString(indent)
	w.WriteString(declType(v.Local.Kind()))
	w.WriteString(" ")
	w.WriteString(v.Local.Name)
	if v.Value != nil {
		w.WriteString(" = ")
		render(w, v.Value, "")
	}
}

// VariableSet assigns Value to an existing Local.
type VariableSet struct {
	Local *Local
	Value Code
}

// NewVariableSet assigns value to l. A known value kind refines the kind
// of l; an unknown one leaves it alone.
func NewVariableSet(l *Local, value Code) *VariableSet {
	if value == nil {
		panic("code: assignment without a value")
	}
	if value.Kind().Known() {
		l.SetKind(value.Kind())
	}
	return &VariableSet{Local: l, Value: value}
}

func (*VariableSet) codeNode()  {}
func (*VariableSet) Kind() Kind { return Void }
func (v *VariableSet) Render(w *Writer, indent string) {
	w.WriteString(indent)
	w.WriteString(v.Local.Name)
	w.WriteString(" = ")
	render(w, v.Value, "")
}

// FieldSet stores Value into field Field of the object named Entry.
//
//	entry.set("title", v3)
type FieldSet struct {
	Entry string
	Field string
	Value Code
}

func NewFieldSet(entry, field string, value Code) *FieldSet {
	return &FieldSet{Entry: entry, Field: field, Value: value}
}

func (*FieldSet) codeNode()  {}
func (*FieldSet) Kind() Kind { return Void }
func (f *FieldSet) Render(w *Writer, indent string) {
	w.WriteString(indent)
	w.WriteString(f.Entry)
	w.WriteString(".set(")
	w.WriteString(Quote(f.Field))
	w.WriteString(", ")
	render(w, f.Value, "")
	w.WriteString(")")
}

// FieldGet reads field Field of the object named Entry. Fields can change
// between statements, so a FieldGet is not trivial.
type FieldGet struct {
	Entry string
	Field string

	kind Kind
}

func NewFieldGet(entry, field string, kind Kind) *FieldGet {
	return &FieldGet{Entry: entry, Field: field, kind: kind}
}

func (*FieldGet) codeNode()    {}
func (f *FieldGet) Kind() Kind { return f.kind }
func (f *FieldGet) Render(w *Writer, indent string) {
	w.WriteString(indent)
	w.WriteString(f.Entry)
	w.WriteString(".get(")
	w.WriteString(Quote(f.Field))
	w.WriteString(")")
}

// Call invokes a builtin or a generated function.
//
// Without a Template it renders as name(arg, ...). A Template is a
// fmt format whose %[n]s verbs receive the rendered arguments, used for
// operators:
//
//	Template: "(%[1]s + %[2]s)"   ->   (v1 + 2)
//
// BoolTemplate, when set, renders the call as a Groovy boolean in
// conditions instead of comparing the integer result with zero.
type Call struct {
	Name         string
	Args         []Code
	Template     string
	BoolTemplate string
	Pure         bool // no side effects; dropping an unused result is safe

	kind Kind
}

func NewCall(name string, kind Kind, args ...Code) *Call {
	return &Call{Name: name, Args: args, kind: kind}
}

func (*Call) codeNode()    {}
func (c *Call) Kind() Kind { return c.kind }

func (c *Call) Render(w *Writer, indent string) {
	w.WriteString(indent)
	if c.Template != "" {
		w.WriteString(c.expand(c.Template))
		return
	}
	w.WriteString(c.Name)
	w.WriteString("(")
	for i, arg := range c.Args {
		if i > 0 {
			w.WriteString(", ")
		}
		render(w, arg, "")
	}
	w.WriteString(")")
}

func (c *Call) expand(template string) string {
	args := make([]any, len(c.Args))
	for i, arg := range c.Args {
		if arg == nil {
			panic(fmt.Sprintf("code: call %s has a nil argument", c.Name))
		}
		args[i] = Render(arg)
	}
	return fmt.Sprintf(template, args...)
}

// Condition renders c as a Groovy boolean expression.
func Condition(c Code) string {
	if call, ok := c.(*Call); ok && call.BoolTemplate != "" {
		return call.expand(call.BoolTemplate)
	}
	return Render(c) + " > 0"
}

// Return hands Value back from a generated function.
type Return struct {
	Value Code
}

func (*Return) codeNode()  {}
func (*Return) Kind() Kind { return Void }
func (r *Return) Render(w *Writer, indent string) {
	w.WriteString(indent)
	w.WriteString("return ")
	render(w, r.Value, "")
}
