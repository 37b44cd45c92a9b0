package compiler

import (
	"bstgroovy/pkg/bst"
	"bstgroovy/pkg/code"
	"bstgroovy/pkg/processor"
)

// entryObject is the name of the current-entry object in generated code.
const entryObject = "entry"

// Unit is one translated BST function.
type Unit struct {
	Name   string // BST name
	Ident  string // Groovy method name
	Params []*code.Local
	Body   *code.Container
	Sig    *Signature
	Line   int
}

// meta is a compile-time operand: a quoted name or a block. Metas never
// reach the processor stack; depth records the stack size when the meta
// was pushed so consumers can check nothing was pushed on top of it.
type meta struct {
	quote string
	block *bst.Block
	depth int
	line  int
}

// translator feeds the items of function bodies to processor States.
type translator struct {
	syms  *SymbolTable
	reg   *processor.Registry
	diags *Diagnostics

	fn     string // function being translated
	writes bool   // current function may assign globals
	metas  []meta
}

func newTranslator(syms *SymbolTable, reg *processor.Registry, diags *Diagnostics) *translator {
	return &translator{syms: syms, reg: reg, diags: diags}
}

func (t *translator) errorf(line int, node code.Code, format string, args ...any) {
	t.diags.Errorf(line, t.fn, node, format, args...)
}

func (t *translator) warnf(line int, node code.Code, format string, args ...any) {
	t.diags.Warnf(line, t.fn, node, format, args...)
}

// function translates fn into a Unit and records its signature.
//
// Parameters are the values the body pops beyond what it pushes,
// reversed into push order. A single value left on the stack is the
// return value; more than one cannot be expressed as a method result.
func (t *translator) function(fn *bst.Function, sym *Symbol, prefix string) *Unit {
	t.fn = fn.Name
	t.writes = false
	t.metas = nil
	defer func() { t.fn = "" }()

	st := processor.NewState(t.reg)
	st.SetLocalPrefix(prefix)
	t.body(st, fn.Body.Items)
	t.dropMetas()

	sig := &Signature{Result: code.Void, Writes: t.writes}
	switch st.Size() {
	case 0:
	case 1:
		v := st.Pop()
		sig.Returns = true
		sig.Result = v.Kind()
		st.Add(&code.Return{Value: v})
	default:
		t.errorf(fn.Line, nil, "function leaves %d values on the stack; at most one can be returned", st.Size())
		st.EliminateSideEffects()
	}

	pending := st.Locals()
	sig.Params = make([]*code.Local, len(pending))
	for i, p := range pending {
		sig.Params[len(pending)-1-i] = p
	}
	sym.Sig = sig

	return &Unit{
		Name:   fn.Name,
		Ident:  sym.Ident,
		Params: sig.Params,
		Body:   st.Code(),
		Sig:    sig,
		Line:   fn.Line,
	}
}

// body translates items into st.
func (t *translator) body(st *processor.State, items []bst.Item) {
	for _, item := range items {
		t.item(st, item)
	}
}

func (t *translator) item(st *processor.State, item bst.Item) {
	switch it := item.(type) {
	case *bst.IntLit:
		st.Push(code.NewInt(it.Value))
	case *bst.StrLit:
		st.Push(code.NewString(it.Value))
	case *bst.Quote:
		t.metas = append(t.metas, meta{quote: it.Name, depth: st.Size(), line: it.Line})
	case *bst.Block:
		t.metas = append(t.metas, meta{block: it, depth: st.Size(), line: it.Line})
	case *bst.Name:
		t.name(st, it.Name, it.Line)
	}
}

// name executes a builtin or function, or pushes a variable.
func (t *translator) name(st *processor.State, name string, line int) {
	if b, ok := lookupBuiltin(name); ok {
		if b.special != nil {
			b.special(t, st, line)
			return
		}
		t.apply(st, b, line)
		return
	}

	sym, ok := t.syms.Lookup(name)
	if !ok {
		t.errorf(line, nil, "undefined name %s", name)
		return
	}
	switch sym.Kind {
	case SymField, SymEntryInteger, SymEntryString:
		st.Push(code.NewFieldGet(entryObject, sym.Name, sym.Kind.ValueKind()))
	case SymGlobalInteger, SymGlobalString:
		st.Push(sym.Local)
	case SymFunction:
		if sym.Sig == nil {
			t.errorf(line, nil, "function %s is used inside its own definition", name)
			return
		}
		t.call(st, sym, line)
	case SymMacro:
		t.errorf(line, nil, "macro %s can only be used in the database, not in a function", name)
	}
}

// popArgs pops n values and returns them in push order.
func popArgs(st *processor.State, n int) []code.Code {
	args := make([]code.Code, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = st.Pop()
	}
	return args
}

// checkArg reports a kind mismatch, or refines an undeclared local to
// the kind the consumer expects. Any other value of unknown kind, such as
// the result of a function that returns its untyped parameter, cannot be
// checked and is reported.
func (t *translator) checkArg(what string, i int, want code.Kind, arg code.Code, line int) {
	got := arg.Kind()
	switch {
	case got == code.Void:
		t.errorf(line, arg, "%s: argument %d has no value", what, i+1)
	case want == code.Unknown:
	case got == code.Unknown:
		if l, ok := arg.(*code.Local); ok && !l.Bound && l.Init == nil {
			l.SetKind(want)
			return
		}
		t.errorf(line, arg, "%s: argument %d has unknown kind, expected %s", what, i+1, want)
	case got != want:
		t.errorf(line, arg, "%s: argument %d is %s, expected %s", what, i+1, got, want)
	}
}

func (t *translator) apply(st *processor.State, b *builtin, line int) {
	args := popArgs(st, len(b.args))
	for i, want := range b.args {
		t.checkArg(b.name, i, want, args[i], line)
	}
	if b.name == "=" {
		a, c := args[0].Kind(), args[1].Kind()
		switch {
		case a.Known() && c.Known() && a != c:
			t.errorf(line, args[1], "=: comparing %s with %s", a, c)
		case a.Known():
			t.checkArg(b.name, 1, a, args[1], line)
		case c.Known():
			t.checkArg(b.name, 0, c, args[0], line)
		}
	}
	if b.writes {
		t.writes = true
		st.DetachBound()
	}
	call := b.newCall(args)
	if b.result == code.Void {
		st.Add(call)
		return
	}
	st.Push(call)
}

// call invokes a translated user function.
func (t *translator) call(st *processor.State, sym *Symbol, line int) {
	sig := sym.Sig
	args := popArgs(st, len(sig.Params))
	for i, p := range sig.Params {
		t.checkArg(sym.Name, i, p.Kind(), args[i], line)
	}
	if sig.Writes {
		t.writes = true
		st.DetachBound()
	}
	kind := code.Void
	if sig.Returns {
		kind = sig.Result
	}
	call := code.NewCall(sym.Ident, kind, args...)
	if !sig.Returns {
		st.Add(call)
		return
	}
	st.Push(call)
}

// popMeta removes the top compile-time operand. The caller names what it
// expects for the error message.
func (t *translator) popMeta(st *processor.State, op string, line int) (meta, bool) {
	if len(t.metas) == 0 {
		t.errorf(line, nil, "%s needs a quoted name or block on the stack", op)
		return meta{}, false
	}
	m := t.metas[len(t.metas)-1]
	t.metas = t.metas[:len(t.metas)-1]
	if m.depth != st.Size() {
		t.errorf(line, nil, "%s: values were pushed above the quoted name or block from line %d", op, m.line)
		return meta{}, false
	}
	return m, true
}

func (t *translator) popBlock(st *processor.State, op string, line int) (*bst.Block, bool) {
	m, ok := t.popMeta(st, op, line)
	if !ok {
		return nil, false
	}
	if m.block == nil {
		// 'f runs like { f }.
		name := &bst.Name{Name: m.quote, Line: m.line}
		return &bst.Block{Items: []bst.Item{name}, Line: m.line}, true
	}
	return m.block, true
}

// dropMetas reports compile-time operands left over at the end of a body.
func (t *translator) dropMetas() {
	for _, m := range t.metas {
		what := "block"
		if m.block == nil {
			what = "quoted name '" + m.quote
		}
		t.errorf(m.line, nil, "%s is never used", what)
	}
	t.metas = nil
}

// assign translates value 'name :=.
func (t *translator) assign(st *processor.State, line int) {
	m, ok := t.popMeta(st, ":=", line)
	if !ok {
		return
	}
	if m.block != nil {
		t.errorf(line, nil, ":= expects a quoted name, got a block")
		return
	}
	// The value is computed into a local before the assignment runs.
	st.EliminateSideEffects()
	value := st.Pop()
	sym, ok := t.syms.Lookup(m.quote)
	if !ok {
		t.errorf(line, value, ":= to undefined name %s", m.quote)
		return
	}
	want := sym.Kind.ValueKind()
	switch sym.Kind {
	case SymGlobalInteger, SymGlobalString:
		t.checkArg(":= "+sym.Name, 0, want, value, line)
		t.writes = true
		st.Detach(sym.Local)
		st.Add(code.NewVariableSet(sym.Local, value))
	case SymEntryInteger, SymEntryString:
		t.checkArg(":= "+sym.Name, 0, want, value, line)
		st.Add(code.NewFieldSet(entryObject, sym.Name, value))
	default:
		t.errorf(line, value, "cannot assign to %s %s", sym.Kind, sym.Name)
	}
}

// duplicate$ pushes the top value twice. A computation is hoisted first
// so it runs once.
func (t *translator) duplicate(st *processor.State, line int) {
	v := st.Pop()
	if !code.IsTrivial(v) {
		st.Push(v)
		st.EliminateSideEffects()
		v = st.Pop()
	}
	st.Push(v)
	st.Push(v)
}

// swap$ exchanges the two top values. Pending computations are hoisted
// first so they keep their order.
func (t *translator) swap(st *processor.State, line int) {
	st.EliminateSideEffects()
	a := st.Pop()
	b := st.Pop()
	st.Push(a)
	st.Push(b)
}

// pop$ discards the top value. A computation with side effects still has
// to run, so it becomes a statement.
func (t *translator) pop(st *processor.State, line int) {
	if v := st.Pop(); hasEffects(v) {
		st.Add(v)
	}
}

// hasEffects reports whether evaluating c can be observed.
func hasEffects(c code.Code) bool {
	switch n := c.(type) {
	case *code.Local, *code.IntLiteral, *code.StringLiteral, *code.FieldGet:
		return false
	case *code.Call:
		if !n.Pure {
			return true
		}
		for _, arg := range n.Args {
			if hasEffects(arg) {
				return true
			}
		}
		return false
	}
	return true
}
