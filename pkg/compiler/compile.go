package compiler

import (
	"errors"
	"fmt"
	"strings"

	"bstgroovy/pkg/bst"
	"bstgroovy/pkg/code"
	"bstgroovy/pkg/processor"
)

// ErrCompile is returned, wrapped, when a run produced error diagnostics.
var ErrCompile = errors.New("compile failed")

// Options controls one compilation.
type Options struct {
	ClassName     string            // name of the generated class, default "Style"
	LocalPrefix   string            // prefix of synthesized locals, default "v"
	Prefixes      map[string]string // per-function prefix overrides, by BST name
	EliminateDead bool              // skip functions no run command can reach
}

func (o Options) withDefaults() Options {
	if o.ClassName == "" {
		o.ClassName = "Style"
	}
	if o.LocalPrefix == "" {
		o.LocalPrefix = processor.DefaultPrefix
	}
	return o
}

func (o Options) prefixFor(fn string) string {
	if p, ok := o.Prefixes[strings.ToLower(fn)]; ok && p != "" {
		return p
	}
	return o.LocalPrefix
}

// Result is everything one run produced. It is returned even when the
// run failed so callers can report the diagnostics.
type Result struct {
	Groovy      string
	Units       []*Unit
	Steps       []Step
	Dead        []string // functions skipped by dead-function elimination
	Diagnostics *Diagnostics
	File        *bst.File
	Symbols     *SymbolTable
}

// Compiler owns the state shared by the functions of one run. It may be
// reused; every Compile call is an independent run.
type Compiler struct {
	opts Options
	reg  *processor.Registry
}

func NewCompiler(opts Options) *Compiler {
	return &Compiler{opts: opts.withDefaults(), reg: processor.NewRegistry()}
}

// Compile is a shorthand for NewCompiler(opts).Compile(src).
func Compile(src string, opts Options) (*Result, error) {
	return NewCompiler(opts).Compile(src)
}

// Compile translates a style file. Lex and parse errors stop the run
// straight away; everything later is reported through diagnostics and
// surfaces as ErrCompile.
func (c *Compiler) Compile(src string) (*Result, error) {
	tokens, err := bst.Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	file, err := bst.Parse(tokens, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	c.reg.Reset()
	c.reg.Reserve(entryObject)

	res := &Result{
		Diagnostics: &Diagnostics{},
		File:        file,
		Symbols:     NewSymbolTable(),
	}
	run := &compileRun{
		Compiler: c,
		res:      res,
		tr:       newTranslator(res.Symbols, c.reg, res.Diagnostics),
	}
	for _, sym := range res.Symbols.All() {
		c.reg.Reserve(sym.Ident)
	}
	if c.opts.EliminateDead {
		run.live = liveFunctions(file)
	}

	for _, cmd := range file.Commands {
		run.command(cmd)
	}

	res.Groovy, err = Generate(res.Symbols, res.Units, res.Steps, c.opts.ClassName)
	if err != nil {
		return res, fmt.Errorf("codegen error: %w", err)
	}
	if n := res.Diagnostics.Errors(); n > 0 {
		return res, fmt.Errorf("%w: %d errors", ErrCompile, n)
	}
	return res, nil
}

// compileRun walks the commands of one file in order. BST names must be
// defined before they are used, so translation happens as definitions are
// seen.
type compileRun struct {
	*Compiler
	res       *Result
	tr        *translator
	live      map[string]bool // nil: all functions are live
	seenEntry bool
}

func (r *compileRun) errorf(line int, format string, args ...any) {
	r.res.Diagnostics.Errorf(line, "", nil, format, args...)
}

func (r *compileRun) define(name string, kind SymbolKind, line int) *Symbol {
	sym, err := r.res.Symbols.Define(name, kind, line)
	if err != nil {
		r.errorf(line, "%v", err)
		return nil
	}
	if sym.Ident != "" {
		r.reg.Reserve(sym.Ident)
	}
	return sym
}

func (r *compileRun) command(cmd bst.Command) {
	switch c := cmd.(type) {
	case *bst.Entry:
		if r.seenEntry {
			r.errorf(c.Line, "ENTRY may only be declared once")
			return
		}
		r.seenEntry = true
		for _, n := range c.Fields {
			r.define(n, SymField, c.Line)
		}
		for _, n := range c.Integers {
			r.define(n, SymEntryInteger, c.Line)
		}
		for _, n := range c.Strings {
			r.define(n, SymEntryString, c.Line)
		}
	case *bst.Integers:
		for _, n := range c.Names {
			r.define(n, SymGlobalInteger, c.Line)
		}
	case *bst.Strings:
		for _, n := range c.Names {
			r.define(n, SymGlobalString, c.Line)
		}
	case *bst.Macro:
		if sym := r.define(c.Name, SymMacro, c.Line); sym != nil {
			sym.Macro = c.Value
		}
	case *bst.Function:
		sym := r.define(c.Name, SymFunction, c.Line)
		if sym == nil {
			return
		}
		if r.live != nil && !r.live[sym.Name] {
			r.res.Dead = append(r.res.Dead, sym.Name)
			return
		}
		unit := r.tr.function(c, sym, r.opts.prefixFor(sym.Name))
		r.res.Units = append(r.res.Units, unit)
	case *bst.Read:
		r.step("", code.NewCall("read", code.Void), c.Line)
	case *bst.Sort:
		r.step("", code.NewCall("sort", code.Void), c.Line)
	case *bst.Run:
		r.run(c)
	}
}

func (r *compileRun) step(mode string, call *code.Call, line int) {
	r.res.Steps = append(r.res.Steps, Step{Mode: mode, Call: call, Line: line})
}

// run resolves the function of an EXECUTE, ITERATE or REVERSE command.
// Top-level commands start with an empty stack, so the function cannot
// take arguments; a result is allowed but thrown away.
func (r *compileRun) run(c *bst.Run) {
	name := strings.ToLower(c.Func)
	if b, ok := lookupBuiltin(name); ok {
		switch {
		case name == "skip$":
		case b.special != nil || len(b.args) > 0 || b.result != code.Void:
			r.errorf(c.Line, "%s {%s}: builtin %s needs values on the stack", c.Mode, name, name)
		default:
			r.step(c.Mode, b.newCall(nil), c.Line)
		}
		return
	}

	sym, ok := r.res.Symbols.Lookup(name)
	switch {
	case !ok:
		r.errorf(c.Line, "%s {%s}: undefined function %s", c.Mode, name, name)
		return
	case sym.Kind != SymFunction:
		r.errorf(c.Line, "%s {%s}: %s is a %s, not a function", c.Mode, name, name, sym.Kind)
		return
	case sym.Sig == nil:
		r.errorf(c.Line, "%s {%s}: function %s was not translated", c.Mode, name, name)
		return
	}
	sig := sym.Sig
	if n := len(sig.Params); n > 0 {
		r.errorf(c.Line, "%s {%s}: %s takes %d values from the stack, which is empty here", c.Mode, name, name, n)
		return
	}
	kind := code.Void
	if sig.Returns {
		kind = sig.Result
		r.res.Diagnostics.Warnf(c.Line, "", nil, "%s {%s}: the value %s leaves on the stack is discarded", c.Mode, name, name)
	}
	r.step(c.Mode, code.NewCall(sym.Ident, kind), c.Line)
}
