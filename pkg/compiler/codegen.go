package compiler

import (
	"strings"

	"bstgroovy/pkg/bst"
	"bstgroovy/pkg/code"
)

// RuntimeClass is the base class generated styles extend. It provides the
// entry loop, the builtin helpers and the ENTRY_MAX/GLOBAL_MAX limits.
const RuntimeClass = "BstStyle"

// Step is one top-level action replayed by the generated run() method.
type Step struct {
	Mode string    // bst.RunIterate or bst.RunReverse wrap Call in a loop
	Call *code.Call
	Line int
}

// CodeGen writes the Groovy class for a translated style.
type CodeGen struct {
	syms      *SymbolTable
	className string
	out       strings.Builder
	w         *code.Writer
}

func newCodeGen(syms *SymbolTable, className string) *CodeGen {
	cg := &CodeGen{syms: syms, className: className}
	cg.w = code.NewWriter(&cg.out)
	return cg
}

func (cg *CodeGen) line(indent, format string, args ...any) {
	cg.w.Line(indent, format, args...)
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = code.Quote(n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func (cg *CodeGen) names(k SymbolKind) []string {
	var out []string
	for _, sym := range cg.syms.OfKind(k) {
		out = append(out, sym.Name)
	}
	return out
}

// genTables writes the database-facing declarations: macros and the
// names of the per-entry fields and variables.
func (cg *CodeGen) genTables() {
	in := code.Indent
	macros := cg.syms.OfKind(SymMacro)
	if len(macros) == 0 {
		cg.line(in, "static final Map<String, String> MACROS = [:]")
	} else {
		cg.line(in, "static final Map<String, String> MACROS = [")
		for _, m := range macros {
			cg.line(in+code.Indent, "%s: %s,", code.Quote(m.Name), code.Quote(m.Macro))
		}
		cg.line(in, "]")
	}
	cg.line(in, "static final List<String> FIELDS = %s", quoteAll(cg.names(SymField)))
	cg.line(in, "static final List<String> ENTRY_INTEGERS = %s", quoteAll(cg.names(SymEntryInteger)))
	cg.line(in, "static final List<String> ENTRY_STRINGS = %s", quoteAll(cg.names(SymEntryString)))
}

func (cg *CodeGen) genGlobals() {
	globals := append(cg.syms.OfKind(SymGlobalInteger), cg.syms.OfKind(SymGlobalString)...)
	if len(globals) == 0 {
		return
	}
	cg.w.WriteString("\n")
	for _, sym := range globals {
		zero := "0"
		if sym.Kind == SymGlobalString {
			zero = `""`
		}
		cg.line(code.Indent, "%s %s = %s", sym.Kind.ValueKind().GroovyType(), sym.Ident, zero)
	}
}

// genUnit writes one method.
//
//	int format_pages(String v1) {
//	    ...
//	}
func (cg *CodeGen) genUnit(u *Unit) {
	params := make([]string, len(u.Params))
	for i, p := range u.Params {
		params[i] = p.Kind().GroovyType() + " " + p.Name
	}
	result := "void"
	if u.Sig.Returns {
		result = u.Sig.Result.GroovyType()
	}
	cg.w.WriteString("\n")
	cg.line(code.Indent, "// FUNCTION {%s}", u.Name)
	cg.line(code.Indent, "%s %s(%s) {", result, u.Ident, strings.Join(params, ", "))
	if u.Body.Len() > 0 {
		u.Body.Render(cg.w, code.Indent+code.Indent)
		cg.w.WriteString("\n")
	}
	cg.line(code.Indent, "}")
}

func (cg *CodeGen) genRun(steps []Step) {
	in := code.Indent + code.Indent
	cg.w.WriteString("\n")
	cg.line(code.Indent, "void run() {")
	for _, s := range steps {
		call := code.Render(s.Call)
		switch s.Mode {
		case bst.RunIterate:
			cg.line(in, "iterate { %s }", call)
		case bst.RunReverse:
			cg.line(in, "reverse { %s }", call)
		default:
			cg.line(in, "%s", call)
		}
	}
	cg.line(code.Indent, "}")
}

// Generate renders the class named className from the symbols, the
// translated units and the top-level steps.
func Generate(syms *SymbolTable, units []*Unit, steps []Step, className string) (string, error) {
	cg := newCodeGen(syms, className)

	cg.line("", "class %s extends %s {", className, RuntimeClass)
	cg.genTables()
	cg.genGlobals()
	for _, u := range units {
		cg.genUnit(u)
	}
	cg.genRun(steps)
	cg.line("", "}")

	if err := cg.w.Err(); err != nil {
		return "", err
	}
	return cg.out.String(), nil
}
