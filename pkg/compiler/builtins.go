package compiler

import (
	"bstgroovy/pkg/code"
	"bstgroovy/pkg/processor"
)

// builtin describes one BST primitive. Most primitives are plain calls and
// are translated from the table alone; the stack and control primitives
// set special instead.
type builtin struct {
	name   string
	args   []code.Kind // in push order; Unknown accepts any kind
	result code.Kind   // Void when nothing is pushed

	helper       string // runtime method called by the generated code
	template     string // operator form, see code.Call
	boolTemplate string
	pure         bool
	writes       bool // may assign globals through the functions it runs

	special func(t *translator, st *processor.State, line int)
}

var (
	anyKind = code.Unknown
	intKind = code.Integer
	strKind = code.String
)

func kinds(k ...code.Kind) []code.Kind { return k }

// builtins is the BST primitive library. Helper names refer to methods of
// the runtime base class the generated class extends.
var builtins = map[string]*builtin{
	">": {name: ">", args: kinds(intKind, intKind), result: intKind, pure: true,
		template: "(%[1]s > %[2]s ? 1 : 0)", boolTemplate: "%[1]s > %[2]s"},
	"<": {name: "<", args: kinds(intKind, intKind), result: intKind, pure: true,
		template: "(%[1]s < %[2]s ? 1 : 0)", boolTemplate: "%[1]s < %[2]s"},
	"=": {name: "=", args: kinds(anyKind, anyKind), result: intKind, pure: true,
		template: "(%[1]s == %[2]s ? 1 : 0)", boolTemplate: "%[1]s == %[2]s"},
	"+": {name: "+", args: kinds(intKind, intKind), result: intKind, pure: true,
		template: "(%[1]s + %[2]s)"},
	"-": {name: "-", args: kinds(intKind, intKind), result: intKind, pure: true,
		template: "(%[1]s - %[2]s)"},
	"*": {name: "*", args: kinds(strKind, strKind), result: strKind, pure: true,
		template: "(%[1]s + %[2]s)"},

	"add.period$":  {name: "add.period$", args: kinds(strKind), result: strKind, helper: "addPeriod", pure: true},
	"change.case$": {name: "change.case$", args: kinds(strKind, strKind), result: strKind, helper: "changeCase", pure: true},
	"chr.to.int$":  {name: "chr.to.int$", args: kinds(strKind), result: intKind, helper: "chrToInt", pure: true},
	"cite$":        {name: "cite$", result: strKind, helper: "cite", pure: true},
	"empty$":       {name: "empty$", args: kinds(anyKind), result: intKind, helper: "empty", pure: true},
	"format.name$": {name: "format.name$", args: kinds(strKind, intKind, strKind), result: strKind, helper: "formatName", pure: true},
	"int.to.chr$":  {name: "int.to.chr$", args: kinds(intKind), result: strKind, helper: "intToChr", pure: true},
	"int.to.str$":  {name: "int.to.str$", args: kinds(intKind), result: strKind, helper: "intToStr", pure: true},
	"missing$":     {name: "missing$", args: kinds(anyKind), result: intKind, helper: "missing", pure: true},
	"num.names$":   {name: "num.names$", args: kinds(strKind), result: intKind, helper: "numNames", pure: true},
	"preamble$":    {name: "preamble$", result: strKind, helper: "preamble", pure: true},
	"purify$":      {name: "purify$", args: kinds(strKind), result: strKind, helper: "purify", pure: true},
	"quote$":       {name: "quote$", result: strKind, template: code.Quote(`"`), pure: true},
	"substring$":   {name: "substring$", args: kinds(strKind, intKind, intKind), result: strKind, helper: "substr", pure: true},
	"text.length$": {name: "text.length$", args: kinds(strKind), result: intKind, helper: "textLength", pure: true},
	"text.prefix$": {name: "text.prefix$", args: kinds(strKind, intKind), result: strKind, helper: "textPrefix", pure: true},
	"type$":        {name: "type$", result: strKind, helper: "type", pure: true},
	"width$":       {name: "width$", args: kinds(strKind), result: intKind, helper: "width", pure: true},
	"entry.max$":   {name: "entry.max$", result: intKind, template: "ENTRY_MAX", pure: true},
	"global.max$":  {name: "global.max$", result: intKind, template: "GLOBAL_MAX", pure: true},

	"call.type$": {name: "call.type$", result: code.Void, helper: "callType", writes: true},
	"newline$":   {name: "newline$", result: code.Void, helper: "newline"},
	"stack$":     {name: "stack$", result: code.Void, helper: "stack"},
	"top$":       {name: "top$", args: kinds(anyKind), result: code.Void, helper: "top"},
	"warning$":   {name: "warning$", args: kinds(strKind), result: code.Void, helper: "warning"},
	"write$":     {name: "write$", args: kinds(strKind), result: code.Void, helper: "write"},
}

// The stack and control primitives are registered here rather than in
// the table literal: their handlers translate nested blocks, which looks
// up builtins again.
func init() {
	specials := map[string]func(*translator, *processor.State, int){
		":=":         (*translator).assign,
		"duplicate$": (*translator).duplicate,
		"if$":        (*translator).ifThenElse,
		"pop$":       (*translator).pop,
		"skip$":      func(*translator, *processor.State, int) {},
		"swap$":      (*translator).swap,
		"while$":     (*translator).while,
	}
	for name, fn := range specials {
		builtins[name] = &builtin{name: name, special: fn}
	}
}

// lookupBuiltin returns the descriptor for name.
func lookupBuiltin(name string) (*builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// newCall builds the call node for b applied to args.
func (b *builtin) newCall(args []code.Code) *code.Call {
	call := code.NewCall(b.helper, b.result, args...)
	call.Template = b.template
	call.BoolTemplate = b.boolTemplate
	call.Pure = b.pure
	if call.Name == "" {
		call.Name = b.name
	}
	return call
}
