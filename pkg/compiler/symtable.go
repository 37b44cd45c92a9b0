package compiler

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"bstgroovy/pkg/code"
)

// SymbolKind classifies a BST name.
type SymbolKind int

const (
	SymField        SymbolKind = iota // ENTRY field, read-only string
	SymEntryInteger                   // ENTRY integer variable
	SymEntryString                    // ENTRY string variable
	SymGlobalInteger
	SymGlobalString
	SymMacro
	SymFunction
)

var symbolKindNames = [...]string{
	SymField:         "field",
	SymEntryInteger:  "entry integer",
	SymEntryString:   "entry string",
	SymGlobalInteger: "global integer",
	SymGlobalString:  "global string",
	SymMacro:         "macro",
	SymFunction:      "function",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// ValueKind is the kind of value the symbol holds, Unknown for macros and
// functions.
func (k SymbolKind) ValueKind() code.Kind {
	switch k {
	case SymField, SymEntryString, SymGlobalString:
		return code.String
	case SymEntryInteger, SymGlobalInteger:
		return code.Integer
	}
	return code.Unknown
}

// Symbol is a declared BST name.
type Symbol struct {
	Name  string // BST name, lower case
	Ident string // Groovy identifier
	Kind  SymbolKind
	Line  int

	Local *code.Local // globals: the bound variable read and assigned by functions
	Macro string      // macros: replacement text
	Sig   *Signature  // functions: nil until the body has been translated
}

// Signature is what callers of a translated function need to know.
type Signature struct {
	Params  []*code.Local // in push order
	Returns bool
	Result  code.Kind
	Writes  bool // may assign globals
}

// SymbolTable maps BST names to symbols. Names are case-insensitive;
// builtins live in the builtin table and cannot be redefined.
type SymbolTable struct {
	symbols map[string]*Symbol
	order   []string
	idents  map[string]string // Groovy identifier -> BST name
}

func NewSymbolTable() *SymbolTable {
	s := &SymbolTable{
		symbols: make(map[string]*Symbol),
		idents:  make(map[string]string),
	}
	// Every style has these even when its ENTRY does not list them.
	s.mustDefine("crossref", SymField, 0)
	s.mustDefine("sort.key$", SymEntryString, 0)
	return s
}

func (s *SymbolTable) mustDefine(name string, kind SymbolKind, line int) *Symbol {
	sym, err := s.Define(name, kind, line)
	if err != nil {
		panic(err)
	}
	return sym
}

// Define declares name. Redefining a name, or defining a builtin, is an
// error.
func (s *SymbolTable) Define(name string, kind SymbolKind, line int) (*Symbol, error) {
	name = strings.ToLower(name)
	if _, ok := lookupBuiltin(name); ok {
		return nil, fmt.Errorf("%s is a builtin and cannot be redefined as a %s", name, kind)
	}
	if prev, ok := s.symbols[name]; ok {
		if prev.Line == 0 {
			return nil, fmt.Errorf("%s is predefined as a %s", name, prev.Kind)
		}
		return nil, fmt.Errorf("%s already defined as a %s on line %d", name, prev.Kind, prev.Line)
	}
	sym := &Symbol{Name: name, Kind: kind, Line: line}
	if kind != SymMacro {
		sym.Ident = s.uniqueIdent(name)
	}
	if kind == SymGlobalInteger || kind == SymGlobalString {
		sym.Local = code.NewBound(sym.Ident, kind.ValueKind())
	}
	s.symbols[name] = sym
	s.order = append(s.order, name)
	return sym, nil
}

// Lookup returns the symbol and whether it was found.
func (s *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := s.symbols[strings.ToLower(name)]
	return sym, ok
}

// All returns the symbols in definition order.
func (s *SymbolTable) All() []*Symbol {
	out := make([]*Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.symbols[name])
	}
	return out
}

// OfKind returns the symbols of kind k in definition order.
func (s *SymbolTable) OfKind(k SymbolKind) []*Symbol {
	var out []*Symbol
	for _, sym := range s.All() {
		if sym.Kind == k {
			out = append(out, sym)
		}
	}
	return out
}

// uniqueIdent derives a Groovy identifier from name that no other symbol
// uses.
func (s *SymbolTable) uniqueIdent(name string) string {
	base := groovyIdent(name)
	ident := base
	for i := 2; ; i++ {
		if _, taken := s.idents[ident]; !taken {
			break
		}
		ident = fmt.Sprintf("%s_%d", base, i)
	}
	s.idents[ident] = name
	return ident
}

var groovyKeywords = map[string]bool{
	"abstract": true, "as": true, "assert": true, "boolean": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "class": true,
	"const": true, "continue": true, "def": true, "default": true, "do": true,
	"double": true, "else": true, "enum": true, "extends": true, "false": true,
	"final": true, "finally": true, "float": true, "for": true, "goto": true,
	"if": true, "implements": true, "import": true, "in": true, "instanceof": true,
	"int": true, "interface": true, "long": true, "native": true, "new": true,
	"null": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "super": true, "switch": true,
	"this": true, "throw": true, "throws": true, "trait": true, "true": true,
	"try": true, "var": true, "void": true, "while": true,
	// members of the generated class
	"entry": true, "run": true,
}

// groovyIdent maps a BST name to a Groovy identifier: every character
// outside [A-Za-z0-9_] becomes '_', and names that start with a digit or
// collide with a keyword get an extra '_'.
func groovyIdent(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	ident := sb.String()
	if ident == "" || unicode.IsDigit(rune(ident[0])) {
		ident = "_" + ident
	}
	if groovyKeywords[ident] {
		ident += "_"
	}
	return ident
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	sb.WriteString("Symbols:\n")
	for _, name := range names {
		sym := s.symbols[name]
		fmt.Fprintf(&sb, "  %-20s  %-14s  %s", name, sym.Kind, sym.Ident)
		if sym.Sig != nil {
			params := make([]string, len(sym.Sig.Params))
			for i, p := range sym.Sig.Params {
				params[i] = p.String()
			}
			result := "void"
			if sym.Sig.Returns {
				result = sym.Sig.Result.String()
			}
			fmt.Fprintf(&sb, "(%s) %s", strings.Join(params, ", "), result)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
