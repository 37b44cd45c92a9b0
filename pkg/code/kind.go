package code

// Kind is the static value kind of a code node.
type Kind int

const (
	Unknown Kind = iota // not yet fixed; refined by the first assignment
	Integer
	String
	Void // statements and calls without a result
)

var kindNames = [...]string{
	Unknown: "unknown",
	Integer: "integer",
	String:  "string",
	Void:    "void",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// GroovyType returns the type name used in declarations and signatures.
// Unknown falls back to the dynamic type.
func (k Kind) GroovyType() string {
	switch k {
	case Integer:
		return "int"
	case String:
		return "String"
	case Void:
		return "void"
	}
	return "def"
}

// declType is GroovyType without void, which is not a variable type.
func declType(k Kind) string {
	if k == Void {
		return "def"
	}
	return k.GroovyType()
}

// Known reports whether k is a concrete value kind.
func (k Kind) Known() bool {
	return k == Integer || k == String
}
