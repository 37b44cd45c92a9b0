package code

// Container is an append-only, ordered list of statements. It renders one
// statement per line at the given indent.
type Container struct {
	stmts []Code
}

func NewContainer() *Container {
	return &Container{}
}

// Append adds stmt after every statement already in the container.
func (c *Container) Append(stmt Code) {
	if stmt == nil {
		panic("code: appending a nil statement")
	}
	c.stmts = append(c.stmts, stmt)
}

func (c *Container) Len() int { return len(c.stmts) }

func (c *Container) At(i int) Code { return c.stmts[i] }

// Statements returns a copy of the statement list.
func (c *Container) Statements() []Code {
	out := make([]Code, len(c.stmts))
	copy(out, c.stmts)
	return out
}

func (*Container) codeNode()  {}
func (*Container) Kind() Kind { return Void }

func (c *Container) Render(w *Writer, indent string) {
	for i, stmt := range c.stmts {
		if i > 0 {
			w.WriteString("\n")
		}
		render(w, stmt, indent)
	}
}

// renderBlock writes the container as the body of a braced block: each
// statement on its own line, nothing at all when empty.
func (c *Container) renderBlock(w *Writer, indent string) {
	if c == nil || c.Len() == 0 {
		return
	}
	c.Render(w, indent)
	w.WriteString("\n")
}

// If runs Then when Cond is positive and Else otherwise.
//
//	if (v2 > 0) {
//	    v4 = "yes"
//	} else {
//	    v4 = "no"
//	}
type If struct {
	Cond Code
	Then *Container
	Else *Container
}

func (*If) codeNode()  {}
func (*If) Kind() Kind { return Void }
func (s *If) Render(w *Writer, indent string) {
	w.Line(indent, "if (%s) {", Condition(s.Cond))
	s.Then.renderBlock(w, indent+Indent)
	if s.Else != nil && s.Else.Len() > 0 {
		w.Line(indent, "} else {")
		s.Else.renderBlock(w, indent+Indent)
	}
	w.WriteString(indent)
	w.WriteString("}")
}

// Loop repeats Body while Cond is positive. Pre holds the statements that
// compute Cond; they run before every test.
//
//	while (true) {
//	    <Pre>
//	    if (!(<Cond>)) {
//	        break
//	    }
//	    <Body>
//	}
//
// With an empty Pre the loop renders as a plain while statement.
type Loop struct {
	Pre  *Container
	Cond Code
	Body *Container
}

func (*Loop) codeNode()  {}
func (*Loop) Kind() Kind { return Void }
func (s *Loop) Render(w *Writer, indent string) {
	if s.Pre == nil || s.Pre.Len() == 0 {
		w.Line(indent, "while (%s) {", Condition(s.Cond))
		s.Body.renderBlock(w, indent+Indent)
		w.WriteString(indent)
		w.WriteString("}")
		return
	}
	inner := indent + Indent
	w.Line(indent, "while (true) {")
	s.Pre.renderBlock(w, inner)
	w.Line(inner, "if (!(%s)) {", Condition(s.Cond))
	w.Line(inner+Indent, "break")
	w.Line(inner, "}")
	s.Body.renderBlock(w, inner)
	w.WriteString(indent)
	w.WriteString("}")
}
