package processor

import (
	"testing"

	"bstgroovy/pkg/code"
)

func TestRegistry(t *testing.T) {
	t.Run("UniqueAcrossStates", func(t *testing.T) {
		r := NewRegistry()
		names := make(map[string]bool)
		for i := 0; i < 50; i++ {
			l := r.NewLocal("v")
			if names[l.Name] {
				t.Fatalf("name %q issued twice", l.Name)
			}
			names[l.Name] = true
		}
		s1, s2 := NewState(r), NewState(r)
		a, b := s1.Pop().(*code.Local), s2.Pop().(*code.Local)
		if a.Name == b.Name || names[a.Name] || names[b.Name] {
			t.Errorf("states sharing a registry must not reuse names: %s %s", a.Name, b.Name)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		r := NewRegistry()
		first := r.NewLocal("v").Name
		r.NewLocal("v")
		r.NewLocal("v")
		r.Reset()
		if got := r.NewLocal("v").Name; got != first || got != "v1" {
			t.Errorf("expected v1 after reset, got %s (first run began with %s)", got, first)
		}
	})

	t.Run("MixedPrefixes", func(t *testing.T) {
		r := NewRegistry()
		for i := 0; i < 10; i++ {
			r.NewLocal("x")
		}
		a := r.NewLocal("v1") // v111
		r.Reserve("v12")
		b := r.NewLocal("v") // v12 is reserved, so v13
		if a.Name != "v111" {
			t.Errorf("expected v111, got %s", a.Name)
		}
		if b.Name != "v13" {
			t.Errorf("expected reserved v12 to be skipped, got %s", b.Name)
		}
	})

	t.Run("HashCollision", func(t *testing.T) {
		r := NewRegistry()
		r.hash = func(string) uint64 { return 7 }
		r.Reserve("v2")
		var got []string
		for i := 0; i < 3; i++ {
			got = append(got, r.NewLocal("v").Name)
		}
		if got[0] != "v1" || got[1] != "v3" || got[2] != "v4" {
			t.Errorf("expected [v1 v3 v4] when every name shares a hash, got %v", got)
		}
		if r.Issued() != 4 {
			t.Errorf("expected 4 taken names, got %d", r.Issued())
		}
	})

	t.Run("Kind", func(t *testing.T) {
		l := NewRegistry().NewLocal("t")
		if l.Kind() != code.Unknown || l.Bound {
			t.Errorf("fresh locals are unbound and of unknown kind, got %v bound=%v", l.Kind(), l.Bound)
		}
	})
}

func TestPushPop(t *testing.T) {
	s := NewState(NewRegistry())
	x := code.NewCall("f", code.Integer)
	s.Push(x)
	if s.Size() != 1 {
		t.Fatalf("expected size 1, got %d", s.Size())
	}
	if got := s.Pop(); got != x {
		t.Errorf("expected the pushed node back, got %v", got)
	}
	if s.Size() != 0 || s.Code().Len() != 0 || len(s.Locals()) != 0 {
		t.Errorf("round trip must leave no trace: size=%d code=%d locals=%d",
			s.Size(), s.Code().Len(), len(s.Locals()))
	}
}

func TestStack(t *testing.T) {
	s := NewState(NewRegistry())
	a, b, c := code.NewInt(1), code.NewString("b"), code.NewCall("f", code.Integer)
	s.Push(a)
	s.Push(b)
	s.Push(c)

	got := s.Stack()
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("expected [a b c] bottom first, got %v", got)
	}
	got[0] = c
	if s.Stack()[0] != a {
		t.Errorf("expected Stack to return a copy")
	}
	if len(NewState(NewRegistry()).Stack()) != 0 {
		t.Errorf("expected an empty stack for a fresh state")
	}
}

func TestPopOnEmpty(t *testing.T) {
	s := NewState(NewRegistry())
	a, ok := s.Pop().(*code.Local)
	if !ok {
		t.Fatal("expected a Local from an empty stack")
	}
	locals := s.Locals()
	if len(locals) != 1 || locals[0] != a {
		t.Fatalf("expected the local to be pending once, got %v", locals)
	}
	b := s.Pop().(*code.Local)
	if a.Name == b.Name {
		t.Errorf("second pop must synthesize a new name, both are %s", a.Name)
	}
	if len(s.Locals()) != 2 || s.Locals()[1] != b {
		t.Errorf("expected two pending locals in pop order, got %v", s.Locals())
	}
	if s.Code().Len() != 0 {
		t.Errorf("pop-on-empty must not emit code")
	}
}

func TestEliminateSideEffects(t *testing.T) {
	t.Run("OrderPreservation", func(t *testing.T) {
		s := NewState(NewRegistry())
		a := code.NewInt(1)
		b := code.NewCall("f", code.String)
		c := code.NewString("c")
		s.Push(a)
		s.Push(b)
		s.Push(c)
		s.EliminateSideEffects()

		if s.Code().Len() != 1 {
			t.Fatalf("expected one statement, got %d", s.Code().Len())
		}
		init, ok := s.Code().At(0).(*code.VariableInit)
		if !ok || init.Value != b {
			t.Fatalf("expected init of the call, got %v", s.Code().At(0))
		}
		stack := s.Stack()
		if len(stack) != 3 || stack[0] != a || stack[1] != init.Local || stack[2] != c {
			t.Errorf("expected [a, %s, c], got %v", init.Local.Name, stack)
		}
		if init.Local.Name != "v1" || init.Local.Kind() != code.String {
			t.Errorf("expected v1 of kind string, got %s", init.Local)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		s := NewState(NewRegistry())
		s.Push(code.NewCall("f", code.Integer))
		s.Push(code.NewCall("g", code.Integer))
		s.EliminateSideEffects()
		n := s.Code().Len()
		before := s.Stack()
		s.EliminateSideEffects()
		if s.Code().Len() != n {
			t.Errorf("second elimination emitted %d statements", s.Code().Len()-n)
		}
		after := s.Stack()
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("slot %d changed on second elimination", i)
			}
		}
	})

	t.Run("BottomToTop", func(t *testing.T) {
		s := NewState(NewRegistry())
		s.Push(code.NewCall("first", code.Integer))
		s.Push(code.NewCall("second", code.Integer))
		s.EliminateSideEffects()
		got := code.Render(s.Code())
		expected := "int v1 = first()\nint v2 = second()"
		if got != expected {
			t.Errorf("expected %q, got %q", expected, got)
		}
	})
}

func TestAdd(t *testing.T) {
	// push(1); push(add(pop(), 2)); add(x = pop())
	// Add flushes only what is still on the stack, so a value popped
	// first is consumed directly. The assignment translator flushes
	// before popping to get the two-statement form.
	s := NewState(NewRegistry())
	x := code.NewBound("x", code.Integer)
	s.Push(code.NewInt(1))
	arg := s.Pop()
	s.Push(code.NewCall("add", code.Integer, arg, code.NewInt(2)))
	s.Add(code.NewVariableSet(x, s.Pop()))

	if got := code.Render(s.Code()); got != "x = add(1, 2)" {
		t.Errorf("a popped value is consumed directly, got %q", got)
	}

	// The hoisting case: the call is still on the stack when a statement
	// is added.
	s = NewState(NewRegistry())
	s.Push(code.NewInt(1))
	arg = s.Pop()
	s.Push(code.NewCall("add", code.Integer, arg, code.NewInt(2)))
	s.Add(code.NewCall("write", code.Void, code.NewString("x")))
	s.Add(code.NewVariableSet(x, s.Pop()))

	expected := "int v1 = add(1, 2)\nwrite(\"x\")\nx = v1"
	if got := code.Render(s.Code()); got != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestEndToEnd(t *testing.T) {
	s := NewState(NewRegistry())
	x := code.NewBound("x", code.Integer)
	s.Push(code.NewInt(1))
	s.Push(code.NewCall("add", code.Integer, s.Pop(), code.NewInt(2)))
	s.EliminateSideEffects()
	s.Add(code.NewVariableSet(x, s.Pop()))

	if s.Code().Len() != 2 {
		t.Fatalf("expected 2 statements, got %d", s.Code().Len())
	}
	expected := "int v1 = add(1, 2)\nx = v1"
	if got := code.Render(s.Code()); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestLocalPrefix(t *testing.T) {
	s := NewState(NewRegistry())
	if s.Prefix() != DefaultPrefix {
		t.Errorf("expected default prefix %q, got %q", DefaultPrefix, s.Prefix())
	}
	s.SetLocalPrefix("p")
	l := s.Pop().(*code.Local)
	if l.Name != "p1" {
		t.Errorf("expected p1, got %s", l.Name)
	}
}

func TestPeek(t *testing.T) {
	s := NewState(NewRegistry())
	top := code.NewInt(9)
	s.Push(top)
	if s.Peek(0) != top {
		t.Errorf("Peek(0) must be the top")
	}
	deep := s.Peek(2)
	if len(s.Locals()) != 2 {
		t.Fatalf("peeking two below the bottom must create two pending locals, got %d", len(s.Locals()))
	}
	if s.Pop() != top {
		t.Fatal("expected top first")
	}
	s.Pop()
	if got := s.Pop(); got != deep {
		t.Errorf("pop order must match peek order")
	}
	if len(s.Locals()) != 2 || s.Consumed() != 2 {
		t.Errorf("expected 2 pending locals consumed, got %d/%d", len(s.Locals()), s.Consumed())
	}
}

func TestFork(t *testing.T) {
	r := NewRegistry()
	parent := NewState(r)
	a := code.NewInt(1)
	b := code.NewString("b")
	parent.Push(a)
	parent.Push(b)

	child := parent.Fork(func(depth int) code.Code { return parent.Peek(depth) })
	if child.Pop() != b || child.Pop() != a {
		t.Fatal("child must read the parent stack top first")
	}
	p := child.Pop()
	if _, ok := p.(*code.Local); !ok {
		t.Fatalf("reading past the parent bottom must give the parent's pending local, got %T", p)
	}
	if len(child.Locals()) != 0 {
		t.Errorf("a fork has no pending locals of its own")
	}
	if child.Consumed() != 3 || len(parent.Locals()) != 1 {
		t.Errorf("expected child consumed 3 and parent pending 1, got %d and %d",
			child.Consumed(), len(parent.Locals()))
	}
	if parent.Size() != 2 {
		t.Errorf("forking must not pop the parent")
	}
}

func TestDetach(t *testing.T) {
	s := NewState(NewRegistry())
	g := code.NewBound("g", code.Integer)
	s.Push(g)
	s.Push(code.NewInt(5))
	s.Detach(g)
	s.Add(code.NewVariableSet(g, s.Pop()))

	expected := "int v1 = g\ng = 5"
	if got := code.Render(s.Code()); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if got := s.Stack(); len(got) != 1 || got[0].(*code.Local).Name != "v1" {
		t.Errorf("expected the stale read replaced by v1, got %v", got)
	}
	if a := s.Assigned(); len(a) != 1 || a[0] != g {
		t.Errorf("expected g recorded as assigned, got %v", a)
	}

	s.Detach(g)
	if s.Code().Len() != 2 {
		t.Errorf("nothing reads g any more, detach must not emit")
	}
	if len(s.Assigned()) != 1 {
		t.Errorf("assigned locals are recorded once")
	}
}

func TestDetachBound(t *testing.T) {
	s := NewState(NewRegistry())
	g := code.NewBound("g", code.String)
	s.Push(code.NewCall("f", code.Integer))
	s.Push(g)
	s.Push(code.NewLocal("t", code.Integer))
	s.DetachBound()

	expected := "int v1 = f()\nString v2 = g"
	if got := code.Render(s.Code()); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if len(s.Assigned()) != 0 {
		t.Errorf("DetachBound does not assign")
	}
}
