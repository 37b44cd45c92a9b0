// Package processor turns stack-machine operations into structured code.
//
// A State keeps the operand stack of values that have not been committed
// to statements yet, and the list of statements emitted so far. Before a
// statement is emitted, every non-trivial stack entry is hoisted into a
// fresh local so evaluation order in the output matches the order in
// which values were pushed.
package processor

import (
	"github.com/edwingeng/deque"

	"bstgroovy/pkg/code"
)

// DefaultPrefix names synthesized locals unless SetLocalPrefix changes it.
const DefaultPrefix = "v"

// Source supplies the value found depth slots below the bottom of a
// forked State's stack, counting from 0 in pop order.
type Source func(depth int) code.Code

// State is the working memory for translating one function or block.
//
//	stack (top = last):   [ lit 1 | call add(...) | v3 ]
//	below (pop order):    [ v1 | v2 ]      values read past the bottom
//	code:                 statements emitted so far
type State struct {
	registry *Registry
	stack    deque.Deque // of code.Code, index 0 = bottom
	code     *code.Container
	prefix   string

	// below holds values that were read beneath the bottom of the stack,
	// in the order they are popped. taken counts the ones already popped.
	// For a root State they are the pending locals; for a forked State
	// they come from source.
	below   []code.Code
	taken   int
	pending []*code.Local
	source  Source

	assigned []*code.Local
}

// NewState returns an empty State allocating names from r.
func NewState(r *Registry) *State {
	return &State{
		registry: r,
		stack:    deque.NewDeque(),
		code:     code.NewContainer(),
		prefix:   DefaultPrefix,
	}
}

// Fork returns a State for a nested block. The child shares the
// registry and prefix; reading past the bottom of its stack consults src
// instead of creating pending locals.
func (s *State) Fork(src Source) *State {
	child := NewState(s.registry)
	child.prefix = s.prefix
	child.source = src
	return child
}

// Push places node on top of the stack. Any node may be pushed.
func (s *State) Push(node code.Code) {
	s.stack.PushBack(node)
}

// Pop removes and returns the top of the stack. On an empty stack the
// value comes from beneath the bottom: a new pending local for a root
// State, the fork source for a child.
func (s *State) Pop() code.Code {
	if !s.stack.Empty() {
		return s.stack.PopBack().(code.Code)
	}
	if s.taken == len(s.below) {
		s.extend()
	}
	v := s.below[s.taken]
	s.taken++
	return v
}

// Peek returns the value depth slots from the top without removing it.
// Depths past the bottom materialize the values a later Pop would
// return, so Peek(n) followed by n+1 pops agree.
func (s *State) Peek(depth int) code.Code {
	n := s.stack.Len()
	if depth < n {
		return s.stack.Peek(n - 1 - depth).(code.Code)
	}
	i := s.taken + depth - n
	for len(s.below) <= i {
		s.extend()
	}
	return s.below[i]
}

// extend reads one more value from beneath the bottom of the stack.
func (s *State) extend() {
	if s.source != nil {
		s.below = append(s.below, s.source(len(s.below)))
		return
	}
	l := s.registry.NewLocal(s.prefix)
	s.pending = append(s.pending, l)
	s.below = append(s.below, l)
}

// EliminateSideEffects hoists every non-trivial stack entry, bottom to
// top, into a new local declared by a VariableInit. Each slot is replaced
// in place. Running it again without a push emits nothing.
func (s *State) EliminateSideEffects() {
	for i := 0; i < s.stack.Len(); i++ {
		node := s.stack.Peek(i).(code.Code)
		if code.IsTrivial(node) {
			continue
		}
		l := s.registry.NewLocal(s.prefix)
		s.code.Append(code.NewVariableInit(l, node))
		s.stack.Replace(i, l)
	}
}

// Add emits stmt after flushing pending stack computations, so stmt can
// never run ahead of a value pushed before it.
func (s *State) Add(stmt code.Code) {
	s.EliminateSideEffects()
	s.code.Append(stmt)
}

// Detach must be called before l is reassigned. Stack slots and unread
// below-bottom values that refer to l are replaced by a snapshot local
// holding the current value, so they keep reading what was pushed.
// Pending computations are flushed first; they were pushed before the
// read and must run before it.
func (s *State) Detach(l *code.Local) {
	var snap *code.Local
	snapshot := func() *code.Local {
		if snap == nil {
			s.EliminateSideEffects()
			snap = s.registry.NewLocal(s.prefix)
			s.code.Append(code.NewVariableInit(snap, l))
		}
		return snap
	}
	for i := 0; i < s.stack.Len(); i++ {
		if s.stack.Peek(i) == l {
			s.stack.Replace(i, snapshot())
		}
	}
	for i := s.taken; i < len(s.below); i++ {
		if s.below[i] == l {
			s.below[i] = snapshot()
		}
	}
	for _, a := range s.assigned {
		if a == l {
			return
		}
	}
	s.assigned = append(s.assigned, l)
}

// DetachBound snapshots every bound local read by the stack or by
// unread below-bottom values. Called before a call that may assign
// globals.
func (s *State) DetachBound() {
	var bound []*code.Local
	seen := make(map[*code.Local]bool)
	collect := func(v any) {
		if l, ok := v.(*code.Local); ok && l.Bound && !seen[l] {
			seen[l] = true
			bound = append(bound, l)
		}
	}
	for i := 0; i < s.stack.Len(); i++ {
		collect(s.stack.Peek(i))
	}
	for i := s.taken; i < len(s.below); i++ {
		collect(s.below[i])
	}
	for _, l := range bound {
		s.detachReads(l)
	}
}

// detachReads is Detach without recording l as assigned.
func (s *State) detachReads(l *code.Local) {
	n := len(s.assigned)
	s.Detach(l)
	s.assigned = s.assigned[:n]
}

// Code returns the emitted statements.
func (s *State) Code() *code.Container {
	return s.code
}

// Stack returns a copy of the operand stack, bottom first.
func (s *State) Stack() []code.Code {
	out := make([]code.Code, 0, s.stack.Len())
	s.stack.Range(func(_ int, v deque.Elem) bool {
		out = append(out, v.(code.Code))
		return true
	})
	return out
}

// Locals returns the pending locals: the values popped from an empty
// stack, in pop order. They are the implicit inputs of the function.
func (s *State) Locals() []*code.Local {
	out := make([]*code.Local, len(s.pending))
	copy(out, s.pending)
	return out
}

// Consumed returns how many values were popped from beneath the bottom
// of the stack.
func (s *State) Consumed() int {
	return s.taken
}

// Assigned returns the locals reassigned through Detach, in first
// assignment order.
func (s *State) Assigned() []*code.Local {
	out := make([]*code.Local, len(s.assigned))
	copy(out, s.assigned)
	return out
}

// SetLocalPrefix changes the prefix of locals synthesized from now on.
func (s *State) SetLocalPrefix(prefix string) {
	s.prefix = prefix
}

// Prefix returns the current local prefix.
func (s *State) Prefix() string {
	return s.prefix
}

// NewLocal allocates a local with the current prefix without touching
// the stack or the code.
func (s *State) NewLocal() *code.Local {
	return s.registry.NewLocal(s.prefix)
}

// Size returns the operand stack depth.
func (s *State) Size() int {
	return s.stack.Len()
}
