package compiler

import (
	"bstgroovy/pkg/bst"
	"bstgroovy/pkg/code"
	"bstgroovy/pkg/processor"
)

// nested translates block into child. The block has its own
// compile-time operands; any left at its end are reported.
func (t *translator) nested(child *processor.State, block *bst.Block) {
	saved := t.metas
	t.metas = nil
	t.body(child, block.Items)
	t.dropMetas()
	t.metas = saved
}

// outcome lists, bottom to top, the stack a forked block leaves in place
// of the reach values it may replace: the ones it did not pop, then its
// own stack. below(d) returns the value d slots beneath the fork.
func outcome(child *processor.State, reach int, below func(d int) code.Code) []code.Code {
	var out []code.Code
	for d := reach - 1; d >= child.Consumed(); d-- {
		out = append(out, below(d))
	}
	return append(out, child.Stack()...)
}

// joinKind is the kind of a value that is a or b depending on a branch.
func (t *translator) joinKind(a, b code.Kind, line int) code.Kind {
	switch {
	case a == b:
		return a
	case !a.Known():
		if b.Known() {
			return b
		}
		return code.Unknown
	case !b.Known():
		return a
	}
	t.errorf(line, nil, "if$ branches leave a %s and a %s in the same slot", a, b)
	return code.Unknown
}

// ifThenElse translates cond {then} {else} if$.
//
// Both branches read the parent stack through forks. Afterwards every
// slot where the branches disagree gets a result local, declared before
// the if and assigned at the end of each branch:
//
//	int v3                  stack before:  [ v1 | cond ]
//	if (cond > 0) {         then: { #1 + }   else: { #2 + }
//	    v3 = (v1 + 1)
//	} else {
//	    v3 = (v1 + 2)
//	}                       stack after:   [ v3 ]
func (t *translator) ifThenElse(st *processor.State, line int) {
	elseBlock, ok := t.popBlock(st, "if$", line)
	if !ok {
		return
	}
	thenBlock, ok := t.popBlock(st, "if$", line)
	if !ok {
		return
	}
	cond := st.Pop()
	t.checkArg("if$", 0, code.Integer, cond, line)
	st.EliminateSideEffects()

	src := func(depth int) code.Code { return st.Peek(depth) }
	then, els := st.Fork(src), st.Fork(src)
	t.nested(then, thenBlock)
	t.nested(els, elseBlock)

	// Reads of a global the branches assign must be taken before the if.
	for _, l := range append(then.Assigned(), els.Assigned()...) {
		st.Detach(l)
	}

	reach := max(then.Consumed(), els.Consumed())
	thenOut := outcome(then, reach, st.Peek)
	elseOut := outcome(els, reach, st.Peek)
	if len(thenOut) != len(elseOut) {
		t.errorf(line, cond, "if$ branches change the stack depth differently (%+d and %+d)",
			len(thenOut)-reach, len(elseOut)-reach)
		return
	}

	results := make([]code.Code, len(thenOut))
	for j := range thenOut {
		a, b := thenOut[j], elseOut[j]
		if a == b {
			results[j] = a
			continue
		}
		r := st.NewLocal()
		r.SetKind(t.joinKind(a.Kind(), b.Kind(), line))
		st.Add(code.NewVariableInit(r, nil))
		then.Code().Append(code.NewVariableSet(r, a))
		els.Code().Append(code.NewVariableSet(r, b))
		results[j] = r
	}

	for i := 0; i < reach; i++ {
		st.Pop()
	}
	st.Add(&code.If{Cond: cond, Then: then.Code(), Else: els.Code()})
	for _, r := range results {
		st.Push(r)
	}
}

// while translates {cond} {body} while$.
//
// Stack values the loop reads are carried in locals declared before the
// loop. The condition must leave one more value than it found and the
// body exactly as many; values they change are written back to the
// carried locals so the next iteration sees them.
func (t *translator) while(st *processor.State, line int) {
	bodyBlock, ok := t.popBlock(st, "while$", line)
	if !ok {
		return
	}
	condBlock, ok := t.popBlock(st, "while$", line)
	if !ok {
		return
	}
	st.EliminateSideEffects()

	var carried []*code.Local // by depth, 0 = top
	src := func(depth int) code.Code {
		for len(carried) <= depth {
			carried = append(carried, st.NewLocal())
		}
		return carried[depth]
	}
	cond, body := st.Fork(src), st.Fork(src)
	t.nested(cond, condBlock)
	t.nested(body, bodyBlock)

	m := len(carried)
	state := make([]*code.Local, m) // bottom to top
	for j := range state {
		state[j] = carried[m-1-j]
	}
	carriedAt := func(d int) code.Code { return carried[d] }

	// Carried locals not typed by the loop take the kind of their
	// initial value, so write-back temporaries are declared with it.
	for j, l := range state {
		if !l.Kind().Known() {
			l.SetKind(st.Peek(m - 1 - j).Kind())
		}
	}

	condOut := outcome(cond, m, carriedAt)
	if len(condOut) != m+1 {
		t.errorf(line, nil, "while$ condition must push exactly one value, it changes the stack depth by %+d", len(condOut)-m)
		return
	}
	if changesState(state, condOut[:m]) {
		// The condition is evaluated before the write-back.
		cond.EliminateSideEffects()
		condOut = outcome(cond, m, carriedAt)
		t.writeBack(cond, state, condOut[:m], line)
	}
	condValue := condOut[m]
	t.checkArg("while$", 0, code.Integer, condValue, line)

	bodyOut := outcome(body, m, carriedAt)
	if len(bodyOut) != m {
		t.errorf(line, nil, "while$ body must keep the stack depth, it changes it by %+d", len(bodyOut)-m)
		return
	}
	t.writeBack(body, state, bodyOut, line)

	for _, l := range append(cond.Assigned(), body.Assigned()...) {
		st.Detach(l)
	}
	initial := popArgs(st, m)
	for j, l := range state {
		if k := l.Kind(); k.Known() {
			t.checkArg("while$", j, k, initial[j], line)
		}
		st.Add(code.NewVariableInit(l, initial[j]))
	}
	st.Add(&code.Loop{Pre: cond.Code(), Cond: condValue, Body: body.Code()})
	for _, l := range state {
		st.Push(l)
	}
}

func changesState(state []*code.Local, values []code.Code) bool {
	for j, l := range state {
		if values[j] != code.Code(l) {
			return true
		}
	}
	return false
}

// writeBack appends assignments of values to the carried locals in
// targets. With more than one assignment, values are first copied into
// temporaries so every assignment sees the old state.
func (t *translator) writeBack(st *processor.State, targets []*code.Local, values []code.Code, line int) {
	var changed []int
	for j, l := range targets {
		if values[j] != code.Code(l) {
			changed = append(changed, j)
		}
	}
	if len(changed) > 1 {
		for _, j := range changed {
			if !code.IsTrivial(values[j]) || isCarried(targets, values[j]) {
				tmp := st.NewLocal()
				st.Code().Append(code.NewVariableInit(tmp, values[j]))
				values[j] = tmp
			}
		}
	}
	for _, j := range changed {
		from, to := targets[j].Kind(), values[j].Kind()
		if from.Known() && to.Known() && from != to {
			t.errorf(line, values[j], "while$ turns a loop value from %s into %s", from, to)
		}
		st.Code().Append(code.NewVariableSet(targets[j], values[j]))
	}
}

func isCarried(targets []*code.Local, v code.Code) bool {
	for _, l := range targets {
		if v == code.Code(l) {
			return true
		}
	}
	return false
}
