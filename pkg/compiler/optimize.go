package compiler

import (
	"strings"

	"bstgroovy/pkg/bst"
)

// liveFunctions returns the names of the functions reachable from the
// top-level run commands. A nil map means every function is live: once
// call.type$ can run, any function named after an entry type may be
// called.
func liveFunctions(file *bst.File) map[string]bool {
	// 1. Map all function definitions by name
	funcs := make(map[string]*bst.Function)
	for _, fn := range file.Functions() {
		funcs[strings.ToLower(fn.Name)] = fn
	}

	reachable := make(map[string]bool)
	var worklist []string

	addReachable := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}

	// 2. Roots are the functions the run commands invoke
	for _, c := range file.Commands {
		if r, ok := c.(*bst.Run); ok {
			addReachable(strings.ToLower(r.Func))
		}
	}

	// 3. Traverse the worklist to find all transitively reachable functions
	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]

		if curr == "call.type$" {
			return nil
		}
		fn, exists := funcs[curr]
		if !exists {
			// A builtin or variable
			continue
		}

		refs := make(map[string]bool)
		findRefs(fn.Body, refs)
		for ref := range refs {
			addReachable(ref)
		}
	}

	live := make(map[string]bool)
	for name := range funcs {
		if reachable[name] {
			live[name] = true
		}
	}
	return live
}

// findRefs collects every name a block executes or quotes, including
// those in nested blocks.
func findRefs(b *bst.Block, refs map[string]bool) {
	if b == nil {
		return
	}
	for _, item := range b.Items {
		switch n := item.(type) {
		case *bst.Name:
			refs[strings.ToLower(n.Name)] = true
		case *bst.Quote:
			refs[strings.ToLower(n.Name)] = true
		case *bst.Block:
			findRefs(n, refs)
		case *bst.IntLit, *bst.StrLit:
			// No references here
		}
	}
}
