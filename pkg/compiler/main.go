// Package compiler translates BST bibliography styles into Groovy classes.
//
// Each function body is run through a processor.State that simulates the
// BST operand stack at compile time, so the generated methods use locals,
// parameters and return values instead of a runtime stack.
//
// Pipeline: BST source → bst.Lex → bst.Parse → translate → Generate → Groovy text
package compiler
