package main

import (
	"fmt"
	"os"
	"strings"

	"bstgroovy/pkg/bst"
	"bstgroovy/pkg/code"
	"bstgroovy/pkg/compiler"
)

const testSource = `INTEGERS { x }
FUNCTION {add} { + }
FUNCTION {main} { #1 #2 add 'x := }
EXECUTE {main}
`

func main() {
	src, name := testSource, "<builtin>"
	if len(os.Args) > 1 {
		name = os.Args[1]
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := bst.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	file, err := bst.Parse(tokens, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("Commands")
	for _, c := range file.Commands {
		fmt.Println(" ", c)
	}
	fmt.Println()

	// Translate and generate
	res, err := compiler.Compile(src, compiler.Options{})
	if res != nil {
		res.Diagnostics.Print(os.Stderr, name)
	}
	if res == nil || res.Groovy == "" {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}

	fmt.Println("Functions")
	for _, u := range res.Units {
		params := make([]string, len(u.Params))
		for i, p := range u.Params {
			params[i] = p.Kind().GroovyType() + " " + p.Name
		}
		fmt.Printf("  %s(%s) -> %s\n", u.Name, strings.Join(params, ", "), u.Sig.Result)
		for _, line := range strings.Split(code.Render(u.Body), "\n") {
			fmt.Println("    ", line)
		}
	}
	fmt.Println()

	fmt.Println("Generated Groovy")
	fmt.Print(res.Groovy)
	fmt.Println()
	fmt.Print(res.Symbols)

	if err != nil {
		os.Exit(1)
	}
}
