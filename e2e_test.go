package main

import (
	"os"
	"strings"
	"testing"

	"bstgroovy/pkg/bst"
	"bstgroovy/pkg/code"
	"bstgroovy/pkg/compiler"
)

func TestSampleStyle(t *testing.T) {
	// 1. Read source
	srcBytes, err := os.ReadFile("_styles/sample.bst")
	if err != nil {
		t.Fatalf("Failed to read source: %v", err)
	}
	src := string(srcBytes)

	// 2. Parse
	tokens, err := bst.Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	file, err := bst.Parse(tokens, src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(file.Commands) == 0 {
		t.Fatalf("expected commands, got none")
	}

	// 3. Compile
	res, err := compiler.Compile(src, compiler.Options{ClassName: "Sample", EliminateDead: true})
	if err != nil {
		t.Fatalf("Compile failed: %v\n%v", err, res.Diagnostics.All())
	}

	// 4. Check the class
	for _, want := range []string{
		"class Sample extends BstStyle {",
		`"jan": "January",`,
		"int output_state = 0",
		`String s = ""`,
		"void init_state_consts() {",
		"String output_nonnull(",
		"while (n < 3) {",
		`= purify(entry.get("author"))`,
		`entry.set("sort.key\$", v`,
		"    void run() {",
		"iterate { presort() }",
		"        sort()",
		"count_to_three()",
	} {
		if !strings.Contains(res.Groovy, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, res.Groovy)
		}
	}

	// call.type$ can reach any function, so nothing is dead.
	if len(res.Dead) != 0 {
		t.Errorf("expected no dead functions, got %v", res.Dead)
	}
	if !strings.Contains(res.Groovy, "void unused() {") {
		t.Errorf("expected unused to be kept while call.type$ is reachable")
	}
}

func TestEndToEndExample(t *testing.T) {
	src := `
INTEGERS { x }
FUNCTION {add} { + }
FUNCTION {main} { #1 #2 add 'x := }
EXECUTE {main}
`
	res, err := compiler.Compile(src, compiler.Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v\n%v", err, res.Diagnostics.All())
	}
	var body string
	for _, u := range res.Units {
		if u.Name == "main" {
			body = code.Render(u.Body)
		}
	}
	want := "int v1 = add(1, 2)\nx = v1"
	if body != want {
		t.Errorf("expected main body:\n%s\ngot:\n%s", want, body)
	}
}
