package compiler

import (
	"strings"
	"testing"
)

const sampleStyle = `
ENTRY { title } { len } { label }
INTEGERS { count }
STRINGS { s }
MACRO {jan} {"January"}

FUNCTION {inc} { count #1 + 'count := }
FUNCTION {show} { title write$ newline$ }

READ
EXECUTE {inc}
ITERATE {show}
SORT
REVERSE {show}
`

func TestGenerate(t *testing.T) {
	res, err := Compile(sampleStyle, Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	expected := `class Style extends BstStyle {
    static final Map<String, String> MACROS = [
        "jan": "January",
    ]
    static final List<String> FIELDS = ["crossref", "title"]
    static final List<String> ENTRY_INTEGERS = ["len"]
    static final List<String> ENTRY_STRINGS = ["sort.key\$", "label"]

    int count = 0
    String s = ""

    // FUNCTION {inc}
    void inc() {
        int v1 = (count + 1)
        count = v1
    }

    // FUNCTION {show}
    void show() {
        write(entry.get("title"))
        newline()
    }

    void run() {
        read()
        inc()
        iterate { show() }
        sort()
        reverse { show() }
    }
}
`
	if res.Groovy != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, res.Groovy)
	}
}

func TestGenerateEmpty(t *testing.T) {
	res, err := Compile(``, Options{ClassName: "Plain"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.HasPrefix(res.Groovy, "class Plain extends BstStyle {\n") {
		t.Errorf("expected class Plain, got:\n%s", res.Groovy)
	}
	if !strings.Contains(res.Groovy, "MACROS = [:]") {
		t.Errorf("expected an empty macro map, got:\n%s", res.Groovy)
	}
	if !strings.Contains(res.Groovy, "    void run() {\n    }\n") {
		t.Errorf("expected an empty run method, got:\n%s", res.Groovy)
	}
}

func TestGenerateSignatures(t *testing.T) {
	src := `FUNCTION {plus} { + }
FUNCTION {greet} { "hello" }
FUNCTION {type.name} { type$ }
EXECUTE {greet}`
	res, err := Compile(src, Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for _, want := range []string{
		"    int plus(int v2, int v1) {\n        return (v2 + v1)\n    }\n",
		"    String greet() {\n        return \"hello\"\n    }\n",
		"    String type_name() {\n        return type()\n    }\n",
		"        greet()\n",
	} {
		if !strings.Contains(res.Groovy, want) {
			t.Errorf("expected output to contain:\n%s\ngot:\n%s", want, res.Groovy)
		}
	}

	warned := false
	for _, d := range res.Diagnostics.All() {
		if d.Severity == SeverityWarning && strings.Contains(d.Message, "discarded") {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning about the discarded result of greet")
	}
}

func TestGenerateBuiltinRun(t *testing.T) {
	res, err := Compile(`ITERATE {call.type$} EXECUTE {skip$}`, Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.Contains(res.Groovy, "        iterate { callType() }\n") {
		t.Errorf("expected iterate { callType() }, got:\n%s", res.Groovy)
	}
	if len(res.Steps) != 1 {
		t.Errorf("expected skip$ to add no step, got %d steps", len(res.Steps))
	}
}
