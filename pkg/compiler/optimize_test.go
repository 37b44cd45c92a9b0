package compiler

import (
	"sort"
	"strings"
	"testing"

	"bstgroovy/pkg/bst"
)

func TestLiveFunctions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		live []string // nil: every function
	}{
		{
			name: "Transitive",
			src: `FUNCTION {a} { b }
FUNCTION {b} { #1 { c } { } if$ }
FUNCTION {c} { }
FUNCTION {unused} { a }
EXECUTE {a}`,
			live: []string{"a", "b", "c"},
		},
		{
			name: "NoRuns",
			src:  `FUNCTION {a} { }`,
			live: []string{},
		},
		{
			name: "CallType",
			src: `FUNCTION {article} { }
FUNCTION {book} { }
ITERATE {call.type$}`,
		},
		{
			name: "CallTypeInBody",
			src: `FUNCTION {article} { }
FUNCTION {dispatch} { call.type$ }
ITERATE {dispatch}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := bst.ParseSource(tt.src)
			if err != nil {
				t.Fatalf("ParseSource failed: %v", err)
			}
			live := liveFunctions(file)
			if tt.live == nil {
				if live != nil {
					t.Errorf("expected every function to be live, got %v", live)
				}
				return
			}
			var got []string
			for name := range live {
				got = append(got, name)
			}
			sort.Strings(got)
			if strings.Join(got, " ") != strings.Join(tt.live, " ") {
				t.Errorf("expected live %v, got %v", tt.live, got)
			}
		})
	}
}

func TestEliminateDead(t *testing.T) {
	src := `FUNCTION {used} { }
FUNCTION {unused} { }
EXECUTE {used}`
	res, err := Compile(src, Options{EliminateDead: true})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(res.Units) != 1 || res.Units[0].Name != "used" {
		t.Errorf("expected only the used function, got %d units", len(res.Units))
	}
	if len(res.Dead) != 1 || res.Dead[0] != "unused" {
		t.Errorf("expected unused to be dead, got %v", res.Dead)
	}
	if strings.Contains(res.Groovy, "void unused()") {
		t.Errorf("expected no method for unused, got:\n%s", res.Groovy)
	}
}
