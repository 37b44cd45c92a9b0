package bst

import (
	"reflect"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Braces",
			input: "{ } {}",
			expected: []Token{
				{Type: LBRACE, Lexeme: "{", Line: 1},
				{Type: RBRACE, Lexeme: "}", Line: 1},
				{Type: LBRACE, Lexeme: "{", Line: 1},
				{Type: RBRACE, Lexeme: "}", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Integers",
			input: "#0 #42 #-7 #+3",
			expected: []Token{
				{Type: INTEGER, Lexeme: "0", Line: 1},
				{Type: INTEGER, Lexeme: "42", Line: 1},
				{Type: INTEGER, Lexeme: "-7", Line: 1},
				{Type: INTEGER, Lexeme: "3", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "NamesAreLowerCased",
			input: "FUNCTION {Format.Names} add.period$ := > 'Label",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "function", Line: 1},
				{Type: LBRACE, Lexeme: "{", Line: 1},
				{Type: IDENTIFIER, Lexeme: "format.names", Line: 1},
				{Type: RBRACE, Lexeme: "}", Line: 1},
				{Type: IDENTIFIER, Lexeme: "add.period$", Line: 1},
				{Type: IDENTIFIER, Lexeme: ":=", Line: 1},
				{Type: IDENTIFIER, Lexeme: ">", Line: 1},
				{Type: QUOTE, Lexeme: "label", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "StringsKeepCase",
			input: `"Hello, {World}" ""`,
			expected: []Token{
				{Type: STRING, Lexeme: "Hello, {World}", Line: 1},
				{Type: STRING, Lexeme: "", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "CommentsAndLines",
			input: "% a comment\nread % trailing\n\nsort",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "read", Line: 2},
				{Type: IDENTIFIER, Lexeme: "sort", Line: 4},
				{Type: EOF, Lexeme: "", Line: 4},
			},
		},
		{
			name:  "NameStopsAtBrace",
			input: "{skip$}",
			expected: []Token{
				{Type: LBRACE, Lexeme: "{", Line: 1},
				{Type: IDENTIFIER, Lexeme: "skip$", Line: 1},
				{Type: RBRACE, Lexeme: "}", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{name: "UnterminatedString", input: "\"abc\ndef\"", wantErr: true},
		{name: "BareHash", input: "# 1", wantErr: true},
		{name: "HashWithLetters", input: "#12ab", wantErr: true},
		{name: "EmptyQuote", input: "' x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lex() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex() mismatch\nexpected: %v\ngot:      %v", tt.expected, got)
			}
		})
	}
}
