package bst

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	LBRACE // {
	RBRACE // }

	INTEGER    // #42, #-1
	STRING     // "..."
	QUOTE      // 'name
	IDENTIFIER // name, including operators such as := and +
)

var tokenNames = [...]string{
	EOF:        "EOF",
	LBRACE:     "{",
	RBRACE:     "}",
	INTEGER:    "INTEGER",
	STRING:     "STRING",
	QUOTE:      "QUOTE",
	IDENTIFIER: "IDENTIFIER",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a single lexical unit. Lexeme holds the literal text without
// its sigil: the digits of #42, the body of "..." and the name of 'x.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, line %d)", t.Type, t.Lexeme, t.Line)
}
