package bst

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipComment discards a % comment up to end-of-line.
func (l *Lexer) skipComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// isNameRune reports whether r may appear in a name. Names run until
// whitespace, a brace, a comment or a string delimiter.
func isNameRune(r rune) bool {
	if r == 0 || unicode.IsSpace(r) {
		return false
	}
	switch r {
	case '{', '}', '%', '"', '#', '\'':
		return false
	}
	return true
}

// scanName collects a run of name runes. Names are case-insensitive and
// stored lower-cased.
func (l *Lexer) scanName() string {
	start := l.pos
	for l.pos < len(l.src) && isNameRune(l.peek()) {
		l.advance()
	}
	return strings.ToLower(string(l.src[start:l.pos]))
}

// scanInt collects #[+-]digits. The '#' must already be consumed.
func (l *Lexer) scanInt(line int) (Token, error) {
	start := l.pos
	if l.peek() == '+' || l.peek() == '-' {
		l.advance()
	}
	digits := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.pos == digits {
		return Token{}, fmt.Errorf("malformed integer literal on line %d", line)
	}
	if isNameRune(l.peek()) {
		return Token{}, fmt.Errorf("malformed integer literal #%s%c on line %d",
			string(l.src[start:l.pos]), l.peek(), line)
	}
	lexeme := strings.TrimPrefix(string(l.src[start:l.pos]), "+")
	return Token{Type: INTEGER, Lexeme: lexeme, Line: line}, nil
}

// scanString collects a string literal "...". BST strings have no escape
// sequences and may not span lines.
func (l *Lexer) scanString() (Token, error) {
	line := l.line
	l.advance() // consume opening "
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if r == '"' {
			val := string(l.src[start:l.pos])
			l.advance() // consume closing "
			return Token{Type: STRING, Lexeme: val, Line: line}, nil
		}
		if r == '\n' {
			break
		}
		l.advance()
	}
	return Token{}, fmt.Errorf("unterminated string literal on line %d", line)
}

func (l *Lexer) nextToken() (Token, error) {
	for {
		l.skipWhitespace()
		if l.peek() != '%' {
			break
		}
		l.skipComment()
	}

	line := l.line
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Line: line}, nil
	}

	switch r := l.peek(); r {
	case '{':
		l.advance()
		return Token{Type: LBRACE, Lexeme: "{", Line: line}, nil
	case '}':
		l.advance()
		return Token{Type: RBRACE, Lexeme: "}", Line: line}, nil
	case '"':
		return l.scanString()
	case '#':
		l.advance()
		return l.scanInt(line)
	case '\'':
		l.advance()
		name := l.scanName()
		if name == "" {
			return Token{}, fmt.Errorf("quote without a name on line %d", line)
		}
		return Token{Type: QUOTE, Lexeme: name, Line: line}, nil
	default:
		return Token{Type: IDENTIFIER, Lexeme: l.scanName(), Line: line}, nil
	}
}

// Lex converts BST source text into a flat slice of tokens ending with EOF.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
