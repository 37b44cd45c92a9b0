package bst

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds a
// File.
//
// Grammar:
//
//	file     = command* EOF
//	command  = "entry" list list list
//	         | ("integers" | "strings") list
//	         | "macro" name "{" STRING "}"
//	         | "function" name block
//	         | ("execute" | "iterate" | "reverse") name
//	         | "read" | "sort"
//	list     = "{" IDENTIFIER* "}"
//	name     = "{" IDENTIFIER "}"
//	block    = "{" item* "}"
//	item     = INTEGER | STRING | QUOTE | IDENTIFIER | block
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Line - 1 // Lines are 1-based

	snippet := "<source unavailable>"
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return fmt.Errorf("line %d: %s\n  |> %s", tok.Line, msg, snippet)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

// parseList parses "{" IDENTIFIER* "}".
func (p *Parser) parseList() ([]string, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	names := []string{}
	for p.peek().Type == IDENTIFIER {
		names = append(names, p.advance().Lexeme)
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return names, nil
}

// parseName parses a list holding exactly one name.
func (p *Parser) parseName(cmd Token) (string, error) {
	names, err := p.parseList()
	if err != nil {
		return "", err
	}
	if len(names) != 1 {
		return "", p.fmtError(cmd, "%s expects exactly one name, got %d", strings.ToUpper(cmd.Lexeme), len(names))
	}
	return names[0], nil
}

// parseBlock parses "{" item* "}". The opening brace is still current.
func (p *Parser) parseBlock() (*Block, error) {
	open, err := p.expect(LBRACE)
	if err != nil {
		return nil, err
	}
	block := &Block{Items: []Item{}, Line: open.Line}
	for {
		tok := p.peek()
		switch tok.Type {
		case RBRACE:
			p.advance()
			return block, nil
		case EOF:
			return nil, p.fmtError(open, "unterminated block")
		case LBRACE:
			inner, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			block.Items = append(block.Items, inner)
		case INTEGER:
			p.advance()
			v, err := strconv.Atoi(tok.Lexeme)
			if err != nil {
				return nil, p.fmtError(tok, "invalid integer #%s", tok.Lexeme)
			}
			block.Items = append(block.Items, &IntLit{Value: v, Line: tok.Line})
		case STRING:
			p.advance()
			block.Items = append(block.Items, &StrLit{Value: tok.Lexeme, Line: tok.Line})
		case QUOTE:
			p.advance()
			block.Items = append(block.Items, &Quote{Name: tok.Lexeme, Line: tok.Line})
		case IDENTIFIER:
			p.advance()
			block.Items = append(block.Items, &Name{Name: tok.Lexeme, Line: tok.Line})
		}
	}
}

func (p *Parser) parseCommand() (Command, error) {
	tok := p.advance()
	if tok.Type != IDENTIFIER {
		return nil, p.fmtError(tok, "expected a command, got %s (%q)", tok.Type, tok.Lexeme)
	}

	switch tok.Lexeme {
	case "entry":
		fields, err := p.parseList()
		if err != nil {
			return nil, err
		}
		ints, err := p.parseList()
		if err != nil {
			return nil, err
		}
		strs, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &Entry{Fields: fields, Integers: ints, Strings: strs, Line: tok.Line}, nil

	case "integers":
		names, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &Integers{Names: names, Line: tok.Line}, nil

	case "strings":
		names, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &Strings{Names: names, Line: tok.Line}, nil

	case "macro":
		name, err := p.parseName(tok)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(LBRACE); err != nil {
			return nil, err
		}
		val, err := p.expect(STRING)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACE); err != nil {
			return nil, err
		}
		return &Macro{Name: name, Value: val.Lexeme, Line: tok.Line}, nil

	case "function":
		name, err := p.parseName(tok)
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &Function{Name: name, Body: body, Line: tok.Line}, nil

	case "execute", "iterate", "reverse":
		name, err := p.parseName(tok)
		if err != nil {
			return nil, err
		}
		return &Run{Mode: strings.ToUpper(tok.Lexeme), Func: name, Line: tok.Line}, nil

	case "read":
		return &Read{Line: tok.Line}, nil

	case "sort":
		return &Sort{Line: tok.Line}, nil
	}
	return nil, p.fmtError(tok, "unknown command %q", tok.Lexeme)
}

// Parse builds a File from tokens. rawSource is used for error snippets.
func Parse(tokens []Token, rawSource string) (*File, error) {
	p := NewParser(tokens, rawSource)
	file := &File{}
	for p.peek().Type != EOF {
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		file.Commands = append(file.Commands, cmd)
	}
	return file, nil
}

// ParseSource lexes and parses src in one step.
func ParseSource(src string) (*File, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, src)
}
